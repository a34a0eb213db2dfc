package web

import (
	"net/http"
	"strings"
)

func (s *Server) handleSeasonList(w http.ResponseWriter, r *http.Request) {
	s.writeSuccess(w, http.StatusOK, s.league.ListSeasons())
}

func (s *Server) handleSeasonCreate(w http.ResponseWriter, r *http.Request) {
	var req seasonRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.league.CreateSeason(strings.TrimSpace(req.Name))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("season created", "season_id", season.ID, "name", season.Name)
	s.writeSuccess(w, http.StatusCreated, season)
}

func (s *Server) handleSeasonRename(w http.ResponseWriter, r *http.Request) {
	var req seasonRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	season, err := s.league.RenameSeason(urlParam(r, "seasonID"), strings.TrimSpace(req.Name))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, season)
}

func (s *Server) handleSeasonDelete(w http.ResponseWriter, r *http.Request) {
	seasonID := urlParam(r, "seasonID")
	if err := s.league.DeleteSeason(seasonID); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("season deleted", "season_id", seasonID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSeasonMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := s.league.ListMatches(urlParam(r, "seasonID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, matches)
}

func (s *Server) handleSeasonExport(w http.ResponseWriter, r *http.Request) {
	result, err := s.league.ExportStandings(r.Context(), urlParam(r, "seasonID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, result)
}
