package web

import (
	"net/http"
)

func (s *Server) handleMatchCreate(w http.ResponseWriter, r *http.Request) {
	var req matchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	match, err := req.toMatch("", urlParam(r, "seasonID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.league.RecordMatch(match)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusCreated, created)
}

func (s *Server) handleMatchShow(w http.ResponseWriter, r *http.Request) {
	match, err := s.league.GetMatch(urlParam(r, "matchID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, match)
}

// handleMatchUpdate replaces a match. A missing seasonId keeps the current season.
func (s *Server) handleMatchUpdate(w http.ResponseWriter, r *http.Request) {
	matchID := urlParam(r, "matchID")
	existing, err := s.league.GetMatch(matchID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req matchRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.SeasonID == "" {
		req.SeasonID = existing.SeasonID
	}
	match, err := req.toMatch(matchID, "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	updated, err := s.league.UpdateMatch(match)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, updated)
}

func (s *Server) handleMatchDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.league.DeleteMatch(urlParam(r, "matchID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
