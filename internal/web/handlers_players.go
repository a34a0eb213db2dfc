package web

import (
	"net/http"

	"unostat-app/internal/league"
)

func (s *Server) handlePlayerList(w http.ResponseWriter, r *http.Request) {
	s.writeSuccess(w, http.StatusOK, s.league.ListPlayers())
}

func (s *Server) handlePlayerShow(w http.ResponseWriter, r *http.Request) {
	scope := r.URL.Query().Get("season")
	if scope == "" {
		scope = league.AllSeasons
	}
	profile, err := s.league.PlayerProfile(urlParam(r, "playerID"), scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, profile)
}
