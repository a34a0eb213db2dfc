package web

import (
	"fmt"
	"net/http"

	"unostat-app/internal/league"
	"unostat-app/internal/standings"
)

// buildStandingRows attaches display ranks computed on canonical order, then applies the
// requested display sort.
func buildStandingRows(rows []standings.Standing, key standings.SortKey, dir standings.SortDirection) []StandingRow {
	shared := standings.SharedRanks(rows)
	displayRank := make(map[string]int, len(rows))
	for i, row := range rows {
		displayRank[row.Player.ID] = shared[i]
	}

	sorted := standings.SortForDisplay(rows, key, dir)
	view := make([]StandingRow, 0, len(sorted))
	for _, row := range sorted {
		view = append(view, StandingRow{Standing: row, DisplayRank: displayRank[row.Player.ID]})
	}
	return view
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	scope := query.Get("season")
	if scope == "" {
		scope = league.AllSeasons
	}
	key, ok := standings.ParseSortKey(query.Get("sort"))
	if !ok {
		s.writeError(w, fmt.Errorf("%w: unknown sort key %q", errBadRequest, query.Get("sort")))
		return
	}
	dir := standings.ParseSortDirection(query.Get("dir"))

	rows, err := s.league.Standings(scope)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, StandingsView{
		Scope: scope,
		Sort:  string(key),
		Dir:   string(dir),
		Rows:  buildStandingRows(rows, key, dir),
	})
}

func (s *Server) handleMatchStandings(w http.ResponseWriter, r *http.Request) {
	rows, err := s.league.MatchStandings(urlParam(r, "matchID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeSuccess(w, http.StatusOK, buildStandingRows(rows, standings.SortByRank, standings.Ascending))
}
