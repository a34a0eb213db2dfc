package web

import (
	"errors"
	"net/http"

	"unostat-app/internal/league"
	"unostat-app/internal/model"
	"unostat-app/internal/standings"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// StandingRow is a standings row as shown in a table. DisplayRank is shared by rows tied
// on points and on every finish position.
type StandingRow struct {
	standings.Standing
	DisplayRank int `json:"displayRank"`
}

type StandingsView struct {
	Scope string        `json:"scope"`
	Sort  string        `json:"sort"`
	Dir   string        `json:"dir"`
	Rows  []StandingRow `json:"rows"`
}

type seasonRequest struct {
	Name string `json:"name"`
}

type participantRequest struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
}

type matchRequest struct {
	Name         string               `json:"name"`
	SeasonID     string               `json:"seasonId"`
	PlayedAt     string               `json:"playedAt"`
	Participants []participantRequest `json:"participants"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case model.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, model.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case model.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, league.ErrExportDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
