package web

import (
	"fmt"
	"strings"
	"time"

	"unostat-app/internal/model"
)

var playedAtLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parsePlayedAt accepts RFC 3339, a datetime-local value or a bare date. An empty value
// yields the zero time.
func parsePlayedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range playedAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid playedAt %q", errBadRequest, value)
}

func (req matchRequest) toMatch(id, seasonID string) (model.Match, error) {
	playedAt, err := parsePlayedAt(req.PlayedAt)
	if err != nil {
		return model.Match{}, err
	}
	if seasonID == "" {
		seasonID = strings.TrimSpace(req.SeasonID)
	}
	match := model.Match{
		ID:           id,
		Name:         strings.TrimSpace(req.Name),
		SeasonID:     seasonID,
		PlayedAt:     playedAt,
		Participants: make([]model.Participation, 0, len(req.Participants)),
	}
	for _, p := range req.Participants {
		match.Participants = append(match.Participants, model.Participation{
			PlayerID: strings.TrimSpace(p.PlayerID),
			Rank:     p.Rank,
			Points:   p.Points,
		})
	}
	return match, nil
}
