package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"unostat-app/internal/model"
)

var ErrInvalidEvent = errors.New("invalid match event")

// MatchEvent is the payload published on the match results topic.
type MatchEvent struct {
	SeasonID     string             `json:"season_id"`
	Name         string             `json:"name"`
	PlayedAt     time.Time          `json:"played_at"`
	Participants []ParticipantEvent `json:"participants"`
}

// ParticipantEvent names a player by ID, or by name when the producer does not know the ID.
type ParticipantEvent struct {
	PlayerID   string `json:"player_id,omitempty"`
	PlayerName string `json:"player_name,omitempty"`
	Rank       int    `json:"rank"`
	Points     int    `json:"points"`
}

// PlayerResolver maps a player name to a directory entry, creating it when needed.
type PlayerResolver interface {
	FindOrCreatePlayerByName(name string) (model.Player, error)
}

func Decode(value []byte) (MatchEvent, error) {
	var event MatchEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return MatchEvent{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if strings.TrimSpace(event.SeasonID) == "" || len(event.Participants) == 0 {
		return MatchEvent{}, fmt.Errorf("%w: season and participants are required", ErrInvalidEvent)
	}
	return event, nil
}

// ToMatch resolves participants into a match ready to be recorded.
func (e MatchEvent) ToMatch(players PlayerResolver) (model.Match, error) {
	match := model.Match{
		Name:         e.Name,
		SeasonID:     e.SeasonID,
		PlayedAt:     e.PlayedAt,
		Participants: make([]model.Participation, 0, len(e.Participants)),
	}
	for i, p := range e.Participants {
		playerID := strings.TrimSpace(p.PlayerID)
		if playerID == "" {
			if strings.TrimSpace(p.PlayerName) == "" {
				return model.Match{}, fmt.Errorf("%w: participant %d has neither id nor name", ErrInvalidEvent, i)
			}
			player, err := players.FindOrCreatePlayerByName(p.PlayerName)
			if err != nil {
				return model.Match{}, fmt.Errorf("resolving player %q: %w", p.PlayerName, err)
			}
			playerID = player.ID
		}
		match.Participants = append(match.Participants, model.Participation{
			PlayerID: playerID,
			Rank:     p.Rank,
			Points:   p.Points,
		})
	}
	return match, nil
}
