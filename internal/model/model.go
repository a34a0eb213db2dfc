package model

import (
	"strings"
	"time"
)

type PlayerRole string

const (
	RoleAdmin  PlayerRole = "admin"
	RolePlayer PlayerRole = "player"
)

type Player struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Role      PlayerRole `json:"role"`
}

func (p Player) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return p.ID
}

// Season groups matches into one championship.
type Season struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Participation struct {
	PlayerID string `json:"playerId"`
	Rank     int    `json:"rank"`
	Points   int    `json:"points"`
}

type Match struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	SeasonID     string          `json:"seasonId"`
	PlayedAt     time.Time       `json:"playedAt"`
	Participants []Participation `json:"participants"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (m Match) Participation(playerID string) (Participation, bool) {
	for _, p := range m.Participants {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return Participation{}, false
}

func (m Match) HasPlayer(playerID string) bool {
	_, ok := m.Participation(playerID)
	return ok
}
