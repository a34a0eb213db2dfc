package store

import (
	"sort"
	"strings"

	"unostat-app/internal/model"
)

type Store interface {
	ListPlayers() []model.Player
	GetPlayer(id string) (model.Player, bool)
	GetPlayerByName(name string) (model.Player, bool)
	CreatePlayer(player model.Player) (model.Player, error)
	FindOrCreatePlayerByName(name string) (model.Player, error)

	ListSeasons() []model.Season
	GetSeason(id string) (model.Season, bool)
	GetSeasonByName(name string) (model.Season, bool)
	CreateSeason(season model.Season) (model.Season, error)
	RenameSeason(id, name string) (model.Season, error)
	DeleteSeason(id string) error

	// ListMatches returns the matches of one season, or of every season when seasonID is empty.
	ListMatches(seasonID string) []model.Match
	ListMatchesByPlayer(playerID string) []model.Match
	GetMatch(id string) (model.Match, bool)
	CreateMatch(match model.Match) (model.Match, error)
	UpdateMatch(match model.Match) error
	DeleteMatch(id string) error
	UpsertMatch(match model.Match) (model.Match, error)
}

// newPlayerFromName builds the directory entry used when a player is first seen by name.
func newPlayerFromName(name string) model.Player {
	name = strings.TrimSpace(name)
	handle := strings.ToLower(strings.Join(strings.Fields(name), ""))
	return model.Player{
		Name:      name,
		Email:     handle + "@example.com",
		AvatarURL: "https://picsum.photos/seed/" + name + "/200/200",
		Role:      model.RolePlayer,
	}
}

func sortPlayers(players []model.Player) {
	sort.Slice(players, func(i, j int) bool {
		if players[i].DisplayName() != players[j].DisplayName() {
			return players[i].DisplayName() < players[j].DisplayName()
		}
		return players[i].ID < players[j].ID
	})
}

func sortSeasons(seasons []model.Season) {
	sort.Slice(seasons, func(i, j int) bool { return seasons[i].CreatedAt.After(seasons[j].CreatedAt) })
}

func sortMatches(matches []model.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].PlayedAt.Equal(matches[j].PlayedAt) {
			return matches[i].PlayedAt.After(matches[j].PlayedAt)
		}
		return matches[i].ID < matches[j].ID
	})
}
