package store

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"unostat-app/internal/model"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu      sync.RWMutex
	players map[string]model.Player
	seasons map[string]model.Season
	matches map[string]model.Match
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		players: make(map[string]model.Player),
		seasons: make(map[string]model.Season),
		matches: make(map[string]model.Match),
	}
	if strings.ToLower(strings.TrimSpace(os.Getenv("APP"))) != "prod" {
		seedData(s)
	}

	return s
}

func (s *MemoryStore) ListPlayers() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]model.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	sortPlayers(players)
	return players
}

func (s *MemoryStore) GetPlayer(id string) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	return p, ok
}

func (s *MemoryStore) GetPlayerByName(name string) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.playerByNameLocked(name)
}

func (s *MemoryStore) playerByNameLocked(name string) (model.Player, bool) {
	name = strings.TrimSpace(name)
	for _, p := range s.players {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p, true
		}
	}
	return model.Player{}, false
}

func (s *MemoryStore) CreatePlayer(player model.Player) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createPlayerLocked(player)
}

func (s *MemoryStore) createPlayerLocked(player model.Player) (model.Player, error) {
	if strings.TrimSpace(player.Name) == "" {
		return model.Player{}, model.ErrPlayerNameRequired
	}
	if player.ID == "" {
		player.ID = uuid.NewString()
	}
	if player.Role == "" {
		player.Role = model.RolePlayer
	}
	s.players[player.ID] = player
	return player, nil
}

func (s *MemoryStore) FindOrCreatePlayerByName(name string) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.playerByNameLocked(name); ok {
		return p, nil
	}
	return s.createPlayerLocked(newPlayerFromName(name))
}

func (s *MemoryStore) ListSeasons() []model.Season {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seasons := make([]model.Season, 0, len(s.seasons))
	for _, season := range s.seasons {
		seasons = append(seasons, season)
	}
	sortSeasons(seasons)
	return seasons
}

func (s *MemoryStore) GetSeason(id string) (model.Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	season, ok := s.seasons[id]
	return season, ok
}

func (s *MemoryStore) GetSeasonByName(name string) (model.Season, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.seasonByNameLocked(name)
}

func (s *MemoryStore) seasonByNameLocked(name string) (model.Season, bool) {
	name = strings.TrimSpace(name)
	for _, season := range s.seasons {
		if strings.EqualFold(season.Name, name) {
			return season, true
		}
	}
	return model.Season{}, false
}

func (s *MemoryStore) CreateSeason(season model.Season) (model.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	season.Name = strings.TrimSpace(season.Name)
	if err := model.ValidateSeasonName(season.Name); err != nil {
		return model.Season{}, err
	}
	if _, taken := s.seasonByNameLocked(season.Name); taken {
		return model.Season{}, model.ErrSeasonNameTaken
	}
	if season.ID == "" {
		season.ID = uuid.NewString()
	}
	if season.CreatedAt.IsZero() {
		season.CreatedAt = time.Now()
	}
	s.seasons[season.ID] = season
	return season, nil
}

func (s *MemoryStore) RenameSeason(id, name string) (model.Season, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	season, ok := s.seasons[id]
	if !ok {
		return model.Season{}, model.ErrSeasonNotFound
	}
	name = strings.TrimSpace(name)
	if err := model.ValidateSeasonName(name); err != nil {
		return model.Season{}, err
	}
	if other, taken := s.seasonByNameLocked(name); taken && other.ID != id {
		return model.Season{}, model.ErrSeasonNameTaken
	}
	season.Name = name
	s.seasons[id] = season
	return season, nil
}

func (s *MemoryStore) DeleteSeason(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seasons[id]; !ok {
		return model.ErrSeasonNotFound
	}
	for _, m := range s.matches {
		if m.SeasonID == id {
			return model.ErrSeasonHasMatches
		}
	}
	delete(s.seasons, id)
	return nil
}

func (s *MemoryStore) ListMatches(seasonID string) []model.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.Match, 0)
	for _, m := range s.matches {
		if seasonID == "" || m.SeasonID == seasonID {
			matches = append(matches, m)
		}
	}
	sortMatches(matches)
	return matches
}

func (s *MemoryStore) ListMatchesByPlayer(playerID string) []model.Match {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]model.Match, 0)
	for _, m := range s.matches {
		if m.HasPlayer(playerID) {
			matches = append(matches, m)
		}
	}
	sortMatches(matches)
	return matches
}

func (s *MemoryStore) GetMatch(id string) (model.Match, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[id]
	return m, ok
}

func (s *MemoryStore) CreateMatch(match model.Match) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seasons[match.SeasonID]; !ok {
		return model.Match{}, model.ErrSeasonNotFound
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if _, exists := s.matches[match.ID]; exists {
		return model.Match{}, fmt.Errorf("match %s: %w", match.ID, model.ErrMatchExists)
	}
	stampMatch(&match)
	s.matches[match.ID] = match
	return match, nil
}

func (s *MemoryStore) UpdateMatch(match model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.matches[match.ID]
	if !ok {
		return model.ErrMatchNotFound
	}
	if _, ok := s.seasons[match.SeasonID]; !ok {
		return model.ErrSeasonNotFound
	}
	match.CreatedAt = existing.CreatedAt
	stampMatch(&match)
	s.matches[match.ID] = match
	return nil
}

func (s *MemoryStore) DeleteMatch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[id]; !ok {
		return model.ErrMatchNotFound
	}
	delete(s.matches, id)
	return nil
}

func (s *MemoryStore) UpsertMatch(match model.Match) (model.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seasons[match.SeasonID]; !ok {
		return model.Match{}, model.ErrSeasonNotFound
	}
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if existing, ok := s.matches[match.ID]; ok {
		match.CreatedAt = existing.CreatedAt
	}
	stampMatch(&match)
	s.matches[match.ID] = match
	return match, nil
}

func stampMatch(match *model.Match) {
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now()
	}
	if match.PlayedAt.IsZero() {
		match.PlayedAt = match.CreatedAt
	}
}

func seedData(s *MemoryStore) {
	seedPlayers := []model.Player{
		{ID: "1", Name: "Alice", Role: model.RoleAdmin},
		{ID: "2", Name: "Bob"},
		{ID: "3", Name: "Charlie"},
		{ID: "4", Name: "Diana"},
		{ID: "5", Name: "Eve"},
	}
	for i, p := range seedPlayers {
		p.Email = strings.ToLower(p.Name) + "@example.com"
		p.AvatarURL = fmt.Sprintf("https://picsum.photos/seed/avatar%d/200/200", i+1)
		if p.Role == "" {
			p.Role = model.RolePlayer
		}
		s.players[p.ID] = p
	}

	season := model.Season{
		ID:        "championship1",
		Name:      "Summer Season 2024",
		CreatedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	}
	s.seasons[season.ID] = season

	finishOrders := [][]string{
		{"1", "2", "3", "4"},
		{"2", "4", "1", "3"},
		{"3", "1", "2", "4"},
		{"4", "3", "1", "2"},
		{"1", "4", "3", "5"},
	}
	pointsByRank := []int{100, 50, 25, 10}
	for i, order := range finishOrders {
		playedAt := time.Date(2024, 7, 20+i, 19, 0, 0, 0, time.UTC)
		match := model.Match{
			ID:        fmt.Sprintf("match%d", i+1),
			Name:      "Game Night " + playedAt.Format("02/01/2006"),
			SeasonID:  season.ID,
			PlayedAt:  playedAt,
			CreatedAt: playedAt,
		}
		for rank, playerID := range order {
			match.Participants = append(match.Participants, model.Participation{
				PlayerID: playerID,
				Rank:     rank + 1,
				Points:   pointsByRank[rank],
			})
		}
		s.matches[match.ID] = match
	}
}
