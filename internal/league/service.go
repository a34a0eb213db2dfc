package league

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"unostat-app/internal/model"
	"unostat-app/internal/standings"
	"unostat-app/internal/store"
)

// AllSeasons is the scope covering every recorded match.
const AllSeasons = model.ScopeAll

var ErrExportDisabled = errors.New("standings export is not configured")

// Notifier receives fresh standings after the matches of a scope change.
type Notifier interface {
	BroadcastStandings(scope string, rows []standings.Standing)
}

// Exporter stores a standings snapshot under key and returns its public URL.
type Exporter interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}

type Service struct {
	store    store.Store
	notifier Notifier
	exporter Exporter
	mirror   Mirror
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *Service) SetExporter(e Exporter) {
	s.exporter = e
}

func isAll(scope string) bool {
	scope = strings.TrimSpace(scope)
	return scope == "" || strings.EqualFold(scope, AllSeasons)
}

func (s *Service) matchesInScope(scope string) ([]model.Match, error) {
	if isAll(scope) {
		return s.store.ListMatches(""), nil
	}
	if _, ok := s.store.GetSeason(scope); !ok {
		return nil, fmt.Errorf("season %s: %w", scope, model.ErrSeasonNotFound)
	}
	return s.store.ListMatches(scope), nil
}

// Standings ranks every player with a game in scope, a season ID or AllSeasons.
func (s *Service) Standings(scope string) ([]standings.Standing, error) {
	matches, err := s.matchesInScope(scope)
	if err != nil {
		return nil, err
	}
	return standings.Compute(matches, s.store.ListPlayers()), nil
}

// MatchStandings ranks the participants of a single match.
func (s *Service) MatchStandings(matchID string) ([]standings.Standing, error) {
	match, ok := s.store.GetMatch(matchID)
	if !ok {
		return nil, fmt.Errorf("match %s: %w", matchID, model.ErrMatchNotFound)
	}
	return standings.Compute([]model.Match{match}, s.store.ListPlayers()), nil
}

type MatchResult struct {
	Match  model.Match `json:"match"`
	Rank   int         `json:"rank"`
	Points int         `json:"points"`
}

type Profile struct {
	Player   model.Player        `json:"player"`
	Standing *standings.Standing `json:"standing"`
	History  []MatchResult       `json:"history"`
}

// PlayerProfile returns the player's row in scope, nil when they have no game there, and
// their results newest first.
func (s *Service) PlayerProfile(playerID, scope string) (Profile, error) {
	player, ok := s.store.GetPlayer(playerID)
	if !ok {
		return Profile{}, fmt.Errorf("player %s: %w", playerID, model.ErrPlayerNotFound)
	}
	rows, err := s.Standings(scope)
	if err != nil {
		return Profile{}, err
	}
	profile := Profile{Player: player, History: []MatchResult{}}
	if row, ok := standings.Find(rows, playerID); ok {
		profile.Standing = &row
	}
	for _, m := range s.store.ListMatchesByPlayer(playerID) {
		if !isAll(scope) && m.SeasonID != scope {
			continue
		}
		p, _ := m.Participation(playerID)
		profile.History = append(profile.History, MatchResult{Match: m, Rank: p.Rank, Points: p.Points})
	}
	return profile, nil
}

func (s *Service) ListPlayers() []model.Player {
	return s.store.ListPlayers()
}

func (s *Service) ListSeasons() []model.Season {
	return s.store.ListSeasons()
}

func (s *Service) ListMatches(scope string) ([]model.Match, error) {
	return s.matchesInScope(scope)
}

func (s *Service) GetMatch(id string) (model.Match, error) {
	match, ok := s.store.GetMatch(id)
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", id, model.ErrMatchNotFound)
	}
	return match, nil
}

func (s *Service) CreateSeason(name string) (model.Season, error) {
	season, err := s.store.CreateSeason(model.Season{Name: name})
	if err != nil {
		return model.Season{}, err
	}
	s.mirrorChange("create season", func(ctx context.Context, m Mirror) error {
		return m.SeasonCreated(ctx, season)
	})
	return season, nil
}

func (s *Service) RenameSeason(id, name string) (model.Season, error) {
	previous, ok := s.store.GetSeason(id)
	if !ok {
		return model.Season{}, fmt.Errorf("season %s: %w", id, model.ErrSeasonNotFound)
	}
	renamed, err := s.store.RenameSeason(id, name)
	if err != nil {
		return model.Season{}, err
	}
	s.mirrorChange("rename season", func(ctx context.Context, m Mirror) error {
		return m.SeasonRenamed(ctx, previous, renamed)
	})
	return renamed, nil
}

func (s *Service) DeleteSeason(id string) error {
	season, ok := s.store.GetSeason(id)
	if !ok {
		return fmt.Errorf("season %s: %w", id, model.ErrSeasonNotFound)
	}
	if err := s.store.DeleteSeason(id); err != nil {
		return err
	}
	s.mirrorChange("delete season", func(ctx context.Context, m Mirror) error {
		return m.SeasonDeleted(ctx, season)
	})
	return nil
}

func (s *Service) checkEntry(m model.Match) error {
	if err := model.ValidateMatch(m); err != nil {
		return err
	}
	if _, ok := s.store.GetSeason(m.SeasonID); !ok {
		return fmt.Errorf("season %s: %w", m.SeasonID, model.ErrSeasonNotFound)
	}
	for _, p := range m.Participants {
		if _, ok := s.store.GetPlayer(p.PlayerID); !ok {
			return fmt.Errorf("player %s: %w", p.PlayerID, model.ErrPlayerNotFound)
		}
	}
	return nil
}

// RecordMatch validates and stores a new match, then publishes the season's standings.
func (s *Service) RecordMatch(m model.Match) (model.Match, error) {
	if err := s.checkEntry(m); err != nil {
		return model.Match{}, err
	}
	if s.mirror != nil && m.ID == "" {
		season, _ := s.store.GetSeason(m.SeasonID)
		m.ID = s.mirror.MatchID(season, m.Name)
	}
	created, err := s.store.CreateMatch(m)
	if err != nil {
		return model.Match{}, fmt.Errorf("creating match: %w", err)
	}
	s.logger.Info("match recorded", "match_id", created.ID, "season_id", created.SeasonID, "participants", len(created.Participants))
	s.mirrorMatchRecorded(created)
	s.Publish(created.SeasonID)
	return created, nil
}

func (s *Service) UpdateMatch(m model.Match) (model.Match, error) {
	existing, ok := s.store.GetMatch(m.ID)
	if !ok {
		return model.Match{}, fmt.Errorf("match %s: %w", m.ID, model.ErrMatchNotFound)
	}
	if m.PlayedAt.IsZero() {
		m.PlayedAt = existing.PlayedAt
	}
	if err := s.checkEntry(m); err != nil {
		return model.Match{}, err
	}
	updated, err := s.replaceMatch(existing, m)
	if err != nil {
		return model.Match{}, err
	}
	s.logger.Info("match updated", "match_id", updated.ID, "season_id", updated.SeasonID)
	s.mirrorMatchDeleted(existing)
	s.mirrorMatchRecorded(updated)
	s.Publish(m.SeasonID)
	if existing.SeasonID != m.SeasonID {
		s.Publish(existing.SeasonID)
	}
	return updated, nil
}

func (s *Service) DeleteMatch(id string) error {
	existing, ok := s.store.GetMatch(id)
	if !ok {
		return fmt.Errorf("match %s: %w", id, model.ErrMatchNotFound)
	}
	if err := s.store.DeleteMatch(id); err != nil {
		return fmt.Errorf("deleting match: %w", err)
	}
	s.logger.Info("match deleted", "match_id", id, "season_id", existing.SeasonID)
	s.mirrorMatchDeleted(existing)
	s.Publish(existing.SeasonID)
	return nil
}

// Publish pushes the current standings of seasonID and of AllSeasons to the notifier.
func (s *Service) Publish(seasonID string) {
	if s.notifier == nil {
		return
	}
	scopes := []string{AllSeasons}
	if !isAll(seasonID) {
		scopes = append([]string{seasonID}, scopes...)
	}
	for _, scope := range scopes {
		rows, err := s.Standings(scope)
		if err != nil {
			s.logger.Warn("skipping standings broadcast", "scope", scope, "error", err)
			continue
		}
		s.notifier.BroadcastStandings(scope, rows)
	}
}

type Snapshot struct {
	Season      model.Season         `json:"season"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Standings   []standings.Standing `json:"standings"`
}

type ExportResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ExportStandings uploads a JSON snapshot of a season's standings.
func (s *Service) ExportStandings(ctx context.Context, seasonID string) (ExportResult, error) {
	if s.exporter == nil {
		return ExportResult{}, ErrExportDisabled
	}
	season, ok := s.store.GetSeason(seasonID)
	if !ok {
		return ExportResult{}, fmt.Errorf("season %s: %w", seasonID, model.ErrSeasonNotFound)
	}
	rows, err := s.Standings(seasonID)
	if err != nil {
		return ExportResult{}, err
	}
	snapshot := Snapshot{Season: season, GeneratedAt: s.now().UTC(), Standings: rows}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return ExportResult{}, fmt.Errorf("encoding snapshot: %w", err)
	}
	key := fmt.Sprintf("standings/%s/%d.json", season.ID, snapshot.GeneratedAt.Unix())
	url, err := s.exporter.Put(ctx, key, body)
	if err != nil {
		return ExportResult{}, fmt.Errorf("uploading snapshot: %w", err)
	}
	s.logger.Info("standings exported", "season_id", season.ID, "key", key)
	return ExportResult{Key: key, URL: url}, nil
}
