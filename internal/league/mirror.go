package league

import (
	"context"
	"fmt"
	"time"

	"unostat-app/internal/model"
)

const mirrorTimeout = 15 * time.Second

// Mirror receives local changes for a remote copy of the league. Failures are logged and
// never undo the local change.
type Mirror interface {
	MatchID(season model.Season, matchName string) string
	SeasonCreated(ctx context.Context, season model.Season) error
	SeasonRenamed(ctx context.Context, previous, current model.Season) error
	SeasonDeleted(ctx context.Context, season model.Season) error
	MatchRecorded(ctx context.Context, season model.Season, match model.Match, players map[string]model.Player) error
	MatchDeleted(ctx context.Context, season model.Season, match model.Match) error
}

func (s *Service) SetMirror(m Mirror) {
	s.mirror = m
}

func (s *Service) mirrorChange(op string, fn func(ctx context.Context, m Mirror) error) {
	if s.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := fn(ctx, s.mirror); err != nil {
		s.logger.Warn("remote mirror failed", "op", op, "error", err)
	}
}

func (s *Service) mirrorMatchRecorded(match model.Match) {
	s.mirrorChange("record match", func(ctx context.Context, m Mirror) error {
		season, ok := s.store.GetSeason(match.SeasonID)
		if !ok {
			return fmt.Errorf("season %s: %w", match.SeasonID, model.ErrSeasonNotFound)
		}
		players := make(map[string]model.Player, len(match.Participants))
		for _, p := range match.Participants {
			if player, ok := s.store.GetPlayer(p.PlayerID); ok {
				players[player.ID] = player
			}
		}
		return m.MatchRecorded(ctx, season, match, players)
	})
}

func (s *Service) mirrorMatchDeleted(match model.Match) {
	s.mirrorChange("delete match", func(ctx context.Context, m Mirror) error {
		season, ok := s.store.GetSeason(match.SeasonID)
		if !ok {
			return fmt.Errorf("season %s: %w", match.SeasonID, model.ErrSeasonNotFound)
		}
		return m.MatchDeleted(ctx, season, match)
	})
}

// replaceMatch stores next over existing. With a mirror the match ID follows the remote
// identity, so a renamed or moved match is stored under its new ID.
func (s *Service) replaceMatch(existing, next model.Match) (model.Match, error) {
	if s.mirror != nil {
		season, _ := s.store.GetSeason(next.SeasonID)
		if id := s.mirror.MatchID(season, next.Name); id != existing.ID {
			next.ID = id
			next.CreatedAt = existing.CreatedAt
			created, err := s.store.CreateMatch(next)
			if err != nil {
				return model.Match{}, fmt.Errorf("updating match: %w", err)
			}
			if err := s.store.DeleteMatch(existing.ID); err != nil {
				return model.Match{}, fmt.Errorf("updating match: %w", err)
			}
			return created, nil
		}
	}
	if err := s.store.UpdateMatch(next); err != nil {
		return model.Match{}, fmt.Errorf("updating match: %w", err)
	}
	updated, _ := s.store.GetMatch(next.ID)
	return updated, nil
}
