package scoring

import (
	"context"
	"fmt"

	"unostat-app/internal/model"
)

// Mirror forwards local season and match changes to the scoring API. Remote seasons are
// addressed by name, games by season and game name.
type Mirror struct {
	client *Client
}

func NewMirror(client *Client) *Mirror {
	return &Mirror{client: client}
}

// MatchID returns the ID a game gets when the sync worker imports it back.
func (m *Mirror) MatchID(season model.Season, matchName string) string {
	return MatchID(season.ID, matchName)
}

func (m *Mirror) SeasonCreated(ctx context.Context, season model.Season) error {
	_, err := m.client.CreateSeason(ctx, season.Name)
	return err
}

func (m *Mirror) SeasonRenamed(ctx context.Context, previous, current model.Season) error {
	if previous.Name == current.Name {
		return nil
	}
	return m.client.RenameSeason(ctx, previous.Name, current.Name)
}

func (m *Mirror) SeasonDeleted(ctx context.Context, season model.Season) error {
	return m.client.DeleteSeason(ctx, season.Name)
}

// MatchRecorded sends the match as a game. players must hold every participant.
func (m *Mirror) MatchRecorded(ctx context.Context, season model.Season, match model.Match, players map[string]model.Player) error {
	results := make([]Result, 0, len(match.Participants))
	for _, p := range match.Participants {
		player, ok := players[p.PlayerID]
		if !ok {
			return fmt.Errorf("player %s: %w", p.PlayerID, model.ErrPlayerNotFound)
		}
		results = append(results, Result{Name: player.DisplayName(), Rank: p.Rank, Points: p.Points})
	}
	return m.client.AddGame(ctx, season.Name, NewGame(match.Name, results))
}

func (m *Mirror) MatchDeleted(ctx context.Context, season model.Season, match model.Match) error {
	return m.client.DeleteGame(ctx, season.Name, match.Name)
}
