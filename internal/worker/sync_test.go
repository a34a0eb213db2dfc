package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"unostat-app/internal/config"
	"unostat-app/internal/league"
	"unostat-app/internal/scoring"
	"unostat-app/internal/store"
)

type fakeSource struct {
	seasons []scoring.Season
	games   map[string][]scoring.Game
	failing map[string]bool
}

func (f *fakeSource) ListSeasons(context.Context) ([]scoring.Season, error) {
	return f.seasons, nil
}

func (f *fakeSource) ListGames(_ context.Context, season string) ([]scoring.Game, error) {
	if f.failing[season] {
		return nil, errors.New("upstream unavailable")
	}
	return f.games[season], nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	seasons []string
}

func (p *recordingPublisher) Publish(seasonID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seasons = append(p.seasons, seasonID)
}

func newTestWorker(t *testing.T, source Source) (*SyncWorker, *store.MemoryStore, *recordingPublisher) {
	t.Helper()
	t.Setenv("APP", "prod")
	st := store.NewMemoryStore()
	pub := &recordingPublisher{}
	cfg := &config.SyncConfig{Interval: time.Hour, Concurrency: 2}
	w := NewSyncWorker(source, st, pub, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	return w, st, pub
}

func TestSyncOnceImportsRemoteGames(t *testing.T) {
	source := &fakeSource{
		seasons: []scoring.Season{{SeasonName: "Summer 2024"}, {SeasonName: "Broken Season"}},
		games: map[string][]scoring.Game{
			"Summer 2024": {
				{GameName: "Game 20/07/2024", Members: []string{"Alice", "Bob"}, Ranks: []string{"1", "2"}, Points: []string{"20", "10"}},
				{GameName: "Game night", Members: []string{"bob", "Carol Ann"}, Ranks: []string{"1", "2"}, Points: []string{"15", "5"}},
				{GameName: "Half written", Members: []string{"Alice"}, Ranks: []string{}, Points: []string{}},
			},
		},
		failing: map[string]bool{"Broken Season": true},
	}
	w, st, pub := newTestWorker(t, source)

	report, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report != (Report{Seasons: 1, Games: 2, Skipped: 1, Failed: 1}) {
		t.Fatalf("unexpected report: %+v", report)
	}

	season, ok := st.GetSeason("Summer 2024")
	if !ok || season.Name != "Summer 2024" {
		t.Fatalf("remote season not created: %+v", season)
	}
	match, ok := st.GetMatch("Summer 2024-Game 20/07/2024")
	if !ok {
		t.Fatal("remote game not imported under its stable id")
	}
	if !match.PlayedAt.Equal(time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected play date: %v", match.PlayedAt)
	}
	undated, _ := st.GetMatch("Summer 2024-Game night")
	if !undated.PlayedAt.Equal(w.now()) {
		t.Fatalf("expected fallback play date, got %v", undated.PlayedAt)
	}

	players := st.ListPlayers()
	names := make([]string, 0, len(players))
	for _, p := range players {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	if len(names) != 3 || names[0] != "Alice" || names[1] != "Bob" || names[2] != "Carol Ann" {
		t.Fatalf("expected players to be matched by name case-insensitively, got %v", names)
	}
	if carol, _ := st.GetPlayerByName("carol ann"); carol.Email != "carolann@example.com" {
		t.Fatalf("unexpected generated email %q", carol.Email)
	}
	if len(pub.seasons) != 1 || pub.seasons[0] != "Summer 2024" {
		t.Fatalf("unexpected publications: %v", pub.seasons)
	}

	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if got := len(st.ListMatches("Summer 2024")); got != 2 {
		t.Fatalf("expected re-sync to upsert, got %d matches", got)
	}
}

func TestStartStop(t *testing.T) {
	w, _, _ := newTestWorker(t, &fakeSource{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(ctx); err != nil {
		t.Fatalf("second start: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second stop: %v", err)
	}

	if err := w.Start(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop after restart: %v", err)
	}
}

func TestResyncAfterSeasonRenameKeepsOneCopy(t *testing.T) {
	game := scoring.Game{GameName: "Game 05/01/2025", Members: []string{"A", "B"}, Ranks: []string{"1", "2"}, Points: []string{"100", "50"}}
	source := &fakeSource{
		seasons: []scoring.Season{{SeasonName: "Winter Cup"}},
		games:   map[string][]scoring.Game{"Winter Cup": {game}},
	}
	w, st, _ := newTestWorker(t, source)
	svc := league.NewService(st, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	if _, err := svc.RenameSeason("Winter Cup", "Winter Cup 2024"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	source.seasons = []scoring.Season{{SeasonName: "Winter Cup 2024"}}
	source.games = map[string][]scoring.Game{"Winter Cup 2024": {game}}
	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	if got := len(st.ListSeasons()); got != 1 {
		t.Fatalf("expected the renamed season to be reused, got %d seasons", got)
	}
	if got := len(st.ListMatches("")); got != 1 {
		t.Fatalf("expected one stored match, got %d", got)
	}
	rows, err := svc.Standings("Winter Cup")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if rows[0].Player.Name != "A" || rows[0].TotalPoints != 100 || rows[0].GamesPlayed != 1 {
		t.Fatalf("remote game counted more than once: %+v", rows[0])
	}
}

func TestResyncKeepsPlayDateOfUndatedGames(t *testing.T) {
	source := &fakeSource{
		seasons: []scoring.Season{{SeasonName: "Summer 2024"}},
		games: map[string][]scoring.Game{
			"Summer 2024": {{GameName: "Game night", Members: []string{"Alice", "Bob"}, Ranks: []string{"1", "2"}, Points: []string{"20", "10"}}},
		},
	}
	w, st, _ := newTestWorker(t, source)
	first := w.now()

	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	w.now = func() time.Time { return first.AddDate(0, 2, 0) }
	if _, err := w.SyncOnce(context.Background()); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	match, ok := st.GetMatch("Summer 2024-Game night")
	if !ok {
		t.Fatal("undated game not imported")
	}
	if !match.PlayedAt.Equal(first) {
		t.Fatalf("play date moved between syncs: got %v, want %v", match.PlayedAt, first)
	}
}

func TestSyncRejectsReservedSeasonName(t *testing.T) {
	source := &fakeSource{
		seasons: []scoring.Season{{SeasonName: "All"}},
		games: map[string][]scoring.Game{
			"All": {{GameName: "Game 05/01/2025", Members: []string{"A", "B"}, Ranks: []string{"1", "2"}, Points: []string{"10", "5"}}},
		},
	}
	w, st, _ := newTestWorker(t, source)

	report, err := w.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report != (Report{Failed: 1}) {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := len(st.ListSeasons()); got != 0 {
		t.Fatalf("reserved season must not be created, got %d seasons", got)
	}
}
