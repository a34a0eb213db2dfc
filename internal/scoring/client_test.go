package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"unostat-app/internal/config"
	"unostat-app/internal/model"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = map[string][]byte{}
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(config.ScoringConfig{BaseURL: srv.URL + "/", Token: "t0ken", Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestListGamesSendsTokenAndCaches(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("season"); got != "Summer 2024" {
			t.Errorf("unexpected season %q", got)
		}
		if r.URL.Path == "/api/season/games/set-game" {
			return
		}
		calls++
		if got := r.Header.Get("Authorization"); got != "Bearer t0ken" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Game{{
			GameName: "Game 20/07/2024",
			Members:  []string{"Alice", "Bob"},
			Ranks:    []string{"1", "2"},
			Points:   []string{"20", "10"},
		}})
	})
	client.SetCache(&mapCache{}, time.Minute)

	for i := 0; i < 2; i++ {
		games, err := client.ListGames(context.Background(), "Summer 2024")
		if err != nil {
			t.Fatalf("list games: %v", err)
		}
		if len(games) != 1 || games[0].Members[1] != "Bob" {
			t.Fatalf("unexpected games: %+v", games)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one upstream call, got %d", calls)
	}

	if err := client.AddGame(context.Background(), "Summer 2024", NewGame("Game 21/07/2024", nil)); err != nil {
		t.Fatalf("add game: %v", err)
	}
	if _, err := client.ListGames(context.Background(), "Summer 2024"); err != nil {
		t.Fatalf("list games: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected cache invalidation after add, got %d calls", calls)
	}
}

func TestSeasonEndpoints(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.Method == http.MethodPost || r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode([]Season{{SeasonName: "Summer"}, {SeasonName: "Winter"}})
		}
	})
	ctx := context.Background()

	seasons, err := client.CreateSeason(ctx, "Winter")
	if err != nil || len(seasons) != 2 {
		t.Fatalf("create season: %+v (%v)", seasons, err)
	}
	if err := client.RenameSeason(ctx, "Winter", "Winter Cup"); err != nil {
		t.Fatalf("rename season: %v", err)
	}
	if err := client.DeleteSeason(ctx, "Winter Cup"); err != nil {
		t.Fatalf("delete season: %v", err)
	}
	want := []string{
		"POST /api/seasons/set-season?season=Winter",
		"PUT /api/seasons/update-season?current-season=Winter&new-season=Winter+Cup",
		"DELETE /api/seasons/delete-season?season=Winter+Cup",
	}
	for i, w := range want {
		if seen[i] != w {
			t.Fatalf("request %d: expected %q, got %q", i, w, seen[i])
		}
	}
}

func TestAPIErrorCarriesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"season already exists"}`))
	})

	_, err := client.ListSeasons(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusConflict || apiErr.Message != "season already exists" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(config.ScoringConfig{}, slog.Default()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGameResults(t *testing.T) {
	game := Game{
		GameName: "Friday 26/07/2024 rematch",
		Members:  []string{"Alice", " Bob "},
		Ranks:    []string{"1", "2"},
		Points:   []string{"40", "-5"},
	}
	results, err := game.Results()
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if results[1] != (Result{Name: "Bob", Rank: 2, Points: -5}) {
		t.Fatalf("unexpected result: %+v", results[1])
	}

	if got, ok := game.Date(); !ok || !got.Equal(time.Date(2024, 7, 26, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected play date %v", got)
	}
	if _, ok := (Game{GameName: "no date"}).Date(); ok {
		t.Fatal("expected no date for an undated game")
	}
	if _, ok := (Game{GameName: "Game 31/02/2024"}).Date(); ok {
		t.Fatal("expected no date for an impossible day")
	}

	game.Points = game.Points[:1]
	if _, err := game.Results(); !errors.Is(err, ErrMalformedGame) {
		t.Fatalf("expected malformed game error, got %v", err)
	}
	game.Points = []string{"40", "lots"}
	if _, err := game.Results(); !errors.Is(err, ErrMalformedGame) {
		t.Fatalf("expected malformed game error, got %v", err)
	}

	encoded := NewGame("g", results)
	if encoded.Ranks[1] != "2" || encoded.Points[1] != "-5" || MatchID("Summer", "g") != "Summer-g" {
		t.Fatalf("unexpected encoding: %+v", encoded)
	}
}

func TestMirrorSendsGames(t *testing.T) {
	var got Game
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		if r.URL.Path == "/api/season/games/set-game" {
			_ = json.NewDecoder(r.Body).Decode(&got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := NewClient(config.ScoringConfig{BaseURL: srv.URL, Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	mirror := NewMirror(client)
	season := model.Season{ID: "s1", Name: "Summer"}
	match := model.Match{
		Name: "Game 20/07/2024",
		Participants: []model.Participation{
			{PlayerID: "1", Rank: 1, Points: 100},
			{PlayerID: "2", Rank: 2, Points: 50},
		},
	}
	players := map[string]model.Player{"1": {ID: "1", Name: "Alice"}, "2": {ID: "2", Name: "Bob"}}

	if err := mirror.MatchRecorded(context.Background(), season, match, players); err != nil {
		t.Fatalf("MatchRecorded: %v", err)
	}
	if got.GameName != "Game 20/07/2024" || strings.Join(got.Members, ",") != "Alice,Bob" || strings.Join(got.Ranks, ",") != "1,2" || strings.Join(got.Points, ",") != "100,50" {
		t.Fatalf("unexpected game payload: %+v", got)
	}
	if err := mirror.MatchRecorded(context.Background(), season, match, map[string]model.Player{}); !errors.Is(err, model.ErrPlayerNotFound) {
		t.Fatalf("expected ErrPlayerNotFound, got %v", err)
	}
	if err := mirror.SeasonRenamed(context.Background(), season, season); err != nil || len(paths) != 1 {
		t.Fatalf("same-name rename must not call the API: %v %v", err, paths)
	}
	if mirror.MatchID(season, match.Name) != "s1-Game 20/07/2024" {
		t.Fatalf("unexpected match ID %q", mirror.MatchID(season, match.Name))
	}
}
