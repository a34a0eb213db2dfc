package league

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"unostat-app/internal/model"
	"unostat-app/internal/standings"
	"unostat-app/internal/store"
)

type recordingNotifier struct {
	scopes []string
	rows   map[string][]standings.Standing
}

func (n *recordingNotifier) BroadcastStandings(scope string, rows []standings.Standing) {
	if n.rows == nil {
		n.rows = map[string][]standings.Standing{}
	}
	n.scopes = append(n.scopes, scope)
	n.rows[scope] = rows
}

type memoryExporter struct {
	objects map[string][]byte
}

func (e *memoryExporter) Put(_ context.Context, key string, body []byte) (string, error) {
	if e.objects == nil {
		e.objects = map[string][]byte{}
	}
	e.objects[key] = body
	return "https://cdn.example.com/" + key, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	t.Setenv("APP", "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store.NewMemoryStore(), logger)
}

func TestStandingsScopes(t *testing.T) {
	svc := newTestService(t)

	season, err := svc.Standings("championship1")
	if err != nil {
		t.Fatalf("season standings: %v", err)
	}
	if len(season) != 5 || season[0].Player.Name != "Alice" || season[0].TotalPoints != 300 {
		t.Fatalf("unexpected season standings: %+v", season[0])
	}
	all, err := svc.Standings(AllSeasons)
	if err != nil || len(all) != len(season) {
		t.Fatalf("expected all-seasons scope to match the only season, got %d rows (%v)", len(all), err)
	}
	if _, err := svc.Standings("missing"); !errors.Is(err, model.ErrSeasonNotFound) {
		t.Fatalf("expected missing season error, got %v", err)
	}
}

func TestMatchStandings(t *testing.T) {
	svc := newTestService(t)

	rows, err := svc.MatchStandings("match5")
	if err != nil {
		t.Fatalf("match standings: %v", err)
	}
	if len(rows) != 4 || rows[3].Player.Name != "Eve" || rows[3].Rank != 4 {
		t.Fatalf("unexpected match standings: %+v", rows)
	}
	if _, err := svc.MatchStandings("nope"); !errors.Is(err, model.ErrMatchNotFound) {
		t.Fatalf("expected missing match error, got %v", err)
	}
}

func TestPlayerProfile(t *testing.T) {
	svc := newTestService(t)

	profile, err := svc.PlayerProfile("5", "championship1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Standing == nil || profile.Standing.Rank != 5 || len(profile.History) != 1 {
		t.Fatalf("unexpected profile for Eve: %+v", profile)
	}

	alice, err := svc.PlayerProfile("1", AllSeasons)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(alice.History) != 5 || alice.History[0].Match.ID != "match5" || alice.History[0].Rank != 1 {
		t.Fatalf("expected newest-first history, got %+v", alice.History[0])
	}

	if _, err := svc.CreateSeason("Autumn League"); err != nil {
		t.Fatalf("create season: %v", err)
	}
	autumn, _ := svc.store.GetSeasonByName("Autumn League")
	empty, err := svc.PlayerProfile("1", autumn.ID)
	if err != nil || empty.Standing != nil || len(empty.History) != 0 {
		t.Fatalf("expected no standing outside played seasons, got %+v (%v)", empty, err)
	}
	if _, err := svc.PlayerProfile("404", AllSeasons); !errors.Is(err, model.ErrPlayerNotFound) {
		t.Fatalf("expected missing player error, got %v", err)
	}
}

func TestRecordMatchPublishesStandings(t *testing.T) {
	svc := newTestService(t)
	notifier := &recordingNotifier{}
	svc.SetNotifier(notifier)

	match, err := svc.RecordMatch(model.Match{
		Name:     "Game Night 25/07/2024",
		SeasonID: "championship1",
		PlayedAt: time.Date(2024, 7, 25, 19, 0, 0, 0, time.UTC),
		Participants: []model.Participation{
			{PlayerID: "5", Rank: 1, Points: 500},
			{PlayerID: "2", Rank: 2, Points: 50},
		},
	})
	if err != nil {
		t.Fatalf("record match: %v", err)
	}
	if strings.Join(notifier.scopes, ",") != "championship1,all" {
		t.Fatalf("unexpected broadcast scopes: %v", notifier.scopes)
	}
	if top := notifier.rows["championship1"][0]; top.Player.Name != "Eve" || top.TotalPoints != 510 {
		t.Fatalf("expected Eve on top after the new match, got %+v", top)
	}

	match.Participants[0].Points = 0
	if _, err := svc.UpdateMatch(match); err != nil {
		t.Fatalf("update match: %v", err)
	}
	if top := notifier.rows["championship1"][0]; top.Player.Name != "Alice" {
		t.Fatalf("expected Alice back on top, got %+v", top)
	}
	stored, _ := svc.GetMatch(match.ID)
	if !stored.PlayedAt.Equal(time.Date(2024, 7, 25, 19, 0, 0, 0, time.UTC)) {
		t.Fatalf("update changed play date: %v", stored.PlayedAt)
	}

	if err := svc.DeleteMatch(match.ID); err != nil {
		t.Fatalf("delete match: %v", err)
	}
	if err := svc.DeleteMatch(match.ID); !errors.Is(err, model.ErrMatchNotFound) {
		t.Fatalf("expected missing match error, got %v", err)
	}
}

func TestRecordMatchRejectsInvalidEntries(t *testing.T) {
	svc := newTestService(t)

	base := model.Match{
		Name:     "Bad Game",
		SeasonID: "championship1",
		Participants: []model.Participation{
			{PlayerID: "1", Rank: 1, Points: 10},
			{PlayerID: "2", Rank: 1, Points: 5},
		},
	}
	if _, err := svc.RecordMatch(base); !errors.Is(err, model.ErrDuplicateRank) {
		t.Fatalf("expected duplicate rank error, got %v", err)
	}

	base.Participants[1] = model.Participation{PlayerID: "ghost", Rank: 2, Points: 5}
	if _, err := svc.RecordMatch(base); !errors.Is(err, model.ErrPlayerNotFound) {
		t.Fatalf("expected unknown player error, got %v", err)
	}

	base.Participants[1].PlayerID = "2"
	base.SeasonID = "missing"
	if _, err := svc.RecordMatch(base); !errors.Is(err, model.ErrSeasonNotFound) {
		t.Fatalf("expected missing season error, got %v", err)
	}
}

func TestSeasonLifecycle(t *testing.T) {
	svc := newTestService(t)

	if err := svc.DeleteSeason("championship1"); !errors.Is(err, model.ErrSeasonHasMatches) {
		t.Fatalf("expected season with matches to be protected, got %v", err)
	}
	season, err := svc.CreateSeason("Winter 2025")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RenameSeason(season.ID, "Summer Season 2024"); !errors.Is(err, model.ErrSeasonNameTaken) {
		t.Fatalf("expected name conflict, got %v", err)
	}
	if err := svc.DeleteSeason(season.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestExportStandings(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ExportStandings(context.Background(), "championship1"); !errors.Is(err, ErrExportDisabled) {
		t.Fatalf("expected export disabled, got %v", err)
	}

	exporter := &memoryExporter{}
	svc.SetExporter(exporter)
	svc.now = func() time.Time { return time.Unix(1721502000, 0) }

	result, err := svc.ExportStandings(context.Background(), "championship1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if result.Key != "standings/championship1/1721502000.json" {
		t.Fatalf("unexpected key %q", result.Key)
	}
	if result.URL != "https://cdn.example.com/"+result.Key {
		t.Fatalf("unexpected url %q", result.URL)
	}
	if body := string(exporter.objects[result.Key]); !strings.Contains(body, `"totalPoints":300`) {
		t.Fatalf("snapshot missing standings: %s", body)
	}
	if _, err := svc.ExportStandings(context.Background(), "missing"); !errors.Is(err, model.ErrSeasonNotFound) {
		t.Fatalf("expected missing season error, got %v", err)
	}
}
