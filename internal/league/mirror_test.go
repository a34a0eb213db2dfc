package league

import (
	"context"
	"errors"
	"strings"
	"testing"

	"unostat-app/internal/model"
)

type recordingMirror struct {
	ops []string
	err error
}

func (m *recordingMirror) MatchID(season model.Season, matchName string) string {
	return season.ID + "-" + matchName
}

func (m *recordingMirror) record(op string) error {
	m.ops = append(m.ops, op)
	return m.err
}

func (m *recordingMirror) SeasonCreated(_ context.Context, season model.Season) error {
	return m.record("create " + season.Name)
}

func (m *recordingMirror) SeasonRenamed(_ context.Context, previous, current model.Season) error {
	return m.record("rename " + previous.Name + " -> " + current.Name)
}

func (m *recordingMirror) SeasonDeleted(_ context.Context, season model.Season) error {
	return m.record("delete " + season.Name)
}

func (m *recordingMirror) MatchRecorded(_ context.Context, season model.Season, match model.Match, players map[string]model.Player) error {
	names := make([]string, 0, len(match.Participants))
	for _, p := range match.Participants {
		names = append(names, players[p.PlayerID].Name)
	}
	return m.record("add " + season.Name + "/" + match.Name + " " + strings.Join(names, ","))
}

func (m *recordingMirror) MatchDeleted(_ context.Context, season model.Season, match model.Match) error {
	return m.record("remove " + season.Name + "/" + match.Name)
}

func TestMirrorReceivesChanges(t *testing.T) {
	svc := newTestService(t)
	mirror := &recordingMirror{}
	svc.SetMirror(mirror)

	season, err := svc.CreateSeason("Winter Cup")
	if err != nil {
		t.Fatalf("create season: %v", err)
	}
	match, err := svc.RecordMatch(model.Match{
		Name:     "Game 01/12/2024",
		SeasonID: season.ID,
		Participants: []model.Participation{
			{PlayerID: "1", Rank: 1, Points: 100},
			{PlayerID: "2", Rank: 2, Points: 50},
		},
	})
	if err != nil {
		t.Fatalf("record match: %v", err)
	}
	if match.ID != season.ID+"-Game 01/12/2024" {
		t.Fatalf("expected remote match ID, got %q", match.ID)
	}

	match.Name = "Game 02/12/2024"
	renamed, err := svc.UpdateMatch(match)
	if err != nil {
		t.Fatalf("update match: %v", err)
	}
	if renamed.ID != season.ID+"-Game 02/12/2024" {
		t.Fatalf("expected re-keyed match, got %q", renamed.ID)
	}
	if _, err := svc.GetMatch(match.ID); !model.IsNotFound(err) {
		t.Fatalf("old match ID should be gone, got %v", err)
	}

	if err := svc.DeleteMatch(renamed.ID); err != nil {
		t.Fatalf("delete match: %v", err)
	}
	if _, err := svc.RenameSeason(season.ID, "Winter Cup 2024"); err != nil {
		t.Fatalf("rename season: %v", err)
	}
	if err := svc.DeleteSeason(season.ID); err != nil {
		t.Fatalf("delete season: %v", err)
	}

	want := []string{
		"create Winter Cup",
		"add Winter Cup/Game 01/12/2024 Alice,Bob",
		"remove Winter Cup/Game 01/12/2024",
		"add Winter Cup/Game 02/12/2024 Alice,Bob",
		"remove Winter Cup/Game 02/12/2024",
		"rename Winter Cup -> Winter Cup 2024",
		"delete Winter Cup 2024",
	}
	if strings.Join(mirror.ops, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected mirror calls:\n got %q\nwant %q", mirror.ops, want)
	}
}

func TestMirrorFailureKeepsLocalChange(t *testing.T) {
	svc := newTestService(t)
	svc.SetMirror(&recordingMirror{err: errors.New("remote down")})

	season, err := svc.CreateSeason("Spring Cup")
	if err != nil {
		t.Fatalf("mirror failure must not fail the local change: %v", err)
	}
	if _, err := svc.Standings(season.ID); err != nil {
		t.Fatalf("season should exist locally: %v", err)
	}
}
