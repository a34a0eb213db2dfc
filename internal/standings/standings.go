// Package standings turns already-scored match results into a ranked leaderboard.
package standings

import (
	"sort"
	"strings"

	"unostat-app/internal/model"
)

// Finishes exposes the podium tiers of FinishCounts.
type Finishes struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Third  int `json:"third"`
}

// Standing is one leaderboard row.
type Standing struct {
	Rank         int          `json:"rank"`
	Player       model.Player `json:"player"`
	TotalPoints  int          `json:"totalPoints"`
	GamesPlayed  int          `json:"gamesPlayed"`
	Finishes     Finishes     `json:"finishes"`
	FinishCounts map[int]int  `json:"finishMap"`
}

type tally struct {
	totalPoints  int
	gamesPlayed  int
	finishCounts map[int]int
}

// Compute aggregates matches into standings ordered by rank. Only players with at least
// one participation appear. Ties on points are broken by countback over every finish
// position up to the worst rank seen in matches, then by name, then by player ID, so
// ranks always form the sequence 1..N.
//
// A participation whose player is missing from players is still counted; its row uses
// the player ID as the display name.
func Compute(matches []model.Match, players []model.Player) []Standing {
	directory := make(map[string]model.Player, len(players))
	for _, p := range players {
		directory[p.ID] = p
	}

	tallies := make(map[string]*tally)
	order := make([]string, 0)
	for _, match := range matches {
		for _, part := range match.Participants {
			t, ok := tallies[part.PlayerID]
			if !ok {
				t = &tally{finishCounts: make(map[int]int)}
				tallies[part.PlayerID] = t
				order = append(order, part.PlayerID)
			}
			t.totalPoints += part.Points
			t.gamesPlayed++
			t.finishCounts[part.Rank]++
		}
	}

	rows := make([]Standing, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		player, ok := directory[id]
		if !ok {
			player = model.Player{ID: id, Name: id, Role: model.RolePlayer}
		}
		rows = append(rows, Standing{
			Player:      player,
			TotalPoints: t.totalPoints,
			GamesPlayed: t.gamesPlayed,
			Finishes: Finishes{
				First:  t.finishCounts[1],
				Second: t.finishCounts[2],
				Third:  t.finishCounts[3],
			},
			FinishCounts: t.finishCounts,
		})
	}

	maxRank := MaxRank(matches)
	sort.Slice(rows, func(i, j int) bool {
		return ranksAbove(rows[i], rows[j], maxRank)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

func ranksAbove(a, b Standing, maxRank int) bool {
	if a.TotalPoints != b.TotalPoints {
		return a.TotalPoints > b.TotalPoints
	}
	for tier := 1; tier <= maxRank; tier++ {
		ca, cb := a.FinishCounts[tier], b.FinishCounts[tier]
		if ca != cb {
			return ca > cb
		}
	}
	if c := strings.Compare(a.Player.DisplayName(), b.Player.DisplayName()); c != 0 {
		return c < 0
	}
	return a.Player.ID < b.Player.ID
}

// MaxRank returns the worst finish position recorded in matches, or 0 when there is none.
func MaxRank(matches []model.Match) int {
	maxRank := 0
	for _, m := range matches {
		for _, p := range m.Participants {
			if p.Rank > maxRank {
				maxRank = p.Rank
			}
		}
	}
	return maxRank
}

// Find returns the row for playerID.
func Find(rows []Standing, playerID string) (Standing, bool) {
	for _, row := range rows {
		if row.Player.ID == playerID {
			return row, true
		}
	}
	return Standing{}, false
}
