package standings

import (
	"sort"
	"strings"
)

type SortKey string

type SortDirection string

const (
	SortByRank        SortKey = "rank"
	SortByName        SortKey = "name"
	SortByTotalPoints SortKey = "totalPoints"
	SortByGamesPlayed SortKey = "gamesPlayed"
	SortByFirst       SortKey = "first"
	SortBySecond      SortKey = "second"
	SortByThird       SortKey = "third"

	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

func ParseSortKey(value string) (SortKey, bool) {
	switch key := SortKey(strings.TrimSpace(value)); key {
	case SortByRank, SortByName, SortByTotalPoints, SortByGamesPlayed, SortByFirst, SortBySecond, SortByThird:
		return key, true
	case "":
		return SortByRank, true
	}
	return "", false
}

func ParseSortDirection(value string) SortDirection {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "desc", "descending":
		return Descending
	}
	return Ascending
}

// SortForDisplay returns a reordered copy of rows. Rank values are left untouched; rows
// that compare equal on key keep their canonical order.
func SortForDisplay(rows []Standing, key SortKey, dir SortDirection) []Standing {
	sorted := make([]Standing, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := compareBy(sorted[i], sorted[j], key)
		if c == 0 {
			return sorted[i].Rank < sorted[j].Rank
		}
		if dir == Descending {
			return c > 0
		}
		return c < 0
	})
	return sorted
}

func compareBy(a, b Standing, key SortKey) int {
	switch key {
	case SortByName:
		return strings.Compare(a.Player.DisplayName(), b.Player.DisplayName())
	case SortByTotalPoints:
		return compareInt(a.TotalPoints, b.TotalPoints)
	case SortByGamesPlayed:
		return compareInt(a.GamesPlayed, b.GamesPlayed)
	case SortByFirst:
		return compareInt(a.Finishes.First, b.Finishes.First)
	case SortBySecond:
		return compareInt(a.Finishes.Second, b.Finishes.Second)
	case SortByThird:
		return compareInt(a.Finishes.Third, b.Finishes.Third)
	}
	return compareInt(a.Rank, b.Rank)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SharedRanks returns the rank to display for each row of a canonically ordered slice.
// Rows tied on points and on every finish tier show the rank of the first row of the tie.
func SharedRanks(rows []Standing) []int {
	shown := make([]int, len(rows))
	for i, row := range rows {
		if i > 0 && fullyTied(rows[i-1], row) {
			shown[i] = shown[i-1]
			continue
		}
		shown[i] = row.Rank
	}
	return shown
}

func fullyTied(a, b Standing) bool {
	if a.TotalPoints != b.TotalPoints || len(a.FinishCounts) != len(b.FinishCounts) {
		return false
	}
	for tier, count := range a.FinishCounts {
		if b.FinishCounts[tier] != count {
			return false
		}
	}
	return true
}
