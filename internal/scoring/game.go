package scoring

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrMalformedGame = errors.New("malformed game")

var gameDatePattern = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

type Season struct {
	SeasonName string `json:"seasonName"`
}

// Game is a match as the scoring API stores it: members, ranks and points are parallel
// arrays of strings.
type Game struct {
	GameName string   `json:"gameName"`
	Season   *Season  `json:"season,omitempty"`
	Members  []string `json:"members"`
	Ranks    []string `json:"ranks"`
	Points   []string `json:"points"`
}

// Result is one member's line of a game.
type Result struct {
	Name   string
	Rank   int
	Points int
}

// Results zips the parallel arrays into one result per member.
func (g Game) Results() ([]Result, error) {
	if len(g.Ranks) != len(g.Members) || len(g.Points) != len(g.Members) {
		return nil, fmt.Errorf("%w %q: %d members, %d ranks, %d points", ErrMalformedGame, g.GameName, len(g.Members), len(g.Ranks), len(g.Points))
	}
	results := make([]Result, 0, len(g.Members))
	for i, member := range g.Members {
		name := strings.TrimSpace(member)
		if name == "" {
			return nil, fmt.Errorf("%w %q: empty member at position %d", ErrMalformedGame, g.GameName, i)
		}
		rank, err := strconv.Atoi(strings.TrimSpace(g.Ranks[i]))
		if err != nil {
			return nil, fmt.Errorf("%w %q: rank of %s: %w", ErrMalformedGame, g.GameName, name, err)
		}
		points, err := strconv.Atoi(strings.TrimSpace(g.Points[i]))
		if err != nil {
			return nil, fmt.Errorf("%w %q: points of %s: %w", ErrMalformedGame, g.GameName, name, err)
		}
		results = append(results, Result{Name: name, Rank: rank, Points: points})
	}
	return results, nil
}

// Date reads the first dd/mm/yyyy date in the game name.
func (g Game) Date() (time.Time, bool) {
	raw := gameDatePattern.FindString(g.GameName)
	if raw == "" {
		return time.Time{}, false
	}
	date, err := time.Parse("02/01/2006", raw)
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

// MatchID is the stable local ID of a remote game, keyed by the local season ID.
func MatchID(seasonID, gameName string) string {
	return seasonID + "-" + gameName
}

// NewGame encodes results the way the scoring API expects them.
func NewGame(name string, results []Result) Game {
	g := Game{
		GameName: name,
		Members:  make([]string, 0, len(results)),
		Ranks:    make([]string, 0, len(results)),
		Points:   make([]string, 0, len(results)),
	}
	for _, r := range results {
		g.Members = append(g.Members, r.Name)
		g.Ranks = append(g.Ranks, strconv.Itoa(r.Rank))
		g.Points = append(g.Points, strconv.Itoa(r.Points))
	}
	return g
}
