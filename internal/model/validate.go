package model

import (
	"fmt"
	"strings"
)

const minSeasonNameLength = 3

// ScopeAll names the scope spanning every season, so no season may use it as its name.
const ScopeAll = "all"

// ValidateMatch checks a match at entry time. The standings engine itself accepts any
// match; duplicate ranks are rejected here instead.
func ValidateMatch(m Match) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrMatchNameRequired)
	}
	if strings.TrimSpace(m.SeasonID) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrSeasonRequired)
	}
	if len(m.Participants) < 2 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrTooFewParticipants)
	}
	players := make(map[string]bool, len(m.Participants))
	ranks := make(map[int]bool, len(m.Participants))
	for _, p := range m.Participants {
		if strings.TrimSpace(p.PlayerID) == "" {
			return fmt.Errorf("%w: %w", ErrValidation, ErrPlayerNameRequired)
		}
		if p.Rank < 1 {
			return fmt.Errorf("%w: %w (player %s)", ErrValidation, ErrInvalidRank, p.PlayerID)
		}
		if p.Points < 0 {
			return fmt.Errorf("%w: %w (player %s)", ErrValidation, ErrNegativePoints, p.PlayerID)
		}
		if players[p.PlayerID] {
			return fmt.Errorf("%w: %w (player %s)", ErrValidation, ErrDuplicateParticipant, p.PlayerID)
		}
		if ranks[p.Rank] {
			return fmt.Errorf("%w: %w (rank %d)", ErrValidation, ErrDuplicateRank, p.Rank)
		}
		players[p.PlayerID] = true
		ranks[p.Rank] = true
	}
	return nil
}

func ValidateSeasonName(name string) error {
	if len([]rune(strings.TrimSpace(name))) < minSeasonNameLength {
		return fmt.Errorf("%w: %w", ErrValidation, ErrSeasonNameTooShort)
	}
	if strings.EqualFold(strings.TrimSpace(name), ScopeAll) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrSeasonNameReserved)
	}
	return nil
}
