package model

import "errors"

var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrSeasonNotFound = errors.New("season not found")
	ErrMatchNotFound  = errors.New("match not found")

	ErrValidation           = errors.New("validation failed")
	ErrMatchNameRequired    = errors.New("match name is required")
	ErrSeasonRequired       = errors.New("season is required")
	ErrSeasonNameTooShort   = errors.New("season name must be at least 3 characters")
	ErrSeasonNameReserved   = errors.New("season name is reserved")
	ErrPlayerNameRequired   = errors.New("player name is required")
	ErrTooFewParticipants   = errors.New("a match needs at least two participants")
	ErrInvalidRank          = errors.New("rank must be 1 or more")
	ErrNegativePoints       = errors.New("points must be 0 or more")
	ErrDuplicateRank        = errors.New("each player must have a unique rank")
	ErrDuplicateParticipant = errors.New("a player can appear only once per match")

	ErrSeasonNameTaken  = errors.New("season name already exists")
	ErrSeasonHasMatches = errors.New("cannot delete a season with matches associated with it")
	ErrMatchExists      = errors.New("match already exists")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlayerNotFound) || errors.Is(err, ErrSeasonNotFound) || errors.Is(err, ErrMatchNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSeasonNameTaken) || errors.Is(err, ErrSeasonHasMatches) || errors.Is(err, ErrMatchExists)
}
