package models

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidConfig = errors.New("invalid tournament configuration")

// BracketType - способ посева (жесткая сетка, жеребьевка, перепосев перед туром).
type BracketType string

const (
	BracketTypeRigid  BracketType = "rigid"
	BracketTypeRandom BracketType = "random"
	BracketTypeReroll BracketType = "reroll"
)

// TiebreakerType - дополнительный критерий при равенстве очков.
type TiebreakerType string

const (
	TiebreakerRating   TiebreakerType = "rating"
	TiebreakerBuchholz TiebreakerType = "buchholz"
	TiebreakerBerger   TiebreakerType = "berger"
)

// TournamentStage is the public lifecycle position of the active tournament.
type TournamentStage string

const (
	StageRoundInProgress TournamentStage = "round_in_progress"
	StageLowerFinal      TournamentStage = "lower_final"
	StageFinalPending    TournamentStage = "final_pending"
	StageCompleted       TournamentStage = "completed"
)

var (
	allowedParticipantCounts = []int{4, 8, 16, 32, 64}
	allowedMatchesInRound    = []int{1, 3, 5}
)

// TournamentConfig is written by the setup screen and read once on start.
type TournamentConfig struct {
	ParticipantsCount int            `json:"participantsCount"`
	BracketType       BracketType    `json:"bracketType"`
	TiebreakerType    TiebreakerType `json:"tiebreakerType"`
	MatchesInRound    int            `json:"matchesInRound"`
}

func DefaultTournamentConfig() TournamentConfig {
	return TournamentConfig{
		ParticipantsCount: 8,
		BracketType:       BracketTypeRigid,
		TiebreakerType:    TiebreakerRating,
		MatchesInRound:    1,
	}
}

func (c TournamentConfig) Validate() error {
	if !slices.Contains(allowedParticipantCounts, c.ParticipantsCount) {
		return fmt.Errorf("%w: participantsCount must be one of %v, got %d", ErrInvalidConfig, allowedParticipantCounts, c.ParticipantsCount)
	}
	switch c.BracketType {
	case BracketTypeRigid, BracketTypeRandom, BracketTypeReroll:
	default:
		return fmt.Errorf("%w: unknown bracketType %q", ErrInvalidConfig, c.BracketType)
	}
	switch c.TiebreakerType {
	case TiebreakerRating, TiebreakerBuchholz, TiebreakerBerger:
	default:
		return fmt.Errorf("%w: unknown tiebreakerType %q", ErrInvalidConfig, c.TiebreakerType)
	}
	if !slices.Contains(allowedMatchesInRound, c.MatchesInRound) {
		return fmt.Errorf("%w: matchesInRound must be one of %v, got %d", ErrInvalidConfig, allowedMatchesInRound, c.MatchesInRound)
	}
	return nil
}
