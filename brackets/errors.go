package brackets

import "errors"

// Ошибки движка сетки. Все они возвращаются синхронно и не меняют состояние.
var (
	ErrMatchNotFound           = errors.New("match not found")
	ErrIncompleteSeries        = errors.New("number of game outcomes does not match the series length")
	ErrInvalidOutcome          = errors.New("invalid game outcome")
	ErrRoundIncomplete         = errors.New("round incomplete: not all matches of the current round have a result")
	ErrInvalidParticipantCount = errors.New("participant count is not usable for bracket pairing")
	ErrDuplicateParticipant    = errors.New("duplicate participant id")
	ErrInvalidBestOf           = errors.New("best-of count must be positive")
	ErrMatchClosed             = errors.New("match result can no longer be changed")
	ErrTournamentCompleted     = errors.New("tournament is already completed")
)
