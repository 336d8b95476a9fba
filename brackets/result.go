package brackets

import (
	"fmt"

	"github.com/Dosada05/double-elimination/models"
)

// Aggregate sums a series: a won game is worth 1 point, a draw 0.5 to each side.
// Equal totals go to player2. The series length is not checked here.
func Aggregate(games []models.GameOutcome) models.Result {
	var p1, p2 float64
	for _, g := range games {
		switch g.Outcome {
		case models.OutcomePlayer1:
			p1++
		case models.OutcomePlayer2:
			p2++
		case models.OutcomeDraw:
			p1 += 0.5
			p2 += 0.5
		}
	}

	winner := models.SidePlayer2
	if p1 > p2 {
		winner = models.SidePlayer1
	}

	details := make([]models.GameOutcome, len(games))
	copy(details, games)

	return models.Result{
		Player1: p1,
		Player2: p2,
		Winner:  winner,
		Details: details,
	}
}

// ValidateSeries checks that games form a complete best-of series.
func ValidateSeries(games []models.GameOutcome, bestOf int) error {
	if len(games) != bestOf {
		return fmt.Errorf("%w: expected %d, got %d", ErrIncompleteSeries, bestOf, len(games))
	}
	seen := make(map[int]struct{}, len(games))
	for _, g := range games {
		if !g.Outcome.Valid() {
			return fmt.Errorf("%w: %q in game %d", ErrInvalidOutcome, g.Outcome, g.GameIndex)
		}
		if _, dup := seen[g.GameIndex]; dup {
			return fmt.Errorf("%w: game %d reported twice", ErrIncompleteSeries, g.GameIndex)
		}
		seen[g.GameIndex] = struct{}{}
	}
	return nil
}
