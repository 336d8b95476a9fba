package brackets

import (
	"sort"

	"github.com/Dosada05/double-elimination/models"
)

// RecomputeStandings rebuilds the table from scratch over every resolved match.
// Participants are expected in seed order; ties that survive the tiebreaker
// keep that order.
func RecomputeStandings(participants []models.Participant, matches []*models.Match, rule models.TiebreakerType) []models.Standing {
	roster := NewRoster(participants)
	standings := make([]models.Standing, len(participants))
	index := make(map[string]int, len(participants))
	for i, p := range participants {
		standings[i] = models.Standing{ParticipantID: p.ID, Rating: p.Rating}
		index[p.ID] = i
	}

	resolved := make([]*models.Match, 0, len(matches))
	for _, m := range matches {
		if m != nil && m.IsResolved() {
			resolved = append(resolved, m)
		}
	}

	// Очки, победы, ничьи и поражения по каждой партии.
	for _, m := range resolved {
		p1Wins, p2Wins, draws := countGames(m.Result.Details)
		if i, ok := index[m.Player1]; ok {
			standings[i].Points += m.Result.Player1
			standings[i].Wins += p1Wins
			standings[i].Draws += draws
			standings[i].Losses += p2Wins
		}
		if i, ok := index[m.Player2]; ok {
			standings[i].Points += m.Result.Player2
			standings[i].Wins += p2Wins
			standings[i].Draws += draws
			standings[i].Losses += p1Wins
		}
	}

	// Buchholz and Berger use the final point totals of this pass.
	points := make(map[string]float64, len(standings))
	for _, s := range standings {
		points[s.ParticipantID] = s.Points
	}
	for i := range standings {
		id := standings[i].ParticipantID
		for _, m := range resolved {
			if !m.HasParticipant(id) {
				continue
			}
			opponent := m.Opponent(id)
			if roster.IsBye(opponent) {
				continue
			}
			standings[i].Buchholz += points[opponent]
			if m.WinnerID() == id {
				standings[i].Berger += points[opponent]
			}
		}
	}

	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		switch rule {
		case models.TiebreakerRating:
			return a.Rating > b.Rating
		case models.TiebreakerBuchholz:
			return a.Buchholz > b.Buchholz
		case models.TiebreakerBerger:
			return a.Berger > b.Berger
		default:
			return false
		}
	})

	for i := range standings {
		standings[i].Position = i + 1
	}
	return standings
}

func countGames(details []models.GameOutcome) (p1Wins, p2Wins, draws int) {
	for _, g := range details {
		switch g.Outcome {
		case models.OutcomePlayer1:
			p1Wins++
		case models.OutcomePlayer2:
			p2Wins++
		case models.OutcomeDraw:
			draws++
		}
	}
	return p1Wins, p2Wins, draws
}
