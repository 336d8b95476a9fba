package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/double-elimination/models"
)

// normalizeRoster trims names and checks ids and ratings. Bye slots keep
// their flag so a stored padded roster can be saved back unchanged.
func normalizeRoster(roster []models.Participant) ([]models.Participant, error) {
	out := make([]models.Participant, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for i, p := range roster {
		p.ID = strings.TrimSpace(p.ID)
		p.FirstName = strings.TrimSpace(p.FirstName)
		p.LastName = strings.TrimSpace(p.LastName)

		if p.ID == "" {
			return nil, fmt.Errorf("%w: participant #%d has no id", ErrInvalidRoster, i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidRoster, p.ID)
		}
		if p.Rating < 0 {
			return nil, fmt.Errorf("%w: participant %q has negative rating", ErrInvalidRoster, p.ID)
		}
		if !p.IsEmpty && strings.HasPrefix(p.ID, models.EmptyParticipantPrefix) {
			return nil, fmt.Errorf("%w: id prefix %q is reserved for empty slots", ErrInvalidRoster, models.EmptyParticipantPrefix)
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}

func countReal(roster []models.Participant) int {
	n := 0
	for _, p := range roster {
		if !p.IsEmpty {
			n++
		}
	}
	return n
}
