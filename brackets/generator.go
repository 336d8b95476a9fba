package brackets

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Dosada05/double-elimination/models"
)

type GenerateRoundParams struct {
	ParticipantIDs []string
	Bracket        models.Bracket
	Round          int
	BestOf         int
}

// RoundGenerator builds the matches of a single round of one bracket.
// Matches with a bye are returned already resolved.
type RoundGenerator interface {
	GenerateRound(params GenerateRoundParams) []*models.Match

	GetName() string
}

// Roster - быстрый доступ к участникам по ID (рейтинг, признак пустого слота).
type Roster map[string]models.Participant

func NewRoster(participants []models.Participant) Roster {
	r := make(Roster, len(participants))
	for _, p := range participants {
		r[p.ID] = p
	}
	return r
}

// IsBye reports whether id is a synthetic bye slot or the empty slot of an odd pairing.
func (r Roster) IsBye(id string) bool {
	if id == "" {
		return true
	}
	p, ok := r[id]
	return ok && p.IsEmpty
}

func (r Roster) Rating(id string) float64 {
	return r[id].Rating
}

func (r Roster) sortByRating(ids []string) []string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.SliceStable(sorted, func(i, j int) bool {
		return r.Rating(sorted[i]) > r.Rating(sorted[j])
	})
	return sorted
}

func NewRoundGenerator(bracketType models.BracketType, roster Roster, rng *rand.Rand) (RoundGenerator, error) {
	switch bracketType {
	case models.BracketTypeRigid:
		return NewRigidGenerator(roster), nil
	case models.BracketTypeRandom:
		return NewRandomGenerator(roster, rng), nil
	case models.BracketTypeReroll:
		return NewRerollGenerator(roster, rng), nil
	default:
		return nil, fmt.Errorf("unsupported bracket type '%s'", bracketType)
	}
}

// RigidGenerator: сильный против слабого, порядок всегда по убыванию рейтинга.
type RigidGenerator struct {
	roster Roster
}

func NewRigidGenerator(roster Roster) RoundGenerator {
	return &RigidGenerator{roster: roster}
}

func (g *RigidGenerator) GetName() string {
	return "Rigid"
}

func (g *RigidGenerator) GenerateRound(params GenerateRoundParams) []*models.Match {
	ordered := g.roster.sortByRating(params.ParticipantIDs)
	return buildMatches(g.roster, foldPairs(ordered), params)
}

// RandomGenerator shuffles the field once, before round 1. Later rounds are
// seeded the rigid way.
type RandomGenerator struct {
	roster Roster
	rng    *rand.Rand
}

func NewRandomGenerator(roster Roster, rng *rand.Rand) RoundGenerator {
	return &RandomGenerator{roster: roster, rng: rng}
}

func (g *RandomGenerator) GetName() string {
	return "Random"
}

func (g *RandomGenerator) GenerateRound(params GenerateRoundParams) []*models.Match {
	if params.Round > 1 {
		return buildMatches(g.roster, foldPairs(g.roster.sortByRating(params.ParticipantIDs)), params)
	}
	return buildMatches(g.roster, adjacentPairs(shuffle(g.rng, params.ParticipantIDs)), params)
}

// RerollGenerator: первый тур по рейтингу, перед каждым следующим - перепосев.
type RerollGenerator struct {
	roster Roster
	rng    *rand.Rand
}

func NewRerollGenerator(roster Roster, rng *rand.Rand) RoundGenerator {
	return &RerollGenerator{roster: roster, rng: rng}
}

func (g *RerollGenerator) GetName() string {
	return "Reroll"
}

func (g *RerollGenerator) GenerateRound(params GenerateRoundParams) []*models.Match {
	if params.Round <= 1 {
		return buildMatches(g.roster, foldPairs(g.roster.sortByRating(params.ParticipantIDs)), params)
	}
	return buildMatches(g.roster, adjacentPairs(shuffle(g.rng, params.ParticipantIDs)), params)
}

type pairing struct {
	player1 string
	player2 string
}

// foldPairs pairs first with last, second with second-to-last and so on.
// In an odd sequence the last entry gets the empty slot and the rest fold.
func foldPairs(ids []string) []pairing {
	n := len(ids)
	pairs := make([]pairing, 0, (n+1)/2)
	folded := n - n%2
	for i := 0; i < folded/2; i++ {
		pairs = append(pairs, pairing{player1: ids[i], player2: ids[folded-1-i]})
	}
	if n%2 == 1 {
		pairs = append(pairs, pairing{player1: ids[n-1]})
	}
	return pairs
}

func adjacentPairs(ids []string) []pairing {
	pairs := make([]pairing, 0, (len(ids)+1)/2)
	for i := 0; i < len(ids); i += 2 {
		p := pairing{player1: ids[i]}
		if i+1 < len(ids) {
			p.player2 = ids[i+1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}

func shuffle(rng *rand.Rand, ids []string) []string {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	swap := func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] }
	if rng == nil {
		rand.Shuffle(len(shuffled), swap)
	} else {
		rng.Shuffle(len(shuffled), swap)
	}
	return shuffled
}

func buildMatches(roster Roster, pairs []pairing, params GenerateRoundParams) []*models.Match {
	matches := make([]*models.Match, 0, len(pairs))
	for i, p := range pairs {
		matches = append(matches, &models.Match{
			ID:      MatchID(params.Bracket, params.Round, i),
			Round:   params.Round,
			Bracket: params.Bracket,
			Player1: p.player1,
			Player2: p.player2,
			Result:  byeResult(roster, p, params.BestOf),
		})
	}
	return matches
}

func MatchID(bracket models.Bracket, round, pairIndex int) string {
	return fmt.Sprintf("%s-%d-%d", bracket, round, pairIndex)
}

// byeResult returns the automatic result of a pairing that involves a bye,
// or nil when both sides are real participants. The empty slot never wins;
// bye against bye goes to player2.
func byeResult(roster Roster, p pairing, bestOf int) *models.Result {
	bye1, bye2 := roster.IsBye(p.player1), roster.IsBye(p.player2)
	if !bye1 && !bye2 {
		return nil
	}

	winner := models.SidePlayer1
	if bye1 && p.player2 != "" {
		winner = models.SidePlayer2
	}
	details := make([]models.GameOutcome, bestOf)
	for i := range details {
		details[i] = models.GameOutcome{GameIndex: i + 1, Outcome: models.Outcome(winner)}
	}

	result := &models.Result{Winner: winner, Details: details}
	if winner == models.SidePlayer1 {
		result.Player1 = float64(bestOf)
	} else {
		result.Player2 = float64(bestOf)
	}
	return result
}

// IsByeMatch reports whether either side of m is a bye.
func IsByeMatch(roster Roster, m *models.Match) bool {
	return roster.IsBye(m.Player1) || roster.IsBye(m.Player2)
}
