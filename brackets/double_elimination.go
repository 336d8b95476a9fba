package brackets

import (
	"fmt"
	"math/rand/v2"

	"github.com/Dosada05/double-elimination/models"
)

// FinalMatchID is the identifier of the grand final.
const FinalMatchID = "final-match"

const minFieldSize = 4

// State is the run-state of the single active tournament. It is treated as a
// value: Engine transitions return a new State and never touch their input.
type State struct {
	Config       models.TournamentConfig `json:"config"`
	Participants []models.Participant    `json:"participants"` // seed order, byes included
	Round        int                     `json:"currentRound"`
	Upper        []*models.Match         `json:"upperBracket"`
	Lower        []*models.Match         `json:"lowerBracket"`
	Final        *models.Match           `json:"finalMatch"`
	Standings    []models.Standing       `json:"standings"`

	LowerFinalPlaying     bool   `json:"isLowerFinalPlaying"`
	UpperFinalWinner      string `json:"upperFinalWinner,omitempty"`
	UpperFinalLoser       string `json:"upperFinalLoser,omitempty"`
	UpperFinalLoserSeeded bool   `json:"upperFinalLoserSeeded,omitempty"`
	WinnerID              string `json:"winner,omitempty"`
}

// Engine drives the double-elimination state machine. The random source is
// only used by the random and reroll seeding modes.
type Engine struct {
	rng *rand.Rand
}

func NewEngine(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// NewSeededRand returns a deterministic random source for the seeding shuffle.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Initialize pads the roster with byes up to the field size and generates the
// first upper-bracket round.
func (e *Engine) Initialize(cfg models.TournamentConfig, roster []models.Participant) (*State, error) {
	if cfg.MatchesInRound < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBestOf, cfg.MatchesInRound)
	}

	seen := make(map[string]struct{}, len(roster))
	realCount := 0
	for _, p := range roster {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: participant without id", ErrInvalidParticipantCount)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p.ID)
		}
		seen[p.ID] = struct{}{}
		if !p.IsEmpty {
			realCount++
		}
	}
	if realCount < 2 {
		return nil, fmt.Errorf("%w: need at least 2 real participants, got %d", ErrInvalidParticipantCount, realCount)
	}

	field := fieldSize(len(roster), cfg.ParticipantsCount)
	participants := make([]models.Participant, 0, field)
	participants = append(participants, roster...)
	for n := 0; len(participants) < field; n++ {
		bye := models.NewEmptyParticipant(n)
		if _, taken := seen[bye.ID]; taken {
			continue
		}
		seen[bye.ID] = struct{}{}
		participants = append(participants, bye)
	}

	byRating := NewRoster(participants)
	order := byRating.sortByRating(participantIDs(participants))
	seeded := make([]models.Participant, len(order))
	for i, id := range order {
		seeded[i] = byRating[id]
	}

	s := &State{
		Config:       cfg,
		Participants: seeded,
		Round:        1,
		Upper:        []*models.Match{},
		Lower:        []*models.Match{},
	}

	gen, err := e.generator(s)
	if err != nil {
		return nil, err
	}
	s.Upper = gen.GenerateRound(GenerateRoundParams{
		ParticipantIDs: order,
		Bracket:        models.BracketUpper,
		Round:          1,
		BestOf:         cfg.MatchesInRound,
	})
	s.recomputeStandings()
	return s, nil
}

// SubmitResult attaches the outcome of a series to a match of the current
// round (or the grand final) and recomputes the standings.
func (e *Engine) SubmitResult(s *State, matchID string, games []models.GameOutcome) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	if s.WinnerID != "" {
		return nil, ErrTournamentCompleted
	}

	next := s.Clone()
	m := next.findMatch(matchID)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
	}
	isFinal := m.Bracket == models.BracketFinal
	switch {
	case !isFinal && m.Round != next.Round:
		return nil, fmt.Errorf("%w: %s belongs to round %d, current round is %d", ErrMatchClosed, matchID, m.Round, next.Round)
	case !isFinal && next.Final != nil:
		return nil, fmt.Errorf("%w: %s, the grand final is already scheduled", ErrMatchClosed, matchID)
	case IsByeMatch(NewRoster(next.Participants), m):
		return nil, fmt.Errorf("%w: %s is decided by a bye", ErrMatchClosed, matchID)
	}

	if err := ValidateSeries(games, next.Config.MatchesInRound); err != nil {
		return nil, err
	}

	result := Aggregate(games)
	m.Result = &result
	next.recomputeStandings()

	if isFinal && len(next.Standings) > 0 {
		next.WinnerID = next.Standings[0].ParticipantID
	}
	return next, nil
}

// AdvanceRound closes the current round and routes winners and losers into the
// next round of both brackets, or schedules the grand final.
func (e *Engine) AdvanceRound(s *State) (*State, error) {
	if s == nil {
		return nil, ErrRoundIncomplete
	}
	if s.WinnerID != "" {
		return nil, ErrTournamentCompleted
	}
	if s.Final != nil {
		return nil, fmt.Errorf("%w: grand final %s is pending", ErrRoundIncomplete, s.Final.ID)
	}

	currentUpper := matchesOfRound(s.Upper, s.Round)
	currentLower := matchesOfRound(s.Lower, s.Round)
	if pending := countPending(currentUpper); pending > 0 {
		return nil, fmt.Errorf("%w: %d upper match(es) pending in round %d", ErrRoundIncomplete, pending, s.Round)
	}
	if s.Round > 1 {
		if pending := countPending(currentLower); pending > 0 {
			return nil, fmt.Errorf("%w: %d lower match(es) pending in round %d", ErrRoundIncomplete, pending, s.Round)
		}
	}

	next := s.Clone()
	gen, err := e.generator(next)
	if err != nil {
		return nil, err
	}
	bestOf := next.Config.MatchesInRound
	nextRound := next.Round + 1

	if next.Round == 1 {
		next.Lower = append(next.Lower, gen.GenerateRound(GenerateRoundParams{
			ParticipantIDs: losersOf(currentUpper),
			Bracket:        models.BracketLower,
			Round:          nextRound,
			BestOf:         bestOf,
		})...)
		next.Upper = append(next.Upper, gen.GenerateRound(GenerateRoundParams{
			ParticipantIDs: winnersOf(currentUpper),
			Bracket:        models.BracketUpper,
			Round:          nextRound,
			BestOf:         bestOf,
		})...)
		next.Round = nextRound
		next.recomputeStandings()
		return next, nil
	}

	if next.LowerFinalPlaying {
		// Финал нижней сетки сыгран - собираем финальный матч.
		if len(currentLower) != 1 {
			return nil, fmt.Errorf("lower-bracket final expected exactly one match in round %d, found %d", next.Round, len(currentLower))
		}
		next.Final = &models.Match{
			ID:      FinalMatchID,
			Round:   nextRound,
			Bracket: models.BracketFinal,
			Player1: next.UpperFinalWinner,
			Player2: currentLower[0].WinnerID(),
		}
		roster := NewRoster(next.Participants)
		next.Final.Result = byeResult(roster, pairing{player1: next.Final.Player1, player2: next.Final.Player2}, bestOf)
		if next.Final.IsResolved() {
			next.recomputeStandings()
			next.WinnerID = next.Standings[0].ParticipantID
		}
		return next, nil
	}

	upperWinners := winnersOf(currentUpper)
	upperLosers := losersOf(currentUpper)
	switch {
	case len(currentUpper) == 1:
		next.UpperFinalWinner = currentUpper[0].WinnerID()
		next.UpperFinalLoser = currentUpper[0].LoserID()
	case len(currentUpper) > 1:
		next.Upper = append(next.Upper, gen.GenerateRound(GenerateRoundParams{
			ParticipantIDs: upperWinners,
			Bracket:        models.BracketUpper,
			Round:          nextRound,
			BestOf:         bestOf,
		})...)
	}

	lowerWinners := winnersOf(currentLower)
	var pool []string
	switch {
	case len(upperLosers) == 1 && len(lowerWinners) == 2:
		// Полуфинал нижней сетки: проигравший финал верхней ждет следующий раунд.
		pool = append(pool, lowerWinners...)
	case len(upperLosers) >= 2:
		pool = append(pool, upperLosers...)
		pool = append(pool, lowerWinners...)
	default:
		pool = append(pool, lowerWinners...)
		if next.UpperFinalLoser != "" && !next.UpperFinalLoserSeeded {
			pool = append(pool, next.UpperFinalLoser)
			next.UpperFinalLoserSeeded = true
		}
		if next.UpperFinalLoserSeeded && len(pool) == 2 {
			next.LowerFinalPlaying = true
		}
	}

	next.Lower = append(next.Lower, gen.GenerateRound(GenerateRoundParams{
		ParticipantIDs: pool,
		Bracket:        models.BracketLower,
		Round:          nextRound,
		BestOf:         bestOf,
	})...)
	next.Round = nextRound
	next.recomputeStandings()
	return next, nil
}

func (e *Engine) generator(s *State) (RoundGenerator, error) {
	return NewRoundGenerator(s.Config.BracketType, NewRoster(s.Participants), e.rng)
}

// Stage reports where the tournament is in its lifecycle.
func (s *State) Stage() models.TournamentStage {
	switch {
	case s.WinnerID != "":
		return models.StageCompleted
	case s.Final != nil:
		return models.StageFinalPending
	case s.LowerFinalPlaying:
		return models.StageLowerFinal
	default:
		return models.StageRoundInProgress
	}
}

// VisibleMatches returns upper then lower matches up to the current round.
// The grand final is tagged with the following round and is exposed separately.
func (s *State) VisibleMatches() []*models.Match {
	visible := make([]*models.Match, 0, len(s.Upper)+len(s.Lower))
	for _, m := range s.Upper {
		if m.Round <= s.Round {
			visible = append(visible, m)
		}
	}
	for _, m := range s.Lower {
		if m.Round <= s.Round {
			visible = append(visible, m)
		}
	}
	return visible
}

func (s *State) CurrentMatches() []*models.Match {
	if s.Final != nil {
		return []*models.Match{s.Final}
	}
	current := matchesOfRound(s.Upper, s.Round)
	return append(current, matchesOfRound(s.Lower, s.Round)...)
}

// RoundComplete reports whether AdvanceRound would pass its precondition.
func (s *State) RoundComplete() bool {
	if s.Final != nil {
		return s.Final.IsResolved()
	}
	if countPending(matchesOfRound(s.Upper, s.Round)) > 0 {
		return false
	}
	return s.Round == 1 || countPending(matchesOfRound(s.Lower, s.Round)) == 0
}

func (s *State) Participant(id string) (models.Participant, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return models.Participant{}, false
}

// Champion returns the winner once the grand final has a result.
func (s *State) Champion() (models.Participant, bool) {
	if s.WinnerID == "" {
		return models.Participant{}, false
	}
	return s.Participant(s.WinnerID)
}

func (s *State) ResolvedMatches() []*models.Match {
	resolved := make([]*models.Match, 0, len(s.Upper)+len(s.Lower)+1)
	for _, group := range [][]*models.Match{s.Upper, s.Lower} {
		for _, m := range group {
			if m.IsResolved() {
				resolved = append(resolved, m)
			}
		}
	}
	if s.Final != nil && s.Final.IsResolved() {
		resolved = append(resolved, s.Final)
	}
	return resolved
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Participants = append([]models.Participant(nil), s.Participants...)
	c.Standings = append([]models.Standing(nil), s.Standings...)
	c.Upper = cloneMatches(s.Upper)
	c.Lower = cloneMatches(s.Lower)
	c.Final = s.Final.Clone()
	return &c
}

func (s *State) findMatch(id string) *models.Match {
	for _, group := range [][]*models.Match{s.Upper, s.Lower} {
		for _, m := range group {
			if m.ID == id {
				return m
			}
		}
	}
	if s.Final != nil && s.Final.ID == id {
		return s.Final
	}
	return nil
}

func (s *State) recomputeStandings() {
	s.Standings = RecomputeStandings(s.Participants, s.ResolvedMatches(), s.Config.TiebreakerType)
}

// fieldSize is the next power of two that fits the roster and the configured
// size, never below minFieldSize.
func fieldSize(rosterSize, configured int) int {
	want := max(rosterSize, configured, minFieldSize)
	size := 1
	for size < want {
		size <<= 1
	}
	return size
}

func participantIDs(participants []models.Participant) []string {
	ids := make([]string, len(participants))
	for i, p := range participants {
		ids[i] = p.ID
	}
	return ids
}

func cloneMatches(matches []*models.Match) []*models.Match {
	if matches == nil {
		return nil
	}
	c := make([]*models.Match, len(matches))
	for i, m := range matches {
		c[i] = m.Clone()
	}
	return c
}

func matchesOfRound(matches []*models.Match, round int) []*models.Match {
	var out []*models.Match
	for _, m := range matches {
		if m.Round == round {
			out = append(out, m)
		}
	}
	return out
}

func countPending(matches []*models.Match) int {
	pending := 0
	for _, m := range matches {
		if !m.IsResolved() {
			pending++
		}
	}
	return pending
}

func winnersOf(matches []*models.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if id := m.WinnerID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// losersOf skips the empty slot of odd pairings.
func losersOf(matches []*models.Match) []string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if id := m.LoserID(); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
