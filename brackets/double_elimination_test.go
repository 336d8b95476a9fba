package brackets

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/double-elimination/models"
)

func rigidConfig(participants, bestOf int) models.TournamentConfig {
	return models.TournamentConfig{
		ParticipantsCount: participants,
		BracketType:       models.BracketTypeRigid,
		TiebreakerType:    models.TiebreakerRating,
		MatchesInRound:    bestOf,
	}
}

func win(side models.Side, bestOf int) []models.GameOutcome {
	out := make([]models.GameOutcome, bestOf)
	for i := range out {
		out[i] = models.GameOutcome{GameIndex: i, Outcome: models.Outcome(side)}
	}
	return out
}

func matchByID(t *testing.T, s *State, id string) *models.Match {
	t.Helper()
	m := s.findMatch(id)
	require.NotNil(t, m, "match %s", id)
	return m
}

func sideOf(m *models.Match, id string) models.Side {
	if m.Player1 == id {
		return models.SidePlayer1
	}
	return models.SidePlayer2
}

func players(m *models.Match) []string {
	return []string{m.Player1, m.Player2}
}

func TestEngine_FourParticipantScenario(t *testing.T) {
	e := NewEngine(NewSeededRand(1))

	s, err := e.Initialize(rigidConfig(4, 1), testRoster())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Round)
	assert.Empty(t, s.Lower)
	require.Len(t, s.Upper, 2)
	assert.Equal(t, []string{"a", "d"}, players(matchByID(t, s, "upper-1-0")))
	assert.Equal(t, []string{"b", "c"}, players(matchByID(t, s, "upper-1-1")))

	s, err = e.SubmitResult(s, "upper-1-0", win(models.SidePlayer1, 1))
	require.NoError(t, err)
	s, err = e.SubmitResult(s, "upper-1-1", win(models.SidePlayer1, 1))
	require.NoError(t, err)

	s, err = e.AdvanceRound(s)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Round)
	assert.ElementsMatch(t, []string{"a", "b"}, players(matchByID(t, s, "upper-2-0")))
	assert.ElementsMatch(t, []string{"c", "d"}, players(matchByID(t, s, "lower-2-0")))

	upperFinal := matchByID(t, s, "upper-2-0")
	s, err = e.SubmitResult(s, "upper-2-0", win(sideOf(upperFinal, "a"), 1))
	require.NoError(t, err)
	lower := matchByID(t, s, "lower-2-0")
	s, err = e.SubmitResult(s, "lower-2-0", win(sideOf(lower, "c"), 1))
	require.NoError(t, err)

	s, err = e.AdvanceRound(s)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Round)
	assert.Equal(t, "a", s.UpperFinalWinner)
	assert.Equal(t, "b", s.UpperFinalLoser)
	assert.Equal(t, models.StageLowerFinal, s.Stage())
	assert.ElementsMatch(t, []string{"b", "c"}, players(matchByID(t, s, "lower-3-0")))

	lowerFinal := matchByID(t, s, "lower-3-0")
	s, err = e.SubmitResult(s, "lower-3-0", win(sideOf(lowerFinal, "c"), 1))
	require.NoError(t, err)

	s, err = e.AdvanceRound(s)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Round, "the grand final does not bump the public round counter")
	assert.Equal(t, models.StageFinalPending, s.Stage())
	require.NotNil(t, s.Final)
	assert.Equal(t, FinalMatchID, s.Final.ID)
	assert.Equal(t, 4, s.Final.Round)
	assert.Equal(t, []string{"a", "c"}, players(s.Final))
	assert.Nil(t, s.Final.Result)
	assert.Equal(t, []*models.Match{s.Final}, s.CurrentMatches())

	_, err = e.AdvanceRound(s)
	assert.ErrorIs(t, err, ErrRoundIncomplete)

	s, err = e.SubmitResult(s, FinalMatchID, win(models.SidePlayer1, 1))
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, s.Stage())
	champion, ok := s.Champion()
	require.True(t, ok)
	assert.Equal(t, "a", champion.ID)
	assert.Equal(t, "a", s.Standings[0].ParticipantID)

	_, err = e.AdvanceRound(s)
	assert.ErrorIs(t, err, ErrTournamentCompleted)
	_, err = e.SubmitResult(s, FinalMatchID, win(models.SidePlayer2, 1))
	assert.ErrorIs(t, err, ErrTournamentCompleted)
}

func TestEngine_ByePadding(t *testing.T) {
	roster := []models.Participant{
		{ID: "p1", Rating: 1500},
		{ID: "p2", Rating: 1400},
		{ID: "p3", Rating: 1300},
		{ID: "p4", Rating: 1200},
		{ID: "p5", Rating: 1100},
	}
	e := NewEngine(NewSeededRand(1))

	s, err := e.Initialize(rigidConfig(8, 3), roster)
	require.NoError(t, err)
	require.Len(t, s.Participants, 8)
	require.Len(t, s.Upper, 4)

	prefilled := 0
	for _, m := range s.Upper {
		if !m.IsResolved() {
			assert.Equal(t, []string{"p4", "p5"}, players(m))
			continue
		}
		prefilled++
		winner, _ := s.Participant(m.WinnerID())
		assert.False(t, winner.IsEmpty, "bye never wins against a real participant")
		assert.Len(t, m.Result.Details, 3)
		assert.Equal(t, 3.0, m.Result.Player1+m.Result.Player2)
	}
	assert.Equal(t, 3, prefilled)

	_, err = e.SubmitResult(s, "upper-1-0", win(models.SidePlayer2, 3))
	assert.ErrorIs(t, err, ErrMatchClosed, "bye results are not editable")
}

func TestEngine_PrePaddedRosterKeepsExistingByes(t *testing.T) {
	roster := append(testRoster()[:3], models.NewEmptyParticipant(0))

	s, err := NewEngine(nil).Initialize(rigidConfig(4, 1), roster)
	require.NoError(t, err)
	assert.Len(t, s.Participants, 4)
}

func TestEngine_InitializeErrors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     models.TournamentConfig
		roster  []models.Participant
		wantErr error
	}{
		{name: "empty roster", cfg: rigidConfig(4, 1), wantErr: ErrInvalidParticipantCount},
		{name: "one real participant", cfg: rigidConfig(4, 1), roster: []models.Participant{{ID: "a"}, models.NewEmptyParticipant(0)}, wantErr: ErrInvalidParticipantCount},
		{name: "duplicate id", cfg: rigidConfig(4, 1), roster: []models.Participant{{ID: "a"}, {ID: "a"}}, wantErr: ErrDuplicateParticipant},
		{name: "zero best-of", cfg: rigidConfig(4, 0), roster: testRoster(), wantErr: ErrInvalidBestOf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(nil).Initialize(tt.cfg, tt.roster)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEngine_AdvanceRoundIncompleteLeavesStateUnchanged(t *testing.T) {
	e := NewEngine(NewSeededRand(1))
	s, err := e.Initialize(rigidConfig(4, 1), testRoster())
	require.NoError(t, err)
	s, err = e.SubmitResult(s, "upper-1-0", win(models.SidePlayer1, 1))
	require.NoError(t, err)

	before := s.Clone()
	next, err := e.AdvanceRound(s)
	assert.ErrorIs(t, err, ErrRoundIncomplete)
	assert.Nil(t, next)
	assert.False(t, s.RoundComplete())
	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("state changed after failed advance (-before +after):\n%s", diff)
	}
}

func TestEngine_AdvanceRoundPendingLowerMatchLeavesStateUnchanged(t *testing.T) {
	e := NewEngine(NewSeededRand(1))
	s, err := e.Initialize(rigidConfig(4, 1), testRoster())
	require.NoError(t, err)
	for _, id := range []string{"upper-1-0", "upper-1-1"} {
		s, err = e.SubmitResult(s, id, win(models.SidePlayer1, 1))
		require.NoError(t, err)
	}
	s, err = e.AdvanceRound(s)
	require.NoError(t, err)
	require.Equal(t, 2, s.Round)

	s, err = e.SubmitResult(s, "upper-2-0", win(models.SidePlayer1, 1))
	require.NoError(t, err)
	require.Nil(t, matchByID(t, s, "lower-2-0").Result)

	before := s.Clone()
	next, err := e.AdvanceRound(s)
	assert.ErrorIs(t, err, ErrRoundIncomplete)
	assert.Nil(t, next)
	if diff := cmp.Diff(before, s); diff != "" {
		t.Errorf("state changed after failed advance (-before +after):\n%s", diff)
	}
}

func TestEngine_SubmitResultErrorsLeaveStateUnchanged(t *testing.T) {
	e := NewEngine(NewSeededRand(1))
	s, err := e.Initialize(rigidConfig(4, 3), testRoster())
	require.NoError(t, err)
	before := s.Clone()

	tests := []struct {
		name    string
		matchID string
		games   []models.GameOutcome
		wantErr error
	}{
		{name: "unknown match", matchID: "upper-9-0", games: win(models.SidePlayer1, 3), wantErr: ErrMatchNotFound},
		{name: "short series", matchID: "upper-1-0", games: win(models.SidePlayer1, 2), wantErr: ErrIncompleteSeries},
		{name: "bad outcome", matchID: "upper-1-0", games: []models.GameOutcome{{GameIndex: 0, Outcome: "x"}, {GameIndex: 1, Outcome: "x"}, {GameIndex: 2, Outcome: "x"}}, wantErr: ErrInvalidOutcome},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.SubmitResult(s, tt.matchID, tt.games)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, cmp.Diff(before, s))
		})
	}
}

func TestEngine_SubmitResultDoesNotMutateInput(t *testing.T) {
	e := NewEngine(NewSeededRand(1))
	s, err := e.Initialize(rigidConfig(4, 1), testRoster())
	require.NoError(t, err)

	next, err := e.SubmitResult(s, "upper-1-0", win(models.SidePlayer1, 1))
	require.NoError(t, err)
	assert.Nil(t, matchByID(t, s, "upper-1-0").Result)
	assert.NotNil(t, matchByID(t, next, "upper-1-0").Result)

	// overwriting a current-round result is allowed
	next, err = e.SubmitResult(next, "upper-1-0", win(models.SidePlayer2, 1))
	require.NoError(t, err)
	assert.Equal(t, "d", matchByID(t, next, "upper-1-0").WinnerID())
}

func TestEngine_PastRoundIsClosed(t *testing.T) {
	e := NewEngine(NewSeededRand(1))
	s, err := e.Initialize(rigidConfig(4, 1), testRoster())
	require.NoError(t, err)
	for _, id := range []string{"upper-1-0", "upper-1-1"} {
		s, err = e.SubmitResult(s, id, win(models.SidePlayer1, 1))
		require.NoError(t, err)
	}
	s, err = e.AdvanceRound(s)
	require.NoError(t, err)

	_, err = e.SubmitResult(s, "upper-1-0", win(models.SidePlayer2, 1))
	assert.ErrorIs(t, err, ErrMatchClosed)
}

func TestEngine_VisibleMatchesStopAtCurrentRound(t *testing.T) {
	e := NewEngine(NewSeededRand(1))
	roster := make([]models.Participant, 8)
	for i := range roster {
		roster[i] = models.Participant{ID: fmt.Sprintf("p%d", i), Rating: float64(2000 - i*10)}
	}
	s, err := e.Initialize(rigidConfig(8, 1), roster)
	require.NoError(t, err)
	s = playRound(t, e, s)
	s, err = e.AdvanceRound(s)
	require.NoError(t, err)

	for _, m := range s.VisibleMatches() {
		assert.LessOrEqual(t, m.Round, s.Round)
	}
	assert.Len(t, s.VisibleMatches(), 4+2+2)
	assert.Len(t, s.CurrentMatches(), 4)
}

// playRound resolves every pending current match in favour of player1.
func playRound(t *testing.T, e *Engine, s *State) *State {
	t.Helper()
	for _, m := range s.CurrentMatches() {
		if m.IsResolved() {
			continue
		}
		next, err := e.SubmitResult(s, m.ID, win(models.SidePlayer1, s.Config.MatchesInRound))
		require.NoError(t, err, "match %s", m.ID)
		s = next
	}
	return s
}

func runToCompletion(t *testing.T, e *Engine, s *State) *State {
	t.Helper()
	for step := 0; step < 40; step++ {
		s = playRound(t, e, s)
		if s.Stage() == models.StageCompleted {
			return s
		}
		next, err := e.AdvanceRound(s)
		require.NoError(t, err, "advance from round %d", s.Round)
		s = next
		if s.Stage() == models.StageCompleted {
			return s
		}
	}
	t.Fatalf("tournament did not finish, stuck in round %d stage %s", s.Round, s.Stage())
	return nil
}

func TestEngine_FullTournaments(t *testing.T) {
	tests := []struct {
		real     int
		field    int
		bestOf   int
		bracket  models.BracketType
		tiebreak models.TiebreakerType
	}{
		{real: 2, field: 4, bestOf: 1, bracket: models.BracketTypeRigid, tiebreak: models.TiebreakerRating},
		{real: 4, field: 4, bestOf: 1, bracket: models.BracketTypeRigid, tiebreak: models.TiebreakerRating},
		{real: 5, field: 8, bestOf: 3, bracket: models.BracketTypeRigid, tiebreak: models.TiebreakerBuchholz},
		{real: 7, field: 8, bestOf: 1, bracket: models.BracketTypeRandom, tiebreak: models.TiebreakerRating},
		{real: 8, field: 8, bestOf: 5, bracket: models.BracketTypeReroll, tiebreak: models.TiebreakerBerger},
		{real: 11, field: 16, bestOf: 1, bracket: models.BracketTypeRigid, tiebreak: models.TiebreakerRating},
		{real: 16, field: 16, bestOf: 3, bracket: models.BracketTypeReroll, tiebreak: models.TiebreakerBuchholz},
		{real: 32, field: 32, bestOf: 1, bracket: models.BracketTypeRandom, tiebreak: models.TiebreakerRating},
		{real: 64, field: 64, bestOf: 1, bracket: models.BracketTypeRigid, tiebreak: models.TiebreakerBerger},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d_%s_bo%d", tt.real, tt.field, tt.bracket, tt.bestOf), func(t *testing.T) {
			roster := make([]models.Participant, tt.real)
			for i := range roster {
				roster[i] = models.Participant{ID: fmt.Sprintf("p%02d", i), Rating: float64(2000 - i*10)}
			}
			cfg := models.TournamentConfig{
				ParticipantsCount: tt.field,
				BracketType:       tt.bracket,
				TiebreakerType:    tt.tiebreak,
				MatchesInRound:    tt.bestOf,
			}
			e := NewEngine(NewSeededRand(uint64(tt.field)))
			s, err := e.Initialize(cfg, roster)
			require.NoError(t, err)

			s = runToCompletion(t, e, s)

			require.NotNil(t, s.Final)
			require.NotNil(t, s.Final.Result)
			champion, ok := s.Champion()
			require.True(t, ok)
			assert.False(t, champion.IsEmpty)
			assert.Equal(t, champion.ID, s.Standings[0].ParticipantID)
			assert.NotEmpty(t, s.UpperFinalWinner)
			assert.True(t, s.UpperFinalLoserSeeded)

			require.Len(t, s.Standings, tt.field)
			for i, st := range s.Standings {
				assert.Equal(t, i+1, st.Position)
			}
			for _, m := range s.ResolvedMatches() {
				assert.Equal(t, float64(tt.bestOf), m.Result.Player1+m.Result.Player2, m.ID)
			}
		})
	}
}

func TestEngine_SeededRandomTournamentIsReproducible(t *testing.T) {
	cfg := models.TournamentConfig{
		ParticipantsCount: 8,
		BracketType:       models.BracketTypeReroll,
		TiebreakerType:    models.TiebreakerBuchholz,
		MatchesInRound:    1,
	}
	roster := make([]models.Participant, 8)
	for i := range roster {
		roster[i] = models.Participant{ID: fmt.Sprintf("p%d", i), Rating: float64(1000 + i)}
	}

	run := func() *State {
		e := NewEngine(NewSeededRand(99))
		s, err := e.Initialize(cfg, roster)
		require.NoError(t, err)
		return runToCompletion(t, e, s)
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("same seed produced different tournaments:\n%s", diff)
	}
}

func TestFieldSize(t *testing.T) {
	tests := []struct{ roster, configured, want int }{
		{roster: 2, configured: 0, want: 4},
		{roster: 5, configured: 8, want: 8},
		{roster: 9, configured: 8, want: 16},
		{roster: 16, configured: 16, want: 16},
		{roster: 3, configured: 12, want: 16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fieldSize(tt.roster, tt.configured), "%+v", tt)
	}
}
