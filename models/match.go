package models

type Bracket string

const (
	BracketUpper Bracket = "upper"
	BracketLower Bracket = "lower"
	BracketFinal Bracket = "final"
)

// Side identifies one of the two slots of a match.
type Side string

const (
	SidePlayer1 Side = "player1"
	SidePlayer2 Side = "player2"
)

// Outcome is the result of a single game inside a series.
type Outcome string

const (
	OutcomePlayer1 Outcome = "player1"
	OutcomePlayer2 Outcome = "player2"
	OutcomeDraw    Outcome = "draw"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePlayer1, OutcomePlayer2, OutcomeDraw:
		return true
	}
	return false
}

type GameOutcome struct {
	GameIndex int     `json:"matchNumber"`
	Outcome   Outcome `json:"result"`
}

// Result - итог серии. Winner вычисляется один раз при создании.
type Result struct {
	Player1 float64       `json:"player1"`
	Player2 float64       `json:"player2"`
	Winner  Side          `json:"winner"`
	Details []GameOutcome `json:"details"`
}

// Match is one pairing of a round. Player2 is empty only for the odd slot of
// a pairing sequence, which is resolved like a bye.
type Match struct {
	ID      string  `json:"id"`
	Round   int     `json:"round"`
	Bracket Bracket `json:"bracket"`
	Player1 string  `json:"player1"`
	Player2 string  `json:"player2"`
	Result  *Result `json:"result"`
}

func (m *Match) IsResolved() bool {
	return m.Result != nil
}

func (m *Match) HasParticipant(id string) bool {
	return id != "" && (m.Player1 == id || m.Player2 == id)
}

// Opponent returns the other side of the match for id, or "" when id did not play.
func (m *Match) Opponent(id string) string {
	switch id {
	case "":
		return ""
	case m.Player1:
		return m.Player2
	case m.Player2:
		return m.Player1
	}
	return ""
}

func (m *Match) WinnerID() string {
	if m.Result == nil {
		return ""
	}
	if m.Result.Winner == SidePlayer1 {
		return m.Player1
	}
	return m.Player2
}

func (m *Match) LoserID() string {
	if m.Result == nil {
		return ""
	}
	if m.Result.Winner == SidePlayer1 {
		return m.Player2
	}
	return m.Player1
}

// Clone returns a deep copy of the match including its result.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	c := *m
	if m.Result != nil {
		r := *m.Result
		r.Details = append([]GameOutcome(nil), m.Result.Details...)
		c.Result = &r
	}
	return &c
}
