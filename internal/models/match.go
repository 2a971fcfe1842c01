package models

import "time"

// MatchStatus is the lifecycle stage of a match
type MatchStatus string

const (
	StatusPending    MatchStatus = "pending"
	StatusToss       MatchStatus = "toss"
	StatusInProgress MatchStatus = "inprogress"
	StatusCompleted  MatchStatus = "completed"
)

// Decision is the toss winner's choice
type Decision string

const (
	DecisionBat  Decision = "bat"
	DecisionBowl Decision = "bowl"
)

// Valid reports whether d is bat or bowl.
func (d Decision) Valid() bool {
	return d == DecisionBat || d == DecisionBowl
}

// TossCall is the side called by team A before the coin lands
type TossCall string

const (
	Heads TossCall = "Heads"
	Tails TossCall = "Tails"
)

// Player is a roster entry and, inside an innings, a batter's stat line
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Runs      int    `json:"runs"`
	Balls     int    `json:"balls"`
	Fours     int    `json:"fours"`
	Sixes     int    `json:"sixes"`
	IsOut     bool   `json:"isOut"`
	OutMethod string `json:"outMethod,omitempty"`
}

// Bowler is a bowling stat line. Balls counts legal deliveries in the current
// incomplete over.
type Bowler struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Overs   int    `json:"overs"`
	Balls   int    `json:"balls"`
	Maidens int    `json:"maidens"`
	Runs    int    `json:"runs"`
	Wickets int    `json:"wickets"`
}

// FallOfWicket records the score at a dismissal
type FallOfWicket struct {
	Score  int    `json:"score"`
	Wicket int    `json:"wicket"`
	Player string `json:"player"`
	Over   string `json:"over,omitempty"`
}

// Innings is the ledger for one batting side
type Innings struct {
	BattingTeam   string         `json:"battingTeam"`
	BowlingTeam   string         `json:"bowlingTeam"`
	Score         int            `json:"score"`
	Wickets       int            `json:"wickets"`
	Overs         int            `json:"overs"`
	Balls         int            `json:"balls"`
	Extras        int            `json:"extras"`
	Batters       []Player       `json:"batters"`
	Bowlers       []Bowler       `json:"bowlers"`
	FallOfWickets []FallOfWicket `json:"fallOfWickets"`
}

// Clone returns a copy of the innings that shares no slices with the original.
func (in *Innings) Clone() *Innings {
	if in == nil {
		return nil
	}
	out := *in
	out.Batters = append([]Player(nil), in.Batters...)
	out.Bowlers = append([]Bowler(nil), in.Bowlers...)
	out.FallOfWickets = append([]FallOfWicket(nil), in.FallOfWickets...)
	return &out
}

// Match is the full match record handed to storage once completed
type Match struct {
	ID         string      `json:"id"`
	TeamA      string      `json:"teamA"`
	TeamB      string      `json:"teamB"`
	PlayersA   []Player    `json:"playersA"`
	PlayersB   []Player    `json:"playersB"`
	Overs      int         `json:"overs"`
	TossWinner string      `json:"tossWinner"`
	Decision   Decision    `json:"decision"`
	Innings1   Innings     `json:"innings1"`
	Innings2   *Innings    `json:"innings2,omitempty"`
	Status     MatchStatus `json:"status"`
	Result     string      `json:"result,omitempty"`
	Date       time.Time   `json:"date"`
}

// Clone returns a deep copy of the match.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	out := *m
	out.PlayersA = append([]Player(nil), m.PlayersA...)
	out.PlayersB = append([]Player(nil), m.PlayersB...)
	out.Innings1 = *m.Innings1.Clone()
	out.Innings2 = m.Innings2.Clone()
	return &out
}

// CurrentInnings returns the innings being played: the second once it has
// started, otherwise the first.
func (m *Match) CurrentInnings() *Innings {
	if m.Innings2 != nil {
		return m.Innings2
	}
	return &m.Innings1
}

// Roster returns the players of the named team.
func (m *Match) Roster(team string) []Player {
	if team == m.TeamA {
		return m.PlayersA
	}
	return m.PlayersB
}

// Opponent returns the other team's name.
func (m *Match) Opponent(team string) string {
	if team == m.TeamA {
		return m.TeamB
	}
	return m.TeamA
}

// MatchSummary is the list view of a stored match
type MatchSummary struct {
	ID     string      `json:"id"`
	TeamA  string      `json:"teamA"`
	TeamB  string      `json:"teamB"`
	Status MatchStatus `json:"status"`
	Result string      `json:"result,omitempty"`
	Date   time.Time   `json:"date"`
}

// Summary returns the list view of the match.
func (m *Match) Summary() MatchSummary {
	return MatchSummary{
		ID:     m.ID,
		TeamA:  m.TeamA,
		TeamB:  m.TeamB,
		Status: m.Status,
		Result: m.Result,
		Date:   m.Date,
	}
}
