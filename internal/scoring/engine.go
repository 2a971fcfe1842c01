package scoring

import (
	"errors"
	"fmt"

	"cricketscore/internal/models"
)

var (
	ErrPromptPending    = errors.New("a player selection is pending")
	ErrWrongPrompt      = errors.New("that selection is not being asked for")
	ErrInvalidPlayer    = errors.New("player is not in this innings")
	ErrPlayerOut        = errors.New("player is already out")
	ErrSamePlayer       = errors.New("player is already at the crease")
	ErrConsecutiveOvers = errors.New("bowler cannot bowl consecutive overs")
	ErrInvalidEvent     = errors.New("invalid ball event")
	ErrMatchComplete    = errors.New("match is complete")
	ErrNotReady         = errors.New("innings is not ready for scoring")
	ErrMatchNotStarted  = errors.New("match has no innings in progress")
)

// State is the engine's position in the scoring flow
type State int

const (
	AwaitingOpeners State = iota
	AwaitingBowler
	AwaitingNextBatter
	ReadyToScore
	InningsComplete
	MatchComplete
)

var stateNames = [...]string{
	AwaitingOpeners:    "awaiting_openers",
	AwaitingBowler:     "awaiting_bowler",
	AwaitingNextBatter: "awaiting_next_batter",
	ReadyToScore:       "ready",
	InningsComplete:    "innings_complete",
	MatchComplete:      "match_complete",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", b)
}

// Prompt is the player selection the caller must make before scoring resumes
type Prompt int

const (
	PromptNone Prompt = iota
	PromptSelectOpeners
	PromptSelectBowler
	PromptSelectNextBatter
)

func (p Prompt) String() string {
	switch p {
	case PromptSelectOpeners:
		return "select_openers"
	case PromptSelectBowler:
		return "select_bowler"
	case PromptSelectNextBatter:
		return "select_next_batter"
	}
	return "none"
}

func (p Prompt) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Prompt) UnmarshalText(b []byte) error {
	for v := PromptNone; v <= PromptSelectNextBatter; v++ {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown prompt %q", b)
}

// Action tells the caller what a ball led to
type Action int

const (
	ActionContinue Action = iota
	ActionSwapStrike
	ActionSelectNextBatter
	ActionSelectBowler
	ActionEndInnings
	ActionEndMatch
)

func (a Action) String() string {
	switch a {
	case ActionSwapStrike:
		return "swap_strike"
	case ActionSelectNextBatter:
		return "select_next_batter"
	case ActionSelectBowler:
		return "select_bowler"
	case ActionEndInnings:
		return "end_innings"
	case ActionEndMatch:
		return "end_match"
	}
	return "continue"
}

func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Action) UnmarshalText(b []byte) error {
	for v := ActionContinue; v <= ActionEndMatch; v++ {
		if v.String() == string(b) {
			*a = v
			return nil
		}
	}
	return fmt.Errorf("unknown action %q", b)
}

type cursor struct {
	striker        string
	nonStriker     string
	bowler         string
	lastOverBowler string
	overRuns       int
	overEndPending bool
	state          State
}

type snapshot struct {
	match  *models.Match
	cursor cursor
}

// Engine scores one match ball by ball. It is not safe for concurrent use.
type Engine struct {
	match  *models.Match
	cursor cursor
	target int
	undo   *snapshot
}

// NewEngine takes a copy of a match whose toss has been applied and waits
// for the openers of the current innings.
func NewEngine(m *models.Match) (*Engine, error) {
	if m == nil || m.Status != models.StatusInProgress || m.Innings1.BattingTeam == "" {
		return nil, ErrMatchNotStarted
	}
	e := &Engine{match: m.Clone()}
	if e.match.Innings2 != nil {
		e.target = e.match.Innings1.Score + 1
	}
	e.cursor.state = AwaitingOpeners
	return e, nil
}

// State returns the current engine state.
func (e *Engine) State() State { return e.cursor.state }

// Prompt returns the selection the caller must make, if any.
func (e *Engine) Prompt() Prompt {
	switch e.cursor.state {
	case AwaitingOpeners:
		return PromptSelectOpeners
	case AwaitingBowler:
		return PromptSelectBowler
	case AwaitingNextBatter:
		return PromptSelectNextBatter
	}
	return PromptNone
}

// Target is the score the side batting second needs, or 0 in the first innings.
func (e *Engine) Target() int { return e.target }

// CanUndo reports whether a ball can be taken back.
func (e *Engine) CanUndo() bool {
	return e.undo != nil && e.cursor.state != MatchComplete
}

// Match returns a copy of the match as it stands.
func (e *Engine) Match() *models.Match { return e.match.Clone() }

// Players returns the ids of the striker, non-striker and bowler. Empty
// strings mean the position is unfilled.
func (e *Engine) Players() (striker, nonStriker, bowler string) {
	return e.cursor.striker, e.cursor.nonStriker, e.cursor.bowler
}

func (e *Engine) innings() *models.Innings { return e.match.CurrentInnings() }

func (e *Engine) checkSelecting(want State) error {
	switch e.cursor.state {
	case want:
		return nil
	case MatchComplete:
		return ErrMatchComplete
	}
	return ErrWrongPrompt
}

// SelectOpeners puts the two opening batters at the crease.
func (e *Engine) SelectOpeners(strikerID, nonStrikerID string) error {
	if err := e.checkSelecting(AwaitingOpeners); err != nil {
		return err
	}
	if strikerID == nonStrikerID {
		return ErrSamePlayer
	}
	for _, id := range []string{strikerID, nonStrikerID} {
		p := FindBatter(e.innings(), id)
		if p == nil {
			return ErrInvalidPlayer
		}
		if p.IsOut {
			return ErrPlayerOut
		}
	}
	e.cursor.striker = strikerID
	e.cursor.nonStriker = nonStrikerID
	e.cursor.state = AwaitingBowler
	return nil
}

// SelectBowler chooses who bowls the next over.
func (e *Engine) SelectBowler(bowlerID string) error {
	if err := e.checkSelecting(AwaitingBowler); err != nil {
		return err
	}
	if FindBowler(e.innings(), bowlerID) == nil {
		return ErrInvalidPlayer
	}
	if bowlerID == e.cursor.lastOverBowler {
		return ErrConsecutiveOvers
	}
	e.cursor.bowler = bowlerID
	e.cursor.overRuns = 0
	e.cursor.state = ReadyToScore
	return nil
}

// SelectNextBatter replaces a dismissed striker. If the dismissal was the
// last ball of an over, the over change happens now.
func (e *Engine) SelectNextBatter(batterID string) error {
	if err := e.checkSelecting(AwaitingNextBatter); err != nil {
		return err
	}
	p := FindBatter(e.innings(), batterID)
	if p == nil {
		return ErrInvalidPlayer
	}
	if p.IsOut {
		return ErrPlayerOut
	}
	if batterID == e.cursor.nonStriker {
		return ErrSamePlayer
	}
	e.cursor.striker = batterID
	if e.cursor.overEndPending {
		e.cursor.overEndPending = false
		e.changeOver()
		return nil
	}
	e.cursor.state = ReadyToScore
	return nil
}

// SwapBatsmen exchanges striker and non-striker.
func (e *Engine) SwapBatsmen() error {
	if err := e.checkScoring(); err != nil {
		return err
	}
	e.swap()
	return nil
}

func (e *Engine) checkScoring() error {
	switch e.cursor.state {
	case ReadyToScore:
		return nil
	case MatchComplete:
		return ErrMatchComplete
	case AwaitingOpeners, AwaitingBowler, AwaitingNextBatter:
		return ErrPromptPending
	}
	return ErrNotReady
}

func (e *Engine) swap() {
	e.cursor.striker, e.cursor.nonStriker = e.cursor.nonStriker, e.cursor.striker
}

func (e *Engine) changeOver() {
	e.swap()
	e.cursor.bowler = ""
	e.cursor.state = AwaitingBowler
}

// ApplyBall records one delivery and returns what the caller should do next.
// On error the match is left untouched.
func (e *Engine) ApplyBall(ev Event) (Action, error) {
	if err := e.checkScoring(); err != nil {
		return ActionContinue, err
	}
	if !ev.Valid() {
		return ActionContinue, ErrInvalidEvent
	}

	inn := e.innings()
	striker := FindBatter(inn, e.cursor.striker)
	bowler := FindBowler(inn, e.cursor.bowler)
	if striker == nil || bowler == nil {
		return ActionContinue, ErrNotReady
	}

	e.undo = &snapshot{match: e.match.Clone(), cursor: e.cursor}

	switch ev.Kind {
	case EventRuns:
		striker.Runs += ev.Runs
		striker.Balls++
		switch ev.Runs {
		case 4:
			striker.Fours++
		case 6:
			striker.Sixes++
		}
		inn.Score += ev.Runs
		bowler.Runs += ev.Runs
		e.cursor.overRuns += ev.Runs
	case EventWide, EventNoBall:
		inn.Score++
		inn.Extras++
		bowler.Runs++
		e.cursor.overRuns++
	case EventWicket:
		striker.IsOut = true
		striker.OutMethod = "Bowled"
		inn.Wickets++
		bowler.Wickets++
	}

	endOfOver := false
	if ev.legal() {
		inn.Balls++
		bowler.Balls++
		if ev.Kind == EventWicket {
			inn.FallOfWickets = append(inn.FallOfWickets, models.FallOfWicket{
				Score:  inn.Score,
				Wicket: inn.Wickets,
				Player: striker.Name,
				Over:   OversNotation(inn.Overs, inn.Balls),
			})
		}
		if inn.Balls == BallsPerOver {
			inn.Balls = 0
			inn.Overs++
			bowler.Overs++
			bowler.Balls = 0
			if e.cursor.overRuns == 0 {
				bowler.Maidens++
			}
			e.cursor.overRuns = 0
			e.cursor.lastOverBowler = bowler.ID
			endOfOver = true
		}
	}

	if e.target > 0 && inn.Score >= e.target {
		return e.endInnings(), nil
	}

	if ev.Kind == EventWicket {
		if inn.Wickets >= MaxWickets || (endOfOver && inn.Overs >= e.match.Overs) {
			return e.endInnings(), nil
		}
		e.cursor.striker = ""
		e.cursor.overEndPending = endOfOver
		e.cursor.state = AwaitingNextBatter
		return ActionSelectNextBatter, nil
	}

	if endOfOver {
		if inn.Overs >= e.match.Overs {
			return e.endInnings(), nil
		}
		e.changeOver()
		return ActionSelectBowler, nil
	}

	if ev.Kind == EventRuns && ev.Runs%2 == 1 {
		e.swap()
		return ActionSwapStrike, nil
	}
	return ActionContinue, nil
}

func (e *Engine) endInnings() Action {
	e.cursor.striker, e.cursor.nonStriker, e.cursor.bowler = "", "", ""
	e.cursor.overEndPending = false
	if e.match.Innings2 == nil {
		e.cursor.state = InningsComplete
		return ActionEndInnings
	}
	e.finish(chaseResult(&e.match.Innings1, e.match.Innings2))
	return ActionEndMatch
}

func (e *Engine) finish(result string) {
	e.match.Status = models.StatusCompleted
	e.match.Result = result
	e.cursor.state = MatchComplete
	e.undo = nil
}

func chaseResult(first, second *models.Innings) string {
	switch {
	case second.Score > first.Score:
		return fmt.Sprintf("%s won by %s", second.BattingTeam, plural(MaxWickets-second.Wickets, "wicket"))
	case first.Score > second.Score:
		return fmt.Sprintf("%s won by %s", first.BattingTeam, plural(first.Score-second.Score, "run"))
	}
	return "Match tied"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// StartNextInnings opens the second innings with the sides swapped.
func (e *Engine) StartNextInnings() error {
	switch e.cursor.state {
	case InningsComplete:
	case MatchComplete:
		return ErrMatchComplete
	default:
		return ErrNotReady
	}
	first := &e.match.Innings1
	batting, bowling := first.BowlingTeam, first.BattingTeam
	e.match.Innings2 = NewInnings(batting, bowling, e.match.Roster(batting), e.match.Roster(bowling))
	e.target = first.Score + 1
	e.cursor = cursor{state: AwaitingOpeners}
	e.undo = nil
	return nil
}

// Undo restores the state from before the last ball. It reports false when
// there is nothing to undo.
func (e *Engine) Undo() bool {
	if !e.CanUndo() {
		return false
	}
	e.match = e.undo.match
	e.cursor = e.undo.cursor
	e.undo = nil
	return true
}

// EndMatch closes the match early and returns the finished record. Calling
// it again returns the same record.
func (e *Engine) EndMatch() *models.Match {
	if e.cursor.state != MatchComplete {
		inn := e.innings()
		e.cursor.striker, e.cursor.nonStriker, e.cursor.bowler = "", "", ""
		e.finish(fmt.Sprintf("%s scored %d for %d.", inn.BattingTeam, inn.Score, inn.Wickets))
	}
	return e.match.Clone()
}
