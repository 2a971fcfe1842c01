package scoring

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"cricketscore/internal/models"
)

// newTestEngine sets up Lions (batting first) against Tigers.
func newTestEngine(t *testing.T, overs int) *Engine {
	t.Helper()
	m, err := NewMatch(Setup{
		TeamA:    "Lions",
		TeamB:    "Tigers",
		PlayersA: []string{"Ann", "Bea", "Cal"},
		PlayersB: []string{"Bob", "Dan"},
		Overs:    overs,
	}, time.Now())
	if err != nil {
		t.Fatalf("NewMatch() error = %v", err)
	}
	if err := ApplyToss(m, TossResult{Winner: "Lions", Decision: models.DecisionBat}); err != nil {
		t.Fatalf("ApplyToss() error = %v", err)
	}
	e, err := NewEngine(m)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func mustStart(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.SelectOpeners("Ann-0", "Bea-1"); err != nil {
		t.Fatalf("SelectOpeners() error = %v", err)
	}
	if err := e.SelectBowler("Bob-0"); err != nil {
		t.Fatalf("SelectBowler() error = %v", err)
	}
}

func mustBall(t *testing.T, e *Engine, ev Event) Action {
	t.Helper()
	a, err := e.ApplyBall(ev)
	if err != nil {
		t.Fatalf("ApplyBall(%s) error = %v", ev, err)
	}
	return a
}

// driver answers every prompt with the first eligible player so tests can
// focus on ball sequences.
type driver struct {
	t          *testing.T
	e          *Engine
	lastBowler string
}

func (d *driver) resolvePrompts() {
	d.t.Helper()
	for {
		inn := d.e.Match().CurrentInnings()
		_, nonStriker, _ := d.e.Players()
		var err error
		switch d.e.Prompt() {
		case PromptSelectOpeners:
			var ids []string
			for _, p := range inn.Batters {
				if !p.IsOut {
					ids = append(ids, p.ID)
				}
			}
			err = d.e.SelectOpeners(ids[0], ids[1])
		case PromptSelectBowler:
			for _, b := range inn.Bowlers {
				if b.ID != d.lastBowler {
					err = d.e.SelectBowler(b.ID)
					d.lastBowler = b.ID
					break
				}
			}
		case PromptSelectNextBatter:
			for _, p := range inn.Batters {
				if !p.IsOut && p.ID != nonStriker {
					err = d.e.SelectNextBatter(p.ID)
					break
				}
			}
		default:
			return
		}
		if err != nil {
			d.t.Fatalf("resolving prompt: %v", err)
		}
	}
}

func (d *driver) play(events ...Event) Action {
	d.t.Helper()
	var last Action
	for _, ev := range events {
		d.resolvePrompts()
		last = mustBall(d.t, d.e, ev)
	}
	return last
}

func dots(n int) []Event {
	evs := make([]Event, n)
	for i := range evs {
		evs[i] = Runs(0)
	}
	return evs
}

func TestNewEngineRequiresToss(t *testing.T) {
	m, _ := NewMatch(Setup{TeamA: "Lions", TeamB: "Tigers"}, time.Now())
	if _, err := NewEngine(m); !errors.Is(err, ErrMatchNotStarted) {
		t.Errorf("NewEngine() error = %v, want ErrMatchNotStarted", err)
	}
}

func TestEngineStartsWithOpenersPrompt(t *testing.T) {
	e := newTestEngine(t, 2)
	if e.State() != AwaitingOpeners || e.Prompt() != PromptSelectOpeners {
		t.Fatalf("state = %s/%s", e.State(), e.Prompt())
	}
	if _, err := e.ApplyBall(Runs(1)); !errors.Is(err, ErrPromptPending) {
		t.Errorf("ApplyBall() error = %v, want ErrPromptPending", err)
	}
	if err := e.SelectOpeners("Ann-0", "Bea-1"); err != nil {
		t.Fatal(err)
	}
	if e.Prompt() != PromptSelectBowler {
		t.Errorf("Prompt() = %s, want select_bowler", e.Prompt())
	}
	if err := e.SelectBowler("Bob-0"); err != nil {
		t.Fatal(err)
	}
	if e.State() != ReadyToScore || e.Prompt() != PromptNone {
		t.Errorf("state = %s/%s", e.State(), e.Prompt())
	}
}

func TestWicketMidOverScenario(t *testing.T) {
	e := newTestEngine(t, 2)
	mustStart(t, e)

	if a := mustBall(t, e, Runs(1)); a != ActionSwapStrike {
		t.Errorf("after 1: action = %s", a)
	}
	if a := mustBall(t, e, Runs(4)); a != ActionContinue {
		t.Errorf("after 4: action = %s", a)
	}
	if a := mustBall(t, e, Wicket()); a != ActionSelectNextBatter {
		t.Errorf("after W: action = %s", a)
	}

	inn := e.Match().CurrentInnings()
	if inn.Wickets != 1 || inn.Score != 5 || inn.Balls != 3 {
		t.Errorf("after W: %d/%d balls %d", inn.Score, inn.Wickets, inn.Balls)
	}
	if e.Prompt() != PromptSelectNextBatter {
		t.Errorf("Prompt() = %s", e.Prompt())
	}
	bea := FindBatter(inn, "Bea-1")
	if !bea.IsOut || bea.OutMethod != "Bowled" || bea.Runs != 4 || bea.Balls != 1 {
		t.Errorf("dismissed batter = %+v", *bea)
	}
	wantFoW := models.FallOfWicket{Score: 5, Wicket: 1, Player: "Bea", Over: "0.3"}
	if len(inn.FallOfWickets) != 1 || inn.FallOfWickets[0] != wantFoW {
		t.Errorf("FallOfWickets = %+v, want [%+v]", inn.FallOfWickets, wantFoW)
	}

	if _, err := e.ApplyBall(Runs(0)); !errors.Is(err, ErrPromptPending) {
		t.Errorf("ApplyBall() while prompting error = %v", err)
	}
	if err := e.SelectNextBatter("Cal-2"); err != nil {
		t.Fatal(err)
	}
	mustBall(t, e, Runs(0))
	mustBall(t, e, Runs(0))
	if a := mustBall(t, e, Runs(6)); a != ActionSelectBowler {
		t.Errorf("after ball 6: action = %s", a)
	}

	inn = e.Match().CurrentInnings()
	if inn.Balls != 0 || inn.Overs != 1 || inn.Score != 11 {
		t.Errorf("after over: %d in %s", inn.Score, OversNotation(inn.Overs, inn.Balls))
	}
	bob := FindBowler(inn, "Bob-0")
	if bob.Overs != 1 || bob.Balls != 0 || bob.Runs != 11 || bob.Wickets != 1 || bob.Maidens != 0 {
		t.Errorf("bowler = %+v", *bob)
	}
	striker, nonStriker, bowler := e.Players()
	if striker != "Ann-0" || nonStriker != "Cal-2" || bowler != "" {
		t.Errorf("players = %q %q %q", striker, nonStriker, bowler)
	}
}

func TestExtrasDoNotAdvanceOver(t *testing.T) {
	e := newTestEngine(t, 2)
	mustStart(t, e)

	mustBall(t, e, Wide())
	var a Action
	for i := 0; i < 5; i++ {
		a = mustBall(t, e, Runs(1))
	}
	if a != ActionSwapStrike {
		t.Errorf("action = %s, want swap_strike", a)
	}

	inn := e.Match().CurrentInnings()
	if inn.Balls != 5 || inn.Overs != 0 {
		t.Errorf("over = %s, want 0.5", OversNotation(inn.Overs, inn.Balls))
	}
	if inn.Score != 6 || inn.Extras != 1 {
		t.Errorf("score = %d extras = %d", inn.Score, inn.Extras)
	}
	if b := FindBowler(inn, "Bob-0"); b.Runs != 6 || b.Balls != 5 {
		t.Errorf("bowler = %+v", *b)
	}
	ann, bea := FindBatter(inn, "Ann-0"), FindBatter(inn, "Bea-1")
	if ann.Balls+bea.Balls != 5 {
		t.Errorf("batter balls = %d + %d, extras should not count", ann.Balls, bea.Balls)
	}

	mustBall(t, e, NoBall())
	inn = e.Match().CurrentInnings()
	if inn.Balls != 5 || inn.Score != 7 || inn.Extras != 2 {
		t.Errorf("after no-ball: %d, %s, extras %d", inn.Score, OversNotation(inn.Overs, inn.Balls), inn.Extras)
	}
}

func TestStrikeRotation(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		wantAction  Action
		wantStriker string
	}{
		{"dot", Runs(0), ActionContinue, "Ann-0"},
		{"single", Runs(1), ActionSwapStrike, "Bea-1"},
		{"two", Runs(2), ActionContinue, "Ann-0"},
		{"three", Runs(3), ActionSwapStrike, "Bea-1"},
		{"four", Runs(4), ActionContinue, "Ann-0"},
		{"six", Runs(6), ActionContinue, "Ann-0"},
		{"wide", Wide(), ActionContinue, "Ann-0"},
		{"no-ball", NoBall(), ActionContinue, "Ann-0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, 2)
			mustStart(t, e)
			if a := mustBall(t, e, tt.event); a != tt.wantAction {
				t.Errorf("action = %s, want %s", a, tt.wantAction)
			}
			if striker, _, _ := e.Players(); striker != tt.wantStriker {
				t.Errorf("striker = %q, want %q", striker, tt.wantStriker)
			}
		})
	}
}

func TestBoundariesCounted(t *testing.T) {
	e := newTestEngine(t, 2)
	mustStart(t, e)
	mustBall(t, e, Runs(4))
	mustBall(t, e, Runs(6))
	mustBall(t, e, Runs(4))

	ann := FindBatter(e.Match().CurrentInnings(), "Ann-0")
	if ann.Runs != 14 || ann.Fours != 2 || ann.Sixes != 1 || ann.Balls != 3 {
		t.Errorf("batter = %+v", *ann)
	}
}

func TestWicketBallNotFacedByStriker(t *testing.T) {
	e := newTestEngine(t, 2)
	mustStart(t, e)
	mustBall(t, e, Wicket())

	inn := e.Match().CurrentInnings()
	ann := FindBatter(inn, "Ann-0")
	if !ann.IsOut || ann.Balls != 0 {
		t.Errorf("dismissed batter = %+v, want out with 0 balls", *ann)
	}
	if inn.Balls != 1 {
		t.Errorf("innings balls = %d, want 1", inn.Balls)
	}
	if b := FindBowler(inn, "Bob-0"); b.Balls != 1 || b.Wickets != 1 {
		t.Errorf("bowler = %+v", *b)
	}
}

func TestMaidenAndConsecutiveOvers(t *testing.T) {
	e := newTestEngine(t, 3)
	mustStart(t, e)

	var a Action
	for _, ev := range dots(6) {
		a = mustBall(t, e, ev)
	}
	if a != ActionSelectBowler {
		t.Fatalf("action = %s, want select_bowler", a)
	}
	if b := FindBowler(e.Match().CurrentInnings(), "Bob-0"); b.Maidens != 1 || b.Overs != 1 {
		t.Errorf("bowler = %+v", *b)
	}

	if err := e.SelectBowler("Bob-0"); !errors.Is(err, ErrConsecutiveOvers) {
		t.Errorf("SelectBowler() same bowler error = %v", err)
	}
	if err := e.SelectBowler("Dan-1"); err != nil {
		t.Fatal(err)
	}

	mustBall(t, e, Wide())
	for _, ev := range dots(6) {
		mustBall(t, e, ev)
	}
	if d := FindBowler(e.Match().CurrentInnings(), "Dan-1"); d.Maidens != 0 || d.Runs != 1 || d.Overs != 1 {
		t.Errorf("bowler conceding a wide = %+v", *d)
	}

	// Bob may come back after a gap.
	if err := e.SelectBowler("Bob-0"); err != nil {
		t.Errorf("SelectBowler() after a gap error = %v", err)
	}
}

func TestWicketOnLastBallDefersOverChange(t *testing.T) {
	e := newTestEngine(t, 2)
	mustStart(t, e)
	for _, ev := range dots(5) {
		mustBall(t, e, ev)
	}
	if a := mustBall(t, e, Wicket()); a != ActionSelectNextBatter {
		t.Fatalf("action = %s, want select_next_batter", a)
	}
	inn := e.Match().CurrentInnings()
	if inn.Overs != 1 || inn.Balls != 0 {
		t.Errorf("over = %s, want 1.0", OversNotation(inn.Overs, inn.Balls))
	}
	if inn.FallOfWickets[0].Over != "0.6" {
		t.Errorf("fall of wicket over = %q, want 0.6", inn.FallOfWickets[0].Over)
	}

	if err := e.SelectNextBatter("Cal-2"); err != nil {
		t.Fatal(err)
	}
	if e.Prompt() != PromptSelectBowler {
		t.Fatalf("Prompt() = %s, want select_bowler", e.Prompt())
	}
	striker, nonStriker, _ := e.Players()
	if striker != "Bea-1" || nonStriker != "Cal-2" {
		t.Errorf("players = %q %q, want Bea-1 Cal-2", striker, nonStriker)
	}
}

func TestWicketOnFinalBallEndsInnings(t *testing.T) {
	e := newTestEngine(t, 1)
	mustStart(t, e)
	for _, ev := range dots(5) {
		mustBall(t, e, ev)
	}
	if a := mustBall(t, e, Wicket()); a != ActionEndInnings {
		t.Errorf("action = %s, want end_innings", a)
	}
	if e.State() != InningsComplete || e.Prompt() != PromptNone {
		t.Errorf("state = %s/%s", e.State(), e.Prompt())
	}
}

func TestTenthWicketEndsInnings(t *testing.T) {
	e := newTestEngine(t, 20)
	d := &driver{t: t, e: e}

	var a Action
	for i := 0; i < MaxWickets; i++ {
		a = d.play(Wicket())
	}
	if a != ActionEndInnings {
		t.Fatalf("action = %s, want end_innings", a)
	}
	inn := e.Match().CurrentInnings()
	if inn.Wickets != MaxWickets {
		t.Errorf("Wickets = %d", inn.Wickets)
	}
	if len(inn.FallOfWickets) != MaxWickets {
		t.Errorf("FallOfWickets = %d entries", len(inn.FallOfWickets))
	}
	if inn.Overs != 1 || inn.Balls != 4 {
		t.Errorf("over = %s, want 1.4", OversNotation(inn.Overs, inn.Balls))
	}
	if _, err := e.ApplyBall(Runs(1)); !errors.Is(err, ErrNotReady) {
		t.Errorf("ApplyBall() after innings error = %v", err)
	}
}

func TestSecondInnings(t *testing.T) {
	e := newTestEngine(t, 1)
	d := &driver{t: t, e: e}
	d.play(Runs(4), Runs(0), Runs(0), Runs(0), Runs(0), Runs(1))

	if e.State() != InningsComplete {
		t.Fatalf("State() = %s", e.State())
	}
	if err := e.SelectOpeners("Bob-0", "Dan-1"); !errors.Is(err, ErrWrongPrompt) {
		t.Errorf("SelectOpeners() before next innings error = %v", err)
	}
	if err := e.StartNextInnings(); err != nil {
		t.Fatal(err)
	}
	if err := e.StartNextInnings(); !errors.Is(err, ErrNotReady) {
		t.Errorf("second StartNextInnings() error = %v", err)
	}

	m := e.Match()
	if m.Innings2 == nil || m.Innings2.BattingTeam != "Tigers" || m.Innings2.BowlingTeam != "Lions" {
		t.Fatalf("Innings2 = %+v", m.Innings2)
	}
	if e.Target() != 6 {
		t.Errorf("Target() = %d, want 6", e.Target())
	}
	if e.Prompt() != PromptSelectOpeners {
		t.Errorf("Prompt() = %s", e.Prompt())
	}
	if FindBatter(m.Innings2, "Bob-0") == nil || FindBowler(m.Innings2, "Ann-0") == nil {
		t.Error("second innings rosters not swapped")
	}
	if m.Innings1.Score != 5 {
		t.Errorf("first innings score changed: %d", m.Innings1.Score)
	}
}

func TestMatchResults(t *testing.T) {
	tests := []struct {
		name       string
		first      []Event
		second     []Event
		wantResult string
	}{
		{
			name:       "chase completed",
			first:      []Event{Runs(4), Runs(0), Runs(0), Runs(0), Runs(0), Runs(0)},
			second:     []Event{Wicket(), Runs(4), Runs(1)},
			wantResult: "Tigers won by 9 wickets",
		},
		{
			name:       "chase completed with a wide",
			first:      dots(6),
			second:     []Event{Wide()},
			wantResult: "Tigers won by 10 wickets",
		},
		{
			name:       "total defended",
			first:      []Event{Runs(6), Runs(0), Runs(0), Runs(0), Runs(0), Runs(0)},
			second:     []Event{Runs(1), Runs(1), Runs(1), Runs(0), Runs(0), Runs(0)},
			wantResult: "Lions won by 3 runs",
		},
		{
			name:       "won by one run",
			first:      []Event{Runs(2), Runs(0), Runs(0), Runs(0), Runs(0), Runs(0)},
			second:     []Event{Runs(1), Runs(0), Runs(0), Runs(0), Runs(0), Runs(0)},
			wantResult: "Lions won by 1 run",
		},
		{
			name:       "tied",
			first:      []Event{Runs(2), Runs(0), Runs(0), Runs(0), Runs(0), Runs(0)},
			second:     []Event{Runs(2), Runs(0), Runs(0), Runs(0), Runs(0), Runs(0)},
			wantResult: "Match tied",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, 1)
			d := &driver{t: t, e: e}
			if a := d.play(tt.first...); a != ActionEndInnings {
				t.Fatalf("first innings action = %s", a)
			}
			if err := e.StartNextInnings(); err != nil {
				t.Fatal(err)
			}
			d.lastBowler = ""
			if a := d.play(tt.second...); a != ActionEndMatch {
				t.Fatalf("second innings action = %s", a)
			}

			m := e.Match()
			if m.Result != tt.wantResult {
				t.Errorf("Result = %q, want %q", m.Result, tt.wantResult)
			}
			if m.Status != models.StatusCompleted || e.State() != MatchComplete {
				t.Errorf("status = %q state = %s", m.Status, e.State())
			}
			if e.CanUndo() || e.Undo() {
				t.Error("a completed match must not be undone")
			}
			if _, err := e.ApplyBall(Runs(1)); !errors.Is(err, ErrMatchComplete) {
				t.Errorf("ApplyBall() after match error = %v", err)
			}
		})
	}
}

func TestPlural(t *testing.T) {
	if got := plural(1, "wicket"); got != "1 wicket" {
		t.Errorf("plural() = %q", got)
	}
	if got := plural(0, "run"); got != "0 runs" {
		t.Errorf("plural() = %q", got)
	}
}

func TestUndo(t *testing.T) {
	t.Run("nothing to undo", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		if e.CanUndo() || e.Undo() {
			t.Error("Undo() with no ball bowled should be a no-op")
		}
	})

	t.Run("single level", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		mustBall(t, e, Runs(1))
		mustBall(t, e, Runs(2))
		if !e.Undo() {
			t.Fatal("Undo() = false")
		}
		if got := e.Match().CurrentInnings().Score; got != 1 {
			t.Errorf("score after undo = %d, want 1", got)
		}
		if e.Undo() {
			t.Error("second Undo() should be a no-op")
		}
		if got := e.Match().CurrentInnings().Score; got != 1 {
			t.Errorf("score after second undo = %d, want 1", got)
		}
	})

	t.Run("restores strike", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		mustBall(t, e, Runs(3))
		e.Undo()
		striker, nonStriker, bowler := e.Players()
		if striker != "Ann-0" || nonStriker != "Bea-1" || bowler != "Bob-0" {
			t.Errorf("players = %q %q %q", striker, nonStriker, bowler)
		}
		ann := FindBatter(e.Match().CurrentInnings(), "Ann-0")
		if ann.Runs != 0 || ann.Balls != 0 {
			t.Errorf("batter = %+v", *ann)
		}
	})

	t.Run("restores a wicket", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		mustBall(t, e, Wicket())
		if !e.Undo() {
			t.Fatal("Undo() = false")
		}
		if e.State() != ReadyToScore {
			t.Errorf("State() = %s", e.State())
		}
		inn := e.Match().CurrentInnings()
		if inn.Wickets != 0 || len(inn.FallOfWickets) != 0 || FindBatter(inn, "Ann-0").IsOut {
			t.Errorf("wicket not undone: %+v", inn)
		}
		if striker, _, _ := e.Players(); striker != "Ann-0" {
			t.Errorf("striker = %q", striker)
		}
	})

	t.Run("restores an over change", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		for _, ev := range dots(6) {
			mustBall(t, e, ev)
		}
		e.Undo()
		inn := e.Match().CurrentInnings()
		if inn.Overs != 0 || inn.Balls != 5 {
			t.Errorf("over = %s, want 0.5", OversNotation(inn.Overs, inn.Balls))
		}
		if FindBowler(inn, "Bob-0").Maidens != 0 {
			t.Error("maiden not undone")
		}
		mustBall(t, e, Runs(0))
		if err := e.SelectBowler("Bob-0"); !errors.Is(err, ErrConsecutiveOvers) {
			t.Errorf("SelectBowler() error = %v", err)
		}
	})

	t.Run("reopens an ended innings", func(t *testing.T) {
		e := newTestEngine(t, 1)
		mustStart(t, e)
		for _, ev := range dots(6) {
			mustBall(t, e, ev)
		}
		if !e.Undo() {
			t.Fatal("Undo() = false")
		}
		if e.State() != ReadyToScore {
			t.Errorf("State() = %s", e.State())
		}
	})
}

func TestSelectionErrors(t *testing.T) {
	t.Run("openers", func(t *testing.T) {
		e := newTestEngine(t, 2)
		if err := e.SelectOpeners("Ann-0", "Ann-0"); !errors.Is(err, ErrSamePlayer) {
			t.Errorf("same opener error = %v", err)
		}
		if err := e.SelectOpeners("Ann-0", "Bob-0"); !errors.Is(err, ErrInvalidPlayer) {
			t.Errorf("bowling-side opener error = %v", err)
		}
		if err := e.SelectBowler("Bob-0"); !errors.Is(err, ErrWrongPrompt) {
			t.Errorf("SelectBowler() before openers error = %v", err)
		}
		if e.State() != AwaitingOpeners {
			t.Errorf("State() = %s", e.State())
		}
	})

	t.Run("bowler", func(t *testing.T) {
		e := newTestEngine(t, 2)
		e.SelectOpeners("Ann-0", "Bea-1")
		if err := e.SelectBowler("Ann-0"); !errors.Is(err, ErrInvalidPlayer) {
			t.Errorf("batting-side bowler error = %v", err)
		}
	})

	t.Run("next batter", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		mustBall(t, e, Wicket())
		if err := e.SelectNextBatter("Ann-0"); !errors.Is(err, ErrPlayerOut) {
			t.Errorf("dismissed batter error = %v", err)
		}
		if err := e.SelectNextBatter("Bea-1"); !errors.Is(err, ErrSamePlayer) {
			t.Errorf("non-striker error = %v", err)
		}
		if err := e.SelectNextBatter("nobody"); !errors.Is(err, ErrInvalidPlayer) {
			t.Errorf("unknown batter error = %v", err)
		}
		if err := e.SwapBatsmen(); !errors.Is(err, ErrPromptPending) {
			t.Errorf("SwapBatsmen() while prompting error = %v", err)
		}
	})

	t.Run("invalid event", func(t *testing.T) {
		e := newTestEngine(t, 2)
		mustStart(t, e)
		if _, err := e.ApplyBall(Runs(5)); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("ApplyBall(5) error = %v", err)
		}
		if e.CanUndo() {
			t.Error("rejected ball should not take a snapshot")
		}
		if got := e.Match().CurrentInnings().Score; got != 0 {
			t.Errorf("score = %d", got)
		}
	})
}

func TestSwapBatsmen(t *testing.T) {
	e := newTestEngine(t, 2)
	mustStart(t, e)
	if err := e.SwapBatsmen(); err != nil {
		t.Fatal(err)
	}
	striker, nonStriker, _ := e.Players()
	if striker != "Bea-1" || nonStriker != "Ann-0" {
		t.Errorf("players = %q %q", striker, nonStriker)
	}
}

func TestEndMatchManually(t *testing.T) {
	e := newTestEngine(t, 5)
	mustStart(t, e)
	mustBall(t, e, Runs(4))
	mustBall(t, e, Runs(1))

	m := e.EndMatch()
	if m.Status != models.StatusCompleted {
		t.Errorf("Status = %q", m.Status)
	}
	if m.Result != "Lions scored 5 for 0." {
		t.Errorf("Result = %q", m.Result)
	}
	if again := e.EndMatch(); again.Result != m.Result {
		t.Errorf("second EndMatch() result = %q", again.Result)
	}
	if _, err := e.ApplyBall(Runs(1)); !errors.Is(err, ErrMatchComplete) {
		t.Errorf("ApplyBall() error = %v", err)
	}
	if err := e.SelectBowler("Dan-1"); !errors.Is(err, ErrMatchComplete) {
		t.Errorf("SelectBowler() error = %v", err)
	}

	m.Innings1.Score = 999
	if e.Match().Innings1.Score == 999 {
		t.Error("EndMatch() returned an aliased match")
	}
}

func TestEngineCopiesInputMatch(t *testing.T) {
	m, _ := NewMatch(Setup{TeamA: "Lions", TeamB: "Tigers", PlayersA: []string{"Ann", "Bea"}, PlayersB: []string{"Bob"}}, time.Now())
	ApplyToss(m, TossResult{Winner: "Lions", Decision: models.DecisionBat})
	e, err := NewEngine(m)
	if err != nil {
		t.Fatal(err)
	}
	mustStart(t, e)
	mustBall(t, e, Runs(4))
	if m.Innings1.Score != 0 {
		t.Error("engine mutated the caller's match")
	}
}

func TestLedgerInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []Event{Runs(0), Runs(1), Runs(2), Runs(3), Runs(4), Runs(6), Wide(), NoBall(), Wicket()}

	for game := 0; game < 25; game++ {
		e := newTestEngine(t, 10)
		d := &driver{t: t, e: e}
		expectedScore, legal := 0, 0

		for e.State() != InningsComplete {
			ev := pool[rng.Intn(len(pool))]
			d.play(ev)

			switch ev.Kind {
			case EventRuns:
				expectedScore += ev.Runs
				legal++
			case EventWide, EventNoBall:
				expectedScore++
			case EventWicket:
				legal++
			}

			inn := e.Match().CurrentInnings()
			if inn.Balls < 0 || inn.Balls > 5 {
				t.Fatalf("balls = %d out of range", inn.Balls)
			}
			if inn.Overs*BallsPerOver+inn.Balls != legal {
				t.Fatalf("deliveries = %s, want %d legal balls", OversNotation(inn.Overs, inn.Balls), legal)
			}
			if inn.Score != expectedScore {
				t.Fatalf("score = %d, want %d", inn.Score, expectedScore)
			}
			if inn.Wickets > MaxWickets {
				t.Fatalf("wickets = %d", inn.Wickets)
			}
		}
	}
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		in      string
		want    Event
		wantErr bool
	}{
		{"0", Runs(0), false},
		{" 4 ", Runs(4), false},
		{"6", Runs(6), false},
		{"Wd", Wide(), false},
		{"nb", NoBall(), false},
		{"W", Wicket(), false},
		{"wicket", Wicket(), false},
		{"5", Event{}, true},
		{"", Event{}, true},
	}
	for _, tt := range tests {
		got, err := ParseEvent(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseEvent(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseEvent(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
