package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cricketscore/internal/live"
	"cricketscore/internal/models"
	"cricketscore/internal/repository"
	"cricketscore/internal/scoring"
	"cricketscore/internal/toss"
	"cricketscore/internal/validation"
)

var (
	ErrNoLiveMatch   = errors.New("no match in progress")
	ErrMatchNotFound = repository.ErrMatchNotFound
	ErrTossPending   = errors.New("the toss has not been made")
	ErrTossDone      = errors.New("the toss has already been made")
	ErrNothingToUndo = errors.New("nothing to undo")
)

// ResultNoToss is recorded for matches ended before the toss
const ResultNoToss = "Match ended before the toss."

// LivePublisher receives every change to a live match
type LivePublisher interface {
	Publish(msg live.Message)
	Forget(matchID string)
}

// LiveState is the scorer's view of their match in progress
type LiveState struct {
	scoring.View
	TossPending bool         `json:"tossPending"`
	Toss        *toss.Result `json:"toss,omitempty"`
}

// BallOutcome is the result of scoring one delivery
type BallOutcome struct {
	Action scoring.Action `json:"action"`
	LiveState
}

// liveSession is one user's match from setup until it is stored. engine is
// nil until the toss has been made.
type liveSession struct {
	id     string
	mu     sync.Mutex
	owner  models.User
	match  *models.Match
	engine *scoring.Engine
	toss   *toss.Result
	done   bool
}

func (ls *liveSession) state() *LiveState {
	if ls.engine == nil {
		return &LiveState{View: scoring.View{Match: ls.match.Clone()}, TossPending: true}
	}
	return &LiveState{View: ls.engine.View(), Toss: ls.toss}
}

// MatchService runs scoring sessions and keeps each user's match history
type MatchService struct {
	store    repository.MatchStore
	resolver *toss.Resolver
	live     LivePublisher
	mailer   *EmailService
	now      func() time.Time
	debug    bool

	mu       sync.Mutex
	sessions map[string]*liveSession
}

// NewMatchService creates a match service. live and mailer may be nil.
func NewMatchService(store repository.MatchStore, resolver *toss.Resolver, live LivePublisher, mailer *EmailService, debug bool) *MatchService {
	return &MatchService{
		store:    store,
		resolver: resolver,
		live:     live,
		mailer:   mailer,
		now:      time.Now,
		debug:    debug,
		sessions: make(map[string]*liveSession),
	}
}

// CreateMatch starts a new match for the user, abandoning any match they
// had in progress.
func (s *MatchService) CreateMatch(user *models.User, setup scoring.Setup) (*LiveState, error) {
	if err := validation.ValidateMatchSetup(setup.TeamA, setup.TeamB, setup.PlayersA, setup.PlayersB, setup.Overs); err != nil {
		return nil, err
	}
	m, err := scoring.NewMatch(setup, s.now())
	if err != nil {
		return nil, err
	}

	ls := &liveSession{id: m.ID, owner: *user, match: m}
	key := user.MatchKey()

	s.mu.Lock()
	old := s.sessions[key]
	s.sessions[key] = ls
	s.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.done = true
		old.mu.Unlock()
		log.Printf("Abandoned match %s for %s", old.id, key)
		if s.live != nil {
			s.live.Forget(old.id)
		}
	}

	if s.debug {
		log.Printf("[DEBUG] Created match %s: %s vs %s, %d overs", m.ID, m.TeamA, m.TeamB, m.Overs)
	}
	return ls.state(), nil
}

// lock returns the user's live session, locked. The caller must unlock it.
func (s *MatchService) lock(user *models.User) (*liveSession, error) {
	s.mu.Lock()
	ls := s.sessions[user.MatchKey()]
	s.mu.Unlock()
	if ls == nil {
		return nil, ErrNoLiveMatch
	}
	ls.mu.Lock()
	if ls.done {
		ls.mu.Unlock()
		return nil, ErrNoLiveMatch
	}
	return ls, nil
}

// Toss resolves the toss with team A making the call and opens the first
// innings.
func (s *MatchService) Toss(ctx context.Context, user *models.User, call models.TossCall) (*LiveState, error) {
	ls, err := s.lock(user)
	if err != nil {
		return nil, err
	}
	defer ls.mu.Unlock()

	if ls.engine != nil {
		return nil, ErrTossDone
	}

	res := s.resolver.Resolve(ctx, ls.match.TeamA, ls.match.TeamB, call)
	m := ls.match.Clone()
	if err := scoring.ApplyToss(m, scoring.TossResult{Winner: res.Winner, Decision: res.Decision}); err != nil {
		return nil, err
	}
	engine, err := scoring.NewEngine(m)
	if err != nil {
		return nil, err
	}
	ls.match = m
	ls.engine = engine
	ls.toss = &res

	log.Printf("Toss for match %s: %s chose to %s (%s)", m.ID, res.Winner, res.Decision, res.Source)
	st := ls.state()
	s.publish(live.MsgTypeState, st.View)
	return st, nil
}

// CurrentMatch returns the user's match in progress
func (s *MatchService) CurrentMatch(user *models.User) (*LiveState, error) {
	ls, err := s.lock(user)
	if err != nil {
		return nil, err
	}
	defer ls.mu.Unlock()
	return ls.state(), nil
}

// update runs fn against the user's engine, stores the match if fn
// finished it and tells spectators.
func (s *MatchService) update(ctx context.Context, user *models.User, fn func(e *scoring.Engine) error) (*LiveState, error) {
	ls, err := s.lock(user)
	if err != nil {
		return nil, err
	}
	defer ls.mu.Unlock()

	if ls.engine == nil {
		return nil, ErrTossPending
	}
	if err := fn(ls.engine); err != nil {
		return nil, err
	}

	st := ls.state()
	if ls.engine.State() == scoring.MatchComplete {
		if err := s.finalize(ctx, ls); err != nil {
			return nil, err
		}
		return st, nil
	}
	s.publish(live.MsgTypeState, st.View)
	return st, nil
}

// finalize appends the finished match to the owner's history and ends the
// live session. Must be called with ls.mu held.
func (s *MatchService) finalize(ctx context.Context, ls *liveSession) error {
	return s.complete(ctx, ls, ls.engine.EndMatch(), ls.engine.View())
}

// complete stores final and ends the live session. Must be called with
// ls.mu held.
func (s *MatchService) complete(ctx context.Context, ls *liveSession, final *models.Match, view scoring.View) error {
	key := ls.owner.MatchKey()

	matches, err := s.store.LoadMatches(key)
	if err != nil {
		return fmt.Errorf("failed to load match history: %w", err)
	}
	replaced := false
	for i := range matches {
		if matches[i].ID == final.ID {
			matches[i] = *final
			replaced = true
		}
	}
	if !replaced {
		matches = append(matches, *final)
	}
	if err := s.store.SaveMatches(key, matches); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	ls.done = true
	s.mu.Lock()
	if s.sessions[key] == ls {
		delete(s.sessions, key)
	}
	s.mu.Unlock()

	log.Printf("Match %s completed: %s", final.ID, final.Result)
	s.publish(live.MsgTypeFinal, view)

	if final.Innings1.BattingTeam == "" {
		// ended before the toss, no scorecard to send
		return nil
	}
	if err := s.mailer.SendScorecardEmail(ctx, ls.owner.Email, ls.owner.Name, final); err != nil {
		log.Printf("Error sending scorecard for match %s: %v", final.ID, err)
	}
	return nil
}

func (s *MatchService) publish(kind string, view scoring.View) {
	if s.live == nil {
		return
	}
	s.live.Publish(live.Message{Type: kind, MatchID: view.Match.ID, View: view})
}

// SelectOpeners picks the opening pair of the current innings
func (s *MatchService) SelectOpeners(ctx context.Context, user *models.User, strikerID, nonStrikerID string) (*LiveState, error) {
	return s.update(ctx, user, func(e *scoring.Engine) error {
		return e.SelectOpeners(strikerID, nonStrikerID)
	})
}

// SelectBowler picks the bowler for the next over
func (s *MatchService) SelectBowler(ctx context.Context, user *models.User, bowlerID string) (*LiveState, error) {
	return s.update(ctx, user, func(e *scoring.Engine) error {
		return e.SelectBowler(bowlerID)
	})
}

// SelectNextBatter replaces the dismissed striker
func (s *MatchService) SelectNextBatter(ctx context.Context, user *models.User, batterID string) (*LiveState, error) {
	return s.update(ctx, user, func(e *scoring.Engine) error {
		return e.SelectNextBatter(batterID)
	})
}

// ApplyBall scores one delivery
func (s *MatchService) ApplyBall(ctx context.Context, user *models.User, ev scoring.Event) (*BallOutcome, error) {
	var action scoring.Action
	st, err := s.update(ctx, user, func(e *scoring.Engine) error {
		var err error
		action, err = e.ApplyBall(ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &BallOutcome{Action: action, LiveState: *st}, nil
}

// SwapBatsmen exchanges striker and non-striker
func (s *MatchService) SwapBatsmen(ctx context.Context, user *models.User) (*LiveState, error) {
	return s.update(ctx, user, func(e *scoring.Engine) error {
		return e.SwapBatsmen()
	})
}

// Undo takes back the last ball
func (s *MatchService) Undo(ctx context.Context, user *models.User) (*LiveState, error) {
	return s.update(ctx, user, func(e *scoring.Engine) error {
		if !e.Undo() {
			return ErrNothingToUndo
		}
		return nil
	})
}

// StartNextInnings opens the second innings
func (s *MatchService) StartNextInnings(ctx context.Context, user *models.User) (*LiveState, error) {
	return s.update(ctx, user, func(e *scoring.Engine) error {
		return e.StartNextInnings()
	})
}

// EndMatch closes the match early and stores it, from any stage including
// before the toss. If storing failed when the match finished, calling
// EndMatch again retries the save.
func (s *MatchService) EndMatch(ctx context.Context, user *models.User) (*models.Match, error) {
	ls, err := s.lock(user)
	if err != nil {
		return nil, err
	}
	defer ls.mu.Unlock()

	if ls.engine == nil {
		final := ls.match.Clone()
		final.Status = models.StatusCompleted
		final.Result = ResultNoToss
		if err := s.complete(ctx, ls, final, scoring.View{Match: final.Clone()}); err != nil {
			return nil, err
		}
		return final, nil
	}

	ls.engine.EndMatch()
	st := ls.state()
	if err := s.finalize(ctx, ls); err != nil {
		return nil, err
	}
	return st.Match, nil
}

// Abandon drops the user's match in progress without storing it
func (s *MatchService) Abandon(user *models.User) error {
	ls, err := s.lock(user)
	if err != nil {
		return err
	}
	ls.done = true
	id := ls.id
	ls.mu.Unlock()

	s.mu.Lock()
	if s.sessions[user.MatchKey()] == ls {
		delete(s.sessions, user.MatchKey())
	}
	s.mu.Unlock()

	if s.live != nil {
		s.live.Forget(id)
	}
	log.Printf("Abandoned match %s for %s", id, user.MatchKey())
	return nil
}

// History lists the user's stored matches, newest first
func (s *MatchService) History(user *models.User) ([]models.MatchSummary, error) {
	matches, err := s.store.LoadMatches(user.MatchKey())
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	out := make([]models.MatchSummary, 0, len(matches))
	for i := len(matches) - 1; i >= 0; i-- {
		out = append(out, matches[i].Summary())
	}
	return out, nil
}

// GetMatch returns one of the user's stored matches
func (s *MatchService) GetMatch(user *models.User, id string) (*models.Match, error) {
	return repository.FindMatch(s.store, user.MatchKey(), id)
}

// LiveView returns the current picture of a match being scored by anyone,
// for spectators.
func (s *MatchService) LiveView(matchID string) (*scoring.View, error) {
	s.mu.Lock()
	var found *liveSession
	for _, ls := range s.sessions {
		if ls.id == matchID {
			found = ls
			break
		}
	}
	s.mu.Unlock()
	if found == nil {
		return nil, ErrMatchNotFound
	}

	found.mu.Lock()
	defer found.mu.Unlock()
	if found.done {
		return nil, ErrMatchNotFound
	}
	return &found.state().View, nil
}
