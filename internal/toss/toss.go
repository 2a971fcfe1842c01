package toss

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"cricketscore/internal/models"
)

// DefaultTimeout bounds a remote toss call
const DefaultTimeout = 5 * time.Second

const (
	SourceGenerated = "generated"
	SourceFallback  = "coin"
)

// ErrMalformed is returned by generators whose answer does not name one of
// the two teams or a valid decision.
var ErrMalformed = errors.New("malformed toss result")

// Result is the outcome of a toss
type Result struct {
	Winner    string          `json:"winner"`
	Decision  models.Decision `json:"decision"`
	Narrative string          `json:"narrative"`
	Source    string          `json:"source"`
}

// Generator produces a toss outcome with commentary from a remote service.
type Generator interface {
	Generate(ctx context.Context, teamA, teamB string, call models.TossCall) (*Result, error)
}

// Resolver decides tosses. It never fails: when the generator is missing,
// slow or returns nonsense, the coin is flipped locally.
type Resolver struct {
	gen     Generator
	timeout time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewResolver creates a resolver. gen may be nil. A nil rng is seeded from
// the clock.
func NewResolver(gen Generator, timeout time.Duration, rng *rand.Rand) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Resolver{gen: gen, timeout: timeout, rng: rng}
}

// Resolve runs the toss between teamA and teamB with teamA making the call.
func (r *Resolver) Resolve(ctx context.Context, teamA, teamB string, call models.TossCall) Result {
	if r.gen != nil {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		res, err := r.gen.Generate(ctx, teamA, teamB, call)
		if err == nil {
			res, err = normalize(res, teamA, teamB)
		}
		if err == nil {
			res.Source = SourceGenerated
			return *res
		}
		log.Printf("Toss generation failed, flipping locally: %v", err)
	}
	return r.flip(teamA, teamB, call)
}

func (r *Resolver) flip(teamA, teamB string, call models.TossCall) Result {
	r.mu.Lock()
	face := models.Heads
	if r.rng.Intn(2) == 1 {
		face = models.Tails
	}
	decision := models.DecisionBat
	if r.rng.Intn(2) == 1 {
		decision = models.DecisionBowl
	}
	r.mu.Unlock()

	winner := teamB
	if call == face {
		winner = teamA
	}
	return Result{
		Winner:    winner,
		Decision:  decision,
		Narrative: fmt.Sprintf("The coin landed on %s. %s won the toss and chose to %s.", face, winner, decision),
		Source:    SourceFallback,
	}
}

// normalize maps the generated winner and decision onto canonical values.
func normalize(res *Result, teamA, teamB string) (*Result, error) {
	if res == nil {
		return nil, ErrMalformed
	}
	out := *res
	switch winner := strings.TrimSpace(res.Winner); {
	case strings.EqualFold(winner, teamA):
		out.Winner = teamA
	case strings.EqualFold(winner, teamB):
		out.Winner = teamB
	default:
		return nil, fmt.Errorf("%w: unknown winner %q", ErrMalformed, res.Winner)
	}
	out.Decision = models.Decision(strings.ToLower(strings.TrimSpace(string(res.Decision))))
	if !out.Decision.Valid() {
		return nil, fmt.Errorf("%w: decision %q", ErrMalformed, res.Decision)
	}
	out.Narrative = strings.TrimSpace(res.Narrative)
	if out.Narrative == "" {
		return nil, fmt.Errorf("%w: empty narrative", ErrMalformed)
	}
	return &out, nil
}

// ParseCall accepts "heads" or "tails" in any case.
func ParseCall(s string) (models.TossCall, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heads":
		return models.Heads, nil
	case "tails":
		return models.Tails, nil
	}
	return "", fmt.Errorf("invalid toss call %q", s)
}
