package scoring

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"cricketscore/internal/models"
)

const (
	// SquadSize is the number of players on each side
	SquadSize = 11
	// DefaultOvers is used when a setup leaves the overs limit unset
	DefaultOvers = 5
	// MaxWickets ends an innings when reached
	MaxWickets = SquadSize - 1
	// BallsPerOver counts legal deliveries in an over
	BallsPerOver = 6
)

var (
	ErrInvalidOvers   = errors.New("overs limit must be at least 1")
	ErrDuplicateTeams = errors.New("team names must differ")
	ErrTossNotPending = errors.New("match is not awaiting the toss")
	ErrInvalidToss    = errors.New("invalid toss result")
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Setup is the user's match configuration before the toss
type Setup struct {
	TeamA    string   `json:"teamA"`
	TeamB    string   `json:"teamB"`
	PlayersA []string `json:"playersA"`
	PlayersB []string `json:"playersB"`
	Overs    int      `json:"overs"`
}

// TossResult is the outcome handed to ApplyToss
type TossResult struct {
	Winner   string          `json:"winner"`
	Decision models.Decision `json:"decision"`
}

// NewMatch builds a match awaiting the toss. Blank names are replaced with
// placeholders and each roster is fixed at SquadSize players.
func NewMatch(setup Setup, now time.Time) (*models.Match, error) {
	overs := setup.Overs
	if overs == 0 {
		overs = DefaultOvers
	}
	if overs < 1 {
		return nil, ErrInvalidOvers
	}

	teamA := strings.TrimSpace(setup.TeamA)
	if teamA == "" {
		teamA = "Team A"
	}
	teamB := strings.TrimSpace(setup.TeamB)
	if teamB == "" {
		teamB = "Team B"
	}
	if strings.EqualFold(teamA, teamB) {
		return nil, ErrDuplicateTeams
	}

	return &models.Match{
		ID:       uuid.New().String(),
		TeamA:    teamA,
		TeamB:    teamB,
		PlayersA: NewRoster(setup.PlayersA),
		PlayersB: NewRoster(setup.PlayersB),
		Overs:    overs,
		Status:   models.StatusToss,
		Date:     now,
	}, nil
}

// NewRoster turns a list of names into a full squad of players.
func NewRoster(names []string) []models.Player {
	roster := make([]models.Player, SquadSize)
	for i := range roster {
		name := ""
		if i < len(names) {
			name = strings.TrimSpace(names[i])
		}
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		roster[i] = models.Player{
			ID:   fmt.Sprintf("%s-%d", whitespaceRun.ReplaceAllString(name, "-"), i),
			Name: name,
		}
	}
	return roster
}

// ApplyToss records the toss and opens the first innings.
func ApplyToss(m *models.Match, result TossResult) error {
	if m.Status != models.StatusToss && m.Status != models.StatusPending {
		return ErrTossNotPending
	}
	if (result.Winner != m.TeamA && result.Winner != m.TeamB) || !result.Decision.Valid() {
		return ErrInvalidToss
	}

	batting := result.Winner
	if result.Decision == models.DecisionBowl {
		batting = m.Opponent(result.Winner)
	}
	bowling := m.Opponent(batting)

	m.TossWinner = result.Winner
	m.Decision = result.Decision
	m.Innings1 = *NewInnings(batting, bowling, m.Roster(batting), m.Roster(bowling))
	m.Innings2 = nil
	m.Status = models.StatusInProgress
	return nil
}

// NewInnings returns a fresh ledger. The rosters are copied so the innings
// never aliases the match's player lists.
func NewInnings(battingTeam, bowlingTeam string, battingRoster, bowlingRoster []models.Player) *models.Innings {
	batters := make([]models.Player, len(battingRoster))
	for i, p := range battingRoster {
		batters[i] = models.Player{ID: p.ID, Name: p.Name}
	}
	bowlers := make([]models.Bowler, len(bowlingRoster))
	for i, p := range bowlingRoster {
		bowlers[i] = models.Bowler{ID: p.ID, Name: p.Name}
	}
	return &models.Innings{
		BattingTeam:   battingTeam,
		BowlingTeam:   bowlingTeam,
		Batters:       batters,
		Bowlers:       bowlers,
		FallOfWickets: []models.FallOfWicket{},
	}
}

// FindBatter returns a pointer into the innings' batters, or nil.
func FindBatter(in *models.Innings, id string) *models.Player {
	for i := range in.Batters {
		if in.Batters[i].ID == id {
			return &in.Batters[i]
		}
	}
	return nil
}

// FindBowler returns a pointer into the innings' bowlers, or nil.
func FindBowler(in *models.Innings, id string) *models.Bowler {
	for i := range in.Bowlers {
		if in.Bowlers[i].ID == id {
			return &in.Bowlers[i]
		}
	}
	return nil
}

// OversNotation formats completed overs and balls as "O.B".
func OversNotation(overs, balls int) string {
	return fmt.Sprintf("%d.%d", overs, balls)
}

// Economy is runs conceded per over, rounded to two decimals. Zero when the
// bowler has not bowled a legal ball.
func Economy(b models.Bowler) float64 {
	overs := float64(b.Overs) + float64(b.Balls)/BallsPerOver
	if overs == 0 {
		return 0
	}
	return math.Round(float64(b.Runs)/overs*100) / 100
}

// StrikeRate is runs per hundred balls faced, rounded to two decimals.
func StrikeRate(p models.Player) float64 {
	if p.Balls == 0 {
		return 0
	}
	return math.Round(float64(p.Runs)*100/float64(p.Balls)*100) / 100
}
