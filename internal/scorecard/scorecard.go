// Package scorecard renders a match as a printable summary.
package scorecard

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"

	"cricketscore/internal/models"
	"cricketscore/internal/scoring"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.ParseFS(templateFS, "templates/scorecard.tmpl"))

const dateLayout = "2 January 2006"

// Card is the display form of a match shared by the text and HTML renderers
type Card struct {
	Title   string
	Date    string
	Overs   int
	Toss    string
	Result  string
	Innings []InningsCard
}

// InningsCard is one innings worth of scorecard tables
type InningsCard struct {
	Team          string
	Total         string
	Overs         string
	Extras        int
	Batters       []BatterLine
	Bowlers       []BowlerLine
	FallOfWickets string
}

// BatterLine is a row of the batting table
type BatterLine struct {
	Name       string
	Status     string
	Runs       int
	Balls      int
	Fours      int
	Sixes      int
	StrikeRate string
}

type BowlerLine struct {
	Name    string
	Overs   string
	Maidens int
	Runs    int
	Wickets int
	Economy string
}

// Build converts a match into its card. Batters appear once they have faced
// a ball or been dismissed, bowlers once they have bowled a legal ball.
func Build(m *models.Match) Card {
	c := Card{
		Title:  fmt.Sprintf("%s vs %s", m.TeamA, m.TeamB),
		Date:   m.Date.Format(dateLayout),
		Overs:  m.Overs,
		Result: m.Result,
	}
	if c.Result == "" {
		c.Result = "In progress"
	}
	if m.TossWinner != "" {
		c.Toss = fmt.Sprintf("%s won and chose to %s", m.TossWinner, m.Decision)
	}
	if m.Innings1.BattingTeam != "" {
		c.Innings = append(c.Innings, buildInnings(&m.Innings1))
	}
	if m.Innings2 != nil {
		c.Innings = append(c.Innings, buildInnings(m.Innings2))
	}
	return c
}

func buildInnings(in *models.Innings) InningsCard {
	card := InningsCard{
		Team:   in.BattingTeam,
		Total:  fmt.Sprintf("%d/%d", in.Score, in.Wickets),
		Overs:  scoring.OversNotation(in.Overs, in.Balls),
		Extras: in.Extras,
	}
	for _, p := range in.Batters {
		if p.Balls == 0 && !p.IsOut {
			continue
		}
		card.Batters = append(card.Batters, BatterLine{
			Name:       p.Name,
			Status:     batterStatus(p),
			Runs:       p.Runs,
			Balls:      p.Balls,
			Fours:      p.Fours,
			Sixes:      p.Sixes,
			StrikeRate: fmt.Sprintf("%.2f", scoring.StrikeRate(p)),
		})
	}
	for _, b := range in.Bowlers {
		if b.Overs == 0 && b.Balls == 0 {
			continue
		}
		card.Bowlers = append(card.Bowlers, BowlerLine{
			Name:    b.Name,
			Overs:   scoring.OversNotation(b.Overs, b.Balls),
			Maidens: b.Maidens,
			Runs:    b.Runs,
			Wickets: b.Wickets,
			Economy: fmt.Sprintf("%.2f", scoring.Economy(b)),
		})
	}
	fow := make([]string, 0, len(in.FallOfWickets))
	for _, f := range in.FallOfWickets {
		fow = append(fow, fmt.Sprintf("%d-%d (%s, %s)", f.Wicket, f.Score, f.Player, f.Over))
	}
	card.FallOfWickets = strings.Join(fow, ", ")
	return card
}

func batterStatus(p models.Player) string {
	if !p.IsOut {
		return "not out"
	}
	if p.OutMethod == "" {
		return "out"
	}
	return strings.ToLower(p.OutMethod)
}

// Text renders the scorecard as fixed-width plain text.
func Text(m *models.Match) string {
	c := Build(m)
	var b strings.Builder

	fmt.Fprintln(&b, c.Title)
	fmt.Fprintf(&b, "%s | %d overs per side\n", c.Date, c.Overs)
	if c.Toss != "" {
		fmt.Fprintf(&b, "Toss: %s\n", c.Toss)
	}
	fmt.Fprintf(&b, "Result: %s\n", c.Result)

	for _, in := range c.Innings {
		fmt.Fprintf(&b, "\n%s innings: %s (%s overs)\n", in.Team, in.Total, in.Overs)
		fmt.Fprintf(&b, "%-20s %-10s %4s %4s %4s %4s %7s\n", "Batter", "", "R", "B", "4s", "6s", "SR")
		for _, p := range in.Batters {
			fmt.Fprintf(&b, "%-20s %-10s %4d %4d %4d %4d %7s\n", p.Name, p.Status, p.Runs, p.Balls, p.Fours, p.Sixes, p.StrikeRate)
		}
		fmt.Fprintf(&b, "Extras: %d\n", in.Extras)
		if in.FallOfWickets != "" {
			fmt.Fprintf(&b, "Fall of wickets: %s\n", in.FallOfWickets)
		}
		fmt.Fprintf(&b, "%-20s %5s %4s %4s %4s %7s\n", "Bowler", "O", "M", "R", "W", "Econ")
		for _, bw := range in.Bowlers {
			fmt.Fprintf(&b, "%-20s %5s %4d %4d %4d %7s\n", bw.Name, bw.Overs, bw.Maidens, bw.Runs, bw.Wickets, bw.Economy)
		}
	}
	return b.String()
}

// HTML writes the scorecard as a standalone HTML document.
func HTML(w io.Writer, m *models.Match) error {
	if err := htmlTemplate.Execute(w, Build(m)); err != nil {
		return fmt.Errorf("failed to render scorecard: %w", err)
	}
	return nil
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Filename is the download name for a rendered scorecard, e.g.
// "Lions-vs-Tigers-summary.html".
func Filename(m *models.Match, ext string) string {
	clean := func(s string) string {
		return strings.Trim(unsafeFilename.ReplaceAllString(s, "-"), "-")
	}
	return fmt.Sprintf("%s-vs-%s-summary.%s", clean(m.TeamA), clean(m.TeamB), ext)
}
