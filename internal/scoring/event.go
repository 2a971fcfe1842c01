package scoring

import (
	"fmt"
	"strings"
)

// EventKind identifies what happened on a delivery
type EventKind int

const (
	EventRuns EventKind = iota
	EventWide
	EventNoBall
	EventWicket
)

// Event is a single ball outcome
type Event struct {
	Kind EventKind
	Runs int
}

// Runs is a legal delivery scoring n off the bat.
func Runs(n int) Event { return Event{Kind: EventRuns, Runs: n} }

func Wide() Event   { return Event{Kind: EventWide} }
func NoBall() Event { return Event{Kind: EventNoBall} }
func Wicket() Event { return Event{Kind: EventWicket} }

// Valid reports whether the event is one the engine accepts.
func (e Event) Valid() bool {
	switch e.Kind {
	case EventRuns:
		switch e.Runs {
		case 0, 1, 2, 3, 4, 6:
			return true
		}
		return false
	case EventWide, EventNoBall, EventWicket:
		return true
	}
	return false
}

func (e Event) legal() bool {
	return e.Kind == EventRuns || e.Kind == EventWicket
}

func (e Event) String() string {
	switch e.Kind {
	case EventRuns:
		return fmt.Sprintf("%d", e.Runs)
	case EventWide:
		return "Wd"
	case EventNoBall:
		return "Nb"
	case EventWicket:
		return "W"
	}
	return "?"
}

// ParseEvent reads the compact notation used by the scoring pad:
// "0".."6", "Wd", "Nb" or "W" (case-insensitive).
func ParseEvent(s string) (Event, error) {
	var ev Event
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "0", "1", "2", "3", "4", "6":
		ev = Runs(int(t[0] - '0'))
	case "wd", "wide":
		ev = Wide()
	case "nb", "noball", "no-ball":
		ev = NoBall()
	case "w", "wicket":
		ev = Wicket()
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrInvalidEvent, s)
	}
	return ev, nil
}
