package scoring

import "cricketscore/internal/models"

// View is a read-only picture of a scoring session, safe to serialize and
// hand to other goroutines.
type View struct {
	Match        *models.Match `json:"match"`
	State        State         `json:"state"`
	Prompt       Prompt        `json:"prompt"`
	StrikerID    string        `json:"strikerId,omitempty"`
	NonStrikerID string        `json:"nonStrikerId,omitempty"`
	BowlerID     string        `json:"bowlerId,omitempty"`
	Target       int           `json:"target,omitempty"`
	CanUndo      bool          `json:"canUndo"`
}

// View returns the current session picture.
func (e *Engine) View() View {
	striker, nonStriker, bowler := e.Players()
	return View{
		Match:        e.Match(),
		State:        e.State(),
		Prompt:       e.Prompt(),
		StrikerID:    striker,
		NonStrikerID: nonStriker,
		BowlerID:     bowler,
		Target:       e.Target(),
		CanUndo:      e.CanUndo(),
	}
}
