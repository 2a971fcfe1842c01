package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

const (
	// MaxOvers caps the innings length a match can be configured with
	MaxOvers = 50
	// MaxSquad is the largest roster accepted at setup
	MaxSquad = 11

	maxTeamName   = 50
	maxPlayerName = 40
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateMatchSetup checks a new match request. Blank names are allowed;
// they are filled with placeholders when the match is created.
func ValidateMatchSetup(teamA, teamB string, playersA, playersB []string, overs int) error {
	if overs < 0 || overs > MaxOvers {
		return ValidationError{Field: "overs", Message: fmt.Sprintf("overs must be between 1 and %d", MaxOvers)}
	}
	for field, name := range map[string]string{"teamA": teamA, "teamB": teamB} {
		if utf8.RuneCountInString(strings.TrimSpace(name)) > maxTeamName {
			return ValidationError{Field: field, Message: fmt.Sprintf("team name must be at most %d characters", maxTeamName)}
		}
	}
	a, b := strings.TrimSpace(teamA), strings.TrimSpace(teamB)
	if a != "" && strings.EqualFold(a, b) {
		return ValidationError{Field: "teamB", Message: "teams must have different names"}
	}
	if err := validateRoster("playersA", playersA); err != nil {
		return err
	}
	return validateRoster("playersB", playersB)
}

func validateRoster(field string, players []string) error {
	if len(players) > MaxSquad {
		return ValidationError{Field: field, Message: fmt.Sprintf("at most %d players", MaxSquad)}
	}
	for _, p := range players {
		if utf8.RuneCountInString(strings.TrimSpace(p)) > maxPlayerName {
			return ValidationError{Field: field, Message: fmt.Sprintf("player names must be at most %d characters", maxPlayerName)}
		}
	}
	return nil
}
