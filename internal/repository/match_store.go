package repository

import (
	"errors"
	"fmt"

	"cricketscore/internal/database"
	"cricketscore/internal/models"
)

// ErrMatchNotFound is returned when a stored match does not exist
var ErrMatchNotFound = errors.New("match not found")

// MatchStore persists each user's list of finished matches. userKey is the
// user's normalized email. SaveMatches replaces the whole list.
type MatchStore interface {
	LoadMatches(userKey string) ([]models.Match, error)
	SaveMatches(userKey string, matches []models.Match) error
}

// FindMatch returns the match with the given id from the user's list.
func FindMatch(store MatchStore, userKey, id string) (*models.Match, error) {
	matches, err := store.LoadMatches(userKey)
	if err != nil {
		return nil, err
	}
	for i := range matches {
		if matches[i].ID == id {
			return &matches[i], nil
		}
	}
	return nil, ErrMatchNotFound
}

// OpenMatchStore returns the store named by kind: "sql" keeps matches in
// db, "file" keeps them under dataDir, encrypted when passphrase is set.
func OpenMatchStore(kind string, db *database.DB, dataDir, passphrase string) (MatchStore, error) {
	switch kind {
	case "", "sql":
		return NewMatchRepository(db), nil
	case "file":
		return OpenFileMatchStore(dataDir, passphrase)
	}
	return nil, fmt.Errorf("unknown match store %q", kind)
}
