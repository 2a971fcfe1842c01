package repository

import (
	"encoding/json"
	"fmt"

	"cricketscore/internal/database"
	"cricketscore/internal/models"
)

var matchColumns = []string{"id", "user_key", "position", "team_a", "team_b", "status", "result", "data", "created_at"}

// MatchRepository stores matches as JSON documents, one row per match
type MatchRepository struct {
	db *database.DB
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// LoadMatches returns the user's matches in the order they were saved
func (r *MatchRepository) LoadMatches(userKey string) ([]models.Match, error) {
	rows, err := r.db.Query("SELECT data FROM matches WHERE user_key = ? ORDER BY position", userKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := []models.Match{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		var m models.Match
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to decode match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// SaveMatches replaces the user's matches in one transaction
func (r *MatchRepository) SaveMatches(userKey string, matches []models.Match) error {
	upsert := r.db.Dialect.UpsertQuery("matches", "id", matchColumns)

	return r.db.WithTx(func(tx *database.Tx) error {
		if _, err := tx.Exec("DELETE FROM matches WHERE user_key = ?", userKey); err != nil {
			return fmt.Errorf("failed to clear matches: %w", err)
		}
		for i, m := range matches {
			data, err := json.Marshal(m)
			if err != nil {
				return fmt.Errorf("failed to encode match %s: %w", m.ID, err)
			}
			_, err = tx.Exec(upsert, m.ID, userKey, i, m.TeamA, m.TeamB, string(m.Status), m.Result, string(data), m.Date.UTC())
			if err != nil {
				return fmt.Errorf("failed to save match %s: %w", m.ID, err)
			}
		}
		return nil
	})
}

// CountMatches returns how many matches the user has stored
func (r *MatchRepository) CountMatches(userKey string) (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM matches WHERE user_key = ?", userKey).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return n, nil
}
