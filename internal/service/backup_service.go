package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"cricketscore/internal/database"
	"cricketscore/internal/models"
	"cricketscore/internal/repository"
)

const backupVersion = "1.0"

// BackupData represents the complete backup structure
type BackupData struct {
	Version      string                    `json:"version"`
	ExportedAt   time.Time                 `json:"exported_at"`
	DatabaseType string                    `json:"database_type"`
	Users        []UserBackup              `json:"users"`
	Matches      map[string][]models.Match `json:"matches"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ImportStats reports what an import changed
type ImportStats struct {
	UsersCreated int
	UsersSkipped int
	Matches      int
}

// BackupService exports and imports accounts with their match history
type BackupService struct {
	db      *database.DB
	users   *repository.UserRepository
	matches repository.MatchStore
}

// NewBackupService creates a backup service
func NewBackupService(db *database.DB, users *repository.UserRepository, matches repository.MatchStore) *BackupService {
	return &BackupService{db: db, users: users, matches: matches}
}

// Export writes every user and their matches as indented JSON
func (s *BackupService) Export(w io.Writer) (*BackupData, error) {
	users, err := s.users.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to export users: %w", err)
	}

	backup := &BackupData{
		Version:      backupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.GetDialect().Name(),
		Users:        make([]UserBackup, 0, len(users)),
		Matches:      make(map[string][]models.Match),
	}
	for _, u := range users {
		backup.Users = append(backup.Users, UserBackup{
			Email:         u.Email,
			PasswordHash:  u.PasswordHash,
			Name:          u.Name,
			OAuthProvider: u.OAuthProvider,
			OAuthSubject:  u.OAuthSubject,
			CreatedAt:     u.CreatedAt,
			UpdatedAt:     u.UpdatedAt,
		})

		matches, err := s.matches.LoadMatches(u.MatchKey())
		if err != nil {
			return nil, fmt.Errorf("failed to export matches for %s: %w", u.Email, err)
		}
		if len(matches) > 0 {
			backup.Matches[u.MatchKey()] = matches
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return backup, nil
}

// ExportToFile writes the backup to outputPath
func (s *BackupService) ExportToFile(outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	backup, err := s.Export(file)
	if err != nil {
		return err
	}
	log.Printf("Exported %d users and %d match lists to %s", len(backup.Users), len(backup.Matches), outputPath)
	return nil
}

// Import reads a backup. Users whose email already exists are kept as they
// are; each imported match list replaces the stored list for that user.
func (s *BackupService) Import(r io.Reader) (*ImportStats, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	stats := &ImportStats{}
	for _, u := range backup.Users {
		created, err := s.importUser(u)
		if err != nil {
			return stats, fmt.Errorf("failed to import user %s: %w", u.Email, err)
		}
		if created {
			stats.UsersCreated++
		} else {
			stats.UsersSkipped++
		}
	}

	for key, matches := range backup.Matches {
		if err := s.matches.SaveMatches(models.NormalizeEmail(key), matches); err != nil {
			return stats, fmt.Errorf("failed to import matches for %s: %w", key, err)
		}
		stats.Matches += len(matches)
	}

	log.Printf("Import completed: %d users created, %d skipped, %d matches", stats.UsersCreated, stats.UsersSkipped, stats.Matches)
	return stats, nil
}

// ImportFromFile imports the backup at inputPath
func (s *BackupService) ImportFromFile(inputPath string) (*ImportStats, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.Import(file)
}

func (s *BackupService) importUser(u UserBackup) (bool, error) {
	email := models.NormalizeEmail(u.Email)
	existing, err := s.users.GetUserByEmail(email)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	query := "INSERT INTO users (email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	_, err = s.db.Exec(query, email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	return err == nil, err
}

// Clear deletes all accounts, sessions and SQL-stored matches
func (s *BackupService) Clear() error {
	return s.db.WithTx(func(tx *database.Tx) error {
		for _, table := range []string{"matches", "sessions", "users"} {
			if _, err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
				return fmt.Errorf("failed to clear table %s: %w", table, err)
			}
			log.Printf("Cleared table: %s", table)
		}
		return nil
	})
}
