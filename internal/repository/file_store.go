package repository

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"

	"cricketscore/internal/models"
)

// FileMatchStore keeps one data file per user under matches/. Files are
// encrypted and compressed when a master key is configured.
type FileMatchStore struct {
	storage *storage.Storage
	mu      sync.Map
}

type matchFile struct {
	UserKey string         `json:"userKey"`
	Matches []models.Match `json:"matches"`
}

// NewFileMatchStore wraps an opened storage.
func NewFileMatchStore(s *storage.Storage) *FileMatchStore {
	return &FileMatchStore{storage: s}
}

// OpenFileMatchStore opens dataDir, reading or creating master.key when a
// passphrase is given. Without a passphrase the data is stored unencrypted,
// and an existing key file is treated as an error.
func OpenFileMatchStore(dataDir, passphrase string) (*FileMatchStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	keyFile := filepath.Join(dataDir, "master.key")

	var masterKey crypto.MasterKey
	if passphrase != "" {
		var err error
		masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile)
		if os.IsNotExist(err) {
			log.Println("Initializing new master encryption key...")
			if masterKey, err = crypto.CreateMasterKey(); err != nil {
				return nil, fmt.Errorf("failed to create master key: %w", err)
			}
			if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
				return nil, fmt.Errorf("failed to save master key: %w", err)
			}
		} else if err != nil {
			return nil, fmt.Errorf("failed to read master key: %w", err)
		}
	} else {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but MASTER_KEY_PASSPHRASE is not set", keyFile)
		}
		log.Println("Warning: no MASTER_KEY_PASSPHRASE provided, match files are stored unencrypted")
	}

	s := storage.New(dataDir, masterKey)
	if masterKey != nil {
		s.EnableCompression(true)
	}
	return NewFileMatchStore(s), nil
}

func matchFileName(userKey string) string {
	return filepath.Join("matches", url.PathEscape(userKey)+".json")
}

func (f *FileMatchStore) lock(userKey string) func() {
	m, _ := f.mu.LoadOrStore(userKey, &sync.Mutex{})
	mutex := m.(*sync.Mutex)
	mutex.Lock()
	return mutex.Unlock
}

// LoadMatches returns the user's matches, or an empty list if none were saved
func (f *FileMatchStore) LoadMatches(userKey string) ([]models.Match, error) {
	defer f.lock(userKey)()

	var mf matchFile
	if err := f.storage.ReadDataFile(matchFileName(userKey), &mf); err != nil {
		if os.IsNotExist(err) {
			return []models.Match{}, nil
		}
		return nil, fmt.Errorf("failed to read matches: %w", err)
	}
	if mf.Matches == nil {
		mf.Matches = []models.Match{}
	}
	return mf.Matches, nil
}

// SaveMatches writes the user's full match list
func (f *FileMatchStore) SaveMatches(userKey string, matches []models.Match) error {
	defer f.lock(userKey)()

	if err := f.storage.SaveDataFile(matchFileName(userKey), matchFile{UserKey: userKey, Matches: matches}); err != nil {
		return fmt.Errorf("failed to save matches: %w", err)
	}
	return nil
}
