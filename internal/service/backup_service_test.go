package service

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"cricketscore/internal/models"
	"cricketscore/internal/repository"
)

func storedMatch(id string) models.Match {
	return models.Match{
		ID:       id,
		TeamA:    "Lions",
		TeamB:    "Tigers",
		Overs:    5,
		Decision: models.DecisionBat,
		Innings1: models.Innings{BattingTeam: "Lions", BowlingTeam: "Tigers", Score: 30, Wickets: 2},
		Status:   models.StatusCompleted,
		Result:   "Lions scored 30 for 2.",
		Date:     time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestBackupRoundTrip(t *testing.T) {
	srcDB := newTestDB(t)
	srcUsers := repository.NewUserRepository(srcDB)
	srcMatches := repository.NewMatchRepository(srcDB)
	src := NewBackupService(srcDB, srcUsers, srcMatches)

	if _, err := srcUsers.CreateUser("ann@example.com", "hash-a", "Ann"); err != nil {
		t.Fatal(err)
	}
	if _, err := srcUsers.CreateOAuthUser("bob@example.com", "Bob", "google", "sub-b"); err != nil {
		t.Fatal(err)
	}
	if err := srcMatches.SaveMatches("ann@example.com", []models.Match{storedMatch("m1"), storedMatch("m2")}); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	backup, err := src.Export(&buf)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if backup.DatabaseType != "sqlite" || len(backup.Users) != 2 || len(backup.Matches["ann@example.com"]) != 2 {
		t.Errorf("backup = %+v", backup)
	}
	if _, ok := backup.Matches["bob@example.com"]; ok {
		t.Error("users without matches should be left out of the match map")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}

	dstDB := newTestDB(t)
	dstUsers := repository.NewUserRepository(dstDB)
	dstMatches := repository.NewMatchRepository(dstDB)
	if _, err := dstUsers.CreateUser("bob@example.com", "other", "Existing Bob"); err != nil {
		t.Fatal(err)
	}
	dst := NewBackupService(dstDB, dstUsers, dstMatches)

	stats, err := dst.Import(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.UsersCreated != 1 || stats.UsersSkipped != 1 || stats.Matches != 2 {
		t.Errorf("stats = %+v", stats)
	}

	ann, err := dstUsers.GetUserByEmail("ann@example.com")
	if err != nil || ann == nil {
		t.Fatalf("imported user missing: %v", err)
	}
	if ann.PasswordHash != "hash-a" {
		t.Errorf("PasswordHash = %q, want carried over", ann.PasswordHash)
	}
	bob, _ := dstUsers.GetUserByEmail("bob@example.com")
	if bob.Name != "Existing Bob" {
		t.Errorf("existing user was overwritten: %+v", bob)
	}

	matches, err := dstMatches.LoadMatches("ann@example.com")
	if err != nil || len(matches) != 2 || matches[0].ID != "m1" {
		t.Errorf("imported matches = %+v, %v", matches, err)
	}
}

func TestBackupClear(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	matches := repository.NewMatchRepository(db)
	s := NewBackupService(db, users, matches)

	user, err := users.CreateUser("ann@example.com", "hash", "Ann")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := users.CreateSession("s1", user.ID, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := matches.SaveMatches("ann@example.com", []models.Match{storedMatch("m1")}); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	all, _ := users.ListUsers()
	if len(all) != 0 {
		t.Errorf("users left after Clear(): %d", len(all))
	}
	if n, _ := matches.CountMatches("ann@example.com"); n != 0 {
		t.Errorf("matches left after Clear(): %d", n)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	db := newTestDB(t)
	s := NewBackupService(db, repository.NewUserRepository(db), repository.NewMatchRepository(db))
	if _, err := s.Import(bytes.NewReader([]byte("not json"))); err == nil {
		t.Error("Import() accepted garbage")
	}
}
