package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM whitelist").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("read user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	path := "/nonexistent/dir/test.db"

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for invalid path, got nil")
	}
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("error %v does not wrap ErrStorageUnavailable", err)
	}
}

func TestClose_NeverOpened(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on zero Store should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestSchema_WhitelistTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "whitelist")
	expected := []string{"id", "ip", "player_name", "added_by", "timestamp"}

	for _, col := range expected {
		if !contains(columns, col) {
			t.Errorf("whitelist table missing column %q", col)
		}
	}
}

func TestSchema_OwnerIndex(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "whitelist")
	if !contains(indexes, "idx_whitelist_player_name") {
		t.Errorf("missing owner index, got %v", indexes)
	}
}

// TestMigration_AddsOwnerColumn opens a database written by a release that
// predates owner labels.
func TestMigration_AddsOwnerColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	_, err = raw.Exec(`
		CREATE TABLE whitelist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ip TEXT NOT NULL UNIQUE,
			added_by TEXT,
			timestamp LONG
		);
		INSERT INTO whitelist (ip, added_by, timestamp) VALUES ('10.0.0.1', 'CONSOLE', 0);
	`)
	if err != nil {
		t.Fatalf("create legacy schema: %v", err)
	}
	raw.Close()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() on legacy db failed: %v", err)
	}
	defer s.Close()

	columns := getTableColumns(t, s.db, "whitelist")
	if !contains(columns, "player_name") {
		t.Fatalf("player_name column not added, got %v", columns)
	}

	if !s.IsAuthorized(context.Background(), "10.0.0.1") {
		t.Error("legacy row lost during migration")
	}
	if !s.Add(context.Background(), "10.0.0.2", "CONSOLE", "Steve") {
		t.Error("Add() with owner failed after migration")
	}
}

func TestHasColumn_CaseInsensitive(t *testing.T) {
	s := createTestStore(t)

	has, err := hasColumn(s.db, "whitelist", "PLAYER_NAME")
	if err != nil {
		t.Fatalf("hasColumn() failed: %v", err)
	}
	if !has {
		t.Error("hasColumn() should match column names case-insensitively")
	}
}
