package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"
)

// errClosed is reported when a Store is used after Close.
var errClosed = errors.New("store is closed")

// Add inserts a new authorization record.
//
// Returns false without logging when address is already present; uniqueness
// is enforced by the table, never pre-checked. Any other fault is logged and
// also reported as false. An empty owner is stored as NULL.
func (s *Store) Add(ctx context.Context, address, addedBy, owner string) bool {
	if address == "" {
		return false
	}

	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "add", errClosed, slog.LevelError, "address", address)
		return false
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO whitelist (ip, added_by, player_name, timestamp)
		VALUES (?, ?, ?, ?)
	`,
		address,
		addedBy,
		nullable(owner),
		s.now().UnixMilli(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false
		}
		s.fault(ctx, "add", err, slog.LevelError, "address", address)
		return false
	}
	return true
}

// Remove deletes the record for address and reports whether a row was
// actually deleted.
func (s *Store) Remove(ctx context.Context, address string) bool {
	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "remove", errClosed, slog.LevelError, "address", address)
		return false
	}

	result, err := db.ExecContext(ctx, `DELETE FROM whitelist WHERE ip = ?`, address)
	if err != nil {
		s.fault(ctx, "remove", err, slog.LevelError, "address", address)
		return false
	}

	n, err := result.RowsAffected()
	if err != nil {
		s.fault(ctx, "remove", fmt.Errorf("rows affected: %w", err), slog.LevelError, "address", address)
		return false
	}
	return n > 0
}

// RemoveByOwner deletes every record whose owner matches owner
// case-insensitively. Returns the number of rows deleted, 0 on fault.
func (s *Store) RemoveByOwner(ctx context.Context, owner string) int {
	if owner == "" {
		return 0
	}

	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "remove_by_owner", errClosed, slog.LevelError, "owner", owner)
		return 0
	}

	result, err := db.ExecContext(ctx, `
		DELETE FROM whitelist WHERE player_name = ? COLLATE NOCASE
	`, owner)
	if err != nil {
		s.fault(ctx, "remove_by_owner", err, slog.LevelError, "owner", owner)
		return 0
	}

	n, err := result.RowsAffected()
	if err != nil {
		s.fault(ctx, "remove_by_owner", fmt.Errorf("rows affected: %w", err), slog.LevelError, "owner", owner)
		return 0
	}
	return int(n)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
