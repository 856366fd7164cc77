package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Record is a stored authorization.
type Record struct {
	ID        int64
	Address   string
	Owner     string // empty when the record has no owner
	AddedBy   string
	CreatedAt time.Time
}

// String formats the record as "address" or "address (owner)".
func (r Record) String() string {
	if r.Owner == "" {
		return r.Address
	}
	return fmt.Sprintf("%s (%s)", r.Address, r.Owner)
}

// IsAuthorized reports whether address has a record. Matching is exact and
// case-sensitive.
//
// Fails closed: any storage fault is reported as false and only logged at
// debug level.
func (s *Store) IsAuthorized(ctx context.Context, address string) bool {
	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "is_authorized", errClosed, slog.LevelDebug, "address", address)
		return false
	}

	var one int
	err := db.QueryRowContext(ctx, `SELECT 1 FROM whitelist WHERE ip = ?`, address).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		s.fault(ctx, "is_authorized", err, slog.LevelDebug, "address", address)
		return false
	}
	return true
}

// ListByOwner returns the addresses whose owner matches owner
// case-insensitively. Returns an empty slice if none match or on fault.
func (s *Store) ListByOwner(ctx context.Context, owner string) []string {
	addresses := []string{}
	if owner == "" {
		return addresses
	}

	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "list_by_owner", errClosed, slog.LevelError, "owner", owner)
		return addresses
	}

	rows, err := db.QueryContext(ctx, `
		SELECT ip FROM whitelist
		WHERE player_name = ? COLLATE NOCASE
		ORDER BY id ASC
	`, owner)
	if err != nil {
		s.fault(ctx, "list_by_owner", err, slog.LevelError, "owner", owner)
		return addresses
	}
	defer rows.Close()

	for rows.Next() {
		var ip string
		if err := rows.Scan(&ip); err != nil {
			s.fault(ctx, "list_by_owner", err, slog.LevelError, "owner", owner)
			return []string{}
		}
		addresses = append(addresses, ip)
	}
	if err := rows.Err(); err != nil {
		s.fault(ctx, "list_by_owner", err, slog.LevelError, "owner", owner)
		return []string{}
	}
	return addresses
}

// ListAll returns every record. Callers must not rely on the order.
func (s *Store) ListAll(ctx context.Context) []Record {
	records := []Record{}

	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "list_all", errClosed, slog.LevelError)
		return records
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, ip, player_name, added_by, timestamp FROM whitelist
	`)
	if err != nil {
		s.fault(ctx, "list_all", err, slog.LevelError)
		return records
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rec     Record
			owner   sql.NullString
			addedBy sql.NullString
			millis  sql.NullInt64
		)
		if err := rows.Scan(&rec.ID, &rec.Address, &owner, &addedBy, &millis); err != nil {
			// A corrupt row is skipped rather than failing the whole listing.
			s.fault(ctx, "list_all", err, slog.LevelError)
			continue
		}
		rec.Owner = owner.String
		rec.AddedBy = addedBy.String
		if millis.Valid {
			rec.CreatedAt = time.UnixMilli(millis.Int64)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		s.fault(ctx, "list_all", err, slog.LevelError)
	}
	return records
}

// Count returns the number of stored records, or 0 on fault.
func (s *Store) Count(ctx context.Context) int {
	db, release := s.handle()
	defer release()
	if db == nil {
		s.fault(ctx, "count", errClosed, slog.LevelError)
		return 0
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM whitelist`).Scan(&n); err != nil {
		s.fault(ctx, "count", err, slog.LevelError)
		return 0
	}
	return n
}
