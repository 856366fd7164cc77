package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/ipgate/internal/metrics"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (ip, added_by, timestamp)
// 1 - Added player_name column
// 2 - Added NOCASE index on player_name
const currentSchemaVersion = 2

// ErrStorageUnavailable is returned by Open when the backing database cannot
// be opened, created or migrated. Callers must treat it as fatal.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Store is the durable registry of authorized addresses.
type Store struct {
	mu      sync.RWMutex
	db      *sql.DB
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage faults.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records storage faults on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithClock overrides the source of record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// Every error returned wraps ErrStorageUnavailable.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, unavailable("open database", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("connect to database", err)
	}

	// SQLite only supports one writer at a time; a single connection also
	// serializes lookups against mutations.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, unavailable("apply pragmas", err)
	}

	if err := applySchema(db, s.logger); err != nil {
		db.Close()
		return nil, unavailable("apply schema", err)
	}

	s.db = db
	return s, nil
}

func unavailable(step string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, step, err)
}

// Close releases the database connection.
// Safe to call more than once, and on a Store that was never opened.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// handle returns the open database, or nil after Close. The read lock is held
// until release is called so Close cannot race an in-flight statement.
func (s *Store) handle() (db *sql.DB, release func()) {
	s.mu.RLock()
	return s.db, s.mu.RUnlock
}

// fault records a storage failure for op. Mutation faults are logged at
// error level; lookup faults only at debug so the hot path stays quiet.
func (s *Store) fault(ctx context.Context, op string, err error, level slog.Level, attrs ...any) {
	s.metrics.StoreFault(op)
	args := append([]any{"op", op, "error", err}, attrs...)
	s.logger.Log(ctx, level, "storage fault", args...)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the table if it doesn't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB, logger *slog.Logger) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
// Column-level migrations also introspect the table, so databases written by
// older releases that never set user_version are handled.
func runMigrations(db *sql.DB, logger *slog.Logger) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db, logger); err != nil {
			return err
		}
	}

	if version < 2 {
		if err := migrateToV2(db); err != nil {
			return err
		}
	}

	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// migrateToV1 adds the player_name column to tables created before owners
// were tracked.
func migrateToV1(db *sql.DB, logger *slog.Logger) error {
	has, err := hasColumn(db, "whitelist", "player_name")
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	if has {
		return nil
	}

	logger.Info("migrating database: adding player_name column")
	if _, err := db.Exec("ALTER TABLE whitelist ADD COLUMN player_name TEXT"); err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// migrateToV2 indexes owner labels for case-insensitive lookups.
func migrateToV2(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_whitelist_player_name
		ON whitelist(player_name COLLATE NOCASE)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v2: %w", err)
	}
	return nil
}

// hasColumn reports whether table has a column named name (case-insensitive).
func hasColumn(db *sql.DB, table, name string) (bool, error) {
	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			colName   string
			colType   string
			notNull   int
			dfltValue any
			pk        int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, fmt.Errorf("scan table info: %w", err)
		}
		if strings.EqualFold(colName, name) {
			return true, nil
		}
	}
	return false, rows.Err()
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	db, release := s.handle()
	defer release()

	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
