// ABOUTME: SQLite implementation of the store interfaces using modernc.org/sqlite
// ABOUTME: Provides usage/challenge/points persistence with automatic schema creation

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements all store interfaces using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Wait out writer contention instead of failing with SQLITE_BUSY.
	// Concurrent award attempts serialize on the challenge row.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS devices (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			device_type   TEXT NOT NULL,
			os_version    TEXT,
			registered_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_devices_user_id ON devices(user_id);

		CREATE TABLE IF NOT EXISTS usage_sessions (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			device_id        TEXT NOT NULL,
			app_identifier   TEXT NOT NULL,
			start_time       TEXT NOT NULL,
			end_time         TEXT NOT NULL,
			duration_seconds INTEGER NOT NULL,
			created_at       TEXT NOT NULL,

			CHECK (duration_seconds >= 0),
			FOREIGN KEY (device_id) REFERENCES devices(id)
		);

		CREATE INDEX IF NOT EXISTS idx_usage_sessions_user_start
			ON usage_sessions(user_id, start_time);

		CREATE TABLE IF NOT EXISTS challenges (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			title          TEXT NOT NULL,
			target_seconds INTEGER NOT NULL,
			status         TEXT NOT NULL DEFAULT 'pending',
			awarded_points INTEGER NOT NULL DEFAULT 0,
			points_awarded INTEGER NOT NULL DEFAULT 0,
			created_at     TEXT NOT NULL,
			updated_at     TEXT NOT NULL,

			CHECK (status IN ('pending', 'in_progress', 'completed', 'failed')),
			CHECK (points_awarded IN (0, 1))
		);

		CREATE INDEX IF NOT EXISTS idx_challenges_user_id ON challenges(user_id);
		CREATE INDEX IF NOT EXISTS idx_challenges_user_status ON challenges(user_id, status);

		CREATE TABLE IF NOT EXISTS user_points (
			user_id      TEXT PRIMARY KEY,
			total_points INTEGER NOT NULL DEFAULT 0,
			updated_at   TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_user_points_total
			ON user_points(total_points DESC, user_id ASC);

		CREATE TABLE IF NOT EXISTS questionnaires (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			answers    TEXT NOT NULL,
			score      INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_questionnaires_user_id ON questionnaires(user_id);

		CREATE TABLE IF NOT EXISTS audit_log (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			action     TEXT NOT NULL,
			metadata   TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_log_user_created
			ON audit_log(user_id, created_at);

		CREATE TABLE IF NOT EXISTS api_keys (
			user_id    TEXT PRIMARY KEY,
			key_hash   BLOB NOT NULL,
			created_at TEXT NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// formatTime renders a timestamp in the canonical column format.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseTime parses a timestamp from the canonical column format.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// nullString converts an empty string to a NULL-able value.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
