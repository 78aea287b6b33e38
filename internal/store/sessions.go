// ABOUTME: SQLite implementation for usage session persistence
// ABOUTME: Appends immutable session rows and queries them per user and time range

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AppendSession stores a usage session. Sessions are immutable once written.
func (s *SQLiteStore) AppendSession(ctx context.Context, session *UsageSession) error {
	query := `
		INSERT INTO usage_sessions (
			id, user_id, device_id, app_identifier,
			start_time, end_time, duration_seconds, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.DeviceID,
		session.AppIdentifier,
		formatTime(session.StartTime),
		formatTime(session.EndTime),
		session.DurationSeconds,
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting usage session: %w", err)
	}

	s.logger.Debug("appended usage session",
		"id", session.ID,
		"user_id", session.UserID,
		"app", session.AppIdentifier,
		"duration_seconds", session.DurationSeconds,
	)
	return nil
}

// SessionsByUser retrieves sessions whose start time falls in [from, to),
// ordered by start time ascending. Zero from/to mean unbounded.
func (s *SQLiteStore) SessionsByUser(ctx context.Context, userID string, from, to time.Time) ([]*UsageSession, error) {
	query := `
		SELECT id, user_id, device_id, app_identifier,
		       start_time, end_time, duration_seconds, created_at
		FROM usage_sessions
		WHERE user_id = ?
	`
	args := []any{userID}

	if !from.IsZero() {
		query += " AND start_time >= ?"
		args = append(args, formatTime(from))
	}
	if !to.IsZero() {
		query += " AND start_time < ?"
		args = append(args, formatTime(to))
	}
	query += " ORDER BY start_time ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying usage sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*UsageSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session rows: %w", err)
	}

	return sessions, nil
}

// scanSession scans a single session row into a UsageSession struct.
func scanSession(rows *sql.Rows) (*UsageSession, error) {
	var session UsageSession
	var startStr, endStr, createdStr string

	err := rows.Scan(
		&session.ID,
		&session.UserID,
		&session.DeviceID,
		&session.AppIdentifier,
		&startStr,
		&endStr,
		&session.DurationSeconds,
		&createdStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning session row: %w", err)
	}

	if session.StartTime, err = parseTime(startStr); err != nil {
		return nil, err
	}
	if session.EndTime, err = parseTime(endStr); err != nil {
		return nil, err
	}
	if session.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}

	return &session, nil
}

// Ensure SQLiteStore implements UsageStore interface.
var _ UsageStore = (*SQLiteStore)(nil)
