// ABOUTME: SQLite implementation for per-user point totals
// ABOUTME: Totals are only ever mutated through the award transaction in challenges.go

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EnsurePoints creates a zero-total points row for the user if absent.
func (s *SQLiteStore) EnsurePoints(ctx context.Context, userID string) error {
	query := `
		INSERT INTO user_points (user_id, total_points, updated_at)
		VALUES (?, 0, ?)
		ON CONFLICT(user_id) DO NOTHING
	`

	_, err := s.db.ExecContext(ctx, query, userID, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("ensuring points row: %w", err)
	}
	return nil
}

// GetPoints retrieves a user's running total. Returns ErrNotFound if the
// user has no points row.
func (s *SQLiteStore) GetPoints(ctx context.Context, userID string) (*UserPoints, error) {
	query := `SELECT user_id, total_points, updated_at FROM user_points WHERE user_id = ?`

	var points UserPoints
	var updatedStr string
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&points.UserID,
		&points.TotalPoints,
		&updatedStr,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	if points.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}
	return &points, nil
}

// TopByPoints returns up to n rows ordered by total descending, user ID
// ascending on ties. The secondary key makes the ordering reproducible.
func (s *SQLiteStore) TopByPoints(ctx context.Context, n int) ([]*UserPoints, error) {
	query := `
		SELECT user_id, total_points, updated_at
		FROM user_points
		ORDER BY total_points DESC, user_id ASC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("querying top points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []*UserPoints
	for rows.Next() {
		var points UserPoints
		var updatedStr string
		if err := rows.Scan(&points.UserID, &points.TotalPoints, &updatedStr); err != nil {
			return nil, fmt.Errorf("scanning points row: %w", err)
		}
		if points.UpdatedAt, err = parseTime(updatedStr); err != nil {
			return nil, err
		}
		totals = append(totals, &points)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points rows: %w", err)
	}

	return totals, nil
}

// Ensure SQLiteStore implements PointsStore interface.
var _ PointsStore = (*SQLiteStore)(nil)
