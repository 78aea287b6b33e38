// ABOUTME: SQLite implementation for challenge persistence and the atomic award primitive
// ABOUTME: ConditionalAward latches points_awarded and credits the owner in one transaction

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CreateChallenge stores a new challenge.
func (s *SQLiteStore) CreateChallenge(ctx context.Context, challenge *Challenge) error {
	query := `
		INSERT INTO challenges (
			id, user_id, title, target_seconds, status,
			awarded_points, points_awarded, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	awarded := 0
	if challenge.PointsAwarded {
		awarded = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		challenge.ID,
		challenge.UserID,
		challenge.Title,
		challenge.TargetSeconds,
		challenge.Status,
		challenge.AwardedPoints,
		awarded,
		formatTime(challenge.CreatedAt),
		formatTime(challenge.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting challenge: %w", err)
	}

	s.logger.Debug("created challenge",
		"id", challenge.ID,
		"user_id", challenge.UserID,
		"title", challenge.Title,
	)
	return nil
}

// GetChallenge retrieves a challenge by ID. Returns ErrNotFound if absent.
func (s *SQLiteStore) GetChallenge(ctx context.Context, id string) (*Challenge, error) {
	query := `
		SELECT id, user_id, title, target_seconds, status,
		       awarded_points, points_awarded, created_at, updated_at
		FROM challenges
		WHERE id = ?
	`

	row := s.db.QueryRowContext(ctx, query, id)
	challenge, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return challenge, nil
}

// ChallengesByUser retrieves all challenges for a user, newest first.
func (s *SQLiteStore) ChallengesByUser(ctx context.Context, userID string) ([]*Challenge, error) {
	query := `
		SELECT id, user_id, title, target_seconds, status,
		       awarded_points, points_awarded, created_at, updated_at
		FROM challenges
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying challenges: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var challenges []*Challenge
	for rows.Next() {
		challenge, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, challenge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating challenge rows: %w", err)
	}

	return challenges, nil
}

// UpdateChallengeStatus sets the status of a challenge.
// The points_awarded latch is never touched here.
func (s *SQLiteStore) UpdateChallengeStatus(ctx context.Context, id, status string) error {
	query := `UPDATE challenges SET status = ?, updated_at = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, status, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating challenge status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	s.logger.Debug("updated challenge status", "id", id, "status", status)
	return nil
}

// ConditionalAward performs the one-time credit for a completed challenge.
//
// The latch UPDATE only matches rows where status is completed and
// points_awarded is still 0, so of any number of concurrent or repeated
// invocations exactly one observes an affected row. That invocation credits
// the owner's points total inside the same transaction; both writes commit
// together or the transaction rolls back. Returns true only for the
// invocation that performed the credit.
func (s *SQLiteStore) ConditionalAward(ctx context.Context, challengeID string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning award transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := formatTime(time.Now())

	latch := `
		UPDATE challenges
		SET points_awarded = 1, updated_at = ?
		WHERE id = ? AND status = ? AND points_awarded = 0
	`
	result, err := tx.ExecContext(ctx, latch, now, challengeID, ChallengeCompleted)
	if err != nil {
		return false, fmt.Errorf("latching award flag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		// Already awarded, not completed, or no such challenge.
		return false, nil
	}

	var userID string
	var points int64
	row := tx.QueryRowContext(ctx,
		`SELECT user_id, awarded_points FROM challenges WHERE id = ?`, challengeID)
	if err := row.Scan(&userID, &points); err != nil {
		return false, fmt.Errorf("reading latched challenge: %w", err)
	}

	credit := `
		UPDATE user_points
		SET total_points = total_points + ?, updated_at = ?
		WHERE user_id = ?
	`
	result, err = tx.ExecContext(ctx, credit, points, now, userID)
	if err != nil {
		return false, fmt.Errorf("crediting points: %w", err)
	}
	affected, err = result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	if affected == 0 {
		// No points row for the owner: roll back the latch as well so no
		// partial state survives.
		return false, fmt.Errorf("challenge %s owner %s: %w", challengeID, userID, ErrNoPointsRow)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing award transaction: %w", err)
	}

	s.logger.Info("awarded challenge points",
		"challenge_id", challengeID,
		"user_id", userID,
		"points", points,
	)
	return true, nil
}

// scanChallenge scans a challenge from a row scanner.
func scanChallenge(row interface{ Scan(...any) error }) (*Challenge, error) {
	var challenge Challenge
	var awarded int
	var createdStr, updatedStr string

	err := row.Scan(
		&challenge.ID,
		&challenge.UserID,
		&challenge.Title,
		&challenge.TargetSeconds,
		&challenge.Status,
		&challenge.AwardedPoints,
		&awarded,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning challenge row: %w", err)
	}

	challenge.PointsAwarded = awarded == 1
	if challenge.CreatedAt, err = parseTime(createdStr); err != nil {
		return nil, err
	}
	if challenge.UpdatedAt, err = parseTime(updatedStr); err != nil {
		return nil, err
	}

	return &challenge, nil
}

// Ensure SQLiteStore implements ChallengeStore interface.
var _ ChallengeStore = (*SQLiteStore)(nil)
