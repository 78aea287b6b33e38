// ABOUTME: SQLite implementation for bootstrap API key storage
// ABOUTME: Only bcrypt hashes are persisted, never plaintext keys

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SaveAPIKey stores (or replaces) the API key hash for a user.
func (s *SQLiteStore) SaveAPIKey(ctx context.Context, userID string, hash []byte) error {
	query := `
		INSERT INTO api_keys (user_id, key_hash, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET key_hash = excluded.key_hash
	`

	_, err := s.db.ExecContext(ctx, query, userID, hash, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}

	s.logger.Info("stored api key", "user_id", userID)
	return nil
}

// GetAPIKeyHash retrieves the stored hash for a user. Returns ErrNotFound
// if the user has no key.
func (s *SQLiteStore) GetAPIKeyHash(ctx context.Context, userID string) ([]byte, error) {
	query := `SELECT key_hash FROM api_keys WHERE user_id = ?`

	var hash []byte
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying api key: %w", err)
	}
	return hash, nil
}

// Ensure SQLiteStore implements APIKeyStore interface.
var _ APIKeyStore = (*SQLiteStore)(nil)
