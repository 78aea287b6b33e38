// ABOUTME: SQLite implementation for the audit trail
// ABOUTME: Records state-changing operations with optional JSON metadata

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// RecordAudit stores an audit entry.
func (s *SQLiteStore) RecordAudit(ctx context.Context, entry *AuditEntry) error {
	query := `
		INSERT INTO audit_log (id, user_id, action, metadata, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	var metadata sql.NullString
	if len(entry.Metadata) > 0 {
		metadata = sql.NullString{String: string(entry.Metadata), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Action,
		metadata,
		formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// AuditByUser retrieves a user's audit entries, newest first, capped at limit.
func (s *SQLiteStore) AuditByUser(ctx context.Context, userID string, limit int) ([]*AuditEntry, error) {
	query := `
		SELECT id, user_id, action, metadata, created_at
		FROM audit_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var metadata sql.NullString
		var createdStr string
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &metadata, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning audit row: %w", err)
		}
		if metadata.Valid {
			entry.Metadata = []byte(metadata.String)
		}
		if entry.CreatedAt, err = parseTime(createdStr); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// Ensure SQLiteStore implements AuditStore interface.
var _ AuditStore = (*SQLiteStore)(nil)
