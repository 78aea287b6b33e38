// ABOUTME: Tests for audit trail persistence
// ABOUTME: Covers RecordAudit, metadata round-trip, and limit handling

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_RecordAudit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ID:        uuid.New().String(),
		UserID:    "user-001",
		Action:    "challenge.completed",
		Metadata:  []byte(`{"challenge_id":"ch-1"}`),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.RecordAudit(ctx, entry))

	got, err := store.AuditByUser(ctx, "user-001", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "challenge.completed", got[0].Action)
	assert.JSONEq(t, `{"challenge_id":"ch-1"}`, string(got[0].Metadata))
}

func TestStore_RecordAudit_NilMetadata(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ID:        uuid.New().String(),
		UserID:    "user-001",
		Action:    "device.registered",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.RecordAudit(ctx, entry))

	got, err := store.AuditByUser(ctx, "user-001", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Metadata)
}

func TestStore_AuditByUser_Limit(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := &AuditEntry{
			ID:        uuid.New().String(),
			UserID:    "user-001",
			Action:    fmt.Sprintf("action-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.RecordAudit(ctx, entry))
	}

	got, err := store.AuditByUser(ctx, "user-001", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	// Newest first
	assert.Equal(t, "action-4", got[0].Action)
}
