// ABOUTME: Tests for challenge persistence and the atomic award primitive
// ABOUTME: Covers status updates, the points_awarded latch, and concurrent awards

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestChallenge(t *testing.T, s *SQLiteStore, userID string, points int64) *Challenge {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	challenge := &Challenge{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         "No phone after dinner",
		TargetSeconds: 7200,
		Status:        ChallengePending,
		AwardedPoints: points,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.CreateChallenge(context.Background(), challenge))
	return challenge
}

func TestStore_CreateAndGetChallenge(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	created := createTestChallenge(t, store, "user-001", 50)

	got, err := store.GetChallenge(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, ChallengePending, got.Status)
	assert.Equal(t, int64(50), got.AwardedPoints)
	assert.False(t, got.PointsAwarded)
}

func TestStore_GetChallenge_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetChallenge(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateChallengeStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	challenge := createTestChallenge(t, store, "user-001", 50)
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeInProgress))

	got, err := store.GetChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, ChallengeInProgress, got.Status)
}

func TestStore_UpdateChallengeStatus_NotFound(t *testing.T) {
	store := setupTestStore(t)

	err := store.UpdateChallengeStatus(context.Background(), "missing", ChallengeCompleted)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ConditionalAward_CreditsOnce(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsurePoints(ctx, "user-001"))
	challenge := createTestChallenge(t, store, "user-001", 50)
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeCompleted))

	awarded, err := store.ConditionalAward(ctx, challenge.ID)
	require.NoError(t, err)
	assert.True(t, awarded)

	// Repeat is a no-op
	awarded, err = store.ConditionalAward(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, awarded)

	points, err := store.GetPoints(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, int64(50), points.TotalPoints)

	got, err := store.GetChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.True(t, got.PointsAwarded)
}

func TestStore_ConditionalAward_NotCompleted(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsurePoints(ctx, "user-001"))
	challenge := createTestChallenge(t, store, "user-001", 50)

	awarded, err := store.ConditionalAward(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, awarded)

	points, err := store.GetPoints(ctx, "user-001")
	require.NoError(t, err)
	assert.Zero(t, points.TotalPoints)
}

func TestStore_ConditionalAward_UnknownChallenge(t *testing.T) {
	store := setupTestStore(t)

	awarded, err := store.ConditionalAward(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, awarded)
}

func TestStore_ConditionalAward_MissingPointsRow(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	challenge := createTestChallenge(t, store, "user-001", 50)
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeCompleted))

	awarded, err := store.ConditionalAward(ctx, challenge.ID)
	assert.ErrorIs(t, err, ErrNoPointsRow)
	assert.False(t, awarded)

	// The latch must have rolled back with the failed credit.
	got, err := store.GetChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, got.PointsAwarded)
}

func TestStore_ConditionalAward_NoReawardAfterStatusFlip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsurePoints(ctx, "user-001"))
	challenge := createTestChallenge(t, store, "user-001", 50)
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeCompleted))

	awarded, err := store.ConditionalAward(ctx, challenge.ID)
	require.NoError(t, err)
	require.True(t, awarded)

	// completed -> failed -> completed must not open the latch again
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeFailed))
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeCompleted))

	awarded, err = store.ConditionalAward(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, awarded)

	points, err := store.GetPoints(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, int64(50), points.TotalPoints)
}

func TestStore_ConditionalAward_Concurrent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsurePoints(ctx, "user-001"))
	challenge := createTestChallenge(t, store, "user-001", 25)
	require.NoError(t, store.UpdateChallengeStatus(ctx, challenge.ID, ChallengeCompleted))

	const attempts = 10
	results := make(chan bool, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			awarded, err := store.ConditionalAward(ctx, challenge.ID)
			assert.NoError(t, err)
			results <- awarded
		}()
	}
	wg.Wait()
	close(results)

	credits := 0
	for awarded := range results {
		if awarded {
			credits++
		}
	}
	assert.Equal(t, 1, credits)

	points, err := store.GetPoints(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, int64(25), points.TotalPoints)
}
