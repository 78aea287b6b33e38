// ABOUTME: Tests for the service facade
// ABOUTME: Covers validation, the complete-twice scenario, summaries, and dedupe

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offscreen/offscreen/internal/store"
)

func newTestService(t *testing.T, cfg Config) (*Service, *store.MockStore) {
	t.Helper()
	mock := store.NewMockStore()
	svc := NewService(Stores{
		Usage:          mock,
		Challenges:     mock,
		Points:         mock,
		Devices:        mock,
		Questionnaires: mock,
		Audit:          mock,
	}, cfg)
	return svc, mock
}

func registerDevice(t *testing.T, svc *Service, userID string) *store.Device {
	t.Helper()
	device, err := svc.RegisterDevice(context.Background(), userID, "android", "14")
	require.NoError(t, err)
	return device
}

func TestService_RegisterDevice(t *testing.T) {
	svc, mock := newTestService(t, Config{})
	ctx := context.Background()

	device := registerDevice(t, svc, "user-001")
	assert.NotEmpty(t, device.ID)

	// A points row exists immediately so a later award can't dangle.
	points, err := mock.GetPoints(ctx, "user-001")
	require.NoError(t, err)
	assert.Zero(t, points.TotalPoints)
}

func TestService_RegisterDevice_Validation(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.RegisterDevice(context.Background(), "", "android", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RegisterDevice(context.Background(), "user-001", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_SubmitUsageSession(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	device := registerDevice(t, svc, "user-001")
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	session, err := svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(5400), session.DurationSeconds)
}

func TestService_SubmitUsageSession_EndNotAfterStart(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	device := registerDevice(t, svc, "user-001")
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	_, err := svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, start)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, start.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_SubmitUsageSession_UnknownDevice(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	_, err := svc.SubmitUsageSession(ctx, "user-001", "missing", "com.example.social", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_SubmitUsageSession_ForeignDevice(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	device := registerDevice(t, svc, "user-002")
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	_, err := svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, start.Add(time.Hour))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_SubmitUsageSession_DedupedRetry(t *testing.T) {
	svc, mock := newTestService(t, Config{DedupeWindow: time.Minute})
	ctx := context.Background()

	device := registerDevice(t, svc, "user-001")
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	first, err := svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, end)
	require.NoError(t, err)

	retry, err := svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, end)
	require.NoError(t, err)
	assert.Equal(t, first.ID, retry.ID)

	sessions, err := mock.SessionsByUser(ctx, "user-001", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestService_CompleteChallenge_AwardsOnce(t *testing.T) {
	svc, mock := newTestService(t, Config{})
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, "user-001", "Evenings offline", 7200, 50)
	require.NoError(t, err)

	awarded, err := svc.CompleteChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.True(t, awarded)

	// Completing it again is idempotent for points.
	awarded, err = svc.CompleteChallenge(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, awarded)

	points, err := mock.GetPoints(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, int64(50), points.TotalPoints)
}

func TestService_CompleteChallenge_NotFound(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.CompleteChallenge(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_ChallengeLifecycle(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, "user-001", "Evenings offline", 7200, 10)
	require.NoError(t, err)
	assert.Equal(t, store.ChallengePending, challenge.Status)

	require.NoError(t, svc.StartChallenge(ctx, challenge.ID))

	// Starting twice is a validation error: it's already in progress.
	err = svc.StartChallenge(ctx, challenge.ID)
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.FailChallenge(ctx, challenge.ID))

	challenges, err := svc.ListChallenges(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, challenges, 1)
	assert.Equal(t, store.ChallengeFailed, challenges[0].Status)
}

func TestService_CreateChallenge_Validation(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	_, err := svc.CreateChallenge(ctx, "user-001", "", 7200, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateChallenge(ctx, "user-001", "t", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateChallenge(ctx, "user-001", "t", 60, -1)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_GetUserSummary(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	device := registerDevice(t, svc, "user-001")
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	_, err := svc.SubmitUsageSession(ctx, "user-001", device.ID, "com.example.social", start, start.Add(time.Hour))
	require.NoError(t, err)

	challenge, err := svc.CreateChallenge(ctx, "user-001", "Evenings offline", 7200, 40)
	require.NoError(t, err)
	_, err = svc.CompleteChallenge(ctx, challenge.ID)
	require.NoError(t, err)

	summary, err := svc.GetUserSummary(ctx, "user-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3600), summary.TotalUsageSeconds)
	assert.Equal(t, 1, summary.CompletedChallenges)
	assert.Equal(t, int64(40), summary.TotalPoints)
}

func TestService_GetUserSummary_UnknownUserIsZeroed(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	summary, err := svc.GetUserSummary(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalUsageSeconds)
	assert.Zero(t, summary.CompletedChallenges)
	assert.Zero(t, summary.TotalPoints)
}

func TestService_SubmitQuestionnaire(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	ctx := context.Background()

	q, err := svc.SubmitQuestionnaire(ctx, "user-001", "sas", []byte(`{"q1":3,"q2":4}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), q.Score)
}

func TestService_SubmitQuestionnaire_BadAnswers(t *testing.T) {
	svc, _ := newTestService(t, Config{})

	_, err := svc.SubmitQuestionnaire(context.Background(), "user-001", "sas", []byte(`not json`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestService_AuditTrailRecorded(t *testing.T) {
	svc, mock := newTestService(t, Config{})
	ctx := context.Background()

	challenge, err := svc.CreateChallenge(ctx, "user-001", "Evenings offline", 7200, 10)
	require.NoError(t, err)
	_, err = svc.CompleteChallenge(ctx, challenge.ID)
	require.NoError(t, err)

	entries, err := mock.AuditByUser(ctx, "user-001", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "challenge.completed", entries[0].Action)
	assert.Equal(t, "challenge.created", entries[1].Action)
}
