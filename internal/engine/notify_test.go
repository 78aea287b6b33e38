// ABOUTME: Tests for the notification engine
// ABOUTME: Covers each rule in isolation and the fixed rule ordering

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offscreen/offscreen/internal/store"
)

func TestOveruseMessage(t *testing.T) {
	tests := []struct {
		name      string
		seconds   int64
		threshold int64
		want      bool
	}{
		{"below threshold", 3600, 7200, false},
		{"at threshold", 7200, 7200, false},
		{"above threshold", 8000, 7200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := OveruseMessage(tt.seconds, tt.threshold)
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.NotEmpty(t, msg)
			} else {
				assert.Empty(t, msg)
			}
		})
	}
}

func TestEncouragementMessage(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		threshold int
		want      bool
	}{
		{"below threshold", 2, 3, false},
		{"at threshold", 3, 3, true},
		{"above threshold", 5, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := EncouragementMessage(tt.completed, tt.threshold)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestStartChallengeMessage(t *testing.T) {
	_, ok := StartChallengeMessage(1)
	assert.False(t, ok)

	msg, ok := StartChallengeMessage(0)
	assert.True(t, ok)
	assert.NotEmpty(t, msg)
}

func TestNotifier_Derive_AllRulesInOrder(t *testing.T) {
	mock := store.NewMockStore()
	agg := NewAggregator(mock, nil)
	notifier := NewNotifier(agg, mock, NotifierConfig{})
	ctx := context.Background()

	// Usage today = 8000s, 3 completed challenges, 0 in progress
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	seedSession(t, mock, "user-001", day.Add(9*time.Hour), 8000)
	seedChallenge(t, mock, "ch-1", "user-001", store.ChallengeCompleted, 10)
	seedChallenge(t, mock, "ch-2", "user-001", store.ChallengeCompleted, 10)
	seedChallenge(t, mock, "ch-3", "user-001", store.ChallengeCompleted, 10)

	messages, err := notifier.Derive(ctx, "user-001", day.Add(12*time.Hour))
	require.NoError(t, err)
	require.Len(t, messages, 3)

	overuse, _ := OveruseMessage(8000, DefaultOveruseThresholdSeconds)
	encouragement, _ := EncouragementMessage(3, DefaultEncourageCompletedCount)
	prompt, _ := StartChallengeMessage(0)
	assert.Equal(t, []string{overuse, encouragement, prompt}, messages)
}

func TestNotifier_Derive_NoRulesFire(t *testing.T) {
	mock := store.NewMockStore()
	agg := NewAggregator(mock, nil)
	notifier := NewNotifier(agg, mock, NotifierConfig{})
	ctx := context.Background()

	// Light usage, one in-progress challenge, no completions
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	seedSession(t, mock, "user-001", day.Add(9*time.Hour), 600)
	seedChallenge(t, mock, "ch-1", "user-001", store.ChallengeInProgress, 10)

	messages, err := notifier.Derive(ctx, "user-001", day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestNotifier_Derive_OnlyTodayCounts(t *testing.T) {
	mock := store.NewMockStore()
	agg := NewAggregator(mock, nil)
	notifier := NewNotifier(agg, mock, NotifierConfig{})
	ctx := context.Background()

	// Heavy usage yesterday must not trigger today's overuse warning.
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	seedSession(t, mock, "user-001", day.AddDate(0, 0, -1).Add(9*time.Hour), 20000)
	seedChallenge(t, mock, "ch-1", "user-001", store.ChallengeInProgress, 10)

	messages, err := notifier.Derive(ctx, "user-001", day.Add(12*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestNotifier_CustomThresholds(t *testing.T) {
	mock := store.NewMockStore()
	agg := NewAggregator(mock, nil)
	notifier := NewNotifier(agg, mock, NotifierConfig{
		OveruseThresholdSeconds: 100,
		EncourageCompletedCount: 1,
	})
	ctx := context.Background()

	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	seedSession(t, mock, "user-001", day.Add(9*time.Hour), 150)
	seedChallenge(t, mock, "ch-1", "user-001", store.ChallengeCompleted, 10)
	seedChallenge(t, mock, "ch-2", "user-001", store.ChallengeInProgress, 10)

	messages, err := notifier.Derive(ctx, "user-001", day.Add(12*time.Hour))
	require.NoError(t, err)
	// Overuse and encouragement fire; start prompt does not.
	require.Len(t, messages, 2)
}
