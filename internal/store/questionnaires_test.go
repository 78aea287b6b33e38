// ABOUTME: Tests for questionnaire persistence
// ABOUTME: Covers SaveQuestionnaire and per-user retrieval order

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveQuestionnaire(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	q := &Questionnaire{
		ID:        uuid.New().String(),
		UserID:    "user-001",
		Type:      "sas",
		Answers:   []byte(`{"q1":3,"q2":4}`),
		Score:     7,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.SaveQuestionnaire(ctx, q))

	got, err := store.QuestionnairesByUser(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sas", got[0].Type)
	assert.Equal(t, int64(7), got[0].Score)
	assert.JSONEq(t, `{"q1":3,"q2":4}`, string(got[0].Answers))
}

func TestStore_QuestionnairesByUser_NewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	for i, typ := range []string{"sas", "nomophobia"} {
		q := &Questionnaire{
			ID:        uuid.New().String(),
			UserID:    "user-001",
			Type:      typ,
			Answers:   []byte(`{}`),
			Score:     int64(i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, store.SaveQuestionnaire(ctx, q))
	}

	got, err := store.QuestionnairesByUser(ctx, "user-001")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "nomophobia", got[0].Type)
	assert.Equal(t, "sas", got[1].Type)
}

func TestStore_QuestionnairesByUser_Empty(t *testing.T) {
	store := setupTestStore(t)

	got, err := store.QuestionnairesByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, got)
}
