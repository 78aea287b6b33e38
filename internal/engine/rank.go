// ABOUTME: Ranking engine producing the top-N points leaderboard
// ABOUTME: Ordering is deterministic: points descending, user ID ascending on ties

package engine

import (
	"context"
	"fmt"

	"github.com/offscreen/offscreen/internal/store"
)

// RankEntry is one leaderboard row.
type RankEntry struct {
	UserID      string
	TotalPoints int64
}

// Ranker derives the leaderboard from the points store.
type Ranker struct {
	points store.PointsStore
}

// NewRanker creates a Ranker over the given points store.
func NewRanker(points store.PointsStore) *Ranker {
	return &Ranker{points: points}
}

// TopN returns up to n leaderboard rows ordered by total points descending,
// ties broken by user ID ascending. n == 0 yields an empty result; n < 0 is
// a validation error. Requesting more rows than users exist returns them all.
func (r *Ranker) TopN(ctx context.Context, n int) ([]RankEntry, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must be >= 0, got %d", ErrValidation, n)
	}
	if n == 0 {
		return []RankEntry{}, nil
	}

	totals, err := r.points.TopByPoints(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("%w: querying totals: %v", ErrStoreUnavailable, err)
	}

	entries := make([]RankEntry, 0, len(totals))
	for _, total := range totals {
		entries = append(entries, RankEntry{
			UserID:      total.UserID,
			TotalPoints: total.TotalPoints,
		})
	}
	return entries, nil
}
