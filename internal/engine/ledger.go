// ABOUTME: Points ledger performing the exactly-once challenge credit
// ABOUTME: Delegates atomicity to the store's conditional award transaction

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/offscreen/offscreen/internal/metrics"
	"github.com/offscreen/offscreen/internal/store"
)

// Ledger enforces exactly-once crediting of challenge points. All the
// concurrency weight rests on store.ChallengeStore.ConditionalAward: the
// latch and the credit commit in one transaction, so this layer never
// read-modify-writes totals.
type Ledger struct {
	challenges store.ChallengeStore
	logger     *slog.Logger
}

// NewLedger creates a Ledger over the given challenge store.
func NewLedger(challenges store.ChallengeStore) *Ledger {
	return &Ledger{
		challenges: challenges,
		logger:     slog.Default().With("component", "ledger"),
	}
}

// AwardIfEligible credits a completed challenge's points to its owner
// exactly once. It returns true only for the invocation that performed the
// credit. An already-awarded or non-completed challenge is a no-op with
// awarded == false and a nil error. An unknown challenge returns
// store.ErrNotFound. A missing owner points row returns
// ErrStateInconsistency with no partial mutation.
func (l *Ledger) AwardIfEligible(ctx context.Context, challengeID string) (bool, error) {
	awarded, err := l.challenges.ConditionalAward(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNoPointsRow) {
			return false, fmt.Errorf("%w: %v", ErrStateInconsistency, err)
		}
		return false, fmt.Errorf("%w: conditional award: %v", ErrStoreUnavailable, err)
	}

	if awarded {
		metrics.AwardsGranted.Inc()
		l.logger.Info("points credited", "challenge_id", challengeID)
		return true, nil
	}

	// Distinguish "not eligible" from "no such challenge" for the caller.
	if _, err := l.challenges.GetChallenge(ctx, challengeID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("%w: fetching challenge: %v", ErrStoreUnavailable, err)
	}

	metrics.AwardsSkipped.Inc()
	l.logger.Debug("award not eligible", "challenge_id", challengeID)
	return false, nil
}
