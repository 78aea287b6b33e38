// ABOUTME: Notification engine deriving behavioral messages from recent activity
// ABOUTME: Fixed-order independent rules, each contributing at most one message

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/offscreen/offscreen/internal/metrics"
	"github.com/offscreen/offscreen/internal/store"
)

// Default rule thresholds.
const (
	DefaultOveruseThresholdSeconds = 7200
	DefaultEncourageCompletedCount = 3
)

// NotifierConfig holds the rule thresholds.
type NotifierConfig struct {
	// OveruseThresholdSeconds is the daily usage above which the overuse
	// warning fires.
	OveruseThresholdSeconds int64
	// EncourageCompletedCount is the completed-challenge count at which the
	// encouragement message fires.
	EncourageCompletedCount int
}

// Notifier derives an ordered set of behavioral messages for a user.
// It is stateless across calls; rule order is output order.
type Notifier struct {
	agg        *Aggregator
	challenges store.ChallengeStore
	cfg        NotifierConfig
}

// NewNotifier creates a Notifier. Zero config fields fall back to defaults.
func NewNotifier(agg *Aggregator, challenges store.ChallengeStore, cfg NotifierConfig) *Notifier {
	if cfg.OveruseThresholdSeconds <= 0 {
		cfg.OveruseThresholdSeconds = DefaultOveruseThresholdSeconds
	}
	if cfg.EncourageCompletedCount <= 0 {
		cfg.EncourageCompletedCount = DefaultEncourageCompletedCount
	}
	return &Notifier{agg: agg, challenges: challenges, cfg: cfg}
}

// Derive evaluates the rules in fixed order against the user's activity as
// of the given day. Each rule contributes at most one message, so the output
// never contains duplicates.
func (n *Notifier) Derive(ctx context.Context, userID string, asOfDay time.Time) ([]string, error) {
	todaySeconds, err := n.agg.UsageOn(ctx, userID, asOfDay)
	if err != nil {
		return nil, err
	}

	challenges, err := n.challenges.ChallengesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying challenges: %v", ErrStoreUnavailable, err)
	}

	var completed, inProgress int
	for _, c := range challenges {
		switch c.Status {
		case store.ChallengeCompleted:
			completed++
		case store.ChallengeInProgress:
			inProgress++
		}
	}

	var messages []string
	if msg, ok := OveruseMessage(todaySeconds, n.cfg.OveruseThresholdSeconds); ok {
		metrics.NotificationsDerived.WithLabelValues("overuse").Inc()
		messages = append(messages, msg)
	}
	if msg, ok := EncouragementMessage(completed, n.cfg.EncourageCompletedCount); ok {
		metrics.NotificationsDerived.WithLabelValues("encouragement").Inc()
		messages = append(messages, msg)
	}
	if msg, ok := StartChallengeMessage(inProgress); ok {
		metrics.NotificationsDerived.WithLabelValues("start_prompt").Inc()
		messages = append(messages, msg)
	}

	return messages, nil
}

// OveruseMessage fires when the day's usage exceeds the threshold.
func OveruseMessage(todaySeconds, threshold int64) (string, bool) {
	if todaySeconds <= threshold {
		return "", false
	}
	used := time.Duration(todaySeconds) * time.Second
	return fmt.Sprintf("You've been on screen for %s today. Time for a break?", used), true
}

// EncouragementMessage fires when the completed-challenge count reaches the
// threshold.
func EncouragementMessage(completed, threshold int) (string, bool) {
	if completed < threshold {
		return "", false
	}
	return fmt.Sprintf("Great streak: %d challenges completed. Keep it up!", completed), true
}

// StartChallengeMessage fires when the user has no challenge in progress.
func StartChallengeMessage(inProgress int) (string, bool) {
	if inProgress > 0 {
		return "", false
	}
	return "No challenge running right now. Start one to cut your screen time.", true
}
