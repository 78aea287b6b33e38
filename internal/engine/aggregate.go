// ABOUTME: Aggregation engine computing daily and all-time usage totals
// ABOUTME: Pure reads over the usage store, grouped by calendar day in a fixed zone

package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/offscreen/offscreen/internal/store"
)

// DailyTotal is one calendar day's summed usage for a user.
// Day is midnight in the aggregator's reference zone.
type DailyTotal struct {
	Day          time.Time
	TotalSeconds int64
}

// Aggregator derives usage summaries from raw session rows. The grouping key
// is the session's start time truncated to calendar day in the reference
// zone; day boundaries are ambiguous without one.
type Aggregator struct {
	usage store.UsageStore
	loc   *time.Location
}

// NewAggregator creates an Aggregator. A nil location defaults to UTC.
func NewAggregator(usage store.UsageStore, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{usage: usage, loc: loc}
}

// Location returns the reference zone used for day grouping.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// DailyTotals returns one entry per distinct calendar day with sessions in
// [from, to), ordered by day ascending. Zero from/to mean unbounded. A user
// with no sessions yields an empty result, never an error.
func (a *Aggregator) DailyTotals(ctx context.Context, userID string, from, to time.Time) ([]DailyTotal, error) {
	sessions, err := a.usage.SessionsByUser(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sessions: %v", ErrStoreUnavailable, err)
	}

	totals := make(map[time.Time]int64)
	for _, session := range sessions {
		day := truncateToDay(session.StartTime, a.loc)
		totals[day] += session.DurationSeconds
	}

	result := make([]DailyTotal, 0, len(totals))
	for day, seconds := range totals {
		result = append(result, DailyTotal{Day: day, TotalSeconds: seconds})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Day.Before(result[j].Day) })

	return result, nil
}

// TotalUsage returns the sum of duration over all of a user's sessions,
// 0 if there are none.
func (a *Aggregator) TotalUsage(ctx context.Context, userID string) (int64, error) {
	sessions, err := a.usage.SessionsByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return 0, fmt.Errorf("%w: querying sessions: %v", ErrStoreUnavailable, err)
	}

	var total int64
	for _, session := range sessions {
		total += session.DurationSeconds
	}
	return total, nil
}

// UsageOn returns the total usage for a single calendar day.
func (a *Aggregator) UsageOn(ctx context.Context, userID string, day time.Time) (int64, error) {
	start := truncateToDay(day, a.loc)
	end := start.AddDate(0, 0, 1)

	totals, err := a.DailyTotals(ctx, userID, start, end)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, dt := range totals {
		if dt.Day.Equal(start) {
			total += dt.TotalSeconds
		}
	}
	return total, nil
}

// truncateToDay returns midnight of t's calendar day in loc.
func truncateToDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
