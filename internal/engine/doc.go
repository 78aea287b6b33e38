// Package engine implements the usage/points aggregation and gamification
// core: daily and all-time usage aggregation, the exactly-once points
// ledger, behavioral notification rules, and the leaderboard.
//
// Components are composed by Service, which the API layer calls. All
// computation is synchronous and request-triggered. The only concurrency
// hazard, concurrent award attempts on the same challenge, is handled by
// the store's conditional award transaction; the engine never
// read-modify-writes point totals.
//
// Errors follow a small taxonomy (ErrValidation, ErrStateInconsistency,
// ErrStoreUnavailable, plus store.ErrNotFound passing through). An award
// attempt that is simply not eligible is a no-op result, not an error.
package engine
