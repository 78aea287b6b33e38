// ABOUTME: Error taxonomy for the core engine
// ABOUTME: Sentinel errors that callers match with errors.Is

package engine

import "errors"

// Engine errors. "Not eligible" is intentionally absent: an award attempt on
// a non-completed or already-awarded challenge is a defined no-op result,
// not a failure.
var (
	// ErrValidation marks malformed input: end <= start, empty identifiers,
	// negative leaderboard sizes, bad answer sets.
	ErrValidation = errors.New("validation failed")

	// ErrStateInconsistency marks an award whose two-sided update could not
	// complete atomically. No partial state is left behind; the caller may
	// retry.
	ErrStateInconsistency = errors.New("state inconsistency")

	// ErrStoreUnavailable marks a storage-layer failure that is propagated
	// rather than swallowed.
	ErrStoreUnavailable = errors.New("store unavailable")
)
