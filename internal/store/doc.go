// Package store provides persistent storage for offscreen using SQLite.
//
// # Architecture
//
// The store package uses an interface-driven architecture with one narrow
// interface per concern:
//
//   - UsageStore: Immutable usage session rows
//   - ChallengeStore: Challenges and the atomic award primitive
//   - PointsStore: Per-user running point totals
//   - DeviceStore: Registered devices
//   - QuestionnaireStore: Scored questionnaire submissions
//   - AuditStore: Audit trail of state-changing operations
//   - APIKeyStore: Bootstrap API key hashes
//
// SQLiteStore implements all interfaces in a single struct, allowing easy
// composition while maintaining clear interface boundaries.
//
// # The award primitive
//
// ConditionalAward is the only write path that touches user_points besides
// EnsurePoints. It runs a single transaction that flips the points_awarded
// latch (guarded by "status = 'completed' AND points_awarded = 0") and
// increments the owner's total. The guarded UPDATE makes concurrent and
// repeated invocations commute: exactly one returns true.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//	PRAGMA busy_timeout=5000;
//
// Timestamps are stored as RFC3339 TEXT in UTC.
//
// # Testing
//
// Use NewMockStore() for unit tests; it implements all store interfaces
// in memory with equivalent award semantics. Use NewSQLiteStore with a
// t.TempDir() path for integration tests with real SQLite.
package store
