// ABOUTME: Store interfaces and data types for offscreen persistence
// ABOUTME: Defines UsageSession, Challenge, Device structs and the per-concern store interfaces

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrNoPointsRow is returned when a points credit targets a user that has no
// points row. The award transaction rolls back entirely when this happens.
var ErrNoPointsRow = errors.New("user points row missing")

// Challenge status constants. Transitions are validated by the engine layer;
// the store only persists them.
const (
	ChallengePending    = "pending"
	ChallengeInProgress = "in_progress"
	ChallengeCompleted  = "completed"
	ChallengeFailed     = "failed"
)

// UsageSession is a single app-usage interval reported by a device.
// Immutable once appended.
type UsageSession struct {
	ID              string
	UserID          string
	DeviceID        string
	AppIdentifier   string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int64
	CreatedAt       time.Time
}

// Challenge is a user-defined screen-time reduction goal.
// PointsAwarded is a one-way latch: once true it never goes back to false,
// even if the status later changes.
type Challenge struct {
	ID            string
	UserID        string
	Title         string
	TargetSeconds int64
	Status        string
	AwardedPoints int64
	PointsAwarded bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// UserPoints is the ledger-owned running total for a user.
type UserPoints struct {
	UserID      string
	TotalPoints int64
	UpdatedAt   time.Time
}

// Device is a registered handset that submits usage sessions.
type Device struct {
	ID           string
	UserID       string
	DeviceType   string // e.g. android, ios
	OSVersion    string
	RegisteredAt time.Time
}

// Questionnaire is a scored psychological self-assessment submission.
// Answers is the raw JSON answer set as submitted.
type Questionnaire struct {
	ID        string
	UserID    string
	Type      string
	Answers   []byte
	Score     int64
	CreatedAt time.Time
}

// AuditEntry records a state-changing operation for later review.
type AuditEntry struct {
	ID        string
	UserID    string
	Action    string
	Metadata  []byte // JSON, may be nil
	CreatedAt time.Time
}

// UsageStore persists usage sessions.
type UsageStore interface {
	AppendSession(ctx context.Context, session *UsageSession) error
	// SessionsByUser returns sessions whose start time falls in [from, to),
	// ordered by start time ascending. Zero from/to mean unbounded.
	SessionsByUser(ctx context.Context, userID string, from, to time.Time) ([]*UsageSession, error)
}

// ChallengeStore persists challenges and provides the atomic award primitive.
type ChallengeStore interface {
	CreateChallenge(ctx context.Context, challenge *Challenge) error
	GetChallenge(ctx context.Context, id string) (*Challenge, error)
	ChallengesByUser(ctx context.Context, userID string) ([]*Challenge, error)
	UpdateChallengeStatus(ctx context.Context, id, status string) error
	// ConditionalAward atomically latches points_awarded and credits the
	// owner's points total in a single transaction. Returns true only for
	// the invocation that performed the credit; false when the challenge is
	// not completed or was already awarded. Both sides commit together or
	// not at all.
	ConditionalAward(ctx context.Context, challengeID string) (bool, error)
}

// PointsStore persists per-user running point totals.
type PointsStore interface {
	// EnsurePoints creates a zero-total row for the user if absent.
	EnsurePoints(ctx context.Context, userID string) error
	GetPoints(ctx context.Context, userID string) (*UserPoints, error)
	// TopByPoints returns up to n rows ordered by total descending,
	// user ID ascending on ties.
	TopByPoints(ctx context.Context, n int) ([]*UserPoints, error)
}

// DeviceStore persists registered devices.
type DeviceStore interface {
	CreateDevice(ctx context.Context, device *Device) error
	GetDevice(ctx context.Context, id string) (*Device, error)
	DevicesByUser(ctx context.Context, userID string) ([]*Device, error)
}

// QuestionnaireStore persists scored questionnaire submissions.
type QuestionnaireStore interface {
	SaveQuestionnaire(ctx context.Context, q *Questionnaire) error
	QuestionnairesByUser(ctx context.Context, userID string) ([]*Questionnaire, error)
}

// AuditStore persists the audit trail.
type AuditStore interface {
	RecordAudit(ctx context.Context, entry *AuditEntry) error
	AuditByUser(ctx context.Context, userID string, limit int) ([]*AuditEntry, error)
}

// APIKeyStore persists bootstrap API keys (bcrypt hashes, never plaintext).
type APIKeyStore interface {
	SaveAPIKey(ctx context.Context, userID string, hash []byte) error
	GetAPIKeyHash(ctx context.Context, userID string) ([]byte, error)
}
