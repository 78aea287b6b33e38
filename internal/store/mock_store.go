// ABOUTME: Mock in-memory store implementation for testing
// ABOUTME: Allows engine and API tests to run without SQLite

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory implementation of all store interfaces, used in
// unit tests. The single mutex gives ConditionalAward the same atomicity
// the SQLite transaction provides.
type MockStore struct {
	mu             sync.RWMutex
	sessions       map[string][]*UsageSession // keyed by userID
	challenges     map[string]*Challenge      // keyed by challenge ID
	points         map[string]*UserPoints     // keyed by userID
	devices        map[string]*Device         // keyed by device ID
	questionnaires map[string][]*Questionnaire
	audit          map[string][]*AuditEntry
	apiKeys        map[string][]byte
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions:       make(map[string][]*UsageSession),
		challenges:     make(map[string]*Challenge),
		points:         make(map[string]*UserPoints),
		devices:        make(map[string]*Device),
		questionnaires: make(map[string][]*Questionnaire),
		audit:          make(map[string][]*AuditEntry),
		apiKeys:        make(map[string][]byte),
	}
}

// AppendSession stores a usage session.
func (m *MockStore) AppendSession(ctx context.Context, session *UsageSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *session
	m.sessions[s.UserID] = append(m.sessions[s.UserID], &s)
	return nil
}

// SessionsByUser returns sessions with start time in [from, to), ascending.
func (m *MockStore) SessionsByUser(ctx context.Context, userID string, from, to time.Time) ([]*UsageSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*UsageSession
	for _, s := range m.sessions[userID] {
		if !from.IsZero() && s.StartTime.Before(from) {
			continue
		}
		if !to.IsZero() && !s.StartTime.Before(to) {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

// CreateChallenge stores a new challenge.
func (m *MockStore) CreateChallenge(ctx context.Context, challenge *Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *challenge
	m.challenges[c.ID] = &c
	return nil
}

// GetChallenge retrieves a challenge by ID.
func (m *MockStore) GetChallenge(ctx context.Context, id string) (*Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *c
	return &copied, nil
}

// ChallengesByUser retrieves all challenges for a user.
func (m *MockStore) ChallengesByUser(ctx context.Context, userID string) ([]*Challenge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Challenge
	for _, c := range m.challenges {
		if c.UserID == userID {
			copied := *c
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// UpdateChallengeStatus sets the status of a challenge.
func (m *MockStore) UpdateChallengeStatus(ctx context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[id]
	if !ok {
		return ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// ConditionalAward latches the award flag and credits the owner under the
// store mutex, mirroring the SQLite transaction semantics.
func (m *MockStore) ConditionalAward(ctx context.Context, challengeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.challenges[challengeID]
	if !ok {
		return false, nil
	}
	if c.Status != ChallengeCompleted || c.PointsAwarded {
		return false, nil
	}

	p, ok := m.points[c.UserID]
	if !ok {
		return false, fmt.Errorf("challenge %s owner %s: %w", challengeID, c.UserID, ErrNoPointsRow)
	}

	c.PointsAwarded = true
	c.UpdatedAt = time.Now().UTC()
	p.TotalPoints += c.AwardedPoints
	p.UpdatedAt = c.UpdatedAt
	return true, nil
}

// EnsurePoints creates a zero-total points row if absent.
func (m *MockStore) EnsurePoints(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.points[userID]; !ok {
		m.points[userID] = &UserPoints{UserID: userID, UpdatedAt: time.Now().UTC()}
	}
	return nil
}

// GetPoints retrieves a user's running total.
func (m *MockStore) GetPoints(ctx context.Context, userID string) (*UserPoints, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.points[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

// TopByPoints returns up to n rows ordered by total desc, user ID asc.
func (m *MockStore) TopByPoints(ctx context.Context, n int) ([]*UserPoints, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*UserPoints
	for _, p := range m.points {
		copied := *p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].UserID < out[j].UserID
	})
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// CreateDevice registers a device.
func (m *MockStore) CreateDevice(ctx context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := *device
	m.devices[d.ID] = &d
	return nil
}

// GetDevice retrieves a device by ID.
func (m *MockStore) GetDevice(ctx context.Context, id string) (*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

// DevicesByUser retrieves all devices for a user.
func (m *MockStore) DevicesByUser(ctx context.Context, userID string) ([]*Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Device
	for _, d := range m.devices {
		if d.UserID == userID {
			copied := *d
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].RegisteredAt.Before(out[j].RegisteredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveQuestionnaire stores a questionnaire submission.
func (m *MockStore) SaveQuestionnaire(ctx context.Context, q *Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *q
	m.questionnaires[q.UserID] = append(m.questionnaires[q.UserID], &copied)
	return nil
}

// QuestionnairesByUser retrieves a user's submissions, newest first.
func (m *MockStore) QuestionnairesByUser(ctx context.Context, userID string) ([]*Questionnaire, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Questionnaire, 0, len(m.questionnaires[userID]))
	for _, q := range m.questionnaires[userID] {
		copied := *q
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// RecordAudit stores an audit entry.
func (m *MockStore) RecordAudit(ctx context.Context, entry *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *entry
	m.audit[entry.UserID] = append(m.audit[entry.UserID], &copied)
	return nil
}

// AuditByUser retrieves a user's audit entries, newest first.
func (m *MockStore) AuditByUser(ctx context.Context, userID string, limit int) ([]*AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.audit[userID]
	out := make([]*AuditEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		copied := *entries[i]
		out = append(out, &copied)
	}
	return out, nil
}

// SaveAPIKey stores an API key hash.
func (m *MockStore) SaveAPIKey(ctx context.Context, userID string, hash []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.apiKeys[userID] = append([]byte(nil), hash...)
	return nil
}

// GetAPIKeyHash retrieves an API key hash.
func (m *MockStore) GetAPIKeyHash(ctx context.Context, userID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hash, ok := m.apiKeys[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), hash...), nil
}

// Interface pins.
var (
	_ UsageStore         = (*MockStore)(nil)
	_ ChallengeStore     = (*MockStore)(nil)
	_ PointsStore        = (*MockStore)(nil)
	_ DeviceStore        = (*MockStore)(nil)
	_ QuestionnaireStore = (*MockStore)(nil)
	_ AuditStore         = (*MockStore)(nil)
	_ APIKeyStore        = (*MockStore)(nil)
)
