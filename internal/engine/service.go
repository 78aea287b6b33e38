// ABOUTME: Service facade composing the engines into the operations the API exposes
// ABOUTME: Validates input, drives the award path, and records the audit trail

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/offscreen/offscreen/internal/dedupe"
	"github.com/offscreen/offscreen/internal/metrics"
	"github.com/offscreen/offscreen/internal/store"
)

// Stores bundles the collaborators the service needs.
type Stores struct {
	Usage          store.UsageStore
	Challenges     store.ChallengeStore
	Points         store.PointsStore
	Devices        store.DeviceStore
	Questionnaires store.QuestionnaireStore
	Audit          store.AuditStore
}

// Config holds the service's tunables.
type Config struct {
	// Timezone is the reference zone for day grouping. Nil means UTC.
	Timezone *time.Location
	// Notifier thresholds; zero values fall back to defaults.
	OveruseThresholdSeconds int64
	EncourageCompletedCount int
	// DedupeWindow bounds how long a submission key shields against
	// retries. Zero disables deduplication.
	DedupeWindow time.Duration
	// DedupeMaxEntries caps the guard size. Zero means 4096.
	DedupeMaxEntries int
}

// UserSummary is the composed per-user overview.
type UserSummary struct {
	UserID              string
	TotalUsageSeconds   int64
	CompletedChallenges int
	TotalPoints         int64
}

// Service wires the engines together behind the operations the API layer
// calls. All computation is synchronous and request-triggered; there is no
// background work.
type Service struct {
	stores   Stores
	agg      *Aggregator
	ledger   *Ledger
	notifier *Notifier
	ranker   *Ranker
	guard    *dedupe.Guard
	logger   *slog.Logger
}

// NewService creates a Service from its stores and config.
func NewService(stores Stores, cfg Config) *Service {
	agg := NewAggregator(stores.Usage, cfg.Timezone)

	var guard *dedupe.Guard
	if cfg.DedupeWindow > 0 {
		maxEntries := cfg.DedupeMaxEntries
		if maxEntries <= 0 {
			maxEntries = 4096
		}
		guard = dedupe.New(cfg.DedupeWindow, maxEntries)
	}

	return &Service{
		stores: stores,
		agg:    agg,
		ledger: NewLedger(stores.Challenges),
		notifier: NewNotifier(agg, stores.Challenges, NotifierConfig{
			OveruseThresholdSeconds: cfg.OveruseThresholdSeconds,
			EncourageCompletedCount: cfg.EncourageCompletedCount,
		}),
		ranker: NewRanker(stores.Points),
		guard:  guard,
		logger: slog.Default().With("component", "engine"),
	}
}

// RegisterDevice registers a device for a user and makes sure the user has
// a points row so later awards cannot hit a missing total.
func (s *Service) RegisterDevice(ctx context.Context, userID, deviceType, osVersion string) (*store.Device, error) {
	if userID == "" || deviceType == "" {
		return nil, fmt.Errorf("%w: user id and device type are required", ErrValidation)
	}

	device := &store.Device{
		ID:           uuid.New().String(),
		UserID:       userID,
		DeviceType:   deviceType,
		OSVersion:    osVersion,
		RegisteredAt: time.Now().UTC(),
	}
	if err := s.stores.Devices.CreateDevice(ctx, device); err != nil {
		return nil, fmt.Errorf("%w: creating device: %v", ErrStoreUnavailable, err)
	}
	if err := s.stores.Points.EnsurePoints(ctx, userID); err != nil {
		return nil, fmt.Errorf("%w: ensuring points row: %v", ErrStoreUnavailable, err)
	}

	s.audit(ctx, userID, "device.registered", map[string]string{"device_id": device.ID})
	return device, nil
}

// ListDevices returns the user's registered devices.
func (s *Service) ListDevices(ctx context.Context, userID string) ([]*store.Device, error) {
	devices, err := s.stores.Devices.DevicesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing devices: %v", ErrStoreUnavailable, err)
	}
	return devices, nil
}

// SubmitUsageSession validates and appends a usage session. The duration is
// computed from the interval; end must be strictly after start. A retry of
// the same submission within the dedupe window returns the original session
// without inserting a second row.
func (s *Service) SubmitUsageSession(ctx context.Context, userID, deviceID, appIdentifier string, start, end time.Time) (*store.UsageSession, error) {
	if userID == "" || deviceID == "" || appIdentifier == "" {
		return nil, fmt.Errorf("%w: user id, device id, and app identifier are required", ErrValidation)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	device, err := s.stores.Devices.GetDevice(ctx, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetching device: %v", ErrStoreUnavailable, err)
	}
	if device.UserID != userID {
		// Don't reveal another user's device; treat as unknown.
		return nil, store.ErrNotFound
	}

	var key string
	if s.guard != nil {
		key = dedupe.Key(userID, deviceID, appIdentifier,
			strconv.FormatInt(start.Unix(), 10), strconv.FormatInt(end.Unix(), 10))
		if sessionID, seen := s.guard.Lookup(key); seen {
			metrics.SessionsDeduplicated.Inc()
			s.logger.Debug("duplicate session submission absorbed",
				"user_id", userID, "session_id", sessionID)
			return s.sessionByID(ctx, userID, sessionID)
		}
	}

	session := &store.UsageSession{
		ID:              uuid.New().String(),
		UserID:          userID,
		DeviceID:        deviceID,
		AppIdentifier:   appIdentifier,
		StartTime:       start.UTC(),
		EndTime:         end.UTC(),
		DurationSeconds: int64(end.Sub(start) / time.Second),
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.stores.Usage.AppendSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: appending session: %v", ErrStoreUnavailable, err)
	}

	if s.guard != nil {
		s.guard.Remember(key, session.ID)
	}
	metrics.SessionsIngested.Inc()

	s.audit(ctx, userID, "usage.session_submitted", map[string]string{
		"session_id": session.ID,
		"app":        appIdentifier,
	})
	return session, nil
}

// sessionByID re-reads a previously created session for a dedupe hit.
func (s *Service) sessionByID(ctx context.Context, userID, sessionID string) (*store.UsageSession, error) {
	sessions, err := s.stores.Usage.SessionsByUser(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("%w: fetching deduplicated session: %v", ErrStoreUnavailable, err)
	}
	for _, session := range sessions {
		if session.ID == sessionID {
			return session, nil
		}
	}
	return nil, store.ErrNotFound
}

// CreateChallenge creates a pending challenge and makes sure the user has a
// points row for the eventual award.
func (s *Service) CreateChallenge(ctx context.Context, userID, title string, targetSeconds, awardedPoints int64) (*store.Challenge, error) {
	if userID == "" || title == "" {
		return nil, fmt.Errorf("%w: user id and title are required", ErrValidation)
	}
	if targetSeconds <= 0 {
		return nil, fmt.Errorf("%w: target seconds must be positive", ErrValidation)
	}
	if awardedPoints < 0 {
		return nil, fmt.Errorf("%w: awarded points must not be negative", ErrValidation)
	}

	now := time.Now().UTC()
	challenge := &store.Challenge{
		ID:            uuid.New().String(),
		UserID:        userID,
		Title:         title,
		TargetSeconds: targetSeconds,
		Status:        store.ChallengePending,
		AwardedPoints: awardedPoints,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.stores.Challenges.CreateChallenge(ctx, challenge); err != nil {
		return nil, fmt.Errorf("%w: creating challenge: %v", ErrStoreUnavailable, err)
	}
	if err := s.stores.Points.EnsurePoints(ctx, userID); err != nil {
		return nil, fmt.Errorf("%w: ensuring points row: %v", ErrStoreUnavailable, err)
	}

	s.audit(ctx, userID, "challenge.created", map[string]string{"challenge_id": challenge.ID})
	return challenge, nil
}

// StartChallenge moves a pending challenge to in_progress.
func (s *Service) StartChallenge(ctx context.Context, challengeID string) error {
	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if challenge.Status != store.ChallengePending {
		return fmt.Errorf("%w: cannot start a %s challenge", ErrValidation, challenge.Status)
	}
	if err := s.stores.Challenges.UpdateChallengeStatus(ctx, challengeID, store.ChallengeInProgress); err != nil {
		return fmt.Errorf("%w: updating status: %v", ErrStoreUnavailable, err)
	}

	s.audit(ctx, challenge.UserID, "challenge.started", map[string]string{"challenge_id": challengeID})
	return nil
}

// FailChallenge marks a challenge failed. Any status may transition to
// failed; a previously awarded challenge keeps its credit (the latch is
// one-way).
func (s *Service) FailChallenge(ctx context.Context, challengeID string) error {
	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if err := s.stores.Challenges.UpdateChallengeStatus(ctx, challengeID, store.ChallengeFailed); err != nil {
		return fmt.Errorf("%w: updating status: %v", ErrStoreUnavailable, err)
	}

	s.audit(ctx, challenge.UserID, "challenge.failed", map[string]string{"challenge_id": challengeID})
	return nil
}

// CompleteChallenge sets a challenge's status to completed and then invokes
// the award path. The award is explicit and synchronous here, never an
// implicit side effect of the status write, so it composes with the
// transaction that makes it exactly-once. Repeating the call is harmless:
// the second invocation finds the latch closed and reports awarded == false.
func (s *Service) CompleteChallenge(ctx context.Context, challengeID string) (awarded bool, err error) {
	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return false, err
	}
	if err := s.stores.Challenges.UpdateChallengeStatus(ctx, challengeID, store.ChallengeCompleted); err != nil {
		return false, fmt.Errorf("%w: updating status: %v", ErrStoreUnavailable, err)
	}

	awarded, err = s.ledger.AwardIfEligible(ctx, challengeID)
	if err != nil {
		return false, err
	}

	s.audit(ctx, challenge.UserID, "challenge.completed", map[string]string{
		"challenge_id": challengeID,
		"awarded":      strconv.FormatBool(awarded),
	})
	return awarded, nil
}

// ListChallenges returns the user's challenges, newest first.
func (s *Service) ListChallenges(ctx context.Context, userID string) ([]*store.Challenge, error) {
	challenges, err := s.stores.Challenges.ChallengesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing challenges: %v", ErrStoreUnavailable, err)
	}
	return challenges, nil
}

// GetUserSummary composes total usage, completed-challenge count, and the
// points total. A user with no recorded activity gets a zeroed summary.
func (s *Service) GetUserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	total, err := s.agg.TotalUsage(ctx, userID)
	if err != nil {
		return nil, err
	}

	challenges, err := s.stores.Challenges.ChallengesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying challenges: %v", ErrStoreUnavailable, err)
	}
	completed := 0
	for _, c := range challenges {
		if c.Status == store.ChallengeCompleted {
			completed++
		}
	}

	summary := &UserSummary{
		UserID:              userID,
		TotalUsageSeconds:   total,
		CompletedChallenges: completed,
	}

	points, err := s.stores.Points.GetPoints(ctx, userID)
	switch {
	case err == nil:
		summary.TotalPoints = points.TotalPoints
	case errors.Is(err, store.ErrNotFound):
		// No points row yet; the summary stays at zero.
	default:
		return nil, fmt.Errorf("%w: querying points: %v", ErrStoreUnavailable, err)
	}

	return summary, nil
}

// GetNotifications derives the user's behavioral messages as of the given
// time. A zero asOf means now.
func (s *Service) GetNotifications(ctx context.Context, userID string, asOf time.Time) ([]string, error) {
	if asOf.IsZero() {
		asOf = time.Now()
	}
	return s.notifier.Derive(ctx, userID, asOf)
}

// GetRanking returns the top-n leaderboard.
func (s *Service) GetRanking(ctx context.Context, n int) ([]RankEntry, error) {
	return s.ranker.TopN(ctx, n)
}

// GetDailyUsage returns per-day usage totals in [from, to).
func (s *Service) GetDailyUsage(ctx context.Context, userID string, from, to time.Time) ([]DailyTotal, error) {
	return s.agg.DailyTotals(ctx, userID, from, to)
}

// SubmitQuestionnaire scores and stores a questionnaire submission.
func (s *Service) SubmitQuestionnaire(ctx context.Context, userID, questionnaireType string, answers []byte) (*store.Questionnaire, error) {
	if userID == "" || questionnaireType == "" {
		return nil, fmt.Errorf("%w: user id and questionnaire type are required", ErrValidation)
	}

	score, err := ScoreAnswers(questionnaireType, answers)
	if err != nil {
		return nil, err
	}

	q := &store.Questionnaire{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      questionnaireType,
		Answers:   answers,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.stores.Questionnaires.SaveQuestionnaire(ctx, q); err != nil {
		return nil, fmt.Errorf("%w: saving questionnaire: %v", ErrStoreUnavailable, err)
	}

	s.audit(ctx, userID, "questionnaire.submitted", map[string]string{
		"questionnaire_id": q.ID,
		"type":             questionnaireType,
	})
	return q, nil
}

// getChallenge fetches a challenge, mapping store errors into the taxonomy.
func (s *Service) getChallenge(ctx context.Context, challengeID string) (*store.Challenge, error) {
	challenge, err := s.stores.Challenges.GetChallenge(ctx, challengeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetching challenge: %v", ErrStoreUnavailable, err)
	}
	return challenge, nil
}

// audit records a state change. Audit failures are logged, not propagated:
// the operation itself already succeeded.
func (s *Service) audit(ctx context.Context, userID, action string, metadata map[string]string) {
	if s.stores.Audit == nil {
		return
	}

	var encoded []byte
	if len(metadata) > 0 {
		var err error
		if encoded, err = json.Marshal(metadata); err != nil {
			s.logger.Warn("encoding audit metadata", "action", action, "error", err)
		}
	}

	entry := &store.AuditEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Metadata:  encoded,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.stores.Audit.RecordAudit(ctx, entry); err != nil {
		s.logger.Warn("recording audit entry", "action", action, "error", err)
	}
}
