// ABOUTME: HTTP handlers and JSON request/response types for the v1 API
// ABOUTME: Every handler scopes its work to the authenticated user from context

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/offscreen/offscreen/internal/auth"
	"github.com/offscreen/offscreen/internal/store"
)

// RegisterDeviceRequest is the JSON request body for POST /v1/devices.
type RegisterDeviceRequest struct {
	DeviceType string `json:"device_type"`
	OSVersion  string `json:"os_version,omitempty"`
}

// DeviceResponse is the JSON shape of a registered device.
type DeviceResponse struct {
	ID           string `json:"id"`
	DeviceType   string `json:"device_type"`
	OSVersion    string `json:"os_version,omitempty"`
	RegisteredAt string `json:"registered_at"`
}

// SubmitSessionRequest is the JSON request body for POST /v1/sessions.
type SubmitSessionRequest struct {
	DeviceID      string `json:"device_id"`
	AppIdentifier string `json:"app_identifier"`
	StartTime     string `json:"start_time"` // RFC3339
	EndTime       string `json:"end_time"`   // RFC3339
}

// SessionResponse is the JSON shape of a stored usage session.
type SessionResponse struct {
	ID              string `json:"id"`
	DeviceID        string `json:"device_id"`
	AppIdentifier   string `json:"app_identifier"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationSeconds int64  `json:"duration_seconds"`
}

// CreateChallengeRequest is the JSON request body for POST /v1/challenges.
type CreateChallengeRequest struct {
	Title         string `json:"title"`
	TargetSeconds int64  `json:"target_seconds"`
	AwardedPoints int64  `json:"awarded_points"`
}

// ChallengeResponse is the JSON shape of a challenge.
type ChallengeResponse struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	TargetSeconds int64  `json:"target_seconds"`
	Status        string `json:"status"`
	AwardedPoints int64  `json:"awarded_points"`
	PointsAwarded bool   `json:"points_awarded"`
	CreatedAt     string `json:"created_at"`
}

// CompleteChallengeResponse is the JSON response for challenge completion.
type CompleteChallengeResponse struct {
	Awarded bool `json:"awarded"`
}

// SummaryResponse is the JSON response for GET /v1/summary.
type SummaryResponse struct {
	UserID              string `json:"user_id"`
	TotalUsageSeconds   int64  `json:"total_usage_seconds"`
	CompletedChallenges int    `json:"completed_challenges"`
	TotalPoints         int64  `json:"total_points"`
}

// DailyUsageResponse is the JSON response for GET /v1/usage/daily.
type DailyUsageResponse struct {
	Days []DayTotal `json:"days"`
}

// DayTotal is one calendar day's usage in the daily response.
type DayTotal struct {
	Day          string `json:"day"` // YYYY-MM-DD
	TotalSeconds int64  `json:"total_seconds"`
}

// NotificationsResponse is the JSON response for GET /v1/notifications.
type NotificationsResponse struct {
	Notifications []string `json:"notifications"`
}

// RankingResponse is the JSON response for GET /v1/ranking.
type RankingResponse struct {
	Ranking []RankRow `json:"ranking"`
}

// RankRow is one leaderboard row in the ranking response.
type RankRow struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"user_id"`
	TotalPoints int64  `json:"total_points"`
}

// SubmitQuestionnaireRequest is the JSON request body for POST /v1/questionnaires.
type SubmitQuestionnaireRequest struct {
	Type    string          `json:"type"`
	Answers json.RawMessage `json:"answers"`
}

// QuestionnaireResponse is the JSON shape of a scored questionnaire.
type QuestionnaireResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Score     int64  `json:"score"`
	CreatedAt string `json:"created_at"`
}

// AuditEntryResponse is one audit trail row.
type AuditEntryResponse struct {
	ID        string          `json:"id"`
	Action    string          `json:"action"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at"`
}

// AuditTrailResponse is the JSON response for GET /v1/audit.
type AuditTrailResponse struct {
	Entries []AuditEntryResponse `json:"entries"`
}

// handleRegisterDevice handles POST /v1/devices.
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var req RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	device, err := s.service.RegisterDevice(r.Context(), userID, req.DeviceType, req.OSVersion)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, deviceToResponse(device))
}

// handleListDevices handles GET /v1/devices.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	devices, err := s.service.ListDevices(r.Context(), userID)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	response := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		response[i] = deviceToResponse(d)
	}
	s.sendJSON(w, http.StatusOK, map[string][]DeviceResponse{"devices": response})
}

// handleSubmitSession handles POST /v1/sessions.
func (s *Server) handleSubmitSession(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var req SubmitSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "start_time must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "end_time must be RFC3339")
		return
	}

	session, err := s.service.SubmitUsageSession(r.Context(), userID, req.DeviceID, req.AppIdentifier, start, end)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, SessionResponse{
		ID:              session.ID,
		DeviceID:        session.DeviceID,
		AppIdentifier:   session.AppIdentifier,
		StartTime:       session.StartTime.Format(time.RFC3339),
		EndTime:         session.EndTime.Format(time.RFC3339),
		DurationSeconds: session.DurationSeconds,
	})
}

// handleDailyUsage handles GET /v1/usage/daily?from=X&to=Y.
// The bounds are optional RFC3339 timestamps; an absent bound is open.
func (s *Server) handleDailyUsage(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	from, ok := parseTimeParam(w, s, r.URL.Query().Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, s, r.URL.Query().Get("to"), "to")
	if !ok {
		return
	}

	totals, err := s.service.GetDailyUsage(r.Context(), userID, from, to)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	response := DailyUsageResponse{Days: make([]DayTotal, len(totals))}
	for i, t := range totals {
		response.Days[i] = DayTotal{
			Day:          t.Day.Format("2006-01-02"),
			TotalSeconds: t.TotalSeconds,
		}
	}
	s.sendJSON(w, http.StatusOK, response)
}

// handleCreateChallenge handles POST /v1/challenges.
func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var req CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	challenge, err := s.service.CreateChallenge(r.Context(), userID, req.Title, req.TargetSeconds, req.AwardedPoints)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, challengeToResponse(challenge))
}

// handleListChallenges handles GET /v1/challenges.
func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	challenges, err := s.service.ListChallenges(r.Context(), userID)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	response := make([]ChallengeResponse, len(challenges))
	for i, c := range challenges {
		response[i] = challengeToResponse(c)
	}
	s.sendJSON(w, http.StatusOK, map[string][]ChallengeResponse{"challenges": response})
}

// handleStartChallenge handles POST /v1/challenges/{id}/start.
func (s *Server) handleStartChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("id")
	if err := s.requireOwnChallenge(w, r, challengeID); err != nil {
		return
	}

	if err := s.service.StartChallenge(r.Context(), challengeID); err != nil {
		s.sendEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCompleteChallenge handles POST /v1/challenges/{id}/complete.
// Completing an already-completed challenge is accepted; awarded reports
// whether this call performed the credit.
func (s *Server) handleCompleteChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("id")
	if err := s.requireOwnChallenge(w, r, challengeID); err != nil {
		return
	}

	awarded, err := s.service.CompleteChallenge(r.Context(), challengeID)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, CompleteChallengeResponse{Awarded: awarded})
}

// handleFailChallenge handles POST /v1/challenges/{id}/fail.
func (s *Server) handleFailChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID := r.PathValue("id")
	if err := s.requireOwnChallenge(w, r, challengeID); err != nil {
		return
	}

	if err := s.service.FailChallenge(r.Context(), challengeID); err != nil {
		s.sendEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// requireOwnChallenge verifies the challenge exists and belongs to the
// authenticated user. Another user's challenge reads as not found. A non-nil
// return means the response has been written.
func (s *Server) requireOwnChallenge(w http.ResponseWriter, r *http.Request, challengeID string) error {
	userID := auth.UserFromContext(r.Context())

	challenges, err := s.service.ListChallenges(r.Context(), userID)
	if err != nil {
		s.sendEngineError(w, err)
		return err
	}
	for _, c := range challenges {
		if c.ID == challengeID {
			return nil
		}
	}
	s.sendJSONError(w, http.StatusNotFound, "not found")
	return store.ErrNotFound
}

// handleSummary handles GET /v1/summary.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	summary, err := s.service.GetUserSummary(r.Context(), userID)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	s.sendJSON(w, http.StatusOK, SummaryResponse{
		UserID:              summary.UserID,
		TotalUsageSeconds:   summary.TotalUsageSeconds,
		CompletedChallenges: summary.CompletedChallenges,
		TotalPoints:         summary.TotalPoints,
	})
}

// handleNotifications handles GET /v1/notifications?as_of=X.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	asOf, ok := parseTimeParam(w, s, r.URL.Query().Get("as_of"), "as_of")
	if !ok {
		return
	}

	messages, err := s.service.GetNotifications(r.Context(), userID, asOf)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}
	if messages == nil {
		messages = []string{}
	}
	s.sendJSON(w, http.StatusOK, NotificationsResponse{Notifications: messages})
}

// handleRanking handles GET /v1/ranking?limit=N (default 10, max 100).
func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 0 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
		if limit > 100 {
			limit = 100
		}
	}

	entries, err := s.service.GetRanking(r.Context(), limit)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	response := RankingResponse{Ranking: make([]RankRow, len(entries))}
	for i, e := range entries {
		response.Ranking[i] = RankRow{
			Rank:        i + 1,
			UserID:      e.UserID,
			TotalPoints: e.TotalPoints,
		}
	}
	s.sendJSON(w, http.StatusOK, response)
}

// handleSubmitQuestionnaire handles POST /v1/questionnaires.
func (s *Server) handleSubmitQuestionnaire(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	var req SubmitQuestionnaireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	q, err := s.service.SubmitQuestionnaire(r.Context(), userID, req.Type, req.Answers)
	if err != nil {
		s.sendEngineError(w, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, QuestionnaireResponse{
		ID:        q.ID,
		Type:      q.Type,
		Score:     q.Score,
		CreatedAt: q.CreatedAt.Format(time.RFC3339),
	})
}

// handleAuditTrail handles GET /v1/audit?limit=N (default 50, max 500).
func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserFromContext(r.Context())

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
		if limit > 500 {
			limit = 500
		}
	}

	response := AuditTrailResponse{Entries: []AuditEntryResponse{}}
	if s.audit != nil {
		entries, err := s.audit.AuditByUser(r.Context(), userID, limit)
		if err != nil {
			s.logger.Error("failed to read audit trail", "error", err)
			s.sendJSONError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
		response.Entries = make([]AuditEntryResponse, len(entries))
		for i, e := range entries {
			response.Entries[i] = AuditEntryResponse{
				ID:        e.ID,
				Action:    e.Action,
				Metadata:  e.Metadata,
				CreatedAt: e.CreatedAt.Format(time.RFC3339),
			}
		}
	}
	s.sendJSON(w, http.StatusOK, response)
}

// deviceToResponse converts a store device to its JSON shape.
func deviceToResponse(d *store.Device) DeviceResponse {
	return DeviceResponse{
		ID:           d.ID,
		DeviceType:   d.DeviceType,
		OSVersion:    d.OSVersion,
		RegisteredAt: d.RegisteredAt.Format(time.RFC3339),
	}
}

// challengeToResponse converts a store challenge to its JSON shape.
func challengeToResponse(c *store.Challenge) ChallengeResponse {
	return ChallengeResponse{
		ID:            c.ID,
		Title:         c.Title,
		TargetSeconds: c.TargetSeconds,
		Status:        c.Status,
		AwardedPoints: c.AwardedPoints,
		PointsAwarded: c.PointsAwarded,
		CreatedAt:     c.CreatedAt.Format(time.RFC3339),
	}
}

// parseTimeParam parses an optional RFC3339 query parameter. A missing value
// yields the zero time. Returns false after writing a 400 on parse failure.
func parseTimeParam(w http.ResponseWriter, s *Server, value, name string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		s.sendJSONError(w, http.StatusBadRequest, name+" must be RFC3339")
		return time.Time{}, false
	}
	return t, true
}
