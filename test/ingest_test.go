package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mjovanovic/fitlog/internal/middleware"
	"github.com/mjovanovic/fitlog/internal/sessions"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) deleteAllSessions(ctx context.Context) {
	_, err := s.dbPool.Exec(ctx, "DELETE FROM session_event")
	require.NoError(s.T(), err)
	_, err = s.dbPool.Exec(ctx, "DELETE FROM session")
	require.NoError(s.T(), err)
}

func (s *IntegrationTestSuite) eventRowCount(sessionID string) int {
	var count int
	err := s.DB.QueryRow(
		"SELECT COUNT(*) FROM session_event WHERE session_id = $1",
		sessionID,
	).Scan(&count)
	require.NoError(s.T(), err)
	return count
}

func floatPtr(f float64) *float64 {
	return &f
}

func newEventPayload(sessionID, userID string, timestamp time.Time) sessions.EventPayload {
	return sessions.EventPayload{
		EventID:   uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Timestamp: timestamp.Format(time.RFC3339),
		Duration:  floatPtr(60),
		Distance:  floatPtr(150),
		Calories:  floatPtr(12.5),
		Steps:     floatPtr(200),
	}
}

func (s *IntegrationTestSuite) ingestRequest(
	ctx context.Context,
	key string,
	payload sessions.EventPayload,
) *http.Response {
	payloadJson, err := json.Marshal(payload)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/events", serverEndpoint),
		bytes.NewReader(payloadJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.ClientTokenHeader, testClientSecret)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(sessions.IdempotencyKeyHeader, key)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	return resp
}

// ingestEvent posts the payload and returns the decoded response
// together with the raw body bytes, for byte-level replay checks.
func (s *IntegrationTestSuite) ingestEvent(
	ctx context.Context,
	key string,
	payload sessions.EventPayload,
) (sessions.IngestResponse, []byte) {
	resp := s.ingestRequest(ctx, key, payload)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var ingestResp sessions.IngestResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &ingestResp))
	return ingestResp, respBytes
}

func (s *IntegrationTestSuite) getSession(ctx context.Context, sessionID string) (*sessions.Session, int) {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/sessions/%s", serverEndpoint, sessionID),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.ClientTokenHeader, testClientSecret)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var session sessions.Session
	require.NoError(s.T(), json.Unmarshal(respBytes, &session))
	return &session, resp.StatusCode
}

func (s *IntegrationTestSuite) TestIngestEvent_CreatesSession() {
	ctx := context.Background()
	sessionID := uuid.NewString()
	userID := gofakeit.Username()

	payload := newEventPayload(sessionID, userID, time.Now().Add(-time.Minute))
	ingestResp, _ := s.ingestEvent(ctx, uuid.NewString(), payload)

	assert.Equal(s.T(), sessions.UpsertStatusCreated, ingestResp.Status)
	assert.Equal(s.T(), sessionID, ingestResp.SessionID)
	assert.Equal(s.T(), payload.EventID, ingestResp.EventID)
	assert.False(s.T(), ingestResp.OutOfOrder)
	require.NotNil(s.T(), ingestResp.Aggregates)
	assert.Equal(s.T(), float64(60), ingestResp.Aggregates.TotalDuration)
	assert.Equal(s.T(), float64(150), ingestResp.Aggregates.TotalDistance)
	assert.Equal(s.T(), 200, ingestResp.Aggregates.TotalSteps)
	assert.Equal(s.T(), 1, ingestResp.Aggregates.EventCount)

	session, statusCode := s.getSession(ctx, sessionID)
	require.Equal(s.T(), http.StatusOK, statusCode)
	assert.Equal(s.T(), userID, session.UserID)
	assert.Equal(s.T(), float64(60), session.TotalDuration)
	assert.Equal(s.T(), 1, session.EventCount)
	assert.Equal(s.T(), 1, session.Version)

	assert.Equal(s.T(), 1, s.eventRowCount(sessionID))
}

func (s *IntegrationTestSuite) TestIngestEvent_ReplaySameKey() {
	ctx := context.Background()
	sessionID := uuid.NewString()
	key := uuid.NewString()

	payload := newEventPayload(sessionID, gofakeit.Username(), time.Now().Add(-time.Minute))
	firstResp, firstBytes := s.ingestEvent(ctx, key, payload)
	require.Equal(s.T(), sessions.UpsertStatusCreated, firstResp.Status)

	// the replay must return the cached response, byte for byte,
	// and must not touch the event store again
	_, secondBytes := s.ingestEvent(ctx, key, payload)
	assert.Equal(s.T(), firstBytes, secondBytes)
	assert.Equal(s.T(), 1, s.eventRowCount(sessionID))
}

func (s *IntegrationTestSuite) TestIngestEvent_DuplicateEvent() {
	ctx := context.Background()
	sessionID := uuid.NewString()

	payload := newEventPayload(sessionID, gofakeit.Username(), time.Now().Add(-time.Minute))
	firstResp, _ := s.ingestEvent(ctx, uuid.NewString(), payload)
	require.Equal(s.T(), sessions.UpsertStatusCreated, firstResp.Status)

	// same event id under a fresh idempotency key: stored exactly once
	payload.Duration = floatPtr(9999)
	dupResp, _ := s.ingestEvent(ctx, uuid.NewString(), payload)
	assert.Equal(s.T(), sessions.UpsertStatusDuplicate, dupResp.Status)
	require.NotNil(s.T(), dupResp.Aggregates)
	assert.Equal(s.T(), float64(60), dupResp.Aggregates.TotalDuration)
	assert.Equal(s.T(), 1, s.eventRowCount(sessionID))
}

func (s *IntegrationTestSuite) TestIngestEvent_OutOfOrderAdvisory() {
	ctx := context.Background()
	sessionID := uuid.NewString()
	userID := gofakeit.Username()
	now := time.Now()

	laterResp, _ := s.ingestEvent(ctx, uuid.NewString(), newEventPayload(sessionID, userID, now.Add(-time.Minute)))
	require.Equal(s.T(), sessions.UpsertStatusCreated, laterResp.Status)

	// an event older than the latest stored one still lands, flagged
	earlierResp, _ := s.ingestEvent(ctx, uuid.NewString(), newEventPayload(sessionID, userID, now.Add(-10*time.Minute)))
	assert.Equal(s.T(), sessions.UpsertStatusCreated, earlierResp.Status)
	assert.True(s.T(), earlierResp.OutOfOrder)
	require.NotNil(s.T(), earlierResp.Aggregates)
	assert.Equal(s.T(), 2, earlierResp.Aggregates.EventCount)
	assert.Equal(s.T(), float64(120), earlierResp.Aggregates.TotalDuration)
}

func (s *IntegrationTestSuite) TestIngestEvent_MissingIdempotencyKey() {
	ctx := context.Background()

	payload := newEventPayload(uuid.NewString(), gofakeit.Username(), time.Now().Add(-time.Minute))
	resp := s.ingestRequest(ctx, "", payload)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	assert.Contains(s.T(), string(respBytes), "idempotency key is required")
}

func (s *IntegrationTestSuite) TestIngestEvent_ValidationFailure() {
	ctx := context.Background()

	payload := newEventPayload(uuid.NewString(), gofakeit.Username(), time.Now().Add(-time.Minute))
	payload.EventID = ""
	payload.Duration = floatPtr(-5)

	resp := s.ingestRequest(ctx, uuid.NewString(), payload)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var apiErr struct {
		Errors []string `json:"errors"`
	}
	require.NoError(s.T(), json.Unmarshal(respBytes, &apiErr))
	assert.Len(s.T(), apiErr.Errors, 2)
}

func (s *IntegrationTestSuite) TestIngestEvent_Unauthorized() {
	ctx := context.Background()

	payload := newEventPayload(uuid.NewString(), gofakeit.Username(), time.Now().Add(-time.Minute))
	payloadJson, err := json.Marshal(payload)
	require.NoError(s.T(), err)

	req, err := http.NewRequestWithContext(
		ctx,
		"POST", fmt.Sprintf("%s/events", serverEndpoint),
		bytes.NewReader(payloadJson),
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessions.IdempotencyKeyHeader, uuid.NewString())

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *IntegrationTestSuite) TestGetSession_NotFound() {
	ctx := context.Background()

	_, statusCode := s.getSession(ctx, uuid.NewString())
	assert.Equal(s.T(), http.StatusNotFound, statusCode)
}

func (s *IntegrationTestSuite) TestListSessionEvents_Paging() {
	ctx := context.Background()
	s.deleteAllSessions(ctx)

	sessionID := uuid.NewString()
	userID := gofakeit.Username()
	now := time.Now()

	for i := 0; i < 3; i++ {
		resp, _ := s.ingestEvent(
			ctx, uuid.NewString(),
			newEventPayload(sessionID, userID, now.Add(time.Duration(i-5)*time.Minute)),
		)
		require.Equal(s.T(), sessions.UpsertStatusCreated, resp.Status)
	}

	page1 := s.listEvents(ctx, sessionID, 1, 2)
	assert.Len(s.T(), page1.Events, 2)
	assert.Equal(s.T(), 3, page1.Total)

	page2 := s.listEvents(ctx, sessionID, 2, 2)
	assert.Len(s.T(), page2.Events, 1)
	assert.Equal(s.T(), 3, page2.Total)

	// events come back newest first
	assert.True(s.T(), page1.Events[0].Timestamp.After(page1.Events[1].Timestamp))
}

func (s *IntegrationTestSuite) listEvents(ctx context.Context, sessionID string, page, size int) sessions.ListEventsResponse {
	req, err := http.NewRequestWithContext(
		ctx,
		"GET", fmt.Sprintf("%s/sessions/%s/events/page/%d/size/%d", serverEndpoint, sessionID, page, size),
		nil,
	)
	require.NoError(s.T(), err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.ClientTokenHeader, testClientSecret)

	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var listResp sessions.ListEventsResponse
	require.NoError(s.T(), json.Unmarshal(respBytes, &listResp))
	return listResp
}
