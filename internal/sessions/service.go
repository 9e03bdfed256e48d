package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mjovanovic/fitlog/internal/idempotency"
	"github.com/mjovanovic/fitlog/internal/telemetry/metrics"
	"github.com/mjovanovic/fitlog/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=sessions_test

type requestLedger interface {
	Check(ctx context.Context, key string) (*idempotency.CheckResult, error)
	MarkProcessing(ctx context.Context, key, sessionID string) error
	CacheResponse(ctx context.Context, key, sessionID string, response []byte) error
	MarkFailed(ctx context.Context, key, sessionID, errorSummary string) error
}

type upsertCoordinator interface {
	Upsert(ctx context.Context, sessionID, userID string, event Event) (*UpsertResult, error)
}

type sessionsRepo interface {
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	ListEvents(ctx context.Context, sessionID string) ([]Event, error)
	ListSessionEvents(ctx context.Context, sessionID string, page, size int) ([]Event, int, error)
}

type IngestOutcome string

const (
	IngestOutcomeCreated      IngestOutcome = "created"
	IngestOutcomeDuplicate    IngestOutcome = "duplicate"
	IngestOutcomeReplayed     IngestOutcome = "replayed"
	IngestOutcomeInFlight     IngestOutcome = "in_flight"
	IngestOutcomeFailedReplay IngestOutcome = "failed_replay"
)

// IngestResult is what ProcessEvent hands back to the request boundary.
// Response carries the JSON payload to return for created, duplicate and
// replayed outcomes; ErrorSummary carries the original failure for a
// replayed failed request.
type IngestResult struct {
	Outcome      IngestOutcome
	Response     []byte
	ErrorSummary string
}

// IngestResponse is the success payload cached in the ledger and
// returned to clients, byte-identical on every retry.
type IngestResponse struct {
	Status     UpsertStatus `json:"status"`
	SessionID  string       `json:"sessionId"`
	EventID    string       `json:"eventId"`
	OutOfOrder bool         `json:"outOfOrder"`
	Aggregates *Aggregates  `json:"aggregates,omitempty"`
}

const (
	statsCacheSizeBytes = 10 * 1024 * 1024
	statsCacheExpireSec = 60
)

// Service owns the request-handling path around the coordinator: the
// idempotency bookkeeping, payload normalization, the order advisory
// and the read-side session lookups with a small response cache.
type Service struct {
	ledger      requestLedger
	coordinator upsertCoordinator
	repo        sessionsRepo
	metrics     *metrics.Manager
	statsCache  *freecache.Cache

	// injectable clock for deterministic tests
	NowFunc func() time.Time
}

func NewService(
	ledger requestLedger,
	coordinator upsertCoordinator,
	repo sessionsRepo,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		ledger:      ledger,
		coordinator: coordinator,
		repo:        repo,
		metrics:     metricsManager,
		statsCache:  freecache.NewCache(statsCacheSizeBytes),
		NowFunc:     time.Now,
	}
}

// ProcessEvent runs one logical ingestion request end to end: ledger
// check, validation, order advisory, transactional upsert, ledger
// bookkeeping. The returned error is either a *ValidationError or an
// unexpected failure; duplicates are normal results, not errors.
func (s *Service) ProcessEvent(ctx context.Context, key string, payload EventPayload) (_ *IngestResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.service.processEvent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	defer func(begin time.Time) {
		s.metrics.HistEventProcessingDuration.Observe(time.Since(begin).Seconds())
	}(time.Now())

	span.SetAttributes(attribute.String("session.id", payload.SessionID))
	span.SetAttributes(attribute.String("event.id", payload.EventID))

	event, err := NormalizeEvent(payload, s.NowFunc())
	if err != nil {
		s.metrics.CounterValidationFailures.Inc()
		return nil, err
	}

	check, err := s.ledger.Check(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency check: %w", err)
	}

	switch check.Outcome {
	case idempotency.OutcomeCached:
		s.metrics.CounterDuplicateEvents.With(
			prometheus.Labels{"source": metrics.DuplicateSourceIdempotencyCache},
		).Inc()
		if check.Record.Status == idempotency.StatusFailed {
			log.Debugf("ingest event %s: replaying failed outcome for key", event.ID)
			return &IngestResult{
				Outcome:      IngestOutcomeFailedReplay,
				ErrorSummary: check.Record.Error,
			}, nil
		}
		log.Debugf("ingest event %s: replaying cached response for key", event.ID)
		return &IngestResult{
			Outcome:  IngestOutcomeReplayed,
			Response: check.Record.Response,
		}, nil
	case idempotency.OutcomeInFlight:
		return &IngestResult{Outcome: IngestOutcomeInFlight}, nil
	}

	if err := s.ledger.MarkProcessing(ctx, key, event.SessionID); err != nil {
		if errors.Is(err, idempotency.ErrAlreadyProcessing) {
			return &IngestResult{Outcome: IngestOutcomeInFlight}, nil
		}
		return nil, fmt.Errorf("mark processing: %w", err)
	}

	orderCheck := s.adviseOrder(ctx, event)

	result, err := s.coordinator.Upsert(ctx, event.SessionID, event.UserID, event)
	if err != nil {
		if markErr := s.ledger.MarkFailed(ctx, key, event.SessionID, err.Error()); markErr != nil {
			// the record stays in processing state until its TTL runs out
			log.Errorf("ingest event %s: mark failed: %s", event.ID, markErr)
		}
		return nil, err
	}

	if result.Status == UpsertStatusDuplicate {
		s.metrics.CounterDuplicateEvents.With(
			prometheus.Labels{"source": metrics.DuplicateSourceEventExists},
		).Inc()
	} else {
		s.metrics.CounterEventsIngested.Inc()
		s.statsCache.Del(statsCacheKey(event.SessionID))
	}

	response := IngestResponse{
		Status:     result.Status,
		SessionID:  event.SessionID,
		EventID:    event.ID,
		OutOfOrder: orderCheck.IsOutOfOrder,
		Aggregates: result.Aggregates,
	}
	responseJson, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}

	if err := s.ledger.CacheResponse(ctx, key, event.SessionID, responseJson); err != nil {
		// the outcome is durable; a failed cache write only costs a
		// replay opportunity, so log and return success anyway
		log.Errorf("ingest event %s: cache response: %s", event.ID, err)
	}

	outcome := IngestOutcomeCreated
	if result.Status == UpsertStatusDuplicate {
		outcome = IngestOutcomeDuplicate
	}
	return &IngestResult{
		Outcome:  outcome,
		Response: responseJson,
	}, nil
}

// adviseOrder runs the purely diagnostic order check for logging and
// metrics. It never gates the upsert: any failure here is logged and
// swallowed.
func (s *Service) adviseOrder(ctx context.Context, event Event) OrderCheck {
	existing, err := s.repo.ListEvents(ctx, event.SessionID)
	if err != nil {
		log.Warnf("order advisory, list events for session %s: %s", event.SessionID, err)
		return OrderCheck{}
	}

	check := ValidateEventOrder(existing, event)
	if check.IsOutOfOrder {
		s.metrics.CounterOutOfOrderEvents.Inc()
		log.Debugf(
			"event %s for session %s arrived out of order: would land at position %d of %d",
			event.ID, event.SessionID, check.ExpectedPosition, check.ActualPosition,
		)
	}
	return check
}

// GetSession returns the current session record, served from a short
// lived in-process cache that is invalidated on every successful upsert.
func (s *Service) GetSession(ctx context.Context, sessionID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.service.getSession")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	cacheKey := statsCacheKey(sessionID)
	if cached, err := s.statsCache.Get(cacheKey); err == nil {
		var session Session
		if err := json.Unmarshal(cached, &session); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &session, nil
		}
		s.statsCache.Del(cacheKey)
	}

	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if sessionJson, err := json.Marshal(session); err == nil {
		if err := s.statsCache.Set(cacheKey, sessionJson, statsCacheExpireSec); err != nil {
			log.Tracef("session stats cache set %s: %s", sessionID, err)
		}
	}

	return session, nil
}

// ListSessionEvents returns one page of the session's stored events.
func (s *Service) ListSessionEvents(ctx context.Context, sessionID string, page, size int) (_ []Event, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.service.listSessionEvents")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	events, total, err := s.repo.ListSessionEvents(ctx, sessionID, page, size)
	if err != nil {
		return nil, -1, fmt.Errorf("list session events: %w", err)
	}
	return events, total, nil
}

func statsCacheKey(sessionID string) []byte {
	return []byte("session-stats||" + sessionID)
}
