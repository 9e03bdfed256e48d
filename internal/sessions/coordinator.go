package sessions

import (
	"context"
	"fmt"
	"time"

	"github.com/mjovanovic/fitlog/internal/telemetry/metrics"
	"github.com/mjovanovic/fitlog/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// Tx is the set of store operations available inside one upsert
// transaction. Reads and writes through a Tx are isolated from
// concurrent upserts against the same session; a stale session write
// fails with ErrVersionConflict. GetSession returns (nil, nil) for an
// absent session - absence is a normal case on the creation path.
type Tx interface {
	EventExists(ctx context.Context, sessionID, eventID string) (bool, error)
	ListEvents(ctx context.Context, sessionID string) ([]Event, error)
	InsertEvent(ctx context.Context, event Event) error
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	CreateSession(ctx context.Context, session *Session) error
	UpdateSession(ctx context.Context, session *Session) error
}

type txStore interface {
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type UpsertStatus string

const (
	UpsertStatusCreated   UpsertStatus = "created"
	UpsertStatusDuplicate UpsertStatus = "duplicate"
)

// UpsertResult reports the outcome of one upsert: whether the event was
// freshly stored or recognized as a duplicate, plus the session
// aggregates. Aggregates is nil only for a duplicate whose session does
// not exist.
type UpsertResult struct {
	Status     UpsertStatus `json:"status"`
	Aggregates *Aggregates  `json:"aggregates,omitempty"`
}

// Coordinator executes the idempotent transactional upsert: duplicate
// check, event insertion, full aggregate recomputation and a versioned
// session write, all inside a single transaction retried on write
// conflicts per the configured policy.
type Coordinator struct {
	store   txStore
	retry   RetryPolicy
	metrics *metrics.Manager

	// injectable clock for deterministic tests
	NowFunc func() time.Time
}

func NewCoordinator(store txStore, retry RetryPolicy, metricsManager *metrics.Manager) *Coordinator {
	return &Coordinator{
		store:   store,
		retry:   retry,
		metrics: metricsManager,
		NowFunc: time.Now,
	}
}

// Upsert commits one event against its session. A repeat event id is a
// pure duplicate: nothing is written and the session aggregates are
// returned unchanged. Otherwise the event is inserted and the session
// aggregates are recomputed from the complete event history, so the
// final state does not depend on arrival order.
func (c *Coordinator) Upsert(ctx context.Context, sessionID, userID string, event Event) (_ *UpsertResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "sessions.coordinator.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))
	span.SetAttributes(attribute.String("event.id", event.ID))

	var result *UpsertResult
	attempt := 0
	err = c.retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			if c.metrics != nil {
				c.metrics.CounterUpsertConflicts.Inc()
			}
			log.Warnf("upsert session %s event %s: write conflict, attempt %d", sessionID, event.ID, attempt)
		}
		var txErr error
		result, txErr = c.upsertOnce(ctx, sessionID, userID, event)
		return txErr
	})
	if err != nil {
		return nil, fmt.Errorf("upsert session %s event %s: %w", sessionID, event.ID, err)
	}

	span.SetAttributes(attribute.String("upsert.status", string(result.Status)))
	return result, nil
}

func (c *Coordinator) upsertOnce(ctx context.Context, sessionID, userID string, event Event) (*UpsertResult, error) {
	var result *UpsertResult
	err := c.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		exists, err := tx.EventExists(ctx, sessionID, event.ID)
		if err != nil {
			return fmt.Errorf("event exists check: %w", err)
		}

		if exists {
			session, err := tx.GetSession(ctx, sessionID)
			if err != nil {
				return fmt.Errorf("get session for duplicate: %w", err)
			}
			result = &UpsertResult{Status: UpsertStatusDuplicate}
			if session != nil {
				agg := session.CurrentAggregates()
				result.Aggregates = &agg
			}
			return nil
		}

		session, err := tx.GetSession(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		existingEvents, err := tx.ListEvents(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}

		now := c.NowFunc().UTC()
		event.SessionID = sessionID
		event.UserID = userID
		event.IngestedAt = now
		if event.Version == 0 {
			event.Version = 1
		}

		if err := tx.InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		agg, err := ComputeAggregates(append(existingEvents, event))
		if err != nil {
			return fmt.Errorf("compute aggregates: %w", err)
		}

		if session != nil {
			session.Apply(agg)
			session.Version++
			session.UpdatedAt = now
			if err := tx.UpdateSession(ctx, session); err != nil {
				return fmt.Errorf("update session: %w", err)
			}
		} else {
			session = &Session{
				ID:        sessionID,
				UserID:    userID,
				Version:   1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			session.Apply(agg)
			if err := tx.CreateSession(ctx, session); err != nil {
				return fmt.Errorf("create session: %w", err)
			}
		}

		result = &UpsertResult{
			Status:     UpsertStatusCreated,
			Aggregates: &agg,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
