package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mjovanovic/fitlog/internal/telemetry/tracing"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultTTL is how long a request outcome stays replayable; past it
	// the key becomes eligible for reprocessing as if novel.
	DefaultTTL = 24 * time.Hour

	recordKeyPrefix = "fitlog-idempotency||"
)

// ErrAlreadyProcessing is returned by MarkProcessing when another
// request with the same key claimed the processing slot first.
var ErrAlreadyProcessing = errors.New("request with this idempotency key is already processing")

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Record tracks the outcome of one logical client request, keyed by the
// client-supplied idempotency key. A record in processing state is a
// request whose outcome is not yet durable.
type Record struct {
	SessionID string          `json:"sessionId"`
	Status    Status          `json:"status"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	ExpiresAt time.Time       `json:"expiresAt"`
}

type CheckOutcome string

const (
	OutcomeNovel    CheckOutcome = "novel"
	OutcomeCached   CheckOutcome = "cached"
	OutcomeInFlight CheckOutcome = "in_flight"
)

// CheckResult is what Check reports for a key: novel (proceed), cached
// (replay Record verbatim) or in-flight (no payload to replay - the
// retry policy is the caller's call).
type CheckResult struct {
	Outcome CheckOutcome
	Record  *Record
}

// Ledger is the durable record of in-flight and completed requests,
// backed by redis. Expiry is enforced twice: natively via the key TTL
// and lazily in Check for records whose stored ExpiresAt has passed.
type Ledger struct {
	redisClient *redis.Client
	ttl         time.Duration

	// injectable clock for deterministic tests
	NowFunc func() time.Time
}

func NewLedger(ttl time.Duration, redisClient *redis.Client) *Ledger {
	return &Ledger{
		ttl:         ttl,
		redisClient: redisClient,
		NowFunc:     time.Now,
	}
}

// Check classifies the request behind key. Absent or expired records are
// novel; an expired record is deleted as a side effect.
func (l *Ledger) Check(ctx context.Context, key string) (_ *CheckResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "idempotency.check")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	recordKey := recordKeyPrefix + key
	cmd := l.redisClient.Get(ctx, recordKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.String("outcome", string(OutcomeNovel)))
			return &CheckResult{Outcome: OutcomeNovel}, nil
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var record Record
	if err := json.Unmarshal([]byte(cmd.Val()), &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	if l.NowFunc().After(record.ExpiresAt) {
		if err := l.redisClient.Del(ctx, recordKey).Err(); err != nil {
			log.Errorf("idempotency check, delete expired record %s: %s", key, err)
		}
		span.SetAttributes(attribute.String("outcome", string(OutcomeNovel)))
		return &CheckResult{Outcome: OutcomeNovel}, nil
	}

	if record.Status == StatusProcessing {
		span.SetAttributes(attribute.String("outcome", string(OutcomeInFlight)))
		return &CheckResult{Outcome: OutcomeInFlight, Record: &record}, nil
	}

	span.SetAttributes(attribute.String("outcome", string(OutcomeCached)))
	return &CheckResult{Outcome: OutcomeCached, Record: &record}, nil
}

// MarkProcessing claims the processing slot for key with a conditional
// create-if-absent write, closing the window where two concurrent first
// attempts could both observe "novel". The loser gets
// ErrAlreadyProcessing.
func (l *Ledger) MarkProcessing(ctx context.Context, key, sessionID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "idempotency.markProcessing")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	now := l.NowFunc()
	value, err := json.Marshal(Record{
		SessionID: sessionID,
		Status:    StatusProcessing,
		CreatedAt: now,
		ExpiresAt: now.Add(l.ttl),
	})
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	cmd := l.redisClient.SetNX(ctx, recordKeyPrefix+key, value, l.ttl)
	if err := cmd.Err(); err != nil {
		return fmt.Errorf("setnx record: %w", err)
	}
	if !cmd.Val() {
		return ErrAlreadyProcessing
	}
	return nil
}

// CacheResponse transitions the record to completed and stores the
// response payload to be replayed verbatim on retries.
func (l *Ledger) CacheResponse(ctx context.Context, key, sessionID string, response []byte) error {
	return l.write(ctx, key, Record{
		SessionID: sessionID,
		Status:    StatusCompleted,
		Response:  response,
	})
}

// MarkFailed transitions the record to failed, caching the error summary
// so a retry with the same key is not told "in flight" forever.
func (l *Ledger) MarkFailed(ctx context.Context, key, sessionID, errorSummary string) error {
	return l.write(ctx, key, Record{
		SessionID: sessionID,
		Status:    StatusFailed,
		Error:     errorSummary,
	})
}

func (l *Ledger) write(ctx context.Context, key string, record Record) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "idempotency.write")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("record.status", string(record.Status)))

	now := l.NowFunc()
	record.CreatedAt = now
	record.ExpiresAt = now.Add(l.ttl)

	value, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := l.redisClient.Set(ctx, recordKeyPrefix+key, value, l.ttl).Err(); err != nil {
		return fmt.Errorf("set record: %w", err)
	}
	return nil
}

// ScanAndClean walks all ledger records and deletes the ones whose
// stored expiry has passed. Redis TTLs reclaim records on their own;
// this sweep exists for records rewritten with a stale ExpiresAt.
func (l *Ledger) ScanAndClean(ctx context.Context) {
	var (
		cursor  uint64
		cleaned int
	)
	for {
		keys, nextCursor, err := l.redisClient.Scan(ctx, cursor, recordKeyPrefix+"*", 100).Result()
		if err != nil {
			log.Errorf("!!! idempotency ledger, scan and clean: %s", err)
			return
		}

		for _, recordKey := range keys {
			cmd := l.redisClient.Get(ctx, recordKey)
			if cmd.Err() != nil {
				continue
			}
			var record Record
			if err := json.Unmarshal([]byte(cmd.Val()), &record); err != nil {
				log.Errorf("idempotency ledger, scan and clean, unmarshal %s: %s", recordKey, err)
				continue
			}
			if l.NowFunc().After(record.ExpiresAt) {
				if err := l.redisClient.Del(ctx, recordKey).Err(); err != nil {
					log.Errorf("idempotency ledger, scan and clean, delete %s: %s", recordKey, err)
					continue
				}
				cleaned++
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	if cleaned > 0 {
		log.Debugf("idempotency ledger, scan and clean: removed %d expired records", cleaned)
	}
}
