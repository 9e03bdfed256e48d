package sessions

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/mjovanovic/fitlog/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

// schemaSQL is embedded so the service can bootstrap its own tables.
//
//go:embed schema.sql
var schemaSQL string

// Repo persists sessions and their events in Postgres. Upsert
// transactions run with REPEATABLE READ isolation so that two concurrent
// upserts against the same session cannot both commit on stale reads;
// the loser surfaces a write conflict and is retried by the coordinator.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// InTx runs fn inside one transaction with REPEATABLE READ isolation,
// committing on nil and rolling back on error.
func (r *Repo) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return pgx.BeginTxFunc(ctx, r.db,
		pgx.TxOptions{IsoLevel: pgx.RepeatableRead},
		func(tx pgx.Tx) error {
			return fn(ctx, &repoTx{tx: tx})
		},
	)
}

// GetSession reads one session outside any upsert transaction, for the
// read-only API paths. Returns ErrSessionNotFound when absent.
func (r *Repo) GetSession(ctx context.Context, sessionID string) (_ *Session, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	session, err := scanSession(r.db.QueryRow(ctx, selectSessionSQL, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListSessionEvents returns one page of a session's events, newest
// first, together with the total event count.
func (r *Repo) ListSessionEvents(ctx context.Context, sessionID string, page, size int) (_ []Event, total int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.listEventsPage")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))
	span.SetAttributes(attribute.Int("page", page))
	span.SetAttributes(attribute.Int("size", size))

	if page < 1 {
		return nil, -1, errors.New("page must be greater than 0")
	}
	if size < 1 {
		return nil, -1, errors.New("size must be greater than 0")
	}

	if err := r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM session_event WHERE session_id = $1`, sessionID).
		Scan(&total); err != nil {
		return nil, -1, fmt.Errorf("count events: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT
			session_id, event_id, user_id, timestamp, duration,
			distance, calories, steps, sequence_number, ingested_at, version
		FROM session_event
		WHERE session_id = $1
		ORDER BY timestamp DESC, event_id DESC
		LIMIT $2 OFFSET $3;`,
		sessionID, size, (page-1)*size,
	)
	if err != nil {
		return nil, -1, fmt.Errorf("query events page: %w", err)
	}
	defer rows.Close()

	events, err := rows2events(rows)
	if err != nil {
		return nil, -1, err
	}
	return events, total, nil
}

// ListEvents returns all events of a session, for the order advisory.
func (r *Repo) ListEvents(ctx context.Context, sessionID string) (_ []Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sessions.listEvents")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("session.id", sessionID))

	return listEvents(ctx, r.db, sessionID)
}

// repoTx adapts a pgx.Tx to the coordinator's Tx interface.
type repoTx struct {
	tx pgx.Tx
}

func (t *repoTx) EventExists(ctx context.Context, sessionID, eventID string) (bool, error) {
	var exists bool
	err := t.tx.
		QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM session_event WHERE session_id = $1 AND event_id = $2)`,
			sessionID, eventID,
		).
		Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (t *repoTx) ListEvents(ctx context.Context, sessionID string) ([]Event, error) {
	return listEvents(ctx, t.tx, sessionID)
}

func (t *repoTx) InsertEvent(ctx context.Context, event Event) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO session_event
			(session_id, event_id, user_id, timestamp, duration,
			 distance, calories, steps, sequence_number, ingested_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (session_id, event_id) DO NOTHING;`,
		event.SessionID, event.ID, event.UserID, event.Timestamp, event.Duration,
		event.Distance, event.Calories, event.Steps, event.SequenceNumber,
		event.IngestedAt, event.Version,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// the coordinator checks existence first, so this fires only when
		// a concurrent transaction inserted the same event id in between
		return ErrEventExists
	}
	return nil
}

func (t *repoTx) GetSession(ctx context.Context, sessionID string) (*Session, error) {
	session, err := scanSession(t.tx.QueryRow(ctx, selectSessionSQL, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (t *repoTx) CreateSession(ctx context.Context, session *Session) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO session
			(id, user_id, start_time, end_time, total_duration, total_distance,
			 total_calories, total_steps, event_count, last_event_time,
			 version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);`,
		session.ID, session.UserID, session.StartTime, session.EndTime,
		session.TotalDuration, session.TotalDistance, session.TotalCalories,
		session.TotalSteps, session.EventCount, session.LastEventTime,
		session.Version, session.CreatedAt, session.UpdatedAt,
	)
	return err
}

func (t *repoTx) UpdateSession(ctx context.Context, session *Session) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE session SET
			start_time = $1, end_time = $2, total_duration = $3,
			total_distance = $4, total_calories = $5, total_steps = $6,
			event_count = $7, last_event_time = $8, version = $9, updated_at = $10
		WHERE id = $11 AND version = $12;`,
		session.StartTime, session.EndTime, session.TotalDuration,
		session.TotalDistance, session.TotalCalories, session.TotalSteps,
		session.EventCount, session.LastEventTime, session.Version, session.UpdatedAt,
		session.ID, session.Version-1,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

const selectSessionSQL = `
	SELECT
		id, user_id, start_time, end_time, total_duration, total_distance,
		total_calories, total_steps, event_count, last_event_time,
		version, created_at, updated_at
	FROM session
	WHERE id = $1;`

func scanSession(row pgx.Row) (*Session, error) {
	session := &Session{}
	err := row.Scan(
		&session.ID, &session.UserID, &session.StartTime, &session.EndTime,
		&session.TotalDuration, &session.TotalDistance, &session.TotalCalories,
		&session.TotalSteps, &session.EventCount, &session.LastEventTime,
		&session.Version, &session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

type eventQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func listEvents(ctx context.Context, q eventQuerier, sessionID string) ([]Event, error) {
	rows, err := q.Query(ctx, `
		SELECT
			session_id, event_id, user_id, timestamp, duration,
			distance, calories, steps, sequence_number, ingested_at, version
		FROM session_event
		WHERE session_id = $1;`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return rows2events(rows)
}

func rows2events(rows pgx.Rows) ([]Event, error) {
	events := make([]Event, 0)
	for rows.Next() {
		var e Event
		if err := rows.Scan(
			&e.SessionID, &e.ID, &e.UserID, &e.Timestamp, &e.Duration,
			&e.Distance, &e.Calories, &e.Steps, &e.SequenceNumber,
			&e.IngestedAt, &e.Version,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return events, nil
}
