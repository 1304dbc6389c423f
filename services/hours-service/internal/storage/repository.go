package storage

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/openhours/libs/db"
	otelx "github.com/md-rashed-zaman/openhours/libs/otel"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/outbox"
)

//go:embed schema.sql
var schema string

// migrationLockID is the advisory lock key held while the schema is applied.
const migrationLockID int64 = 0x686f757273

var ErrNotFound = errors.New("business hours not found")

func Migrate(ctx context.Context, pool *db.Pool) error {
	return pool.Migrate(ctx, migrationLockID, schema)
}

type Hours struct {
	BusinessID string
	Spec       string
	Timezone   string
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Repository struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewRepository(pool *db.Pool, outboxRepo *outbox.Repository) *Repository {
	return &Repository{pool: pool, outbox: outboxRepo}
}

func (r *Repository) Get(ctx context.Context, businessID string) (Hours, error) {
	var h Hours
	err := r.pool.QueryRow(ctx, `
		SELECT business_id, spec, timezone, version, created_at, updated_at
		FROM business_hours
		WHERE business_id = $1
	`, businessID).Scan(&h.BusinessID, &h.Spec, &h.Timezone, &h.Version, &h.CreatedAt, &h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Hours{}, ErrNotFound
	}
	return h, err
}

// Save stores the spec, bumping its version, schedules an immediate
// re-evaluation by the transition worker and queues an updated event, all in
// one transaction. The caller has already validated the spec.
func (r *Repository) Save(ctx context.Context, h Hours, opening, closing []string) (Hours, error) {
	err := r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO business_hours (business_id, spec, timezone)
			VALUES ($1, $2, $3)
			ON CONFLICT (business_id) DO UPDATE
			SET spec = EXCLUDED.spec,
				timezone = EXCLUDED.timezone,
				version = business_hours.version + 1,
				updated_at = now()
			RETURNING version, created_at, updated_at
		`, h.BusinessID, h.Spec, h.Timezone).Scan(&h.Version, &h.CreatedAt, &h.UpdatedAt)
		if err != nil {
			return err
		}

		traceparent, tracestate := otelx.TraceContextStrings(ctx)
		if _, err := tx.Exec(ctx, `
			INSERT INTO business_hours_state (business_id, next_check_at, traceparent, tracestate)
			VALUES ($1, now(), $2, $3)
			ON CONFLICT (business_id) DO UPDATE
			SET next_check_at = now(),
				traceparent = EXCLUDED.traceparent,
				tracestate = EXCLUDED.tracestate
		`, h.BusinessID, traceparent, tracestate); err != nil {
			return err
		}

		evt, err := outbox.NewEvent(outbox.EventHoursUpdated, h.BusinessID, outbox.UpdatePayload{
			BusinessID:      h.BusinessID,
			Spec:            h.Spec,
			Timezone:        h.Timezone,
			Version:         h.Version,
			OpeningTriggers: opening,
			ClosingTriggers: closing,
		})
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
	if err != nil {
		return Hours{}, err
	}
	return h, nil
}

// Delete removes the spec and its worker state and queues a deleted event.
func (r *Repository) Delete(ctx context.Context, businessID string) error {
	return r.pool.WithTx(ctx, func(tx pgx.Tx) error {
		var version int64
		err := tx.QueryRow(ctx, `
			DELETE FROM business_hours
			WHERE business_id = $1
			RETURNING version
		`, businessID).Scan(&version)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		evt, err := outbox.NewEvent(outbox.EventHoursDeleted, businessID, map[string]any{
			"business_id": businessID,
			"version":     version,
		})
		if err != nil {
			return err
		}
		return r.outbox.Insert(ctx, tx, evt)
	})
}

// Due is a business whose open/closed state needs to be re-evaluated.
type Due struct {
	Hours
	// IsOpen is nil until the worker has evaluated the business once.
	IsOpen      *bool
	Traceparent string
	Tracestate  string
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]Due, error) {
	rows, err := tx.Query(ctx, `
		SELECT h.business_id, h.spec, h.timezone, h.version, h.created_at, h.updated_at,
			s.is_open, s.traceparent, s.tracestate
		FROM business_hours_state s
		JOIN business_hours h ON h.business_id = s.business_id
		WHERE s.next_check_at <= $1
		ORDER BY s.next_check_at
		LIMIT $2
		FOR UPDATE OF s SKIP LOCKED
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []Due
	for rows.Next() {
		var d Due
		if err := rows.Scan(&d.BusinessID, &d.Spec, &d.Timezone, &d.Version, &d.CreatedAt, &d.UpdatedAt,
			&d.IsOpen, &d.Traceparent, &d.Tracestate); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return due, nil
}

// SaveState records the evaluated state and when to look again. changedAt is
// only written when the state flipped.
func (r *Repository) SaveState(ctx context.Context, tx pgx.Tx, businessID string, isOpen bool, changedAt *time.Time, nextCheckAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE business_hours_state
		SET is_open = $2,
			changed_at = COALESCE($3, changed_at),
			next_check_at = $4
		WHERE business_id = $1
	`, businessID, isOpen, changedAt, nextCheckAt)
	return err
}

// Reschedule pushes the next check out without touching the state, used
// when a stored spec can no longer be evaluated.
func (r *Repository) Reschedule(ctx context.Context, tx pgx.Tx, businessID string, nextCheckAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE business_hours_state
		SET next_check_at = $2
		WHERE business_id = $1
	`, businessID, nextCheckAt)
	return err
}
