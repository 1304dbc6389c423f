// Package transitions watches stored business hours and publishes an event
// whenever a business opens or closes.
package transitions

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/openhours/libs/db"
	"github.com/md-rashed-zaman/openhours/libs/hours"
	otelx "github.com/md-rashed-zaman/openhours/libs/otel"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/metrics"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/outbox"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/storage"
	"go.opentelemetry.io/otel/attribute"
)

type Worker struct {
	pool      *db.Pool
	repo      *storage.Repository
	outbox    *outbox.Repository
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
	idle      time.Duration
	retry     time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	// Idle is how long to wait before re-checking hours that never change.
	Idle time.Duration
	// Retry is how long to wait before re-checking hours that fail to load.
	Retry time.Duration
}

func NewWorker(pool *db.Pool, repo *storage.Repository, outboxRepo *outbox.Repository, logger *slog.Logger, cfg WorkerConfig) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 24 * time.Hour
	}
	if cfg.Retry <= 0 {
		cfg.Retry = time.Hour
	}
	return &Worker{
		pool:      pool,
		repo:      repo,
		outbox:    outboxRepo,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		idle:      cfg.Idle,
		retry:     cfg.Retry,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx, time.Now().UTC()); err != nil {
				w.logger.Error("transition batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context, now time.Time) (err error) {
	ctx, span := otelx.StartSpan(ctx, "hours-service/transitions", "transitions.batch")
	defer func() { otelx.EndSpan(span, err) }()

	return w.pool.WithTx(ctx, func(tx pgx.Tx) error {
		due, err := w.repo.FetchDue(ctx, tx, now, w.batchSize)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("transitions.due", len(due)))

		for _, d := range due {
			if err := w.evaluate(ctx, tx, d, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Worker) evaluate(ctx context.Context, tx pgx.Tx, d storage.Due, now time.Time) error {
	log := w.logger.With("business_id", d.BusinessID, "version", d.Version)

	bh, err := hours.New(d.Spec)
	if err != nil {
		log.Warn("stored hours no longer parse", "err", err)
		return w.repo.Reschedule(ctx, tx, d.BusinessID, now.Add(w.retry))
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		log.Warn("unknown timezone", "timezone", d.Timezone, "err", err)
		return w.repo.Reschedule(ctx, tx, d.BusinessID, now.Add(w.retry))
	}

	dec := Decide(bh, loc, d.IsOpen, now, w.idle)
	var changedAt *time.Time
	if dec.Changed {
		evtCtx := otelx.ContextWithTraceContext(ctx, d.Traceparent, d.Tracestate)
		evt, err := outbox.NewEvent(dec.EventType(), d.BusinessID, outbox.TransitionPayload{
			BusinessID:   d.BusinessID,
			Open:         dec.Open,
			At:           now,
			Timezone:     d.Timezone,
			NextChangeAt: dec.NextChangeAt,
			SpecVersion:  d.Version,
		})
		if err != nil {
			return err
		}
		if err := w.outbox.Insert(evtCtx, tx, evt); err != nil {
			return err
		}
		metrics.Transitions.WithLabelValues(dec.EventType()).Inc()
		log.Info("business hours transition", "open", dec.Open, "next_check_at", dec.NextCheckAt)
		changedAt = &now
	}
	return w.repo.SaveState(ctx, tx, d.BusinessID, dec.Open, changedAt, dec.NextCheckAt)
}
