package outbox

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/md-rashed-zaman/openhours/libs/db"
	"github.com/md-rashed-zaman/openhours/libs/kafkax"
	otelx "github.com/md-rashed-zaman/openhours/libs/otel"
	"github.com/md-rashed-zaman/openhours/services/hours-service/internal/metrics"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	io.Closer
}

type Publisher struct {
	pool      *db.Pool
	repo      *Repository
	logger    *slog.Logger
	brokers   []string
	pollEvery time.Duration
	batchSize int
	retention time.Duration
	newWriter func([]string) MessageWriter
}

type PublisherConfig struct {
	Brokers   []string
	PollEvery time.Duration
	BatchSize int
	// Retention is how long published rows are kept. Zero keeps them forever.
	Retention time.Duration
}

func NewPublisher(pool *db.Pool, repo *Repository, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Publisher{
		pool:      pool,
		repo:      repo,
		logger:    logger,
		brokers:   cfg.Brokers,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
		retention: cfg.Retention,
		newWriter: func(brokers []string) MessageWriter { return kafkax.NewWriter(brokers) },
	}
}

func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := p.newWriter(p.brokers)
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	var purge <-chan time.Time
	if p.retention > 0 {
		purgeTicker := time.NewTicker(time.Hour)
		defer purgeTicker.Stop()
		purge = purgeTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.publishBatch(ctx, writer); err != nil {
				metrics.OutboxFailures.Inc()
				p.logger.Error("outbox publish failed", "err", err)
			}
		case <-purge:
			if err := p.purge(ctx); err != nil {
				p.logger.Error("outbox purge failed", "err", err)
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context, writer MessageWriter) error {
	return p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.FetchUnpublished(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}

		if err := writer.WriteMessages(ctx, toMessages(ctx, records)...); err != nil {
			return err
		}

		ids := make([]int64, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.ID)
		}
		if err := p.repo.MarkPublished(ctx, tx, ids); err != nil {
			return err
		}
		metrics.OutboxPublished.Add(float64(len(ids)))
		return nil
	})
}

func (p *Publisher) purge(ctx context.Context) error {
	return p.pool.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := p.repo.Purge(ctx, tx, time.Now().Add(-p.retention))
		if err != nil {
			return err
		}
		if n > 0 {
			p.logger.Info("outbox purged", "rows", n)
		}
		return nil
	})
}

// toMessages keys each message by aggregate so one business's events keep
// their order on a single partition.
func toMessages(ctx context.Context, records []Record) []kafka.Message {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		msgCtx := otelx.ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
		meta := kafkax.EventMeta{EventID: r.EventID, EventType: r.EventType}
		msgs = append(msgs, kafka.Message{
			Topic:   r.EventType,
			Key:     []byte(r.AggregateID),
			Value:   r.Payload,
			Time:    r.CreatedAt,
			Headers: kafkax.InjectTraceHeaders(msgCtx, meta.Headers()),
		})
	}
	return msgs
}
