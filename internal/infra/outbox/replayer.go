package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/presupuesto-bff/internal/domain"
	"github.com/boddenberg/presupuesto-bff/internal/infra/observability"
	"github.com/boddenberg/presupuesto-bff/internal/infra/resilience"
	"github.com/boddenberg/presupuesto-bff/internal/port"

	"go.uber.org/zap"
)

// ReplayerConfig holds the replay schedule.
type ReplayerConfig struct {
	Interval       time.Duration
	BatchSize      int
	MaxConcurrency int
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between attempts of a single entry.
	MaxBackoff time.Duration
}

// Replayer periodically re-sends outbox entries to the finance API.
type Replayer struct {
	outbox   port.Outbox
	writer   port.TransactionWriter
	bulkhead *resilience.Bulkhead
	cfg      ReplayerConfig
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewReplayer creates a replayer. Zero config values get defaults.
func NewReplayer(outbox port.Outbox, writer port.TransactionWriter, cfg ReplayerConfig, metrics *observability.Metrics, logger *zap.Logger) *Replayer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Hour
	}
	return &Replayer{
		outbox:   outbox,
		writer:   writer,
		bulkhead: resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Run replays on every tick until ctx is cancelled.
func (r *Replayer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.logger.Info("outbox replayer started", zap.Duration("interval", r.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("outbox replayer stopped")
			return
		case <-ticker.C:
			if _, err := r.ReplayOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("outbox replay failed", zap.Error(err))
			}
		}
	}
}

// ReplayStats summarizes one replay pass.
type ReplayStats struct {
	Sent      int
	Failed    int
	Discarded int
}

// ReplayOnce sends one batch of due entries and returns what happened to them.
func (r *Replayer) ReplayOnce(ctx context.Context) (ReplayStats, error) {
	var stats ReplayStats

	due, err := r.outbox.Due(ctx, r.cfg.BatchSize)
	if err != nil {
		return stats, fmt.Errorf("load due entries: %w", err)
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, entry := range due {
		if err := r.bulkhead.Acquire(ctx); err != nil {
			break
		}
		wg.Add(1)
		go func(entry domain.PendingTransaction) {
			defer wg.Done()
			defer r.bulkhead.Release()

			outcome := r.deliver(ctx, entry)
			mu.Lock()
			switch outcome {
			case domain.OutcomeConfirmed:
				stats.Sent++
			case domain.OutcomeRejected:
				stats.Discarded++
			default:
				stats.Failed++
			}
			mu.Unlock()
		}(entry)
	}
	wg.Wait()

	r.refreshPending(ctx)

	if len(due) > 0 {
		r.logger.Info("outbox replay pass",
			zap.Int("due", len(due)),
			zap.Int("sent", stats.Sent),
			zap.Int("failed", stats.Failed),
			zap.Int("discarded", stats.Discarded),
		)
	}
	return stats, nil
}

func (r *Replayer) deliver(ctx context.Context, entry domain.PendingTransaction) domain.SubmitOutcome {
	log := r.logger.With(zap.String("id", entry.ID), zap.String("kind", string(entry.Kind)))

	resp, err := r.writer.CreateTransaction(ctx, entry.Kind, &entry.Payload)

	var status *domain.ErrUpstreamStatus
	switch {
	case err == nil && (resp == nil || resp.Success == nil || *resp.Success):
		if err := r.outbox.MarkSent(ctx, entry.ID); err != nil {
			log.Error("failed to remove delivered entry", zap.Error(err))
		}
		return domain.OutcomeConfirmed

	case err == nil:
		log.Warn("finance API rejected queued transaction", zap.String("error", resp.Error))
		r.discard(ctx, entry.ID, log)
		return domain.OutcomeRejected

	case errors.As(err, &status) && status.Status >= 400 && status.Status < 500:
		log.Warn("finance API refused queued transaction", zap.Int("status", status.Status))
		r.discard(ctx, entry.ID, log)
		return domain.OutcomeRejected
	}

	next := r.now().Add(r.backoff(entry.Attempts))
	if markErr := r.outbox.MarkFailed(ctx, entry.ID, err.Error(), next); markErr != nil {
		log.Error("failed to reschedule entry", zap.Error(markErr))
	}
	log.Warn("queued transaction still undelivered",
		zap.Int("attempts", entry.Attempts+1),
		zap.Time("next_attempt", next),
		zap.Error(err),
	)
	return domain.OutcomeQueued
}

func (r *Replayer) discard(ctx context.Context, id string, log *zap.Logger) {
	if err := r.outbox.Discard(ctx, id); err != nil {
		log.Error("failed to discard entry", zap.Error(err))
	}
}

func (r *Replayer) backoff(attempts int) time.Duration {
	// 2^20 * InitialBackoff already exceeds any sane cap.
	if attempts > 20 {
		attempts = 20
	}
	d := resilience.Backoff(r.cfg.InitialBackoff, attempts)
	if d > r.cfg.MaxBackoff {
		d = r.cfg.MaxBackoff
	}
	return d
}

func (r *Replayer) refreshPending(ctx context.Context) {
	n, err := r.outbox.PendingCount(ctx, 0)
	if err != nil {
		r.logger.Warn("failed to count outbox entries", zap.Error(err))
		return
	}
	r.metrics.SetOutboxPending(n)
}
