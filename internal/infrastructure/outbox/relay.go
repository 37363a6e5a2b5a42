// Package outbox relays events stored in the outbox table to the message
// broker. Delivery is at least once: an entry is marked published only after
// the broker accepted it, so consumers deduplicate by event id.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/internal/domain/port"
	"github.com/bibhealth/strokerisk/pkg/events"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay polls the outbox and publishes unpublished entries in order.
type Relay struct {
	repo      events.OutboxRepository
	publisher port.EventPublisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// Config tunes the relay. Zero values pick the defaults.
type Config struct {
	Interval  time.Duration
	BatchSize int
}

// NewRelay creates a Relay.
func NewRelay(repo events.OutboxRepository, publisher port.EventPublisher, cfg Config, logger *slog.Logger) *Relay {
	r := &Relay{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
	}
	if r.interval <= 0 {
		r.interval = defaultInterval
	}
	if r.batchSize <= 0 {
		r.batchSize = defaultBatchSize
	}
	return r
}

// RunOnce publishes one batch and returns how many entries it published.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	entries, err := r.repo.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	if err := r.publisher.Publish(ctx, entries...); err != nil {
		return 0, err
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := r.repo.MarkPublished(ctx, ids); err != nil {
		return 0, fmt.Errorf("published %d events but could not mark them: %w", len(ids), err)
	}
	return len(entries), nil
}

// Run drains the outbox every interval until ctx is canceled. A full batch
// is followed immediately by the next one.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("outbox relay starting", "interval", r.interval, "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		n, err := r.RunOnce(ctx)
		if err != nil && ctx.Err() == nil {
			r.logger.Error("outbox relay failed", "error", err)
		}
		if n > 0 {
			r.logger.Debug("outbox events published", "count", n)
		}
		if err == nil && n == r.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info("outbox relay stopped")
			return
		case <-ticker.C:
		}
	}
}
