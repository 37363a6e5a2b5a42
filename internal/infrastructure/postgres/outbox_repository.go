package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bibhealth/strokerisk/pkg/events"
	pgutil "github.com/bibhealth/strokerisk/pkg/postgres"
)

// OutboxRepository implements events.OutboxRepository on the outbox table.
// Built on a pgx.Tx it writes in that transaction.
type OutboxRepository struct {
	db pgutil.Querier
}

var _ events.OutboxRepository = (*OutboxRepository)(nil)

// NewOutboxRepository creates an outbox repository over db.
func NewOutboxRepository(db pgutil.Querier) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Store inserts entries. An entry whose id is already stored is skipped.
func (r *OutboxRepository) Store(ctx context.Context, entries []events.OutboxEntry) error {
	for _, e := range entries {
		_, err := r.db.Exec(ctx, `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO NOTHING
		`, e.ID, e.AggregateID, e.AggregateType, e.EventType, e.Payload, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

// FetchUnpublished returns up to batchSize unpublished entries, oldest first.
func (r *OutboxRepository) FetchUnpublished(ctx context.Context, batchSize int) ([]events.OutboxEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, aggregate_id, aggregate_type, event_type, payload, created_at
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id
		LIMIT $1
	`, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to query outbox: %w", err)
	}
	defer rows.Close()

	var entries []events.OutboxEntry
	for rows.Next() {
		var e events.OutboxEntry
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate outbox: %w", err)
	}
	return entries, nil
}

// MarkPublished stamps ids as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	_, err := r.db.Exec(ctx, `
		UPDATE outbox SET published_at = now()
		WHERE id = ANY($1::uuid[]) AND published_at IS NULL
	`, keys)
	if err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	return nil
}
