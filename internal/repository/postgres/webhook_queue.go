package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
)

type webhookQueueRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWebhookQueueRepository creates a new webhook queue repository
func NewWebhookQueueRepository(db *sql.DB, logger *zap.Logger) *webhookQueueRepository {
	return &webhookQueueRepository{
		db:     db,
		logger: logger,
	}
}

const webhookColumns = `id, webhook_id, webhook_group, action, entity_id, external_reference, payload, attempts, processed, last_error, enqueued_at, processed_at`

func (r *webhookQueueRepository) Enqueue(ctx context.Context, ev *domain.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (webhook_id, webhook_group, action, entity_id, external_reference, payload, attempts, processed, last_error, enqueued_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, false, '', $7)
		RETURNING id
	`

	if ev.EnqueuedAt.IsZero() {
		ev.EnqueuedAt = time.Now()
	}

	err := r.db.QueryRowContext(ctx, query,
		ev.WebhookID,
		ev.Group,
		ev.Action,
		ev.EntityID,
		ev.ExternalReference,
		ev.Payload,
		ev.EnqueuedAt,
	).Scan(&ev.ID)
	if err != nil {
		r.logger.Error("Failed to enqueue webhook event", zap.String("webhook_id", ev.WebhookID), zap.Error(err))
		return err
	}
	return nil
}

// NextBatch returns unprocessed events that are at the head of their external
// reference's queue, oldest first. An unprocessed earlier event for the same
// reference blocks everything behind it, which is what keeps per-reference
// ordering strict even when the sender delivered out of order. Events without
// a reference (stock levels and the like) have no ordering lane and are
// always eligible, so one stuck stock event cannot block the rest.
func (r *webhookQueueRepository) NextBatch(ctx context.Context, limit int) ([]domain.WebhookEvent, error) {
	query := `
		SELECT ` + webhookColumns + `
		FROM webhook_events we
		WHERE NOT we.processed
		  AND (we.external_reference = '' OR NOT EXISTS (
			SELECT 1 FROM webhook_events older
			WHERE older.external_reference = we.external_reference
			  AND NOT older.processed
			  AND older.id < we.id
		  ))
		ORDER BY we.id ASC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to fetch webhook batch", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var events []domain.WebhookEvent
	for rows.Next() {
		var ev domain.WebhookEvent
		err := rows.Scan(
			&ev.ID,
			&ev.WebhookID,
			&ev.Group,
			&ev.Action,
			&ev.EntityID,
			&ev.ExternalReference,
			&ev.Payload,
			&ev.Attempts,
			&ev.Processed,
			&ev.LastError,
			&ev.EnqueuedAt,
			&ev.ProcessedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *webhookQueueRepository) MarkProcessed(ctx context.Context, id int64) error {
	query := `UPDATE webhook_events SET processed = true, processed_at = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, time.Now()); err != nil {
		r.logger.Error("Failed to mark webhook processed", zap.Int64("event_id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkFailed records a transient processing failure. Once attempts reach the
// ceiling the event is retired so it stops blocking its reference's queue;
// the last error stays on the row for operators.
func (r *webhookQueueRepository) MarkFailed(ctx context.Context, id int64, errMsg string, maxAttempts int) error {
	query := `
		UPDATE webhook_events
		SET attempts = attempts + 1,
			last_error = $2,
			processed = (attempts + 1 >= $3),
			processed_at = CASE WHEN attempts + 1 >= $3 THEN $4 ELSE processed_at END
		WHERE id = $1
	`

	if _, err := r.db.ExecContext(ctx, query, id, errMsg, maxAttempts, time.Now()); err != nil {
		r.logger.Error("Failed to record webhook failure", zap.Int64("event_id", id), zap.Error(err))
		return err
	}
	return nil
}
