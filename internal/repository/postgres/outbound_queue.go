package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
)

type outboundQueueRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOutboundQueueRepository creates a new outbound queue repository
func NewOutboundQueueRepository(db *sql.DB, logger *zap.Logger) *outboundQueueRepository {
	return &outboundQueueRepository{
		db:     db,
		logger: logger,
	}
}

const queueColumns = `id, entity_type, entity_id, action, priority, status, attempts, last_error, created_at, updated_at`

// Enqueue inserts a pending item unless a pending or processing item for the
// same (entity, action) already exists. The partial unique index makes the
// check and the insert a single atomic statement, so two concurrent hooks
// firing for the same logical event cannot both insert.
func (r *outboundQueueRepository) Enqueue(ctx context.Context, entityType domain.EntityType, entityID int64, action domain.QueueAction, priority int) (bool, error) {
	query := `
		INSERT INTO outbound_queue (entity_type, entity_id, action, priority, status, attempts, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, '', $6, $6)
		ON CONFLICT (entity_type, entity_id, action) WHERE status IN ('pending', 'processing')
		DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, string(entityType), entityID, string(action), priority, string(domain.QueueStatusPending), time.Now())
	if err != nil {
		r.logger.Error("Failed to enqueue outbound task",
			zap.String("entity_type", string(entityType)),
			zap.Int64("entity_id", entityID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimPending flips up to limit pending items to processing in one
// conditional update. Overlapping worker runs cannot double-claim: the claim
// is a single statement and SKIP LOCKED skips rows another run is taking.
func (r *outboundQueueRepository) ClaimPending(ctx context.Context, entityType domain.EntityType, limit int) ([]domain.QueueItem, error) {
	query := `
		UPDATE outbound_queue
		SET status = 'processing', updated_at = $3
		WHERE id IN (
			SELECT id FROM outbound_queue
			WHERE status = 'pending' AND entity_type = $1
			ORDER BY priority DESC, created_at ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + queueColumns

	rows, err := r.db.QueryContext(ctx, query, string(entityType), limit, time.Now())
	if err != nil {
		r.logger.Error("Failed to claim pending queue items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

func (r *outboundQueueRepository) MarkCompleted(ctx context.Context, id int64) error {
	query := `UPDATE outbound_queue SET status = 'completed', updated_at = $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id, time.Now()); err != nil {
		r.logger.Error("Failed to mark queue item completed", zap.Int64("item_id", id), zap.Error(err))
		return err
	}
	return nil
}

// MarkFailedOrRetry increments attempts and re-queues the item as pending
// while attempts remain below the ceiling; at the ceiling it goes terminal
// failed and stays put until an operator resets it.
func (r *outboundQueueRepository) MarkFailedOrRetry(ctx context.Context, id int64, errMsg string, maxAttempts int) (bool, error) {
	query := `
		UPDATE outbound_queue
		SET attempts = attempts + 1,
			last_error = $2,
			status = CASE WHEN attempts + 1 >= $3 THEN 'failed' ELSE 'pending' END,
			updated_at = $4
		WHERE id = $1
		RETURNING status
	`

	var status string
	err := r.db.QueryRowContext(ctx, query, id, errMsg, maxAttempts, time.Now()).Scan(&status)
	if err != nil {
		r.logger.Error("Failed to record queue item failure", zap.Int64("item_id", id), zap.Error(err))
		return false, err
	}
	return status == string(domain.QueueStatusFailed), nil
}

func (r *outboundQueueRepository) ResetFailed(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE outbound_queue
		SET status = 'pending', attempts = 0, last_error = '', updated_at = $2
		WHERE id = $1 AND status = 'failed'
	`

	res, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		r.logger.Error("Failed to reset queue item", zap.Int64("item_id", id), zap.Error(err))
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *outboundQueueRepository) ListByStatus(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM outbound_queue
		WHERE status = $1
		ORDER BY priority DESC, created_at ASC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, string(status), limit)
	if err != nil {
		r.logger.Error("Failed to list queue items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

func (r *outboundQueueRepository) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID int64) ([]domain.QueueItem, error) {
	query := `
		SELECT ` + queueColumns + `
		FROM outbound_queue
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		r.logger.Error("Failed to list queue items for entity", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanQueueItems(rows)
}

func scanQueueItems(rows *sql.Rows) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	for rows.Next() {
		var item domain.QueueItem
		err := rows.Scan(
			&item.ID,
			&item.EntityType,
			&item.EntityID,
			&item.Action,
			&item.Priority,
			&item.Status,
			&item.Attempts,
			&item.LastError,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
