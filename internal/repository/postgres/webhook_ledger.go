package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

type webhookLedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWebhookLedgerRepository creates a new webhook dedup ledger repository
func NewWebhookLedgerRepository(db *sql.DB, logger *zap.Logger) *webhookLedgerRepository {
	return &webhookLedgerRepository{
		db:     db,
		logger: logger,
	}
}

// Record inserts the webhook id and reports whether it was new. The unique
// index makes check-and-record one atomic statement, so two concurrent
// deliveries of the same id can never both pass the filter.
func (r *webhookLedgerRepository) Record(ctx context.Context, webhookID string) (bool, error) {
	query := `
		INSERT INTO webhook_ids (webhook_id, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (webhook_id) DO NOTHING
	`

	res, err := r.db.ExecContext(ctx, query, webhookID, time.Now())
	if err != nil {
		r.logger.Error("Failed to record webhook id", zap.String("webhook_id", webhookID), zap.Error(err))
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *webhookLedgerRepository) IsDuplicate(ctx context.Context, webhookID string) (bool, error) {
	query := `SELECT 1 FROM webhook_ids WHERE webhook_id = $1`

	var one int
	err := r.db.QueryRowContext(ctx, query, webhookID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to check webhook id", zap.String("webhook_id", webhookID), zap.Error(err))
		return false, err
	}
	return true, nil
}

// Forget removes a recorded id again. The ingress handler calls it when the
// durable enqueue failed after Record, so the sender's retry passes the
// filter instead of being swallowed as a duplicate.
func (r *webhookLedgerRepository) Forget(ctx context.Context, webhookID string) error {
	query := `DELETE FROM webhook_ids WHERE webhook_id = $1`

	if _, err := r.db.ExecContext(ctx, query, webhookID); err != nil {
		r.logger.Error("Failed to forget webhook id", zap.String("webhook_id", webhookID), zap.Error(err))
		return err
	}
	return nil
}

func (r *webhookLedgerRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM webhook_ids WHERE processed_at < $1`

	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		r.logger.Error("Failed to purge webhook ledger", zap.Error(err))
		return 0, err
	}
	return res.RowsAffected()
}
