package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

type syncStateRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSyncStateRepository creates a new sync state repository
func NewSyncStateRepository(db *sql.DB, logger *zap.Logger) *syncStateRepository {
	return &syncStateRepository{
		db:     db,
		logger: logger,
	}
}

const syncStateColumns = `
	order_id, wms_order_id, external_reference, sync_status,
	exported_at, webhook_processed_at, sync_in_progress_at, last_status_change, cancelled_at,
	items_sync_needed, status_sync_needed, shipping_hash,
	export_attempts, last_export_error,
	tracking_carrier, tracking_number, tracking_url,
	created_at, updated_at
`

func (r *syncStateRepository) Get(ctx context.Context, orderID int64) (*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM order_sync_state WHERE order_id = $1`
	return r.getOne(ctx, query, orderID)
}

func (r *syncStateRepository) GetByWMSOrderID(ctx context.Context, wmsOrderID string) (*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM order_sync_state WHERE wms_order_id = $1`
	return r.getOne(ctx, query, wmsOrderID)
}

func (r *syncStateRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.SyncState, error) {
	query := `SELECT ` + syncStateColumns + ` FROM order_sync_state WHERE external_reference = $1`
	return r.getOne(ctx, query, ref)
}

func (r *syncStateRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.SyncState, error) {
	state, err := scanSyncState(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get sync state", zap.Error(err))
		return nil, err
	}
	return state, nil
}

func (r *syncStateRepository) Upsert(ctx context.Context, state *domain.SyncState) error {
	query := `
		INSERT INTO order_sync_state (
			order_id, wms_order_id, external_reference, sync_status,
			exported_at, webhook_processed_at, sync_in_progress_at, last_status_change, cancelled_at,
			items_sync_needed, status_sync_needed, shipping_hash,
			export_attempts, last_export_error,
			tracking_carrier, tracking_number, tracking_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (order_id) DO UPDATE SET
			wms_order_id = EXCLUDED.wms_order_id,
			external_reference = EXCLUDED.external_reference,
			sync_status = EXCLUDED.sync_status,
			exported_at = EXCLUDED.exported_at,
			webhook_processed_at = EXCLUDED.webhook_processed_at,
			sync_in_progress_at = EXCLUDED.sync_in_progress_at,
			last_status_change = EXCLUDED.last_status_change,
			cancelled_at = EXCLUDED.cancelled_at,
			items_sync_needed = EXCLUDED.items_sync_needed,
			status_sync_needed = EXCLUDED.status_sync_needed,
			shipping_hash = EXCLUDED.shipping_hash,
			export_attempts = EXCLUDED.export_attempts,
			last_export_error = EXCLUDED.last_export_error,
			tracking_carrier = EXCLUDED.tracking_carrier,
			tracking_number = EXCLUDED.tracking_number,
			tracking_url = EXCLUDED.tracking_url,
			updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}
	state.UpdatedAt = now
	if state.SyncStatus == "" {
		state.SyncStatus = domain.SyncStatusNotExported
	}

	_, err := r.db.ExecContext(ctx, query,
		state.OrderID,
		nullString(state.WMSOrderID),
		nullString(state.ExternalReference),
		string(state.SyncStatus),
		state.ExportedAt,
		state.WebhookProcessedAt,
		state.SyncInProgressAt,
		state.LastStatusChange,
		state.CancelledAt,
		state.ItemsSyncNeeded,
		state.StatusSyncNeeded,
		state.ShippingHash,
		state.ExportAttempts,
		state.LastExportError,
		state.TrackingCarrier,
		state.TrackingNumber,
		state.TrackingURL,
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to upsert sync state", zap.Int64("order_id", state.OrderID), zap.Error(err))
		return err
	}
	return nil
}

// MarkExported binds the identity mapping. Idempotent: re-running with the
// same WMS order id only refreshes the timestamp; it never rebinds a row
// that already points at a different WMS order.
func (r *syncStateRepository) MarkExported(ctx context.Context, orderID int64, wmsOrderID, ref, shippingHash string) error {
	query := `
		UPDATE order_sync_state
		SET wms_order_id = $2,
			external_reference = $3,
			sync_status = $4,
			exported_at = $5,
			shipping_hash = $6,
			last_export_error = '',
			updated_at = $5
		WHERE order_id = $1
		  AND (wms_order_id IS NULL OR wms_order_id = $2)
	`

	res, err := r.db.ExecContext(ctx, query, orderID, wmsOrderID, ref, string(domain.SyncStatusExported), time.Now(), shippingHash)
	if err != nil {
		r.logger.Error("Failed to mark order exported", zap.Int64("order_id", orderID), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrEntityMismatch{OrderID: orderID, Received: wmsOrderID}
	}
	return nil
}

func (r *syncStateRepository) MarkWebhookProcessed(ctx context.Context, orderID int64) error {
	query := `
		UPDATE order_sync_state
		SET webhook_processed_at = $2, updated_at = $2
		WHERE order_id = $1
	`
	return r.exec(ctx, query, orderID, time.Now())
}

func (r *syncStateRepository) SetSyncInProgress(ctx context.Context, orderID int64, inProgress bool) error {
	if inProgress {
		query := `UPDATE order_sync_state SET sync_in_progress_at = $2, updated_at = $2 WHERE order_id = $1`
		return r.exec(ctx, query, orderID, time.Now())
	}
	query := `UPDATE order_sync_state SET sync_in_progress_at = NULL, updated_at = $2 WHERE order_id = $1`
	return r.exec(ctx, query, orderID, time.Now())
}

func (r *syncStateRepository) SetSyncStatus(ctx context.Context, orderID int64, status domain.SyncStatus) error {
	query := `
		UPDATE order_sync_state
		SET sync_status = $2, last_status_change = $3, updated_at = $3
		WHERE order_id = $1
	`
	return r.exec(ctx, query, orderID, string(status), time.Now())
}

// SetTracking stores the tracking fields a shipment webhook carried. Fields
// the webhook omitted arrive as nil and keep whatever is already stored, so
// a carrier-only followup never erases an earlier tracking number.
func (r *syncStateRepository) SetTracking(ctx context.Context, orderID int64, carrier, number, url *string) error {
	query := `
		UPDATE order_sync_state
		SET tracking_carrier = COALESCE($2, tracking_carrier),
			tracking_number = COALESCE($3, tracking_number),
			tracking_url = COALESCE($4, tracking_url),
			updated_at = $5
		WHERE order_id = $1
	`
	return r.exec(ctx, query, orderID, carrier, number, url, time.Now())
}

func (r *syncStateRepository) RecordExportFailure(ctx context.Context, orderID int64, message string) error {
	query := `
		UPDATE order_sync_state
		SET export_attempts = export_attempts + 1, last_export_error = $2, updated_at = $3
		WHERE order_id = $1
	`
	return r.exec(ctx, query, orderID, message, time.Now())
}

// ClearExport removes the identity mapping so the order can be re-exported
// after a WMS-side cancellation. The external reference is kept.
func (r *syncStateRepository) ClearExport(ctx context.Context, orderID int64) error {
	query := `
		UPDATE order_sync_state
		SET wms_order_id = NULL,
			sync_status = $2,
			exported_at = NULL,
			updated_at = $3
		WHERE order_id = $1
	`
	return r.exec(ctx, query, orderID, string(domain.SyncStatusNotExported), time.Now())
}

func (r *syncStateRepository) ListFailedExports(ctx context.Context, limit int) ([]domain.SyncState, error) {
	query := `
		SELECT ` + syncStateColumns + `
		FROM order_sync_state
		WHERE last_export_error <> ''
		ORDER BY updated_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list failed exports", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var states []domain.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}
	return states, rows.Err()
}

func (r *syncStateRepository) exec(ctx context.Context, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Sync state write failed", zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if id, ok := args[0].(int64); ok {
			return &errors.ErrNotFound{Resource: "sync state", ID: strconv.FormatInt(id, 10)}
		}
		return &errors.ErrNotFound{Resource: "sync state", ID: ""}
	}
	return nil
}

func scanSyncState(row rowScanner) (*domain.SyncState, error) {
	var (
		state           domain.SyncState
		wmsOrderID, ref sql.NullString
	)

	err := row.Scan(
		&state.OrderID,
		&wmsOrderID,
		&ref,
		&state.SyncStatus,
		&state.ExportedAt,
		&state.WebhookProcessedAt,
		&state.SyncInProgressAt,
		&state.LastStatusChange,
		&state.CancelledAt,
		&state.ItemsSyncNeeded,
		&state.StatusSyncNeeded,
		&state.ShippingHash,
		&state.ExportAttempts,
		&state.LastExportError,
		&state.TrackingCarrier,
		&state.TrackingNumber,
		&state.TrackingURL,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if wmsOrderID.Valid {
		state.WMSOrderID = wmsOrderID.String
	}
	if ref.Valid {
		state.ExternalReference = ref.String
	}
	return &state, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
