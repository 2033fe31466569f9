package repository

import (
	"context"
	"time"

	"github.com/jafarshop/wmsbridge/internal/domain"
)

// OrderStore is the storefront's persistent order storage as the sync core
// needs it: load, status write, append-only notes.
type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	AddNote(ctx context.Context, id int64, text string) error
}

// ProductStore is the storefront's catalog storage
type ProductStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

// SyncStateStore persists the per-order identity mapping and sync flags
type SyncStateStore interface {
	Get(ctx context.Context, orderID int64) (*domain.SyncState, error)
	GetByWMSOrderID(ctx context.Context, wmsOrderID string) (*domain.SyncState, error)
	GetByExternalReference(ctx context.Context, ref string) (*domain.SyncState, error)
	Upsert(ctx context.Context, state *domain.SyncState) error
	MarkExported(ctx context.Context, orderID int64, wmsOrderID, ref, shippingHash string) error
	MarkWebhookProcessed(ctx context.Context, orderID int64) error
	SetSyncInProgress(ctx context.Context, orderID int64, inProgress bool) error
	SetSyncStatus(ctx context.Context, orderID int64, status domain.SyncStatus) error
	SetTracking(ctx context.Context, orderID int64, carrier, number, url *string) error
	RecordExportFailure(ctx context.Context, orderID int64, message string) error
	ClearExport(ctx context.Context, orderID int64) error
	ListFailedExports(ctx context.Context, limit int) ([]domain.SyncState, error)
}

// OutboundQueue is the persisted, prioritized, retryable outbound work queue
type OutboundQueue interface {
	// Enqueue inserts a pending item unless one already exists for the same
	// (entity, action) pair in a non-terminal state; returns false then.
	Enqueue(ctx context.Context, entityType domain.EntityType, entityID int64, action domain.QueueAction, priority int) (bool, error)
	// ClaimPending atomically flips up to limit pending items to processing
	// and returns them, priority descending then enqueue time ascending.
	ClaimPending(ctx context.Context, entityType domain.EntityType, limit int) ([]domain.QueueItem, error)
	MarkCompleted(ctx context.Context, id int64) error
	// MarkFailedOrRetry re-queues as pending while attempts remain below
	// maxAttempts, otherwise moves to terminal failed. Returns true when the
	// item went terminal.
	MarkFailedOrRetry(ctx context.Context, id int64, errMsg string, maxAttempts int) (bool, error)
	// ResetFailed is the explicit operator retry for a terminal-failed item.
	ResetFailed(ctx context.Context, id int64) (bool, error)
	ListByStatus(ctx context.Context, status domain.QueueStatus, limit int) ([]domain.QueueItem, error)
	ListByEntity(ctx context.Context, entityType domain.EntityType, entityID int64) ([]domain.QueueItem, error)
}

// WebhookQueue is the durable per-reference FIFO of inbound webhooks
type WebhookQueue interface {
	Enqueue(ctx context.Context, ev *domain.WebhookEvent) error
	// NextBatch returns unprocessed events that are at the head of their
	// external reference's queue, oldest first.
	NextBatch(ctx context.Context, limit int) ([]domain.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id int64) error
	// MarkFailed records a processing failure; after maxAttempts the event
	// is retired (marked processed with the error kept for inspection).
	MarkFailed(ctx context.Context, id int64, errMsg string, maxAttempts int) error
}

// WebhookLedger is the duplicate filter over webhook ids
type WebhookLedger interface {
	// Record inserts the webhook id; returns false if it was already seen.
	Record(ctx context.Context, webhookID string) (bool, error)
	IsDuplicate(ctx context.Context, webhookID string) (bool, error)
	// Forget undoes Record when the event could not be enqueued, so the
	// sender's retry is not mistaken for a duplicate.
	Forget(ctx context.Context, webhookID string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StockStore mirrors WMS stock levels locally
type StockStore interface {
	Upsert(ctx context.Context, articleCode string, quantity int) error
	Get(ctx context.Context, articleCode string) (*domain.StockLevel, error)
}

// Repositories aggregates all storage dependencies
type Repositories struct {
	Orders        OrderStore
	Products      ProductStore
	SyncState     SyncStateStore
	OutboundQueue OutboundQueue
	WebhookQueue  WebhookQueue
	WebhookLedger WebhookLedger
	Stock         StockStore
}
