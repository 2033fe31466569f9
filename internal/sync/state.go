package sync

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
)

type ctxKey int

const hooksSuspendedKey ctxKey = iota

// SuspendHooks returns a context on which the order event hooks are
// suspended. Every local write the inbound sync path performs is done under
// a suspended context, so the storefront's own "order changed" hooks cannot
// re-enqueue an export for a change that came from the WMS in the first
// place. The marker dies with the context: there is no flag to forget to
// clear.
func SuspendHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, hooksSuspendedKey, true)
}

// HooksSuspended reports whether hooks are suspended on this context
func HooksSuspended(ctx context.Context) bool {
	suspended, _ := ctx.Value(hooksSuspendedKey).(bool)
	return suspended
}

// StateManager is the single authority on whether an order may be touched by
// automated sync right now, and on the idempotent exported / webhook-processed
// markers.
type StateManager struct {
	states repository.SyncStateStore
	cfg    config.SyncConfig
	logger *zap.Logger
}

// NewStateManager creates a new order state manager
func NewStateManager(states repository.SyncStateStore, cfg config.SyncConfig, logger *zap.Logger) *StateManager {
	return &StateManager{
		states: states,
		cfg:    cfg,
		logger: logger,
	}
}

// ShouldSkipWMSProcessing is the loop-prevention gate consulted by every
// order event hook before it enqueues outbound work. True when:
//   - hooks are suspended on this context (a WMS-driven write is in flight),
//   - the order was marked webhook-processed earlier in this request,
//   - a sync-in-progress marker persisted by another process is still fresh,
//   - the order has no physical line items.
//
// Pure read; callers combine it with the initial-sync configuration gate.
func (m *StateManager) ShouldSkipWMSProcessing(ctx context.Context, order *domain.Order, state *domain.SyncState) bool {
	if HooksSuspended(ctx) {
		return true
	}
	if state != nil {
		if state.WebhookJustProcessed {
			return true
		}
		if state.SyncInProgressAt != nil && time.Since(*state.SyncInProgressAt) < m.cfg.SuspendStaleAfter {
			return true
		}
	}
	if order != nil && !order.HasPhysicalLines() {
		return true
	}
	return false
}

// BeginInboundWrite persists the cross-request sync-in-progress marker and
// returns a restore func. Callers must defer the restore so the marker is
// released on every path; a marker that somehow survives a crash is ignored
// after SuspendStaleAfter anyway.
func (m *StateManager) BeginInboundWrite(ctx context.Context, orderID int64) (context.Context, func()) {
	if err := m.states.SetSyncInProgress(ctx, orderID, true); err != nil {
		m.logger.Warn("Failed to set sync-in-progress marker", zap.Int64("order_id", orderID), zap.Error(err))
	}
	suspended := SuspendHooks(ctx)
	return suspended, func() {
		if err := m.states.SetSyncInProgress(ctx, orderID, false); err != nil {
			m.logger.Warn("Failed to clear sync-in-progress marker", zap.Int64("order_id", orderID), zap.Error(err))
		}
	}
}

// MarkAsExported binds the identity mapping and export timestamp.
// Idempotent: repeating with the same WMS order id only refreshes the
// timestamp.
func (m *StateManager) MarkAsExported(ctx context.Context, orderID int64, wmsOrderID, externalReference, shippingHash string) error {
	return m.states.MarkExported(ctx, orderID, wmsOrderID, externalReference, shippingHash)
}

// MarkWebhookProcessed sets the processed marker consumed by
// ShouldSkipWMSProcessing, both persisted and on the in-memory state for the
// remainder of this request.
func (m *StateManager) MarkWebhookProcessed(ctx context.Context, state *domain.SyncState) error {
	if err := m.states.MarkWebhookProcessed(ctx, state.OrderID); err != nil {
		return err
	}
	now := time.Now()
	state.WebhookProcessedAt = &now
	state.WebhookJustProcessed = true
	return nil
}

// WMSOrderID returns the WMS order id bound to the local order, if any
func (m *StateManager) WMSOrderID(ctx context.Context, orderID int64) (string, error) {
	state, err := m.states.Get(ctx, orderID)
	if err != nil {
		return "", err
	}
	if state == nil {
		return "", nil
	}
	return state.WMSOrderID, nil
}
