package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
)

// ExportEligibility decides whether an order qualifies for a first export
type ExportEligibility interface {
	ShouldExportOrder(order *domain.Order, state *domain.SyncState) bool
}

// OrderHooks receives storefront order events and turns the eligible ones
// into outbound queue work. It is constructed once at startup and wired into
// the event sources by the composition root; there is no global registration.
type OrderHooks struct {
	stateMgr    *StateManager
	eligibility ExportEligibility
	states      repository.SyncStateStore
	queue       repository.OutboundQueue
	syncCfg     config.SyncConfig
	logger      *zap.Logger
}

// NewOrderHooks creates the order event hook handler
func NewOrderHooks(
	stateMgr *StateManager,
	eligibility ExportEligibility,
	states repository.SyncStateStore,
	queue repository.OutboundQueue,
	syncCfg config.SyncConfig,
	logger *zap.Logger,
) *OrderHooks {
	return &OrderHooks{
		stateMgr:    stateMgr,
		eligibility: eligibility,
		states:      states,
		queue:       queue,
		syncCfg:     syncCfg,
		logger:      logger,
	}
}

// OrderUpdated fires on any order change. Exported orders get a sync task,
// unexported ones an export task. Multiple hooks firing for the same logical
// event collapse in the queue's (entity, action) dedup.
func (h *OrderHooks) OrderUpdated(ctx context.Context, order *domain.Order) {
	state, ok := h.gate(ctx, order)
	if !ok {
		return
	}

	if state != nil && state.Exported() {
		h.enqueue(ctx, order.ID, domain.QueueActionSync, domain.PriorityExport)
		return
	}
	if !h.eligibility.ShouldExportOrder(order, state) {
		return
	}
	h.enqueue(ctx, order.ID, domain.QueueActionExport, domain.PriorityExport)
}

// StatusChanged fires on an order status transition. The order carries the
// new status already; from and to describe the transition itself.
func (h *OrderHooks) StatusChanged(ctx context.Context, order *domain.Order, from, to domain.OrderStatus) {
	if to == domain.OrderStatusCancelled || to == domain.OrderStatusRefunded {
		h.OrderCancelled(ctx, order)
		return
	}

	state, ok := h.gate(ctx, order)
	if !ok {
		return
	}

	if state == nil || !state.Exported() {
		if h.eligibility.ShouldExportOrder(order, state) {
			h.enqueue(ctx, order.ID, domain.QueueActionExport, domain.PriorityExport)
		}
		return
	}
	h.enqueue(ctx, order.ID, domain.QueueActionSync, domain.PriorityExport)
}

// OrderCancelled fires when the storefront cancels an order. Cancel tasks
// are enqueued above exports so a pending export never wins over a cancel.
func (h *OrderHooks) OrderCancelled(ctx context.Context, order *domain.Order) {
	state, ok := h.gate(ctx, order)
	if !ok || state == nil || !state.Exported() {
		return
	}
	h.enqueue(ctx, order.ID, domain.QueueActionCancel, domain.PriorityCancel)
}

// gate runs the state manager's skip check plus the initial-sync gate.
// It returns the loaded state (nil when the order has never been synced)
// and whether processing may continue.
func (h *OrderHooks) gate(ctx context.Context, order *domain.Order) (*domain.SyncState, bool) {
	if !h.syncCfg.InitialSyncDone {
		return nil, false
	}

	state, err := h.states.Get(ctx, order.ID)
	if err != nil {
		h.logger.Error("Hook could not load sync state", zap.Int64("order_id", order.ID), zap.Error(err))
		return nil, false
	}

	if h.stateMgr.ShouldSkipWMSProcessing(ctx, order, state) {
		h.logger.Debug("Order event skipped by sync gate", zap.Int64("order_id", order.ID))
		return nil, false
	}
	return state, true
}

func (h *OrderHooks) enqueue(ctx context.Context, orderID int64, action domain.QueueAction, priority int) {
	inserted, err := h.queue.Enqueue(ctx, domain.EntityTypeOrder, orderID, action, priority)
	if err != nil {
		h.logger.Error("Failed to enqueue outbound task",
			zap.Int64("order_id", orderID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return
	}
	if !inserted {
		h.logger.Debug("Outbound task already queued",
			zap.Int64("order_id", orderID),
			zap.String("action", string(action)),
		)
	}
}
