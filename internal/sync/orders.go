package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/wms"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

var centFactor = decimal.NewFromInt(100)

// OrderAPI is the slice of the WMS client the order sync manager needs
type OrderAPI interface {
	CreateOrder(ctx context.Context, payload wms.OrderPayload) (*wms.Order, error)
	UpdateOrder(ctx context.Context, wmsOrderID string, payload wms.OrderPayload) (*wms.Order, error)
	CancelOrder(ctx context.Context, wmsOrderID string) error
}

// OrderSyncManager owns export, cancellation and inbound update logic for
// orders. It is the only component that calls WMS order endpoints.
type OrderSyncManager struct {
	orders   repository.OrderStore
	states   repository.SyncStateStore
	stateMgr *StateManager
	api      OrderAPI
	syncCfg  config.SyncConfig
	wmsCfg   config.WMSConfig
	logger   *zap.Logger
}

// NewOrderSyncManager creates a new order sync manager
func NewOrderSyncManager(
	orders repository.OrderStore,
	states repository.SyncStateStore,
	stateMgr *StateManager,
	api OrderAPI,
	syncCfg config.SyncConfig,
	wmsCfg config.WMSConfig,
	logger *zap.Logger,
) *OrderSyncManager {
	return &OrderSyncManager{
		orders:   orders,
		states:   states,
		stateMgr: stateMgr,
		api:      api,
		syncCfg:  syncCfg,
		wmsCfg:   wmsCfg,
		logger:   logger,
	}
}

// ProcessOrderExport exports a local order to the WMS. Already-exported
// orders are updated instead of re-created, which also makes the operation
// safe under a race between an admin-triggered and a queue-triggered export:
// the exported check runs at call time, and MarkAsExported refuses to rebind
// an order that meanwhile got a different WMS id.
func (m *OrderSyncManager) ProcessOrderExport(ctx context.Context, orderID int64) ExportResult {
	order, err := m.orders.GetByID(ctx, orderID)
	if err != nil {
		return ExportResult{Err: err}
	}

	state, err := m.states.Get(ctx, orderID)
	if err != nil {
		return ExportResult{Err: err}
	}
	if state == nil {
		state = &domain.SyncState{
			OrderID:           orderID,
			ExternalReference: externalReference(order, m.syncCfg),
			SyncStatus:        domain.SyncStatusNotExported,
		}
		if err := m.states.Upsert(ctx, state); err != nil {
			return ExportResult{Err: err}
		}
	}

	if state.Exported() {
		return m.updateExportedOrder(ctx, order, state)
	}

	payload, err := buildOrderPayload(order, m.syncCfg, m.wmsCfg)
	if err != nil {
		m.recordExportFailure(ctx, orderID, err)
		return ExportResult{Err: err}
	}

	created, err := m.api.CreateOrder(ctx, payload)
	if err != nil {
		m.recordExportFailure(ctx, orderID, err)
		return ExportResult{Err: err}
	}

	if err := m.stateMgr.MarkAsExported(ctx, orderID, created.ID, payload.ExternalReference, shippingHash(payload.ShippingAddress)); err != nil {
		// A concurrent export already bound this order to another WMS id.
		m.logger.Error("Export raced: order already bound to a different WMS id",
			zap.Int64("order_id", orderID),
			zap.String("wms_order_id", created.ID),
			zap.Error(err),
		)
		return ExportResult{Err: err}
	}

	if err := m.orders.AddNote(ctx, orderID, fmt.Sprintf("Order exported to WMS as %s", created.ID)); err != nil {
		m.logger.Warn("Failed to append export note", zap.Int64("order_id", orderID), zap.Error(err))
	}

	m.logger.Info("Order exported",
		zap.Int64("order_id", orderID),
		zap.String("wms_order_id", created.ID),
		zap.String("external_reference", payload.ExternalReference),
	)
	return ExportResult{Success: true, WMSOrderID: created.ID}
}

// updateExportedOrder pushes the current order document to the WMS when
// something export-relevant changed since the last send.
func (m *OrderSyncManager) updateExportedOrder(ctx context.Context, order *domain.Order, state *domain.SyncState) ExportResult {
	payload, err := buildOrderPayload(order, m.syncCfg, m.wmsCfg)
	if err != nil {
		m.recordExportFailure(ctx, order.ID, err)
		return ExportResult{Err: err}
	}

	hash := shippingHash(payload.ShippingAddress)
	if hash == state.ShippingHash && !state.ItemsSyncNeeded && !state.StatusSyncNeeded {
		return ExportResult{Success: true, Skipped: true, WMSOrderID: state.WMSOrderID}
	}

	if _, err := m.api.UpdateOrder(ctx, state.WMSOrderID, payload); err != nil {
		m.recordExportFailure(ctx, order.ID, err)
		return ExportResult{Err: err}
	}

	state.ShippingHash = hash
	state.ItemsSyncNeeded = false
	state.StatusSyncNeeded = false
	state.LastExportError = ""
	if err := m.states.Upsert(ctx, state); err != nil {
		return ExportResult{Err: err}
	}

	m.logger.Info("Order update pushed to WMS",
		zap.Int64("order_id", order.ID),
		zap.String("wms_order_id", state.WMSOrderID),
	)
	return ExportResult{Success: true, WMSOrderID: state.WMSOrderID}
}

// ProcessOrderCancellation cancels the WMS order. A no-op, not an error,
// when the order was never exported.
func (m *OrderSyncManager) ProcessOrderCancellation(ctx context.Context, orderID int64) Result {
	state, err := m.states.Get(ctx, orderID)
	if err != nil {
		return failure(err)
	}
	if state == nil || !state.Exported() {
		m.logger.Debug("Cancellation skipped: order never exported", zap.Int64("order_id", orderID))
		return skipped()
	}
	if state.SyncStatus == domain.SyncStatusCancelled {
		return skipped()
	}

	if err := m.api.CancelOrder(ctx, state.WMSOrderID); err != nil {
		return failure(err)
	}

	now := time.Now()
	state.SyncStatus = domain.SyncStatusCancelled
	state.CancelledAt = &now
	state.LastStatusChange = &now
	if err := m.states.Upsert(ctx, state); err != nil {
		return failure(err)
	}

	if err := m.orders.AddNote(ctx, orderID, fmt.Sprintf("WMS order %s cancelled", state.WMSOrderID)); err != nil {
		m.logger.Warn("Failed to append cancellation note", zap.Int64("order_id", orderID), zap.Error(err))
	}

	m.logger.Info("WMS order cancelled", zap.Int64("order_id", orderID), zap.String("wms_order_id", state.WMSOrderID))
	return success()
}

// ProcessWebhookOrderEvent applies an inbound order webhook to the local
// order. Missing references and entity-id mismatches are hard errors; an
// unresolvable reference is a normal non-fatal outcome, since the order may
// belong to another storefront sharing the WMS account.
func (m *OrderSyncManager) ProcessWebhookOrderEvent(ctx context.Context, action string, payload *wms.WebhookPayload) Result {
	ref := strings.TrimSpace(payload.Body.ExternalReference)
	if ref == "" {
		return failure(&errors.ErrMissingReference{})
	}

	state, err := m.resolveState(ctx, ref, payload.EntityID)
	if err != nil {
		return failure(err)
	}
	if state == nil {
		m.logger.Info("Webhook references unknown order",
			zap.String("external_reference", ref),
			zap.String("entity_id", payload.EntityID),
		)
		return skipped()
	}

	if state.WMSOrderID != "" && payload.EntityID != "" && state.WMSOrderID != payload.EntityID {
		return failure(&errors.ErrEntityMismatch{
			OrderID:  state.OrderID,
			StoredID: state.WMSOrderID,
			Received: payload.EntityID,
		})
	}

	order, err := m.orders.GetByID(ctx, state.OrderID)
	if err != nil {
		return failure(err)
	}

	// Everything from here writes locally under suspended hooks so the
	// storefront's own change events cannot bounce this update back out.
	ctx, restore := m.stateMgr.BeginInboundWrite(ctx, state.OrderID)
	defer restore()

	if err := m.applyOrderWebhook(ctx, order, state, payload); err != nil {
		return failure(err)
	}

	if err := m.stateMgr.MarkWebhookProcessed(ctx, state); err != nil {
		return failure(err)
	}
	return success()
}

// applyOrderWebhook maps the WMS status onto the local lifecycle and
// persists metadata and a note only when the status actually changed.
func (m *OrderSyncManager) applyOrderWebhook(ctx context.Context, order *domain.Order, state *domain.SyncState, payload *wms.WebhookPayload) error {
	wmsStatus := payload.Body.Status

	if state.SyncStatus.Terminal() {
		// Shipped and cancelled orders never move back; record only.
		return m.orders.AddNote(ctx, order.ID, fmt.Sprintf("WMS reported status %q after order reached %s", wmsStatus, state.SyncStatus))
	}

	mapping := mapWMSStatus(wmsStatus)
	switch mapping.action {
	case actionCancel:
		return m.applyCancellation(ctx, order, state)
	case actionShip:
		return m.applyShipment(ctx, order, state, payload)
	case actionHold:
		return m.applyHold(ctx, order, state, mapping, payload)
	case actionStatusChange:
		return m.applyStatusChange(ctx, order, state, mapping, wmsStatus)
	default:
		m.logger.Warn("Unrecognized WMS order status",
			zap.Int64("order_id", order.ID),
			zap.String("wms_status", wmsStatus),
		)
		return m.orders.AddNote(ctx, order.ID, fmt.Sprintf("WMS sent unrecognized order status %q; no local change applied", wmsStatus))
	}
}

func (m *OrderSyncManager) applyCancellation(ctx context.Context, order *domain.Order, state *domain.SyncState) error {
	if state.SyncStatus == domain.SyncStatusCancelled {
		return nil
	}
	if err := m.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	state.SyncStatus = domain.SyncStatusCancelled
	state.CancelledAt = &now
	state.LastStatusChange = &now
	if err := m.states.Upsert(ctx, state); err != nil {
		return err
	}
	return m.orders.AddNote(ctx, order.ID, "Order cancelled by WMS")
}

func (m *OrderSyncManager) applyShipment(ctx context.Context, order *domain.Order, state *domain.SyncState, payload *wms.WebhookPayload) error {
	if err := m.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusCompleted); err != nil {
		return err
	}

	body := payload.Body
	var carrier, number, url *string
	if body.TrackingCarrier != "" {
		carrier = &body.TrackingCarrier
	}
	if body.TrackingNumber != "" {
		number = &body.TrackingNumber
	}
	if body.TrackingURL != "" {
		url = &body.TrackingURL
	}
	if err := m.states.SetTracking(ctx, order.ID, carrier, number, url); err != nil {
		return err
	}
	if err := m.states.SetSyncStatus(ctx, order.ID, domain.SyncStatusShipped); err != nil {
		return err
	}
	state.SyncStatus = domain.SyncStatusShipped

	note := "Order shipped by WMS"
	if body.TrackingNumber != "" {
		note = fmt.Sprintf("Order shipped by WMS, tracking %s", body.TrackingNumber)
	}
	return m.orders.AddNote(ctx, order.ID, note)
}

func (m *OrderSyncManager) applyHold(ctx context.Context, order *domain.Order, state *domain.SyncState, mapping statusMapping, payload *wms.WebhookPayload) error {
	if state.SyncStatus == mapping.syncStatus {
		return nil
	}
	if err := m.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusOnHold); err != nil {
		return err
	}
	if err := m.states.SetSyncStatus(ctx, order.ID, mapping.syncStatus); err != nil {
		return err
	}
	state.SyncStatus = mapping.syncStatus

	note := fmt.Sprintf("Order put on hold: WMS reported %s", payload.Body.Status)
	if payload.Body.Reason != "" {
		note += " (" + payload.Body.Reason + ")"
	}
	return m.orders.AddNote(ctx, order.ID, note)
}

func (m *OrderSyncManager) applyStatusChange(ctx context.Context, order *domain.Order, state *domain.SyncState, mapping statusMapping, wmsStatus string) error {
	if state.SyncStatus == mapping.syncStatus {
		// Nothing changed since last observed; skip the write and the note.
		return nil
	}
	if order.Status != mapping.orderStatus {
		if err := m.orders.UpdateStatus(ctx, order.ID, mapping.orderStatus); err != nil {
			return err
		}
	}
	if err := m.states.SetSyncStatus(ctx, order.ID, mapping.syncStatus); err != nil {
		return err
	}
	state.SyncStatus = mapping.syncStatus
	return m.orders.AddNote(ctx, order.ID, fmt.Sprintf("WMS status changed to %s", wmsStatus))
}

// resolveState locates the sync state by external reference first, falling
// back to a reverse lookup by the WMS entity id.
func (m *OrderSyncManager) resolveState(ctx context.Context, ref, entityID string) (*domain.SyncState, error) {
	state, err := m.states.GetByExternalReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if state != nil {
		return state, nil
	}
	if entityID == "" {
		return nil, nil
	}
	return m.states.GetByWMSOrderID(ctx, entityID)
}

// FindOrderByExternalReference resolves an external reference to the local
// order: identity mapping first, then a direct lookup by the order number
// the reference was derived from. Returns nil, nil when absent.
func (m *OrderSyncManager) FindOrderByExternalReference(ctx context.Context, ref string) (*domain.Order, error) {
	state, err := m.states.GetByExternalReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if state != nil {
		order, err := m.orders.GetByID(ctx, state.OrderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				return nil, nil
			}
			return nil, err
		}
		return order, nil
	}

	number := strings.TrimPrefix(ref, m.syncCfg.ReferencePrefix)
	order, err := m.orders.GetByNumber(ctx, number)
	if err != nil {
		if _, ok := err.(*errors.ErrNotFound); ok {
			return nil, nil
		}
		return nil, err
	}
	return order, nil
}

func (m *OrderSyncManager) recordExportFailure(ctx context.Context, orderID int64, cause error) {
	if err := m.states.RecordExportFailure(ctx, orderID, cause.Error()); err != nil {
		m.logger.Error("Failed to record export failure", zap.Int64("order_id", orderID), zap.Error(err))
	}
}
