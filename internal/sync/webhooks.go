package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/wms"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// WebhookRouter dispatches queued webhook events to the handler for their
// group. Unrecognized groups and actions degrade gracefully: logged,
// acknowledged, never an error.
type WebhookRouter struct {
	orders   *OrderSyncManager
	states   repository.SyncStateStore
	orderSt  repository.OrderStore
	stock    repository.StockStore
	logger   *zap.Logger
}

// NewWebhookRouter creates a new webhook router
func NewWebhookRouter(
	orders *OrderSyncManager,
	states repository.SyncStateStore,
	orderStore repository.OrderStore,
	stock repository.StockStore,
	logger *zap.Logger,
) *WebhookRouter {
	return &WebhookRouter{
		orders:  orders,
		states:  states,
		orderSt: orderStore,
		stock:   stock,
		logger:  logger,
	}
}

// ProcessEvent applies a single queued webhook event
func (r *WebhookRouter) ProcessEvent(ctx context.Context, ev *domain.WebhookEvent) Result {
	var payload wms.WebhookPayload
	if err := json.Unmarshal(ev.Payload, &payload); err != nil {
		return failure(&errors.ErrValidation{Field: "payload", Message: err.Error()})
	}

	switch ev.Group {
	case wms.GroupOrder:
		return r.orders.ProcessWebhookOrderEvent(ctx, ev.Action, &payload)
	case wms.GroupShipment:
		return r.processShipment(ctx, &payload)
	case wms.GroupStock:
		return r.processStock(ctx, &payload)
	default:
		r.logger.Info("Ignoring webhook for unhandled group",
			zap.String("group", ev.Group),
			zap.String("action", ev.Action),
		)
		return skipped()
	}
}

// processShipment captures tracking data onto the order the shipment belongs
// to. Lifecycle changes are driven by the order-group shipped event; this
// only records tracking that arrives separately.
func (r *WebhookRouter) processShipment(ctx context.Context, payload *wms.WebhookPayload) Result {
	ref := payload.Body.ExternalReference
	if ref == "" {
		return failure(&errors.ErrMissingReference{})
	}

	state, err := r.states.GetByExternalReference(ctx, ref)
	if err != nil {
		return failure(err)
	}
	if state == nil {
		r.logger.Info("Shipment webhook references unknown order", zap.String("external_reference", ref))
		return skipped()
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
	if carrier == nil && number == nil && url == nil {
		return skipped()
	}

	if err := r.states.SetTracking(ctx, state.OrderID, carrier, number, url); err != nil {
		return failure(err)
	}
	if number != nil {
		if err := r.orderSt.AddNote(ctx, state.OrderID, fmt.Sprintf("Shipment tracking received: %s", *number)); err != nil {
			r.logger.Warn("Failed to append tracking note", zap.Int64("order_id", state.OrderID), zap.Error(err))
		}
	}
	return success()
}

// processStock mirrors a WMS stock level locally
func (r *WebhookRouter) processStock(ctx context.Context, payload *wms.WebhookPayload) Result {
	body := payload.Body
	if body.ArticleCode == "" {
		return failure(&errors.ErrValidation{Field: "article_code", Message: "stock webhook without article code"})
	}
	if body.StockLevel == nil {
		return failure(&errors.ErrValidation{Field: "stock_level", Message: "stock webhook without stock level"})
	}

	if err := r.stock.Upsert(ctx, body.ArticleCode, *body.StockLevel); err != nil {
		return failure(err)
	}
	r.logger.Debug("Stock level updated",
		zap.String("article_code", body.ArticleCode),
		zap.Int("stock_level", *body.StockLevel),
	)
	return success()
}
