package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// Hooks is the event dispatcher the ingress hands storefront order events
// to. The composition root wires the concrete hooks exactly once.
type Hooks interface {
	OrderUpdated(ctx context.Context, order *domain.Order)
	StatusChanged(ctx context.Context, order *domain.Order, from, to domain.OrderStatus)
	OrderCancelled(ctx context.Context, order *domain.Order)
}

// OrderEventRequest is the storefront's notification that an order changed
type OrderEventRequest struct {
	OrderID        int64  `json:"order_id" binding:"required"`
	Event          string `json:"event" binding:"required"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

// Storefront event names
const (
	EventOrderUpdated   = "updated"
	EventStatusChanged  = "status_changed"
	EventOrderCancelled = "cancelled"
)

// HandleOrderEvent handles POST /v1/events/orders. The storefront posts an
// event after committing its own write; the handler loads the current order
// and routes it through the hook dispatcher, which decides whether any
// outbound work is needed. The response only acknowledges receipt.
func HandleOrderEvent(repos *repository.Repositories, hooks Hooks, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OrderEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}

		ctx := c.Request.Context()
		order, err := repos.Orders.GetByID(ctx, req.OrderID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to load order for event", zap.Int64("order_id", req.OrderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		switch req.Event {
		case EventOrderUpdated:
			hooks.OrderUpdated(ctx, order)
		case EventStatusChanged:
			from := domain.OrderStatus(req.PreviousStatus)
			to := domain.OrderStatus(req.NewStatus)
			if !to.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid new_status"})
				return
			}
			hooks.StatusChanged(ctx, order, from, to)
		case EventOrderCancelled:
			hooks.OrderCancelled(ctx, order)
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"order_id": req.OrderID, "status": "accepted"})
	}
}
