package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// HandleOrderSyncStatus handles GET /v1/admin/orders/:id/sync
func HandleOrderSyncStatus(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		ctx := c.Request.Context()
		state, err := repos.SyncState.Get(ctx, orderID)
		if err != nil {
			logger.Error("Failed to load sync state", zap.Int64("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		// Get returns nil without an error for an order that was never synced
		if state == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "order has no sync state"})
			return
		}

		items, err := repos.OutboundQueue.ListByEntity(ctx, domain.EntityTypeOrder, orderID)
		if err != nil {
			logger.Error("Failed to list queue items", zap.Int64("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"order_id":             state.OrderID,
			"wms_order_id":         state.WMSOrderID,
			"external_reference":   state.ExternalReference,
			"sync_status":          state.SyncStatus,
			"exported_at":          state.ExportedAt,
			"webhook_processed_at": state.WebhookProcessedAt,
			"last_status_change":   state.LastStatusChange,
			"export_attempts":      state.ExportAttempts,
			"last_export_error":    state.LastExportError,
			"tracking_carrier":     state.TrackingCarrier,
			"tracking_number":      state.TrackingNumber,
			"queue":                queueItemViews(items),
		})
	}
}

// HandleListQueue handles GET /v1/admin/queue?status=pending|failed
func HandleListQueue(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := domain.QueueStatus(c.DefaultQuery("status", string(domain.QueueStatusPending)))
		switch status {
		case domain.QueueStatusPending, domain.QueueStatusProcessing, domain.QueueStatusCompleted, domain.QueueStatusFailed:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}

		limit := 100
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 500 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
				return
			}
			limit = n
		}

		items, err := repos.OutboundQueue.ListByStatus(c.Request.Context(), status, limit)
		if err != nil {
			logger.Error("Failed to list queue items", zap.String("status", string(status)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"count":  len(items),
			"items":  queueItemViews(items),
		})
	}
}

// HandleListFailedExports handles GET /v1/admin/exports/failed
func HandleListFailedExports(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		states, err := repos.SyncState.ListFailedExports(c.Request.Context(), 100)
		if err != nil {
			logger.Error("Failed to list failed exports", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		results := make([]gin.H, 0, len(states))
		for _, s := range states {
			results = append(results, gin.H{
				"order_id":          s.OrderID,
				"export_attempts":   s.ExportAttempts,
				"last_export_error": s.LastExportError,
			})
		}
		c.JSON(http.StatusOK, gin.H{"count": len(results), "failed": results})
	}
}

// HandleForceExport handles POST /v1/admin/orders/:id/export.
// It enqueues an export task directly, bypassing the hook gate, so an
// operator can push an order the automated path skipped.
func HandleForceExport(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
			return
		}

		ctx := c.Request.Context()
		if _, err := repos.Orders.GetByID(ctx, orderID); err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to load order", zap.Int64("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		enqueued, err := repos.OutboundQueue.Enqueue(ctx, domain.EntityTypeOrder, orderID, domain.QueueActionExport, domain.PriorityExport)
		if err != nil {
			logger.Error("Failed to enqueue export", zap.Int64("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		status := "queued"
		if !enqueued {
			status = "already_queued"
		}
		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "status": status})
	}
}

// HandleRetryQueueItem handles POST /v1/admin/queue/:id/retry.
// Failed items never retry on their own; this is the operator's reset.
func HandleRetryQueueItem(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
			return
		}

		reset, err := repos.OutboundQueue.ResetFailed(c.Request.Context(), itemID)
		if err != nil {
			logger.Error("Failed to reset queue item", zap.Int64("item_id", itemID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !reset {
			c.JSON(http.StatusNotFound, gin.H{"error": "no failed item with that ID"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"item_id": itemID, "status": "pending"})
	}
}

func queueItemViews(items []domain.QueueItem) []gin.H {
	views := make([]gin.H, 0, len(items))
	for _, item := range items {
		views = append(views, gin.H{
			"id":          item.ID,
			"entity_type": item.EntityType,
			"entity_id":   item.EntityID,
			"action":      item.Action,
			"status":      item.Status,
			"priority":    item.Priority,
			"attempts":    item.Attempts,
			"last_error":  item.LastError,
			"created_at":  item.CreatedAt,
		})
	}
	return views
}
