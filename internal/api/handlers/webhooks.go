package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/wms"
)

// Drainer is kicked after a successful enqueue so the queued event is
// applied promptly instead of waiting for the next sweep
type Drainer interface {
	Kick()
}

// HandleWMSWebhook handles POST /v1/webhooks/wms.
//
// The response contract matters: the sender retries on anything but 2xx,
// so once an event is durably enqueued the handler answers 200 even
// though processing happens asynchronously. 401 is reserved for bad
// signatures and 400 for payloads that can never be processed; 5xx means
// "please retry" and is only returned when the event was not persisted.
func HandleWMSWebhook(secret string, repos *repository.Repositories, drainer Drainer, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		signature := c.GetHeader("X-Hmac-Sha256")
		if !wms.ValidSignature(body, signature, secret) {
			logger.Warn("Webhook signature mismatch",
				zap.String("webhook_id", c.GetHeader("X-Webhook-Id")),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}

		webhookID := c.GetHeader("X-Webhook-Id")
		if webhookID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-Webhook-Id header"})
			return
		}

		var payload wms.WebhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed payload"})
			return
		}

		ctx := c.Request.Context()

		// The ledger insert is the dedup authority. A replayed delivery
		// is acknowledged without re-enqueueing.
		isNew, err := repos.WebhookLedger.Record(ctx, webhookID)
		if err != nil {
			logger.Error("Failed to record webhook id", zap.String("webhook_id", webhookID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if !isNew {
			logger.Debug("Duplicate webhook delivery acknowledged", zap.String("webhook_id", webhookID))
			c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
			return
		}

		event := &domain.WebhookEvent{
			WebhookID:         webhookID,
			Group:             payload.Group,
			Action:            payload.Action,
			EntityID:          payload.EntityID,
			ExternalReference: payload.Body.ExternalReference,
			Payload:           body,
		}
		if err := repos.WebhookQueue.Enqueue(ctx, event); err != nil {
			logger.Error("Failed to enqueue webhook", zap.String("webhook_id", webhookID), zap.Error(err))
			// Undo the ledger record or the sender's retry would be
			// acknowledged as a duplicate and the event lost for good.
			if ferr := repos.WebhookLedger.Forget(ctx, webhookID); ferr != nil {
				logger.Error("Failed to release webhook id after enqueue failure",
					zap.String("webhook_id", webhookID), zap.Error(ferr))
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		drainer.Kick()

		c.JSON(http.StatusOK, gin.H{"status": "queued"})
	}
}
