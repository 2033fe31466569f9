package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/wms"
)

const testSecret = "webhook-secret"

type fakeLedger struct {
	seen      map[string]bool
	recordErr error
}

func (l *fakeLedger) Record(_ context.Context, webhookID string) (bool, error) {
	if l.recordErr != nil {
		return false, l.recordErr
	}
	if l.seen[webhookID] {
		return false, nil
	}
	if l.seen == nil {
		l.seen = map[string]bool{}
	}
	l.seen[webhookID] = true
	return true, nil
}

func (l *fakeLedger) IsDuplicate(_ context.Context, webhookID string) (bool, error) {
	return l.seen[webhookID], nil
}

func (l *fakeLedger) Forget(_ context.Context, webhookID string) error {
	delete(l.seen, webhookID)
	return nil
}

func (l *fakeLedger) PurgeOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }

type fakeWebhookQueue struct {
	events     []*domain.WebhookEvent
	enqueueErr error
}

func (q *fakeWebhookQueue) Enqueue(_ context.Context, ev *domain.WebhookEvent) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.events = append(q.events, ev)
	return nil
}

func (q *fakeWebhookQueue) NextBatch(context.Context, int) ([]domain.WebhookEvent, error) {
	return nil, nil
}

func (q *fakeWebhookQueue) MarkProcessed(context.Context, int64) error { return nil }

func (q *fakeWebhookQueue) MarkFailed(context.Context, int64, string, int) error { return nil }

type fakeDrainer struct {
	kicks int
}

func (d *fakeDrainer) Kick() { d.kicks++ }

func webhookBody(t *testing.T) []byte {
	t.Helper()
	return []byte(`{"group":"order","action":"updated","entityId":"wms-abc","body":{"external_reference":"ORD-100","status":"shipped"}}`)
}

func performWebhook(t *testing.T, repos *repository.Repositories, drainer *fakeDrainer, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/v1/webhooks/wms", HandleWMSWebhook(testSecret, repos, drainer, zap.NewNop()))

	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/wms", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signedHeaders(body []byte, webhookID string) map[string]string {
	return map[string]string{
		"X-Hmac-Sha256":   wms.SignBody(body, testSecret),
		"X-Webhook-Id":    webhookID,
		"X-Webhook-Topic": "order.updated",
	}
}

func TestHandleWMSWebhook(t *testing.T) {
	t.Run("valid delivery is enqueued and acknowledged", func(t *testing.T) {
		queue := &fakeWebhookQueue{}
		drainer := &fakeDrainer{}
		repos := &repository.Repositories{WebhookLedger: &fakeLedger{}, WebhookQueue: queue}
		body := webhookBody(t)

		w := performWebhook(t, repos, drainer, body, signedHeaders(body, "wh-1"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "queued")
		require.Len(t, queue.events, 1)
		ev := queue.events[0]
		assert.Equal(t, "wh-1", ev.WebhookID)
		assert.Equal(t, "order", ev.Group)
		assert.Equal(t, "updated", ev.Action)
		assert.Equal(t, "ORD-100", ev.ExternalReference)
		assert.Equal(t, body, ev.Payload)
		assert.Equal(t, 1, drainer.kicks)
	})

	t.Run("bad signature is rejected without recording", func(t *testing.T) {
		ledger := &fakeLedger{}
		repos := &repository.Repositories{WebhookLedger: ledger, WebhookQueue: &fakeWebhookQueue{}}
		body := webhookBody(t)
		headers := signedHeaders(body, "wh-1")
		headers["X-Hmac-Sha256"] = "bm90IGEgc2lnbmF0dXJl"

		w := performWebhook(t, repos, &fakeDrainer{}, body, headers)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Empty(t, ledger.seen)
	})

	t.Run("missing webhook id is a bad request", func(t *testing.T) {
		repos := &repository.Repositories{WebhookLedger: &fakeLedger{}, WebhookQueue: &fakeWebhookQueue{}}
		body := webhookBody(t)
		headers := signedHeaders(body, "")
		delete(headers, "X-Webhook-Id")

		w := performWebhook(t, repos, &fakeDrainer{}, body, headers)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed payload is a bad request", func(t *testing.T) {
		repos := &repository.Repositories{WebhookLedger: &fakeLedger{}, WebhookQueue: &fakeWebhookQueue{}}
		body := []byte(`{"group":`)

		w := performWebhook(t, repos, &fakeDrainer{}, body, signedHeaders(body, "wh-1"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("replayed delivery is acknowledged without re-enqueueing", func(t *testing.T) {
		queue := &fakeWebhookQueue{}
		drainer := &fakeDrainer{}
		repos := &repository.Repositories{WebhookLedger: &fakeLedger{}, WebhookQueue: queue}
		body := webhookBody(t)
		headers := signedHeaders(body, "wh-1")

		first := performWebhook(t, repos, drainer, body, headers)
		second := performWebhook(t, repos, drainer, body, headers)

		assert.Equal(t, http.StatusOK, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Contains(t, second.Body.String(), "duplicate")
		assert.Len(t, queue.events, 1)
		assert.Equal(t, 1, drainer.kicks)
	})

	t.Run("enqueue failure asks the sender to retry", func(t *testing.T) {
		queue := &fakeWebhookQueue{enqueueErr: errors.New("connection refused")}
		repos := &repository.Repositories{WebhookLedger: &fakeLedger{}, WebhookQueue: queue}
		body := webhookBody(t)

		w := performWebhook(t, repos, &fakeDrainer{}, body, signedHeaders(body, "wh-1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("retry after an enqueue failure is not a duplicate", func(t *testing.T) {
		queue := &fakeWebhookQueue{enqueueErr: errors.New("connection refused")}
		ledger := &fakeLedger{}
		repos := &repository.Repositories{WebhookLedger: ledger, WebhookQueue: queue}
		body := webhookBody(t)
		headers := signedHeaders(body, "wh-1")

		first := performWebhook(t, repos, &fakeDrainer{}, body, headers)
		queue.enqueueErr = nil
		second := performWebhook(t, repos, &fakeDrainer{}, body, headers)

		assert.Equal(t, http.StatusInternalServerError, first.Code)
		assert.Equal(t, http.StatusOK, second.Code)
		assert.Contains(t, second.Body.String(), "queued")
		assert.Len(t, queue.events, 1)
	})

	t.Run("ledger failure asks the sender to retry", func(t *testing.T) {
		repos := &repository.Repositories{
			WebhookLedger: &fakeLedger{recordErr: errors.New("connection refused")},
			WebhookQueue:  &fakeWebhookQueue{},
		}
		body := webhookBody(t)

		w := performWebhook(t, repos, &fakeDrainer{}, body, signedHeaders(body, "wh-1"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
