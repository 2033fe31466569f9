package wms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.WMSConfig{
		BaseURL: srv.URL + "/",
		APIKey:  "test-key",
	}, zap.NewNop())
}

func TestCreateOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload OrderPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "ORD-100", payload.ExternalReference)

		json.NewEncoder(w).Encode(Order{ID: "wms-abc", ExternalReference: payload.ExternalReference, Status: StatusCreated})
	})

	order, err := client.CreateOrder(context.Background(), OrderPayload{
		ExternalReference: "ORD-100",
		Customer:          "cust-1",
		OrderLines:        []OrderLinePayload{{ArticleCode: "SKU-1", Quantity: 2}},
	})

	require.NoError(t, err)
	assert.Equal(t, "wms-abc", order.ID)
	assert.Equal(t, StatusCreated, order.Status)
}

func TestCancelOrder(t *testing.T) {
	var calledPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calledPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.CancelOrder(context.Background(), "wms-abc"))
	assert.Equal(t, "/v1/orders/wms-abc/cancel", calledPath)
}

func TestRequestErrorHandling(t *testing.T) {
	t.Run("validation error carries the message and is not temporary", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"message": "article SKU-404 unknown"})
		})

		_, err := client.CreateOrder(context.Background(), OrderPayload{})

		require.Error(t, err)
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
		assert.Contains(t, apiErr.Message, "article SKU-404 unknown")
		assert.False(t, apiErr.Temporary())
	})

	t.Run("server errors are temporary", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		})

		_, err := client.GetOrder(context.Background(), "wms-abc")

		require.Error(t, err)
		apiErr, ok := err.(*APIError)
		require.True(t, ok)
		assert.True(t, apiErr.Temporary())
	})

	t.Run("rate limiting is temporary", func(t *testing.T) {
		apiErr := &APIError{StatusCode: http.StatusTooManyRequests}
		assert.True(t, apiErr.Temporary())
	})
}

func TestUpsertProduct(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/products/SKU-1", r.URL.Path)
		json.NewEncoder(w).Encode(Product{ID: "wms-prod-1", ArticleCode: "SKU-1"})
	})

	product, err := client.UpsertProduct(context.Background(), ProductPayload{ArticleCode: "SKU-1", Name: "Widget", Active: true})

	require.NoError(t, err)
	assert.Equal(t, "wms-prod-1", product.ID)
}
