package sync

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

func TestBuildOrderPayload(t *testing.T) {
	syncCfg := testSyncConfig()
	wmsCfg := testWMSConfig()

	t.Run("builds complete payload", func(t *testing.T) {
		order := testOrder(100, "100")
		order.Lines = append(order.Lines, domain.OrderLine{Title: "Warranty", Quantity: 1, IsPhysical: false})

		payload, err := buildOrderPayload(order, syncCfg, wmsCfg)

		require.NoError(t, err)
		assert.Equal(t, "ORD-100", payload.ExternalReference)
		assert.Equal(t, "cust-1", payload.Customer)
		assert.Equal(t, "ship-1", payload.ShippingMethod)
		// Virtual lines are dropped from the outbound document.
		require.Len(t, payload.OrderLines, 1)
		assert.Equal(t, "SKU-1", payload.OrderLines[0].ArticleCode)
		assert.Equal(t, 2, payload.OrderLines[0].Quantity)
		assert.Equal(t, int64(4990), payload.OrderAmount)
		assert.NotEmpty(t, payload.RequestedDeliveryDate)
		assert.Equal(t, "Jane Buyer", payload.ShippingAddress.AddressedTo)
	})

	t.Run("monetary amounts are exact cents", func(t *testing.T) {
		order := testOrder(100, "100")
		order.Total = decimal.RequireFromString("19.99")

		payload, err := buildOrderPayload(order, syncCfg, wmsCfg)

		require.NoError(t, err)
		assert.Equal(t, int64(1999), payload.OrderAmount)
	})

	t.Run("missing article code fails", func(t *testing.T) {
		order := testOrder(100, "100")
		order.Lines[0].ArticleCode = ""

		_, err := buildOrderPayload(order, syncCfg, wmsCfg)

		require.Error(t, err)
		assert.IsType(t, &errors.ErrValidation{}, err)
	})

	t.Run("no physical lines fails", func(t *testing.T) {
		order := testOrder(100, "100")
		order.Lines = []domain.OrderLine{{Title: "Ebook", Quantity: 1, IsPhysical: false}}

		_, err := buildOrderPayload(order, syncCfg, wmsCfg)

		require.Error(t, err)
	})

	t.Run("incomplete address fails", func(t *testing.T) {
		order := testOrder(100, "100")
		order.ShippingAddress.City = ""

		_, err := buildOrderPayload(order, syncCfg, wmsCfg)

		require.Error(t, err)
	})

	t.Run("customer name backfills empty address name", func(t *testing.T) {
		order := testOrder(100, "100")
		order.ShippingAddress.Name = ""
		order.CustomerName = "Sami Client"

		payload, err := buildOrderPayload(order, syncCfg, wmsCfg)

		require.NoError(t, err)
		assert.Equal(t, "Sami Client", payload.ShippingAddress.AddressedTo)
	})
}

func TestShippingHash(t *testing.T) {
	order := testOrder(100, "100")
	payload, err := buildOrderPayload(order, testSyncConfig(), testWMSConfig())
	require.NoError(t, err)

	h1 := shippingHash(payload.ShippingAddress)
	assert.Equal(t, h1, shippingHash(payload.ShippingAddress))

	changed := payload.ShippingAddress
	changed.Street = "Other St 2"
	assert.NotEqual(t, h1, shippingHash(changed))
}

func TestShouldExportOrder(t *testing.T) {
	orders := newFakeOrderStore()
	states := newFakeStateStore()
	mgr := newTestManager(orders, states, newFakeWMSAPI(""))

	t.Run("eligible order", func(t *testing.T) {
		assert.True(t, mgr.ShouldExportOrder(testOrder(100, "100"), nil))
	})

	t.Run("non-exportable status", func(t *testing.T) {
		order := testOrder(100, "100")
		order.Status = domain.OrderStatusPending
		assert.False(t, mgr.ShouldExportOrder(order, nil))
	})

	t.Run("already exported", func(t *testing.T) {
		state := &domain.SyncState{OrderID: 100, WMSOrderID: "wms-abc"}
		assert.False(t, mgr.ShouldExportOrder(testOrder(100, "100"), state))
	})

	t.Run("virtual-only order", func(t *testing.T) {
		order := testOrder(100, "100")
		order.Lines = []domain.OrderLine{{Title: "Gift card", Quantity: 1, IsPhysical: false}}
		assert.False(t, mgr.ShouldExportOrder(order, nil))
	})

	t.Run("initial sync gate closed", func(t *testing.T) {
		cfg := testSyncConfig()
		cfg.InitialSyncDone = false
		logger := zap.NewNop()
		gated := NewOrderSyncManager(orders, states, NewStateManager(states, cfg, logger), newFakeWMSAPI(""), cfg, testWMSConfig(), logger)
		assert.False(t, gated.ShouldExportOrder(testOrder(100, "100"), nil))
	})
}
