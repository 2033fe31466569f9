package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/wms"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// externalReference derives the stable reference sent to the WMS. The local
// primary key is never sent; this value is the join key inbound webhooks use
// to find their way back.
func externalReference(order *domain.Order, cfg config.SyncConfig) string {
	return cfg.ReferencePrefix + order.Number
}

// buildOrderPayload transforms a storefront order into the outbound WMS
// document, validating the fields the WMS requires.
func buildOrderPayload(order *domain.Order, cfg config.SyncConfig, wmsCfg config.WMSConfig) (wms.OrderPayload, error) {
	var lines []wms.OrderLinePayload
	for _, l := range order.Lines {
		if !l.IsPhysical || l.Quantity <= 0 {
			continue
		}
		if l.ArticleCode == "" {
			return wms.OrderPayload{}, &errors.ErrValidation{Field: "order_lines.article_code", Message: "line has no article code"}
		}
		lines = append(lines, wms.OrderLinePayload{
			ArticleCode: l.ArticleCode,
			Quantity:    l.Quantity,
		})
	}
	if len(lines) == 0 {
		return wms.OrderPayload{}, &errors.ErrValidation{Field: "order_lines", Message: "no physical lines to export"}
	}

	addr := order.ShippingAddress
	if addr.Name == "" {
		addr.Name = order.CustomerName
	}
	for field, value := range map[string]string{
		"addressed_to": addr.Name,
		"street":       addr.Street,
		"city":         addr.City,
		"zipcode":      addr.Zip,
		"country":      addr.Country,
	} {
		if strings.TrimSpace(value) == "" {
			return wms.OrderPayload{}, &errors.ErrValidation{Field: "shipping_address." + field, Message: "required"}
		}
	}
	if wmsCfg.CustomerID == "" {
		return wms.OrderPayload{}, &errors.ErrValidation{Field: "customer", Message: "WMS customer id not configured"}
	}
	if wmsCfg.ShippingMethodID == "" {
		return wms.OrderPayload{}, &errors.ErrValidation{Field: "shipping_method", Message: "WMS shipping method not configured"}
	}

	delivery := time.Now().AddDate(0, 0, cfg.DeliveryLeadDays).Format("2006-01-02")

	return wms.OrderPayload{
		ExternalReference:     externalReference(order, cfg),
		Customer:              wmsCfg.CustomerID,
		OrderLines:            lines,
		RequestedDeliveryDate: delivery,
		ShippingAddress: wms.AddressPayload{
			AddressedTo: addr.Name,
			Street:      addr.Street,
			City:        addr.City,
			Zipcode:     addr.Zip,
			State:       addr.State,
			Country:     addr.Country,
		},
		ShippingMethod: wmsCfg.ShippingMethodID,
		OrderAmount:    order.Total.Mul(centFactor).IntPart(),
	}, nil
}

// shippingHash is the checksum of the last-sent shipping address, used to
// decide whether an update needs to go out at all.
func shippingHash(addr wms.AddressPayload) string {
	h := sha256.New()
	for _, part := range []string{addr.AddressedTo, addr.Street, addr.City, addr.Zipcode, addr.State, addr.Country} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ShouldExportOrder is the business eligibility check: exportable status,
// at least one physical line, not already exported, and the initial-sync
// gate open. The gate prevents a storm of historical-order exports right
// after installation.
func (m *OrderSyncManager) ShouldExportOrder(order *domain.Order, state *domain.SyncState) bool {
	if !m.syncCfg.InitialSyncDone {
		return false
	}
	if !m.syncCfg.ExportableStatus(string(order.Status)) {
		return false
	}
	if !order.HasPhysicalLines() {
		return false
	}
	if state != nil && state.Exported() {
		return false
	}
	return true
}
