package wms

import "encoding/json"

// OrderPayload is the outbound order document sent to the WMS
type OrderPayload struct {
	ExternalReference     string             `json:"external_reference"`
	Customer              string             `json:"customer"`
	OrderLines            []OrderLinePayload `json:"order_lines"`
	RequestedDeliveryDate string             `json:"requested_delivery_date"`
	ShippingAddress       AddressPayload     `json:"shipping_address"`
	ShippingMethod        string             `json:"shipping_method"`
	OrderAmount           int64              `json:"order_amount"`
}

// OrderLinePayload is a single outbound order line
type OrderLinePayload struct {
	ArticleCode string `json:"article_code"`
	Quantity    int    `json:"quantity"`
}

// AddressPayload is the outbound shipping address
type AddressPayload struct {
	AddressedTo string `json:"addressed_to"`
	Street      string `json:"street"`
	City        string `json:"city"`
	Zipcode     string `json:"zipcode"`
	State       string `json:"state,omitempty"`
	Country     string `json:"country"`
}

// Order is the WMS representation of an order as returned by the API
type Order struct {
	ID                string `json:"id"`
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status"`
	Reference         string `json:"reference,omitempty"`
}

// ProductPayload is the outbound article document
type ProductPayload struct {
	ArticleCode string `json:"article_code"`
	Name        string `json:"name"`
	Barcode     string `json:"barcode,omitempty"`
	Weight      int    `json:"weight,omitempty"`
	Active      bool   `json:"active"`
}

// Product is the WMS representation of an article
type Product struct {
	ID          string `json:"id"`
	ArticleCode string `json:"article_code"`
}

// WebhookPayload is the inbound webhook body shape
type WebhookPayload struct {
	Group    string      `json:"group"`
	Action   string      `json:"action"`
	EntityID string      `json:"entityId"`
	Entity   string      `json:"entity"`
	Customer string      `json:"customer"`
	Body     WebhookBody `json:"body"`
}

// WebhookBody carries the entity data of a webhook. Raw preserves fields the
// known shape does not model.
type WebhookBody struct {
	ExternalReference string          `json:"external_reference"`
	Status            string          `json:"status"`
	Reason            string          `json:"reason,omitempty"`
	ArticleCode       string          `json:"article_code,omitempty"`
	StockLevel        *int            `json:"stock_level,omitempty"`
	TrackingCarrier   string          `json:"tracking_carrier,omitempty"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	TrackingURL       string          `json:"tracking_url,omitempty"`
	Raw               json.RawMessage `json:"-"`
}

// Webhook groups
const (
	GroupOrder    = "order"
	GroupStock    = "stock"
	GroupShipment = "shipment"
	GroupInbound  = "inbound"
)

// WMS order statuses as delivered in webhooks
const (
	StatusCreated        = "created"
	StatusPlanned        = "planned"
	StatusProcessing     = "processing"
	StatusShipped        = "shipped"
	StatusCancelled      = "cancelled"
	StatusInvalidAddress = "invalid_address"
	StatusProblem        = "problem"
	StatusBackorder      = "backorder"
	StatusOnHold         = "on_hold"
)
