package wms

import (
	"context"
	"net/http"
)

// CreateOrder creates an order in the WMS and returns its assigned id
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload) (*Order, error) {
	var order Order
	if err := c.Request(ctx, http.MethodPost, "/v1/orders", payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder replaces the order document for an existing WMS order
func (c *Client) UpdateOrder(ctx context.Context, wmsOrderID string, payload OrderPayload) (*Order, error) {
	var order Order
	if err := c.Request(ctx, http.MethodPut, "/v1/orders/"+wmsOrderID, payload, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrder cancels an existing WMS order
func (c *Client) CancelOrder(ctx context.Context, wmsOrderID string) error {
	return c.Request(ctx, http.MethodPost, "/v1/orders/"+wmsOrderID+"/cancel", nil, nil)
}

// GetOrder fetches the current WMS state of an order
func (c *Client) GetOrder(ctx context.Context, wmsOrderID string) (*Order, error) {
	var order Order
	if err := c.Request(ctx, http.MethodGet, "/v1/orders/"+wmsOrderID, nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
