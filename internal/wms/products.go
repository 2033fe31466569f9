package wms

import (
	"context"
	"net/http"
)

// UpsertProduct creates or updates an article in the WMS, keyed by its
// article code.
func (c *Client) UpsertProduct(ctx context.Context, payload ProductPayload) (*Product, error) {
	var product Product
	if err := c.Request(ctx, http.MethodPut, "/v1/products/"+payload.ArticleCode, payload, &product); err != nil {
		return nil, err
	}
	return &product, nil
}
