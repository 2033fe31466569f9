package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/wms"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// ProductAPI is the slice of the WMS client the product sync needs
type ProductAPI interface {
	UpsertProduct(ctx context.Context, payload wms.ProductPayload) (*wms.Product, error)
}

// ProductSync pushes catalog changes to the WMS. One-directional: the
// storefront is the system of record for articles.
type ProductSync struct {
	products repository.ProductStore
	api      ProductAPI
	logger   *zap.Logger
}

// NewProductSync creates a new product sync
func NewProductSync(products repository.ProductStore, api ProductAPI, logger *zap.Logger) *ProductSync {
	return &ProductSync{
		products: products,
		api:      api,
		logger:   logger,
	}
}

// PushProduct sends the current article document to the WMS
func (s *ProductSync) PushProduct(ctx context.Context, productID int64) Result {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return failure(err)
	}
	if product.ArticleCode == "" {
		return failure(&errors.ErrValidation{Field: "article_code", Message: fmt.Sprintf("product %d has no article code", productID)})
	}

	payload := wms.ProductPayload{
		ArticleCode: product.ArticleCode,
		Name:        product.Title,
		Barcode:     product.Barcode,
		Weight:      product.Weight,
		Active:      product.IsActive,
	}
	if _, err := s.api.UpsertProduct(ctx, payload); err != nil {
		return failure(err)
	}

	s.logger.Info("Product pushed to WMS",
		zap.Int64("product_id", productID),
		zap.String("article_code", product.ArticleCode),
	)
	return success()
}
