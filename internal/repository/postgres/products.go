package postgres

import (
	"context"
	"database/sql"
	"strconv"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

type productRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB, logger *zap.Logger) *productRepository {
	return &productRepository{
		db:     db,
		logger: logger,
	}
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT id, article_code, title, barcode, weight, is_active, updated_at
		FROM products
		WHERE id = $1
	`

	var (
		product domain.Product
		barcode sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.ArticleCode,
		&product.Title,
		&barcode,
		&product.Weight,
		&product.IsActive,
		&product.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "product", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		r.logger.Error("Failed to get product by ID", zap.Int64("product_id", id), zap.Error(err))
		return nil, err
	}

	if barcode.Valid {
		product.Barcode = barcode.String
	}
	return &product, nil
}
