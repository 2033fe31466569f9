package postgres

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

type stockRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *sql.DB, logger *zap.Logger) *stockRepository {
	return &stockRepository{
		db:     db,
		logger: logger,
	}
}

func (r *stockRepository) Upsert(ctx context.Context, articleCode string, quantity int) error {
	query := `
		INSERT INTO stock_levels (article_code, quantity, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (article_code) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, articleCode, quantity, time.Now()); err != nil {
		r.logger.Error("Failed to upsert stock level", zap.String("article_code", articleCode), zap.Error(err))
		return err
	}
	return nil
}

func (r *stockRepository) Get(ctx context.Context, articleCode string) (*domain.StockLevel, error) {
	query := `SELECT article_code, quantity, updated_at FROM stock_levels WHERE article_code = $1`

	var level domain.StockLevel
	err := r.db.QueryRowContext(ctx, query, articleCode).Scan(&level.ArticleCode, &level.Quantity, &level.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "stock level", ID: articleCode}
	}
	if err != nil {
		r.logger.Error("Failed to get stock level", zap.String("article_code", articleCode), zap.Error(err))
		return nil, err
	}
	return &level, nil
}
