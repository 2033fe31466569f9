package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

const orderColumns = `
	id, number, status, total, refunded,
	customer_name, customer_email, customer_phone,
	ship_name, ship_street, ship_city, ship_zip, ship_state, ship_country,
	bill_name, bill_street, bill_city, bill_zip, bill_state, bill_country,
	created_at, updated_at
`

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: strconv.FormatInt(id, 10)}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Int64("order_id", id), zap.Error(err))
		return nil, err
	}

	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE number = $1`

	order, err := r.scanOrder(r.db.QueryRowContext(ctx, query, number))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "order", ID: number}
	}
	if err != nil {
		r.logger.Error("Failed to get order by number", zap.String("number", number), zap.Error(err))
		return nil, err
	}

	if err := r.loadLines(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	query := `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, string(status), time.Now())
	if err != nil {
		r.logger.Error("Failed to update order status", zap.Int64("order_id", id), zap.Error(err))
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: strconv.FormatInt(id, 10)}
	}
	return nil
}

func (r *orderRepository) AddNote(ctx context.Context, id int64, text string) error {
	query := `INSERT INTO order_notes (order_id, text, created_at) VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, id, text, time.Now()); err != nil {
		r.logger.Error("Failed to add order note", zap.Int64("order_id", id), zap.Error(err))
		return err
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *orderRepository) scanOrder(row rowScanner) (*domain.Order, error) {
	var (
		order                  domain.Order
		total, refunded        string
		email, phone           sql.NullString
		shipState, billState   sql.NullString
	)

	err := row.Scan(
		&order.ID,
		&order.Number,
		&order.Status,
		&total,
		&refunded,
		&order.CustomerName,
		&email,
		&phone,
		&order.ShippingAddress.Name,
		&order.ShippingAddress.Street,
		&order.ShippingAddress.City,
		&order.ShippingAddress.Zip,
		&shipState,
		&order.ShippingAddress.Country,
		&order.BillingAddress.Name,
		&order.BillingAddress.Street,
		&order.BillingAddress.City,
		&order.BillingAddress.Zip,
		&billState,
		&order.BillingAddress.Country,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.Total, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	if order.Refunded, err = decimal.NewFromString(refunded); err != nil {
		return nil, err
	}
	if email.Valid {
		order.CustomerEmail = email.String
	}
	if phone.Valid {
		order.CustomerPhone = phone.String
	}
	if shipState.Valid {
		order.ShippingAddress.State = shipState.String
	}
	if billState.Valid {
		order.BillingAddress.State = billState.String
	}

	return &order, nil
}

func (r *orderRepository) loadLines(ctx context.Context, order *domain.Order) error {
	query := `
		SELECT id, order_id, article_code, title, quantity, price, is_physical
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, order.ID)
	if err != nil {
		r.logger.Error("Failed to load order lines", zap.Int64("order_id", order.ID), zap.Error(err))
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line  domain.OrderLine
			price string
		)
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ArticleCode, &line.Title, &line.Quantity, &price, &line.IsPhysical); err != nil {
			return err
		}
		if line.Price, err = decimal.NewFromString(price); err != nil {
			return err
		}
		order.Lines = append(order.Lines, line)
	}
	return rows.Err()
}
