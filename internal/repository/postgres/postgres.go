package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/repository"
)

// NewConnection opens a postgres connection pool and verifies it
func NewConnection(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewRepositories wires all postgres-backed repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Orders:        NewOrderRepository(db, logger),
		Products:      NewProductRepository(db, logger),
		SyncState:     NewSyncStateRepository(db, logger),
		OutboundQueue: NewOutboundQueueRepository(db, logger),
		WebhookQueue:  NewWebhookQueueRepository(db, logger),
		WebhookLedger: NewWebhookLedgerRepository(db, logger),
		Stock:         NewStockRepository(db, logger),
	}
}
