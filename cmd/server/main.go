package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/api"
	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/queue"
	"github.com/jafarshop/wmsbridge/internal/repository/postgres"
	"github.com/jafarshop/wmsbridge/internal/scheduler"
	"github.com/jafarshop/wmsbridge/internal/sync"
	"github.com/jafarshop/wmsbridge/internal/wms"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger := newLogger(cfg)
	defer logger.Sync()

	logger.Info("Starting WMS bridge server",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	// WMS client and sync components
	wmsClient := wms.NewClient(cfg.WMS, logger)
	stateMgr := sync.NewStateManager(repos.SyncState, cfg.Sync, logger)
	orderSync := sync.NewOrderSyncManager(repos.Orders, repos.SyncState, stateMgr, wmsClient, cfg.Sync, cfg.WMS, logger)
	productSync := sync.NewProductSync(repos.Products, wmsClient, logger)
	router := sync.NewWebhookRouter(orderSync, repos.SyncState, repos.Orders, repos.Stock, logger)
	hooks := sync.NewOrderHooks(stateMgr, orderSync, repos.SyncState, repos.OutboundQueue, cfg.Sync, logger)

	// Background processing
	worker := queue.NewWorker(repos.OutboundQueue, orderSync, productSync, cfg.Queue, logger)
	drainer := queue.NewWebhookDrainer(repos.WebhookQueue, router, cfg.Queue, logger)
	sched := scheduler.New(worker, drainer, repos.WebhookLedger, cfg.Queue, logger)
	sched.Start()

	// HTTP server
	engine := api.NewRouter(cfg, repos, drainer, hooks, logger)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	sched.Stop(15 * time.Second)

	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	if cfg.Environment == "production" {
		logger, err := zap.NewProduction()
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	return logger
}
