package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/queue"
	"github.com/jafarshop/wmsbridge/internal/repository/postgres"
	"github.com/jafarshop/wmsbridge/internal/scheduler"
	"github.com/jafarshop/wmsbridge/internal/sync"
	"github.com/jafarshop/wmsbridge/internal/wms"
)

// Standalone background worker. Runs the same loops as the server's
// embedded scheduler, for deployments that keep HTTP and queue
// processing in separate processes.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.Info("Starting WMS bridge worker")

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)

	wmsClient := wms.NewClient(cfg.WMS, logger)
	stateMgr := sync.NewStateManager(repos.SyncState, cfg.Sync, logger)
	orderSync := sync.NewOrderSyncManager(repos.Orders, repos.SyncState, stateMgr, wmsClient, cfg.Sync, cfg.WMS, logger)
	productSync := sync.NewProductSync(repos.Products, wmsClient, logger)
	router := sync.NewWebhookRouter(orderSync, repos.SyncState, repos.Orders, repos.Stock, logger)

	worker := queue.NewWorker(repos.OutboundQueue, orderSync, productSync, cfg.Queue, logger)
	drainer := queue.NewWebhookDrainer(repos.WebhookQueue, router, cfg.Queue, logger)
	sched := scheduler.New(worker, drainer, repos.WebhookLedger, cfg.Queue, logger)
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker")
	sched.Stop(30 * time.Second)
	logger.Info("Worker stopped")
}
