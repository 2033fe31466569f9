package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository/postgres"
)

// Operator tool: resets terminally failed outbound queue items back to
// pending so the next worker batch picks them up.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	ctx := context.Background()

	items, err := repos.OutboundQueue.ListByStatus(ctx, domain.QueueStatusFailed, 500)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list failed items: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("No failed queue items")
		return
	}

	requeued := 0
	for _, item := range items {
		reset, err := repos.OutboundQueue.ResetFailed(ctx, item.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to reset item %d: %v\n", item.ID, err)
			continue
		}
		if reset {
			requeued++
			fmt.Printf("Requeued item %d (%s/%d %s), last error: %s\n",
				item.ID, item.EntityType, item.EntityID, item.Action, item.LastError)
		}
	}
	fmt.Printf("Requeued %d of %d failed items\n", requeued, len(items))
}
