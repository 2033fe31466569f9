package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/sync"
	"github.com/jafarshop/wmsbridge/internal/wms"
	"github.com/jafarshop/wmsbridge/pkg/errors"
)

// OrderProcessor is the slice of the order sync manager the worker drives
type OrderProcessor interface {
	ProcessOrderExport(ctx context.Context, orderID int64) sync.ExportResult
	ProcessOrderCancellation(ctx context.Context, orderID int64) sync.Result
}

// ProductProcessor pushes product changes outbound
type ProductProcessor interface {
	PushProduct(ctx context.Context, productID int64) sync.Result
}

// BatchStats aggregates one worker run
type BatchStats struct {
	Processed  int
	Successful int
	Failed     int
	Skipped    int
}

func (s BatchStats) String() string {
	return fmt.Sprintf("processed=%d successful=%d failed=%d skipped=%d", s.Processed, s.Successful, s.Failed, s.Skipped)
}

// Worker drains the outbound task queue in batches. Items are claimed
// (flipped to processing) before any network call, so overlapping runs
// cannot double-process; one item's failure never stops a batch.
type Worker struct {
	queue    repository.OutboundQueue
	orders   OrderProcessor
	products ProductProcessor
	cfg      config.QueueConfig
	logger   *zap.Logger
}

// NewWorker creates a new outbound queue worker
func NewWorker(
	queue repository.OutboundQueue,
	orders OrderProcessor,
	products ProductProcessor,
	cfg config.QueueConfig,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		queue:    queue,
		orders:   orders,
		products: products,
		cfg:      cfg,
		logger:   logger,
	}
}

// RunBatch claims and processes one batch of each entity type
func (w *Worker) RunBatch(ctx context.Context) BatchStats {
	var stats BatchStats
	for _, entityType := range []domain.EntityType{domain.EntityTypeOrder, domain.EntityTypeProduct} {
		items, err := w.queue.ClaimPending(ctx, entityType, w.cfg.BatchSize)
		if err != nil {
			w.logger.Error("Failed to claim queue batch", zap.String("entity_type", string(entityType)), zap.Error(err))
			continue
		}
		for i := range items {
			w.processItem(ctx, &items[i], &stats)
		}
	}

	if stats.Processed > 0 {
		w.logger.Info("Outbound queue batch done",
			zap.Int("processed", stats.Processed),
			zap.Int("successful", stats.Successful),
			zap.Int("failed", stats.Failed),
			zap.Int("skipped", stats.Skipped),
		)
	}
	return stats
}

func (w *Worker) processItem(ctx context.Context, item *domain.QueueItem, stats *BatchStats) {
	stats.Processed++

	defer func() {
		if r := recover(); r != nil {
			stats.Failed++
			w.logger.Error("Queue item panicked",
				zap.Int64("item_id", item.ID),
				zap.Any("panic", r),
			)
			w.fail(ctx, item, fmt.Sprintf("panic: %v", r))
		}
	}()

	result := w.dispatch(ctx, item)
	switch {
	case result.Err != nil:
		stats.Failed++
		terminal := w.fail(ctx, item, result.Err.Error())
		if terminalError(result.Err) {
			// Validation and consistency errors cannot succeed on retry;
			// burn the remaining attempts so the item goes straight to
			// the failed report.
			for i := 0; !terminal && i < w.cfg.MaxAttempts; i++ {
				terminal = w.fail(ctx, item, result.Err.Error())
			}
		}
	case result.Skipped:
		stats.Skipped++
		w.complete(ctx, item)
	default:
		stats.Successful++
		w.complete(ctx, item)
	}
}

func (w *Worker) dispatch(ctx context.Context, item *domain.QueueItem) sync.Result {
	switch item.EntityType {
	case domain.EntityTypeOrder:
		switch item.Action {
		case domain.QueueActionExport, domain.QueueActionSync:
			res := w.orders.ProcessOrderExport(ctx, item.EntityID)
			return sync.Result{Success: res.Success, Skipped: res.Skipped, Err: res.Err}
		case domain.QueueActionCancel:
			return w.orders.ProcessOrderCancellation(ctx, item.EntityID)
		}
	case domain.EntityTypeProduct:
		switch item.Action {
		case domain.QueueActionExport, domain.QueueActionSync:
			return w.products.PushProduct(ctx, item.EntityID)
		}
	}
	return sync.Result{Err: &errors.ErrValidation{Field: "action", Message: fmt.Sprintf("no handler for %s/%s", item.EntityType, item.Action)}}
}

func (w *Worker) complete(ctx context.Context, item *domain.QueueItem) {
	if err := w.queue.MarkCompleted(ctx, item.ID); err != nil {
		w.logger.Error("Failed to complete queue item", zap.Int64("item_id", item.ID), zap.Error(err))
	}
}

func (w *Worker) fail(ctx context.Context, item *domain.QueueItem, msg string) bool {
	terminal, err := w.queue.MarkFailedOrRetry(ctx, item.ID, msg, w.cfg.MaxAttempts)
	if err != nil {
		w.logger.Error("Failed to record queue item failure", zap.Int64("item_id", item.ID), zap.Error(err))
		return true
	}
	item.Attempts++
	if terminal {
		w.logger.Warn("Queue item exhausted its attempts",
			zap.Int64("item_id", item.ID),
			zap.String("entity_type", string(item.EntityType)),
			zap.Int64("entity_id", item.EntityID),
			zap.String("action", string(item.Action)),
			zap.String("last_error", msg),
		)
	}
	return terminal
}

// terminalError reports whether retrying can never succeed
func terminalError(err error) bool {
	switch e := err.(type) {
	case *errors.ErrValidation, *errors.ErrEntityMismatch, *errors.ErrMissingReference:
		return true
	case *wms.APIError:
		return !e.Temporary()
	default:
		return false
	}
}
