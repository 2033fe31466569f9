package queue

import (
	"context"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/domain"
	"github.com/jafarshop/wmsbridge/internal/repository"
	"github.com/jafarshop/wmsbridge/internal/sync"
)

// EventProcessor applies one queued webhook event
type EventProcessor interface {
	ProcessEvent(ctx context.Context, ev *domain.WebhookEvent) sync.Result
}

// WebhookDrainer works through the durable webhook queue. Ingress only
// persists events; this is the single consumer that applies them, so
// events sharing an external reference are always applied in queue order.
type WebhookDrainer struct {
	queue  repository.WebhookQueue
	router EventProcessor
	cfg    config.QueueConfig
	logger *zap.Logger
	notify chan struct{}
}

// NewWebhookDrainer creates a new webhook queue drainer
func NewWebhookDrainer(
	queue repository.WebhookQueue,
	router EventProcessor,
	cfg config.QueueConfig,
	logger *zap.Logger,
) *WebhookDrainer {
	return &WebhookDrainer{
		queue:  queue,
		router: router,
		cfg:    cfg,
		logger: logger,
		notify: make(chan struct{}, 1),
	}
}

// Kick asks the drainer to run soon without blocking the caller. The
// ingress handler calls it after enqueueing so webhooks are applied
// promptly instead of waiting for the next scheduled sweep.
func (d *WebhookDrainer) Kick() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

// Notify exposes the wake-up channel to the scheduler
func (d *WebhookDrainer) Notify() <-chan struct{} {
	return d.notify
}

// Drain processes batches until the queue yields nothing more. Each event
// is attempted at most once per drain; a transiently failed head keeps its
// place and is retried on the next sweep.
func (d *WebhookDrainer) Drain(ctx context.Context) BatchStats {
	var total BatchStats
	attempted := make(map[int64]bool)
	for {
		stats, more := d.runBatch(ctx, attempted)
		total.Processed += stats.Processed
		total.Successful += stats.Successful
		total.Failed += stats.Failed
		total.Skipped += stats.Skipped
		if !more || ctx.Err() != nil {
			break
		}
	}
	if total.Processed > 0 {
		d.logger.Info("Webhook queue drained",
			zap.Int("processed", total.Processed),
			zap.Int("successful", total.Successful),
			zap.Int("failed", total.Failed),
			zap.Int("skipped", total.Skipped),
		)
	}
	return total
}

// runBatch handles one batch; the second return reports whether progress
// was made. Events behind an unprocessed head only become eligible once
// the head is done, so the drain loops until a fetch yields nothing new.
func (d *WebhookDrainer) runBatch(ctx context.Context, attempted map[int64]bool) (BatchStats, bool) {
	var stats BatchStats
	events, err := d.queue.NextBatch(ctx, d.cfg.WebhookBatchSize)
	if err != nil {
		d.logger.Error("Failed to fetch webhook batch", zap.Error(err))
		return stats, false
	}
	progress := false
	for i := range events {
		ev := &events[i]
		if attempted[ev.ID] {
			continue
		}
		attempted[ev.ID] = true
		progress = true
		stats.Processed++
		result := d.router.ProcessEvent(ctx, ev)
		switch {
		case result.Err != nil && !terminalError(result.Err):
			stats.Failed++
			if err := d.queue.MarkFailed(ctx, ev.ID, result.Err.Error(), d.cfg.WebhookMaxAttempts); err != nil {
				d.logger.Error("Failed to record webhook failure", zap.Int64("event_id", ev.ID), zap.Error(err))
			}
		case result.Err != nil:
			// Hard errors are retired immediately so a poisoned event
			// does not block its reference's queue.
			stats.Failed++
			d.logger.Error("Webhook rejected",
				zap.Int64("event_id", ev.ID),
				zap.String("webhook_id", ev.WebhookID),
				zap.Error(result.Err),
			)
			if err := d.queue.MarkProcessed(ctx, ev.ID); err != nil {
				d.logger.Error("Failed to retire webhook", zap.Int64("event_id", ev.ID), zap.Error(err))
			}
		case result.Skipped:
			stats.Skipped++
			if err := d.queue.MarkProcessed(ctx, ev.ID); err != nil {
				d.logger.Error("Failed to mark webhook processed", zap.Int64("event_id", ev.ID), zap.Error(err))
			}
		default:
			stats.Successful++
			if err := d.queue.MarkProcessed(ctx, ev.ID); err != nil {
				d.logger.Error("Failed to mark webhook processed", zap.Int64("event_id", ev.ID), zap.Error(err))
			}
		}
	}
	return stats, progress
}
