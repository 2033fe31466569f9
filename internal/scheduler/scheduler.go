package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jafarshop/wmsbridge/internal/config"
	"github.com/jafarshop/wmsbridge/internal/queue"
	"github.com/jafarshop/wmsbridge/internal/repository"
)

// Scheduler owns the background loops: the outbound queue worker on its
// interval, the webhook drainer on its sweep interval plus on-demand
// kicks, and the dedup ledger garbage collector.
type Scheduler struct {
	worker  *queue.Worker
	drainer *queue.WebhookDrainer
	ledger  repository.WebhookLedger
	cfg     config.QueueConfig
	logger  *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler; Start launches its loops
func New(
	worker *queue.Worker,
	drainer *queue.WebhookDrainer,
	ledger repository.WebhookLedger,
	cfg config.QueueConfig,
	logger *zap.Logger,
) *Scheduler {
	return &Scheduler{
		worker:  worker,
		drainer: drainer,
		ledger:  ledger,
		cfg:     cfg,
		logger:  logger,
	}
}

// Start launches the background loops. It returns immediately.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(3)
	go s.runOutboundLoop(ctx)
	go s.runWebhookLoop(ctx)
	go s.runLedgerGC(ctx)

	s.logger.Info("Scheduler started",
		zap.Duration("queue_interval", s.cfg.Interval),
		zap.Duration("webhook_sweep", s.cfg.WebhookSweep),
		zap.Duration("ledger_gc_interval", s.cfg.LedgerGCInterval),
	)
}

// Stop cancels the loops and waits for in-flight work, up to the given
// timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	if s.cancel == nil {
		return
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped")
	case <-time.After(timeout):
		s.logger.Warn("Scheduler stop timed out", zap.Duration("timeout", timeout))
	}
}

func (s *Scheduler) runOutboundLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.worker.RunBatch(ctx)
		}
	}
}

// runWebhookLoop drains on every kick from the ingress handler and on a
// periodic sweep that picks up retries and anything a crashed process
// left behind.
func (s *Scheduler) runWebhookLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.WebhookSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.drainer.Notify():
			s.drainer.Drain(ctx)
		case <-ticker.C:
			s.drainer.Drain(ctx)
		}
	}
}

func (s *Scheduler) runLedgerGC(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.LedgerGCInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-s.cfg.LedgerRetention)
			purged, err := s.ledger.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				s.logger.Error("Webhook ledger purge failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				s.logger.Info("Purged webhook ledger", zap.Int64("purged", purged), zap.Time("cutoff", cutoff))
			}
		}
	}
}
