package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Retrier re-attempts every webhook delivery that is due and reports how many it tried.
type Retrier interface {
	RetryDue(ctx context.Context) (int, error)
}

// WebhookSweeper drives the webhook retry sweep on a fixed interval.
type WebhookSweeper struct {
	retrier  Retrier
	interval time.Duration
	logger   *zap.Logger
}

func NewWebhookSweeper(retrier Retrier, interval time.Duration, logger *zap.Logger) *WebhookSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &WebhookSweeper{
		retrier:  retrier,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately, then every interval until ctx is cancelled.
func (w *WebhookSweeper) Run(ctx context.Context) {
	w.logger.Info("Webhook retry sweeper started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)

		select {
		case <-ctx.Done():
			w.logger.Info("Webhook retry sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

func (w *WebhookSweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	n, err := w.retrier.RetryDue(ctx)
	if err != nil {
		w.logger.Error("Webhook retry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		w.logger.Info("Webhook retry sweep finished", zap.Int("attempted", n))
	}
}
