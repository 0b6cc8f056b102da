package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"proxify/pkg/e"
)

type ExpirySweeper interface {
	ExpireSweep(ctx context.Context, now time.Time) (int, error)
}

// Sweeper evicts expired alerts on a fixed cadence until ctx is done.
type Sweeper struct {
	store    ExpirySweeper
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(store ExpirySweeper, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sweeper STARTED", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) int {
	start := time.Now()
	n, err := w.store.ExpireSweep(ctx, w.now())
	if err != nil {
		if errors.Is(err, e.ErrCanceled) || errors.Is(err, e.ErrDeadline) {
			w.logger.Info("sweep interrupted", slog.Int("evicted", n))
			return n
		}
		w.logger.Error("sweep failed", slog.Int("evicted", n), slog.Any("error", err))
		return n
	}
	if n > 0 {
		w.logger.Info("expired alerts evicted", slog.Int("evicted", n), slog.Duration("took", time.Since(start)))
	}
	return n
}
