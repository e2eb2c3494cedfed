package series

import (
	"context"
	"sync"
	"time"

	"serio/pkg/logger"
)

// DefaultSweepInterval is how often lapsed reservations are collected.
const DefaultSweepInterval = time.Hour

// Sweeper periodically releases reservations whose hold period has lapsed
// back into the available pool. Each sweep goes through the same Service
// chokepoint as every other mutation, so a cancellation between runs never
// tears an operation.
type Sweeper struct {
	service  *Service
	interval time.Duration
	log      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a sweeper with the given check interval.
// Zero interval falls back to DefaultSweepInterval.
func NewSweeper(service *Service, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{
		service:  service,
		interval: interval,
		log:      log.WithComponent("sweeper"),
	}
}

// Start launches the background sweep loop. The first sweep runs
// immediately; subsequent runs follow the configured interval.
func (w *Sweeper) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return // already running
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)

	w.log.Infow("sweeper started", "interval", w.interval)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (w *Sweeper) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	w.wg.Wait()
	w.log.Info("sweeper stopped")
}

func (w *Sweeper) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// RunNow triggers an immediate sweep (admin/testing).
func (w *Sweeper) RunNow(ctx context.Context) {
	w.sweep(ctx)
}

func (w *Sweeper) sweep(ctx context.Context) {
	expired, err := w.service.ExpireSweep(ctx, time.Now())
	if err != nil {
		w.log.Errorw("sweep failed", "error", err)
		return
	}
	if len(expired) > 0 {
		w.log.Infow("sweep completed", "expired", len(expired))
	}
}
