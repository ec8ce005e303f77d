package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ReconcileWorker runs booster-tag reconciliation in the background. View
// traffic kicks it through a coalescing channel so a burst of views costs
// one pass, and a ticker is the fallback so the leaderboard self-heals
// even without traffic. Failures are logged and never surface to viewers.
type ReconcileWorker struct {
	logger   *zap.Logger
	ranks    RankService
	topN     int
	interval time.Duration
	kickChan chan struct{}
	stopChan chan struct{}
	done     chan struct{}
}

// NewReconcileWorker creates a reconcile worker. interval is the periodic
// fallback between passes.
func NewReconcileWorker(logger *zap.Logger, ranks RankService, topN int, interval time.Duration) *ReconcileWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &ReconcileWorker{
		logger:   logger,
		ranks:    ranks,
		topN:     topN,
		interval: interval,
		kickChan: make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *ReconcileWorker) Start() {
	go w.run()
}

// Stop terminates the loop and waits for an in-flight pass to finish.
func (w *ReconcileWorker) Stop() {
	close(w.stopChan)
	<-w.done
}

// Kick requests a reconciliation pass without blocking. Kicks arriving
// while one is already pending coalesce into a single pass.
func (w *ReconcileWorker) Kick() {
	select {
	case w.kickChan <- struct{}{}:
	default:
	}
}

func (w *ReconcileWorker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.kickChan:
			w.pass()
		case <-ticker.C:
			w.pass()
		case <-w.stopChan:
			w.logger.Info("reconcile worker stopped")
			return
		}
	}
}

func (w *ReconcileWorker) pass() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := w.ranks.Reconcile(ctx, w.topN)
	if err != nil {
		// Best-effort: the next kick or tick retries naturally.
		w.logger.Warn("rank reconciliation failed", zap.Error(err))
		return
	}

	if len(result.Updated) > 0 || len(result.Failed) > 0 {
		w.logger.Info("rank reconciliation pass",
			zap.Strings("updated", result.Updated),
			zap.Strings("failed", result.Failed),
		)
	}
}
