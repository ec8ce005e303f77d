// Package handleset keeps a Bloom filter of claimed handles so the public
// profile route can reject junk lookups without a database round trip.
// False positives fall through to the database; misses are definitive.
package handleset

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/linkshot/linkshot/internal/app/repository"
	"go.uber.org/zap"
)

const (
	minCapacity       = 1024
	falsePositiveRate = 0.01
	reloadTimeout     = 10 * time.Second
)

// Filter is a refreshable negative-lookup cache over profile handles.
type Filter struct {
	mu       sync.RWMutex
	filter   *bloom.BloomFilter
	repo     repository.ProfileRepository
	logger   *zap.Logger
	interval time.Duration
	stopChan chan struct{}
}

// New builds an unloaded filter. Until the first Reload succeeds every
// lookup passes through, so a cold start never hides real profiles.
func New(repo repository.ProfileRepository, logger *zap.Logger, interval time.Duration) *Filter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Filter{
		repo:     repo,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Reload rebuilds the filter from the current handle list.
func (f *Filter) Reload(ctx context.Context) error {
	handles, err := f.repo.ListHandles(ctx)
	if err != nil {
		return err
	}

	capacity := uint(len(handles) * 2)
	if capacity < minCapacity {
		capacity = minCapacity
	}
	next := bloom.NewWithEstimates(capacity, falsePositiveRate)
	for _, h := range handles {
		next.AddString(h)
	}

	f.mu.Lock()
	f.filter = next
	f.mu.Unlock()

	f.logger.Debug("handle filter reloaded", zap.Int("handles", len(handles)))
	return nil
}

// MightContain reports whether the handle could exist. True means "check
// the database"; false means the handle definitely does not exist.
func (f *Filter) MightContain(handle string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.filter == nil {
		return true
	}
	return f.filter.TestString(handle)
}

// Add records a freshly claimed handle so it is visible before the next
// periodic reload.
func (f *Filter) Add(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.filter != nil {
		f.filter.AddString(handle)
	}
}

// Start reloads the filter periodically until Stop is called.
func (f *Filter) Start() {
	go f.run()
}

// Stop terminates the periodic reload loop.
func (f *Filter) Stop() {
	close(f.stopChan)
}

func (f *Filter) run() {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
			if err := f.Reload(ctx); err != nil {
				f.logger.Warn("handle filter reload failed", zap.Error(err))
			}
			cancel()
		case <-f.stopChan:
			return
		}
	}
}
