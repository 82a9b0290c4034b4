package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultJanitorInterval = time.Minute

// SweepFunc removes expired entries from one store and reports how many.
type SweepFunc func(ctx context.Context) (int64, error)

// SweepMemory adapts MemoryStore.Sweep to a SweepFunc.
func SweepMemory(m *MemoryStore) SweepFunc {
	return func(context.Context) (int64, error) {
		return int64(m.Sweep()), nil
	}
}

// Janitor periodically drops expired entries from the stores it was given.
// Reads already treat expired entries as missing; the janitor only
// reclaims space.
type Janitor struct {
	interval time.Duration
	sweeps   map[string]SweepFunc
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewJanitor creates a stopped janitor. sweeps is keyed by store name for
// logging. A non-positive interval means one minute.
func NewJanitor(interval time.Duration, logger *slog.Logger, sweeps map[string]SweepFunc) *Janitor {
	if interval <= 0 {
		interval = defaultJanitorInterval
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Janitor{
		interval: interval,
		sweeps:   sweeps,
		logger:   logger.With(slog.String("component", "storage.Janitor")),
	}
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (j *Janitor) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.cancel != nil {
		return
	}

	ctx, j.cancel = context.WithCancel(ctx)
	j.done = make(chan struct{})

	go j.loop(ctx, j.done)
}

// Stop halts the loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel = nil
	j.mu.Unlock()

	if cancel == nil {
		return
	}

	cancel()
	<-done
}

// SweepNow runs every sweep once and returns the total removed.
func (j *Janitor) SweepNow(ctx context.Context) int64 {
	var total int64

	for name, sweep := range j.sweeps {
		n, err := sweep(ctx)
		if err != nil {
			j.logger.Warn("sweep failed", slog.String("store", name), slog.Any("error", err))
			continue
		}

		if n > 0 {
			j.logger.Debug("expired entries removed", slog.String("store", name), slog.Int64("count", n))
		}

		total += n
	}

	return total
}

func (j *Janitor) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepNow(ctx)
		}
	}
}
