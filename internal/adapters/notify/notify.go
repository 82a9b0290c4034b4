// Package notify delivers user-facing notifications. Feed keeps recent
// notifications for the HTTP API to serve; Log writes them to the service
// log; Multi fans out to several notifiers.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// DefaultFeedCapacity is the number of notifications a Feed retains.
const DefaultFeedCapacity = 32

// Feed is a fixed-size ring of the most recent notifications.
// It is safe for concurrent use and never blocks the sender.
type Feed struct {
	mu    sync.Mutex
	items []domain.Notification
	next  int
	full  bool
	now   func() time.Time
}

// NewFeed creates a Feed holding up to capacity notifications.
// A non-positive capacity uses DefaultFeedCapacity.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}

	return &Feed{items: make([]domain.Notification, capacity), now: time.Now}
}

// Notify implements ports.Notifier. The oldest entry is overwritten when
// the feed is full.
func (f *Feed) Notify(_ context.Context, n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = f.now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)

	if f.next == 0 {
		f.full = true
	}
}

// Recent returns every retained notification, oldest first.
func (f *Feed) Recent() []domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.full {
		out := make([]domain.Notification, f.next)
		copy(out, f.items[:f.next])

		return out
	}

	out := make([]domain.Notification, 0, len(f.items))
	out = append(out, f.items[f.next:]...)

	return append(out, f.items[:f.next]...)
}

// Active returns the notifications still visible at now, oldest first.
func (f *Feed) Active(now time.Time) []domain.Notification {
	recent := f.Recent()
	out := recent[:0]

	for _, n := range recent {
		if n.Active(now) {
			out = append(out, n)
		}
	}

	return out
}

// Log writes notifications to a logger.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a Log notifier. The context logger is preferred when set.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}

	return &Log{logger: logger}
}

// Notify implements ports.Notifier.
func (l *Log) Notify(ctx context.Context, n domain.Notification) {
	logger := l.logger
	if logging.HasLogger(ctx) {
		logger = logging.FromContext(ctx)
	}

	logger.InfoContext(ctx, "notification",
		slog.String("message", n.Message),
		slog.Duration("visible_for", n.Duration),
	)
}

// Multi delivers each notification to every notifier in order.
type Multi []ports.Notifier

// Notify implements ports.Notifier.
func (m Multi) Notify(ctx context.Context, n domain.Notification) {
	for _, notifier := range m {
		notifier.Notify(ctx, n)
	}
}
