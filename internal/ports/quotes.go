// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrStorage, ErrUnavailable, etc.)
//   - Keep interfaces small and focused
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// KeyValueStore is the raw byte store that repositories are built on.
// Implementations include the SQLite-backed durable store and the
// in-memory session store.
type KeyValueStore interface {
	// Get retrieves the value stored under key.
	// Returns domain.ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A ttl of 0 means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Does not return an error if the key does not exist.
	Delete(ctx context.Context, key string) error
}

// QuoteRepository persists the full quote list.
type QuoteRepository interface {
	// LoadQuotes returns the persisted list, or (nil, nil) when nothing has
	// been saved yet. A malformed payload yields a *domain.StorageError.
	LoadQuotes(ctx context.Context) ([]domain.Quote, error)

	// SaveQuotes overwrites the persisted list.
	SaveQuotes(ctx context.Context, quotes []domain.Quote) error
}

// SessionStore keeps per-session presentation state.
type SessionStore interface {
	// LoadLastShown returns the last quote displayed, if any.
	LoadLastShown(ctx context.Context) (domain.Quote, bool, error)

	// SaveLastShown records the quote just displayed.
	SaveLastShown(ctx context.Context, q domain.Quote) error

	// LoadLastFilter returns the last category filter, or "" when unset.
	LoadLastFilter(ctx context.Context) (string, error)

	// SaveLastFilter records the category filter in use.
	SaveLastFilter(ctx context.Context, category string) error
}

// RemoteSource is the external quote feed used by the sync cycle.
//
// Key considerations:
//   - Handle timeouts via context deadline
//   - Map external errors to domain.ErrUnavailable
//   - Return normalized domain quotes, never external DTOs
type RemoteSource interface {
	// FetchBatch retrieves the current batch of remote quotes.
	FetchBatch(ctx context.Context) ([]domain.Quote, error)

	// PushQuote publishes a local quote to the remote feed.
	PushQuote(ctx context.Context, q domain.Quote) error
}

// Notifier delivers user-facing notifications.
type Notifier interface {
	// Notify publishes n. Implementations must not block on slow consumers.
	Notify(ctx context.Context, n domain.Notification)
}

// QuoteCodec converts between quote lists and their interchange format.
type QuoteCodec interface {
	// Encode renders quotes for export.
	Encode(quotes []domain.Quote) ([]byte, error)

	// Decode parses an import payload. Unusable entries are dropped and
	// counted in skipped; a payload of the wrong shape is a validation error.
	Decode(data []byte) (quotes []domain.Quote, skipped int, err error)
}
