package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// Session storage slots.
const (
	LastShownKey  = "lastShownQuote"
	LastFilterKey = "lastCategoryFilter"
)

// SessionStore implements ports.SessionStore.
// The last shown quote lives in the session store, which is short-lived;
// the last filter is a preference and lives in the durable store.
type SessionStore struct {
	session ports.KeyValueStore
	prefs   ports.KeyValueStore
}

// NewSessionStore creates a session store. prefs may be the same store as session.
func NewSessionStore(session, prefs ports.KeyValueStore) *SessionStore {
	return &SessionStore{session: session, prefs: prefs}
}

// LoadLastShown implements ports.SessionStore.
func (s *SessionStore) LoadLastShown(ctx context.Context) (domain.Quote, bool, error) {
	data, err := s.session.Get(ctx, LastShownKey)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Quote{}, false, nil
	}

	if err != nil {
		return domain.Quote{}, false, err
	}

	var rec quoteRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.Quote{}, false, domain.NewStorageError("decode", LastShownKey, err)
	}

	return domain.Quote{ID: rec.ID, Text: rec.Text, Category: rec.Category}, true, nil
}

// SaveLastShown implements ports.SessionStore.
func (s *SessionStore) SaveLastShown(ctx context.Context, q domain.Quote) error {
	data, err := json.Marshal(quoteRecord{ID: q.ID, Text: q.Text, Category: q.Category})
	if err != nil {
		return domain.NewStorageError("encode", LastShownKey, err)
	}

	return s.session.Set(ctx, LastShownKey, data, 0)
}

// LoadLastFilter implements ports.SessionStore.
func (s *SessionStore) LoadLastFilter(ctx context.Context) (string, error) {
	data, err := s.prefs.Get(ctx, LastFilterKey)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// SaveLastFilter implements ports.SessionStore.
func (s *SessionStore) SaveLastFilter(ctx context.Context, category string) error {
	return s.prefs.Set(ctx, LastFilterKey, []byte(category), 0)
}
