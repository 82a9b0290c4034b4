package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// QuotesKey is the storage slot holding the serialized quote list.
const QuotesKey = "quotes"

// QuoteRepository implements ports.QuoteRepository over a key-value store.
type QuoteRepository struct {
	kv ports.KeyValueStore
}

// NewQuoteRepository creates a repository backed by kv.
func NewQuoteRepository(kv ports.KeyValueStore) *QuoteRepository {
	return &QuoteRepository{kv: kv}
}

// LoadQuotes implements ports.QuoteRepository.
func (r *QuoteRepository) LoadQuotes(ctx context.Context) ([]domain.Quote, error) {
	data, err := r.kv.Get(ctx, QuotesKey)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var records []quoteRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, domain.NewStorageError("decode", QuotesKey, err)
	}

	quotes := make([]domain.Quote, 0, len(records))
	for _, rec := range records {
		quotes = append(quotes, domain.Quote{ID: rec.ID, Text: rec.Text, Category: rec.Category})
	}

	return quotes, nil
}

// SaveQuotes implements ports.QuoteRepository.
func (r *QuoteRepository) SaveQuotes(ctx context.Context, quotes []domain.Quote) error {
	data, err := json.Marshal(toRecords(quotes))
	if err != nil {
		return domain.NewStorageError("encode", QuotesKey, err)
	}

	return r.kv.Set(ctx, QuotesKey, data, 0)
}
