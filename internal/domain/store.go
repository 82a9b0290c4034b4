package domain

import (
	"math/rand/v2"
	"slices"
)

// QuoteStore is the ordered, in-memory list of quotes.
// Insertion order is preserved. It is not safe for concurrent use;
// callers serialize access.
type QuoteStore struct {
	quotes []Quote
}

// NewQuoteStore creates a store holding a normalized copy of quotes.
// Entries with blank text are dropped.
func NewQuoteStore(quotes []Quote) *QuoteStore {
	s := &QuoteStore{quotes: make([]Quote, 0, len(quotes))}

	for _, q := range quotes {
		q = q.Normalize()
		if q.Text == "" {
			continue
		}

		s.quotes = append(s.quotes, q)
	}

	return s
}

// Len returns the number of quotes.
func (s *QuoteStore) Len() int {
	return len(s.quotes)
}

// All returns a copy of every quote in insertion order.
func (s *QuoteStore) All() []Quote {
	return slices.Clone(s.quotes)
}

// At returns the quote at index.
func (s *QuoteStore) At(index int) (Quote, error) {
	if index < 0 || index >= len(s.quotes) {
		return Quote{}, NewIndexError(index, len(s.quotes))
	}

	return s.quotes[index], nil
}

// Add appends a new quote after normalizing it.
func (s *QuoteStore) Add(text, category string) (Quote, error) {
	q, err := NewQuote(text, category)
	if err != nil {
		return Quote{}, err
	}

	s.quotes = append(s.quotes, q)

	return q, nil
}

// Append adds an already-built quote, keeping its ID.
func (s *QuoteStore) Append(q Quote) (Quote, error) {
	q = q.Normalize()
	if q.Text == "" {
		return Quote{}, ErrEmptyText
	}

	s.quotes = append(s.quotes, q)

	return q, nil
}

// EditAt overwrites the text and category of the quote at index.
// The quote keeps its ID.
func (s *QuoteStore) EditAt(index int, text, category string) (Quote, error) {
	if index < 0 || index >= len(s.quotes) {
		return Quote{}, NewIndexError(index, len(s.quotes))
	}

	q, err := NewQuote(text, category)
	if err != nil {
		return Quote{}, err
	}

	q.ID = s.quotes[index].ID
	s.quotes[index] = q

	return q, nil
}

// RemoveAt deletes the quote at index and returns it.
func (s *QuoteStore) RemoveAt(index int) (Quote, error) {
	if index < 0 || index >= len(s.quotes) {
		return Quote{}, NewIndexError(index, len(s.quotes))
	}

	removed := s.quotes[index]
	s.quotes = slices.Delete(s.quotes, index, index+1)

	return removed, nil
}

// Categories returns the distinct categories in ascending order.
func (s *QuoteStore) Categories() []string {
	seen := make(map[string]struct{}, len(s.quotes))
	out := make([]string, 0, len(s.quotes))

	for _, q := range s.quotes {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	slices.Sort(out)

	return out
}

// FilterByCategory returns the quotes in category, or every quote for
// CategoryAll and the empty string.
func (s *QuoteStore) FilterByCategory(category string) []Quote {
	if IsAllCategories(category) {
		return s.All()
	}

	want := NormalizeCategory(category)
	out := make([]Quote, 0)

	for _, q := range s.quotes {
		if q.Category == want {
			out = append(out, q)
		}
	}

	return out
}

// Merge reconciles a remote batch into the store and reports what changed.
func (s *QuoteStore) Merge(remote []Quote) MergeResult {
	merged, res := Reconcile(s.quotes, remote)
	s.quotes = merged

	return res
}

// PickRandom selects one quote uniformly from pool.
// A nil rng uses the package-level source.
func PickRandom(pool []Quote, rng *rand.Rand) (Quote, bool) {
	if len(pool) == 0 {
		return Quote{}, false
	}

	var i int
	if rng == nil {
		i = rand.IntN(len(pool))
	} else {
		i = rng.IntN(len(pool))
	}

	return pool[i], true
}
