// Package domain contains core business entities and rules.
package domain

import (
	"strings"
	"time"
)

const (
	// DefaultCategory is assigned to quotes added without a category.
	DefaultCategory = "uncategorized"

	// CategoryAll is the filter value that matches every quote.
	CategoryAll = "all"

	// RemoteCategory is the category given to quotes pulled from the remote feed.
	RemoteCategory = "serversync"
)

// ErrEmptyText is returned when a quote's text is blank after trimming.
// It is a *ValidationError, so errors.Is(err, ErrValidation) also holds.
var ErrEmptyText error = &ValidationError{Field: "text", Message: "quote text must not be empty"}

// Quote is a single quotation with its category.
// This is a domain entity - it has no knowledge of external systems.
type Quote struct {
	// ID is an optional external identifier. When set it is the natural key.
	ID string

	// Text is the quotation itself. Never empty once normalized.
	Text string

	// Category is lower-case and trimmed.
	Category string
}

// NewQuote builds a normalized quote, rejecting blank text.
func NewQuote(text, category string) (Quote, error) {
	q := Quote{Text: text, Category: category}.Normalize()
	if q.Text == "" {
		return Quote{}, ErrEmptyText
	}

	return q, nil
}

// Normalize trims every field, lower-cases the category and fills in
// DefaultCategory when it is empty.
func (q Quote) Normalize() Quote {
	q.ID = strings.TrimSpace(q.ID)
	q.Text = strings.TrimSpace(q.Text)
	q.Category = NormalizeCategory(q.Category)

	return q
}

// NaturalKey identifies a quote across the local store and the remote feed.
// Records with an ID are keyed by it; the rest are keyed by text.
func (q Quote) NaturalKey() string {
	if q.ID != "" {
		return "id:" + q.ID
	}

	return "text:" + q.Text
}

// NormalizeCategory trims and lower-cases a category name.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return DefaultCategory
	}

	return c
}

// IsAllCategories reports whether category selects every quote.
func IsAllCategories(category string) bool {
	c := strings.ToLower(strings.TrimSpace(category))
	return c == "" || c == CategoryAll
}

// DefaultQuotes returns the seed set used when nothing has been persisted yet.
func DefaultQuotes() []Quote {
	return []Quote{
		{Text: "The best way to get started is to quit talking and begin doing.", Category: "inspirational"},
		{Text: "Don't let yesterday take up too much of today.", Category: "inspirational"},
		{Text: "Focus on being productive instead of busy.", Category: "productivity"},
		{Text: "It's not whether you get knocked down, it's whether you get up.", Category: "resilience"},
		{Text: "Learning never exhausts the mind.", Category: "learning"},
		{Text: "Action is the foundational key to all success.", Category: "productivity"},
	}
}

// Notification is a transient message shown after a sync cycle.
type Notification struct {
	Message   string
	CreatedAt time.Time
	Duration  time.Duration
}

// ExpiresAt returns the instant after which the notification is hidden.
func (n Notification) ExpiresAt() time.Time {
	return n.CreatedAt.Add(n.Duration)
}

// Active reports whether the notification is still visible at now.
func (n Notification) Active(now time.Time) bool {
	return now.Before(n.ExpiresAt())
}
