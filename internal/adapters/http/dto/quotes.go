package dto

import (
	"time"

	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// QuoteRequest is the body of POST /quotes and PUT /quotes/:index.
type QuoteRequest struct {
	Text     string `json:"text"     validate:"notblank,max=2000"`
	Category string `json:"category" validate:"omitempty,max=64,category"`
}

// ListQuotesRequest holds the query parameters of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Category string `form:"category" validate:"omitempty,max=64,category"`
}

// QuoteResponse is a quote with its position in the full list.
type QuoteResponse struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// RandomQuoteResponse is the body of GET /quotes/random and /quotes/last.
// Quote.Index is -1: the pick is not tied to a list position.
type RandomQuoteResponse struct {
	Quote    QuoteResponse `json:"quote"`
	Category string        `json:"category"`
}

// CategoriesResponse lists the distinct categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// ImportResponse reports an import.
type ImportResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

// PushResponse reports a push of every local quote.
type PushResponse struct {
	Pushed int      `json:"pushed"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors,omitempty"`
}

// SyncResultResponse describes one sync cycle.
type SyncResultResponse struct {
	CycleID    string    `json:"cycleId"`
	Fetched    int       `json:"fetched"`
	Inserted   int       `json:"inserted"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Collapsed  int       `json:"collapsed"`
	Notified   bool      `json:"notified"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`

	PersistError string `json:"persistError,omitempty"`
}

// SyncStatusResponse is the body of GET /sync/status.
type SyncStatusResponse struct {
	State       string              `json:"state"`
	Running     bool                `json:"running"`
	Interval    string              `json:"interval"`
	Cycles      int                 `json:"cycles"`
	LastResult  *SyncResultResponse `json:"lastResult,omitempty"`
	LastError   string              `json:"lastError,omitempty"`
	LastErrorAt *time.Time          `json:"lastErrorAt,omitempty"`
}

// NotificationResponse is a notification still visible to the user.
type NotificationResponse struct {
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewQuoteResponse converts a quote at index.
func NewQuoteResponse(index int, q domain.Quote) QuoteResponse {
	return QuoteResponse{Index: index, ID: q.ID, Text: q.Text, Category: q.Category}
}

// NewQuoteResponses converts a filtered listing.
func NewQuoteResponses(quotes []app.IndexedQuote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q.Index, q.Quote)
	}

	return out
}

// NewSyncResultResponse converts a completed cycle.
func NewSyncResultResponse(r app.SyncResult) SyncResultResponse {
	return SyncResultResponse{
		CycleID:    r.CycleID,
		Fetched:    r.Fetched,
		Inserted:   r.Merge.Inserted,
		Updated:    r.Merge.Updated,
		Skipped:    r.Merge.Skipped,
		Collapsed:  r.Merge.Collapsed,
		Notified:   r.Notified,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,

		PersistError: r.PersistError,
	}
}

// NewSyncStatusResponse converts the sync service status.
func NewSyncStatusResponse(s app.SyncStatus) SyncStatusResponse {
	resp := SyncStatusResponse{
		State:     s.State.String(),
		Running:   s.Running,
		Interval:  s.Interval.String(),
		Cycles:    s.Cycles,
		LastError: s.LastError,
	}

	if s.LastResult != nil {
		last := NewSyncResultResponse(*s.LastResult)
		resp.LastResult = &last
	}

	if !s.LastErrorAt.IsZero() {
		at := s.LastErrorAt
		resp.LastErrorAt = &at
	}

	return resp
}

// NewPushResponse converts a push result.
func NewPushResponse(r app.PushResult) PushResponse {
	resp := PushResponse{Pushed: r.Pushed, Failed: r.Failed}
	for _, err := range r.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}

	return resp
}

// NewNotificationResponses converts active notifications.
func NewNotificationResponses(ns []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(ns))
	for i, n := range ns {
		out[i] = NotificationResponse{Message: n.Message, CreatedAt: n.CreatedAt, ExpiresAt: n.ExpiresAt()}
	}

	return out
}
