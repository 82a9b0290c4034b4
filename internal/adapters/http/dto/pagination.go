package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// DefaultLimit is the default number of quotes per page.
const DefaultLimit = 20

// MaxLimit is the maximum allowed quotes per page.
const MaxLimit = 100

// Cursor errors.
var (
	// ErrInvalidCursor is returned when cursor decoding fails.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrNoCursor indicates no cursor was provided (first page request).
	ErrNoCursor = errors.New("no cursor provided")
)

// PaginationRequest represents pagination parameters from the request.
type PaginationRequest struct {
	// Cursor is an opaque string from a previous response's NextCursor.
	Cursor string `form:"cursor"`

	// Limit is the maximum number of items to return (1-100, default 20).
	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// GetLimit returns the limit with defaults applied.
func (p *PaginationRequest) GetLimit() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// DecodeCursor decodes the cursor string into CursorData.
// Returns ErrNoCursor if cursor is empty (first page request).
func (p *PaginationRequest) DecodeCursor() (*CursorData, error) {
	return DecodeCursor(p.Cursor)
}

// PaginatedResponse is a generic paginated response structure.
type PaginatedResponse[T any] struct {
	Items []T `json:"items"`

	// NextCursor is empty on the last page.
	NextCursor string `json:"nextCursor,omitempty"`

	HasMore bool `json:"hasMore"`
	Total   int  `json:"total"`
}

// CursorData is the position encoded in a cursor: the list index of the
// last item already returned. Indexes shift when quotes are removed, so a
// cursor is only stable while the list is not being edited.
type CursorData struct {
	After int `json:"a"`
}

// EncodeCursor encodes cursor data to a base64 string.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(jsonBytes)
}

// DecodeCursor decodes a base64 cursor string to cursor data.
// Returns ErrNoCursor if the encoded string is empty.
func DecodeCursor(encoded string) (*CursorData, error) {
	if encoded == "" {
		return nil, ErrNoCursor
	}

	jsonBytes, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(jsonBytes, &data); err != nil || data.After < 0 {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}

// Paginate returns the page of items following cursor. index reports an
// item's position in the full list; items must be in ascending index order.
func Paginate[T any](items []T, cursor *CursorData, limit int, index func(T) int) *PaginatedResponse[T] {
	start := 0
	if cursor != nil {
		for start < len(items) && index(items[start]) <= cursor.After {
			start++
		}
	}

	page := items[start:]
	hasMore := len(page) > limit

	if hasMore {
		page = page[:limit]
	}

	resp := &PaginatedResponse[T]{
		Items:   page,
		HasMore: hasMore,
		Total:   len(items),
	}

	if resp.Items == nil {
		resp.Items = []T{}
	}

	if hasMore {
		resp.NextCursor = EncodeCursor(&CursorData{After: index(page[len(page)-1])})
	}

	return resp
}
