// Package persistence stores quotes and session state on top of a
// ports.KeyValueStore and owns the JSON wire format shared by storage,
// import and export.
package persistence

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// quoteRecord is the persisted and exported shape of a quote.
type quoteRecord struct {
	ID       string `json:"id,omitempty"`
	Text     string `json:"text"`
	Category string `json:"category"`
}

// looseRecord accepts files written by other tools: ids may be numbers and
// any field may be missing or mistyped.
type looseRecord struct {
	ID       any `json:"id"`
	Text     any `json:"text"`
	Category any `json:"category"`
}

func toRecords(quotes []domain.Quote) []quoteRecord {
	out := make([]quoteRecord, len(quotes))
	for i, q := range quotes {
		out[i] = quoteRecord{ID: q.ID, Text: q.Text, Category: q.Category}
	}

	return out
}

// EncodeQuotes renders quotes as a 2-space indented JSON array.
func EncodeQuotes(quotes []domain.Quote) ([]byte, error) {
	data, err := json.MarshalIndent(toRecords(quotes), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode quotes: %w", err)
	}

	return data, nil
}

// DecodeQuotes parses a JSON array of quote objects.
//
// Entries whose text is missing, not a string or blank are skipped and
// counted. A payload that is not a JSON array is a validation error.
func DecodeQuotes(data []byte) ([]domain.Quote, int, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, 0, domain.NewValidationError("quotes", "must be a JSON array of quote objects")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, domain.NewValidationErrorWithValue("quotes", "malformed JSON", err.Error())
	}

	quotes := make([]domain.Quote, 0, len(raw))
	skipped := 0

	for _, item := range raw {
		q, ok := decodeOne(item)
		if !ok {
			skipped++
			continue
		}

		quotes = append(quotes, q)
	}

	return quotes, skipped, nil
}

func decodeOne(item json.RawMessage) (domain.Quote, bool) {
	var rec looseRecord
	if err := json.Unmarshal(item, &rec); err != nil {
		return domain.Quote{}, false
	}

	text, ok := rec.Text.(string)
	if !ok {
		return domain.Quote{}, false
	}

	category, _ := rec.Category.(string)

	q := domain.Quote{ID: idString(rec.ID), Text: text, Category: category}.Normalize()
	if q.Text == "" {
		return domain.Quote{}, false
	}

	return q, true
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return ""
	}
}

// JSONCodec implements ports.QuoteCodec with EncodeQuotes and DecodeQuotes.
type JSONCodec struct{}

// Encode implements ports.QuoteCodec.
func (JSONCodec) Encode(quotes []domain.Quote) ([]byte, error) {
	return EncodeQuotes(quotes)
}

// Decode implements ports.QuoteCodec.
func (JSONCodec) Decode(data []byte) ([]domain.Quote, int, error) {
	return DecodeQuotes(data)
}
