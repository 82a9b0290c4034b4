package acl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

// maxResponseBody caps decoded success bodies.
const maxResponseBody = 4 << 20

// BaseAdapter holds the client and service name shared by feed adapters.
type BaseAdapter struct {
	client      *clients.Client
	serviceName string
}

// NewBaseAdapter creates a BaseAdapter.
func NewBaseAdapter(client *clients.Client, serviceName string) BaseAdapter {
	return BaseAdapter{client: client, serviceName: serviceName}
}

// Client returns the underlying HTTP client.
func (a *BaseAdapter) Client() *clients.Client {
	return a.client
}

// ServiceName returns the name used in errors and health checks.
func (a *BaseAdapter) ServiceName() string {
	return a.serviceName
}

// Get issues a GET and returns the body of a 2xx response. The caller
// closes it. Failures are already domain errors.
func (a *BaseAdapter) Get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)

	return a.checkResponse(resp, err, operation)
}

// PostJSON issues a POST with v as the JSON body.
func (a *BaseAdapter) PostJSON(ctx context.Context, path string, v any, operation string) (io.ReadCloser, error) {
	resp, err := a.client.PostJSON(ctx, path, v)

	return a.checkResponse(resp, err, operation)
}

func (a *BaseAdapter) checkResponse(resp *http.Response, err error, operation string) (io.ReadCloser, error) {
	if err != nil {
		return nil, MapHTTPError(nil, err, a.serviceName, operation)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, MapHTTPError(resp, nil, a.serviceName, operation)
	}

	return resp.Body, nil
}

// DecodeResponse decodes a JSON body into T and closes it.
func DecodeResponse[T any](body io.ReadCloser) (T, error) {
	var result T

	if body == nil {
		return result, errors.New("response body is nil")
	}
	defer func() { _ = body.Close() }()

	if err := json.NewDecoder(io.LimitReader(body, maxResponseBody)).Decode(&result); err != nil {
		return result, fmt.Errorf("decoding response: %w", err)
	}

	return result, nil
}

// Translator converts one external DTO into a domain value.
type Translator[E, D any] func(ext *E) (D, error)

// TranslateSlice translates every item. Items that fail translation are
// left out and their errors returned alongside, so one bad record does not
// sink a whole batch.
func TranslateSlice[E, D any](items []E, translate Translator[E, D]) ([]D, []error) {
	out := make([]D, 0, len(items))

	var errs []error

	for i := range items {
		d, err := translate(&items[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("item %d: %w", i, err))
			continue
		}

		out = append(out, d)
	}

	return out, errs
}

// ValidatePositive rejects non-positive identifiers.
func ValidatePositive[T ~int | ~int64](value T, fieldName string) error {
	if value <= 0 {
		return domain.NewValidationErrorWithValue(fieldName, "must be positive", value)
	}

	return nil
}
