package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/mocks"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

type quoteFixture struct {
	service *app.QuoteService
	router  *gin.Engine
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedQuotes() []domain.Quote {
	return []domain.Quote{
		{Text: "Stay hungry.", Category: "motivation"},
		{Text: "Less is more.", Category: "design"},
		{Text: "Ship it.", Category: "motivation"},
	}
}

// newQuoteFixture wires a QuoteService over in-memory storage. A nil
// remote leaves the service without a remote feed.
func newQuoteFixture(t *testing.T, remote ports.RemoteSource) *quoteFixture {
	t.Helper()

	repo := persistence.NewQuoteRepository(storage.NewMemoryStore(0))
	require.NoError(t, repo.SaveQuotes(context.Background(), seedQuotes()))

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Repository: repo,
		Codec:      persistence.JSONCodec{},
		Session:    persistence.NewSessionStore(storage.NewMemoryStore(0), storage.NewMemoryStore(0)),
		Remote:     remote,
		Logger:     discardLogger(),
	})

	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	router := gin.New()
	NewQuoteHandler(svc).RegisterQuoteRoutes(router.Group("/api/v1"))

	return &quoteFixture{service: svc, router: router}
}

func (f *quoteFixture) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, w).Error.Code
}

func TestQuoteHandler_ListQuotes(t *testing.T) {
	f := newQuoteFixture(t, nil)

	t.Run("all quotes", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/quotes", "")

		require.Equal(t, http.StatusOK, w.Code)

		page := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)
		assert.Equal(t, 3, page.Total)
		assert.False(t, page.HasMore)
		assert.Equal(t, "Stay hungry.", page.Items[0].Text)
	})

	t.Run("filtered keeps full-list indexes", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/quotes?category=Motivation", "")

		require.Equal(t, http.StatusOK, w.Code)

		page := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)
		require.Len(t, page.Items, 2)
		assert.Equal(t, 0, page.Items[0].Index)
		assert.Equal(t, 2, page.Items[1].Index)
	})

	t.Run("cursor walks the pages", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/quotes?limit=2", "")
		first := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)

		require.True(t, first.HasMore)
		require.NotEmpty(t, first.NextCursor)
		assert.Len(t, first.Items, 2)

		w = f.do(http.MethodGet, "/api/v1/quotes?limit=2&cursor="+first.NextCursor, "")
		second := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)

		assert.False(t, second.HasMore)
		require.Len(t, second.Items, 1)
		assert.Equal(t, 2, second.Items[0].Index)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/quotes?cursor=!!!", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeBadRequest, errorCode(t, w))
	})

	t.Run("limit out of range", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/quotes?limit=500", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidation, errorCode(t, w))
	})
}

func TestQuoteHandler_AddQuote(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantCat    string
	}{
		{
			name:       "normalizes category",
			body:       `{"text":"  Keep going. ","category":" Wisdom "}`,
			wantStatus: http.StatusCreated,
			wantCat:    "wisdom",
		},
		{
			name:       "defaults category",
			body:       `{"text":"Keep going."}`,
			wantStatus: http.StatusCreated,
			wantCat:    domain.DefaultCategory,
		},
		{
			name:       "blank text",
			body:       `{"text":"   "}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeValidation,
		},
		{
			name:       "malformed body",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrorCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, nil)

			w := f.do(http.MethodPost, "/api/v1/quotes", tt.body)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
				assert.Equal(t, 3, f.service.Len())

				return
			}

			resp := decode[dto.QuoteResponse](t, w)
			assert.Equal(t, 3, resp.Index)
			assert.Equal(t, "Keep going.", resp.Text)
			assert.Equal(t, tt.wantCat, resp.Category)
			assert.Equal(t, 4, f.service.Len())
		})
	}
}

func TestQuoteHandler_EditQuote(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{name: "in range", target: "/api/v1/quotes/1", wantStatus: http.StatusOK},
		{name: "past the end", target: "/api/v1/quotes/3", wantStatus: http.StatusNotFound, wantCode: dto.ErrorCodeIndexOutOfRange},
		{name: "negative", target: "/api/v1/quotes/-1", wantStatus: http.StatusNotFound, wantCode: dto.ErrorCodeIndexOutOfRange},
		{name: "not a number", target: "/api/v1/quotes/one", wantStatus: http.StatusBadRequest, wantCode: dto.ErrorCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture(t, nil)

			w := f.do(http.MethodPut, tt.target, `{"text":"More is more.","category":"design"}`)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, w))
				assert.Equal(t, seedQuotes(), f.service.All())

				return
			}

			assert.Equal(t, "More is more.", f.service.All()[1].Text)
		})
	}
}

func TestQuoteHandler_RemoveQuote(t *testing.T) {
	f := newQuoteFixture(t, nil)

	w := f.do(http.MethodDelete, "/api/v1/quotes/0", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Stay hungry.", decode[dto.QuoteResponse](t, w).Text)
	assert.Equal(t, "Less is more.", f.service.All()[0].Text, "later quotes shift down")

	w = f.do(http.MethodDelete, "/api/v1/quotes/2", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeIndexOutOfRange, errorCode(t, w))
	assert.Equal(t, 2, f.service.Len())
}

func TestQuoteHandler_RandomAndLast(t *testing.T) {
	f := newQuoteFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/quotes/last", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodGet, "/api/v1/quotes/random?category=Design", "")

	require.Equal(t, http.StatusOK, w.Code)

	pick := decode[dto.RandomQuoteResponse](t, w)
	assert.Equal(t, "Less is more.", pick.Quote.Text)
	assert.Equal(t, "design", pick.Category)

	w = f.do(http.MethodGet, "/api/v1/quotes/last", "")

	require.Equal(t, http.StatusOK, w.Code)

	last := decode[dto.RandomQuoteResponse](t, w)
	assert.Equal(t, "Less is more.", last.Quote.Text)
	assert.Equal(t, "design", last.Category)

	w = f.do(http.MethodGet, "/api/v1/quotes/random", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "design", decode[dto.RandomQuoteResponse](t, w).Category, "last filter is restored")

	w = f.do(http.MethodGet, "/api/v1/quotes/random?category=nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrorCodeNotFound, errorCode(t, w))
}

func TestQuoteHandler_ListCategories(t *testing.T) {
	f := newQuoteFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/categories", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"design", "motivation"}, decode[dto.CategoriesResponse](t, w).Categories)
}

func TestQuoteHandler_ImportQuotes(t *testing.T) {
	t.Run("raw body", func(t *testing.T) {
		f := newQuoteFixture(t, nil)

		w := f.do(http.MethodPost, "/api/v1/quotes/import",
			`[{"text":"Imported","category":"Misc"},{"text":""},{"category":"x"},42]`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, dto.ImportResponse{Imported: 1, Skipped: 3, Total: 4}, decode[dto.ImportResponse](t, w))
		assert.Equal(t, "misc", f.service.All()[3].Category)
	})

	t.Run("multipart file", func(t *testing.T) {
		f := newQuoteFixture(t, nil)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", "quotes.json")
		require.NoError(t, err)
		_, err = part.Write([]byte(`[{"text":"From a file"}]`))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes/import", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())

		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1, decode[dto.ImportResponse](t, w).Imported)
		assert.Equal(t, domain.DefaultCategory, f.service.All()[3].Category)
	})

	t.Run("not an array", func(t *testing.T) {
		f := newQuoteFixture(t, nil)

		w := f.do(http.MethodPost, "/api/v1/quotes/import", `{"text":"x"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidation, errorCode(t, w))
		assert.Equal(t, 3, f.service.Len())
	})

	t.Run("empty body", func(t *testing.T) {
		f := newQuoteFixture(t, nil)

		w := f.do(http.MethodPost, "/api/v1/quotes/import", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeBadRequest, errorCode(t, w))
	})
}

func TestExportFilename(t *testing.T) {
	at := time.Date(2024, 5, 1, 14, 30, 5, 0, time.FixedZone("CEST", 2*60*60))

	assert.Equal(t, "quotes-20240501T123005Z.json", exportFilename(at))
}

func TestQuoteHandler_ExportQuotes(t *testing.T) {
	f := newQuoteFixture(t, nil)

	w := f.do(http.MethodGet, "/api/v1/quotes/export", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `^attachment; filename="quotes-\d{8}T\d{6}Z\.json"$`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	quotes, skipped, err := persistence.DecodeQuotes(w.Body.Bytes())
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Equal(t, seedQuotes(), quotes)
}

func TestQuoteHandler_PushQuotes(t *testing.T) {
	t.Run("partial failure", func(t *testing.T) {
		remote := mocks.NewMockRemoteSource(t)
		f := newQuoteFixture(t, remote)

		remote.EXPECT().PushQuote(mock.Anything, mock.MatchedBy(func(q domain.Quote) bool {
			return q.Category == "motivation"
		})).Return(nil).Twice()
		remote.EXPECT().PushQuote(mock.Anything, mock.MatchedBy(func(q domain.Quote) bool {
			return q.Category == "design"
		})).Return(errors.New("boom")).Once()

		w := f.do(http.MethodPost, "/api/v1/quotes/push", "")

		require.Equal(t, http.StatusOK, w.Code)

		resp := decode[dto.PushResponse](t, w)
		assert.Equal(t, 2, resp.Pushed)
		assert.Equal(t, 1, resp.Failed)
		require.Len(t, resp.Errors, 1)
		assert.Contains(t, resp.Errors[0], "boom")
	})

	t.Run("no remote configured", func(t *testing.T) {
		f := newQuoteFixture(t, nil)

		w := f.do(http.MethodPost, "/api/v1/quotes/push", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrorCodeUnavailable, errorCode(t, w))
	})
}

func TestQuoteHandler_RegisterQuoteRoutes(t *testing.T) {
	router := gin.New()
	NewQuoteHandler(nil).RegisterQuoteRoutes(router.Group("/api/v1"))

	routeMap := make(map[string]bool)
	for _, r := range router.Routes() {
		routeMap[r.Method+" "+r.Path] = true
	}

	for _, expected := range []string{
		"GET /api/v1/categories",
		"GET /api/v1/quotes",
		"POST /api/v1/quotes",
		"GET /api/v1/quotes/random",
		"GET /api/v1/quotes/last",
		"GET /api/v1/quotes/export",
		"POST /api/v1/quotes/import",
		"POST /api/v1/quotes/push",
		"PUT /api/v1/quotes/:index",
		"DELETE /api/v1/quotes/:index",
	} {
		assert.True(t, routeMap[expected], "missing route: %s", expected)
	}
}
