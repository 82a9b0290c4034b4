package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	httpadapter "github.com/jsamuelsen/quote-generator/internal/adapters/http"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

func init() {
	// Set Gin to release mode for accurate benchmarks
	gin.SetMode(gin.ReleaseMode)
	slog.SetDefault(discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// generateQuotes builds n quotes spread over ten categories.
func generateQuotes(n int) []domain.Quote {
	quotes := make([]domain.Quote, n)
	for i := range quotes {
		quotes[i] = domain.Quote{
			Text:     fmt.Sprintf("Quote number %d", i),
			Category: fmt.Sprintf("category-%d", i%10),
		}
	}

	return quotes
}

// setupQuoteService returns a service over an in-memory store seeded with n quotes.
func setupQuoteService(b *testing.B, n int) *app.QuoteService {
	b.Helper()

	repo := persistence.NewQuoteRepository(storage.NewMemoryStore(0))
	if err := repo.SaveQuotes(context.Background(), generateQuotes(n)); err != nil {
		b.Fatal(err)
	}

	svc := app.NewQuoteService(app.QuoteServiceConfig{
		Repository: repo,
		Codec:      persistence.JSONCodec{},
		Session:    persistence.NewSessionStore(storage.NewMemoryStore(0), storage.NewMemoryStore(0)),
		Logger:     discardLogger(),
		Rand:       rand.New(rand.NewPCG(1, 2)),
	})

	if _, err := svc.Load(context.Background()); err != nil {
		b.Fatal(err)
	}

	return svc
}

// setupRouter wires the quote and health routes over svc.
func setupRouter(svc *app.QuoteService) *gin.Engine {
	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(ports.NewHealthRegistry(),
			handlers.NewBuildInfo("1.0.0", "abc123", "2024-01-01T00:00:00Z")),
		QuoteHandler: handlers.NewQuoteHandler(svc),
	})

	return engine
}

func serve(b *testing.B, engine *gin.Engine, method, target, body string, want int) {
	b.Helper()

	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	if w.Code != want {
		b.Fatalf("%s %s: status %d, want %d", method, target, w.Code, want)
	}
}

// BenchmarkLiveness measures the probe path, including the middleware chain.
func BenchmarkLiveness(b *testing.B) {
	engine := setupRouter(setupQuoteService(b, 10))

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		serve(b, engine, http.MethodGet, "/-/live", "", http.StatusOK)
	}
}

// BenchmarkListQuotes measures one page of a filtered list at several sizes.
func BenchmarkListQuotes(b *testing.B) {
	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			engine := setupRouter(setupQuoteService(b, n))

			b.ResetTimer()
			b.ReportAllocs()

			for range b.N {
				serve(b, engine, http.MethodGet, "/api/v1/quotes?category=category-3&limit=20", "", http.StatusOK)
			}
		})
	}
}

// BenchmarkRandomQuote measures a filtered random pick, which also writes
// the session store.
func BenchmarkRandomQuote(b *testing.B) {
	engine := setupRouter(setupQuoteService(b, 1000))

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		serve(b, engine, http.MethodGet, "/api/v1/quotes/random?category=category-7", "", http.StatusOK)
	}
}

// BenchmarkAddQuote measures an append plus the snapshot written after it.
func BenchmarkAddQuote(b *testing.B) {
	engine := setupRouter(setupQuoteService(b, 100))

	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		serve(b, engine, http.MethodPost, "/api/v1/quotes", `{"text":"benchmark","category":"bench"}`, http.StatusCreated)
	}
}

// BenchmarkReconcile measures merging a batch into lists of several sizes.
func BenchmarkReconcile(b *testing.B) {
	remote := []domain.Quote{
		{Text: "Quote number 3", Category: domain.RemoteCategory},
		{Text: "brand new", Category: domain.RemoteCategory},
		{ID: "42", Text: "keyed", Category: domain.RemoteCategory},
		{Text: "   "},
		{Text: "another new one", Category: domain.RemoteCategory},
	}

	for _, n := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			local := generateQuotes(n)

			b.ResetTimer()
			b.ReportAllocs()

			for range b.N {
				_, _ = domain.Reconcile(local, remote)
			}
		})
	}
}

// BenchmarkDecodeQuotes measures parsing an import payload.
func BenchmarkDecodeQuotes(b *testing.B) {
	data, err := persistence.EncodeQuotes(generateQuotes(1000))
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()

	for range b.N {
		if _, _, err := persistence.DecodeQuotes(data); err != nil {
			b.Fatal(err)
		}
	}
}
