//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quote-generator/internal/adapters/flags"
	httpadapter "github.com/jsamuelsen/quote-generator/internal/adapters/http"
	"github.com/jsamuelsen/quote-generator/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quote-generator/internal/adapters/notify"
	"github.com/jsamuelsen/quote-generator/internal/adapters/persistence"
	"github.com/jsamuelsen/quote-generator/internal/adapters/storage"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/platform/config"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
	slog.SetDefault(discardLogger())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFeed is a jsonplaceholder-style /posts endpoint.
type fakeFeed struct {
	server   *httptest.Server
	requests atomic.Int32

	mu     sync.Mutex
	posts  []map[string]any
	pushed []map[string]any
	down   bool
	delay  time.Duration
}

func newFakeFeed() *fakeFeed {
	f := &fakeFeed{}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))

	return f
}

func (f *fakeFeed) serve(w http.ResponseWriter, r *http.Request) {
	f.requests.Add(1)

	f.mu.Lock()
	down, delay := f.down, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if down {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	if r.URL.Path != "/posts" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{}`))

		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		data, _ := json.Marshal(f.posts)
		f.mu.Unlock()

		_, _ = w.Write(data)
	case http.MethodPost:
		var post map[string]any
		if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.pushed = append(f.pushed, post)
		post["id"] = 100 + len(f.pushed)
		f.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(post)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeFeed) setPosts(raw []byte) error {
	var posts []map[string]any
	if err := json.Unmarshal(raw, &posts); err != nil {
		return fmt.Errorf("posts must be a JSON array: %w", err)
	}

	f.mu.Lock()
	f.posts = posts
	f.mu.Unlock()

	return nil
}

func (f *fakeFeed) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeFeed) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *fakeFeed) pushedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.pushed)
}

// stack is the service wired the way cmd/service does it, over a SQLite
// file and a fake remote feed.
type stack struct {
	dir    string
	dbPath string
	feed   *fakeFeed

	db     *storage.SQLiteStore
	remote *acl.RemoteQuoteClient
	quotes *app.QuoteService
	sync   *app.SyncService
	notes  *notify.Feed
	server *httptest.Server

	closeOnce sync.Once
	closeErr  error
}

type stackOptions struct {
	features     map[string]any
	syncTimeout  time.Duration
	maxAttempts  int
	useRemoteIDs bool
}

// startStack wires a stack in dir, reusing feed when it is non-nil.
func startStack(dir string, feed *fakeFeed, opts stackOptions) (*stack, error) {
	cfg, err := config.LoadFrom(dir, "")
	if err != nil {
		return nil, err
	}

	if feed == nil {
		feed = newFakeFeed()
	}

	s := &stack{dir: dir, dbPath: filepath.Join(dir, "quotes.db"), feed: feed}

	s.db, err = storage.OpenSQLite(storage.SQLiteConfig{Path: s.dbPath, BusyTimeout: time.Second})
	if err != nil {
		return nil, err
	}

	retry := cfg.Client.Retry
	retry.InitialInterval = 5 * time.Millisecond
	retry.MaxInterval = 20 * time.Millisecond

	if opts.maxAttempts > 0 {
		retry.MaxAttempts = opts.maxAttempts
	}

	httpClient, err := clients.New(&clients.Config{
		BaseURL:     feed.server.URL,
		ServiceName: "remote-quotes",
		Timeout:     2 * time.Second,
		Retry:       retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      discardLogger(),
	})
	if err != nil {
		_ = s.db.Close()
		return nil, err
	}

	s.remote = acl.NewRemoteQuoteClient(acl.RemoteQuoteConfig{
		Client:       httpClient,
		BatchSize:    cfg.Services.Remote.BatchSize,
		UseRemoteIDs: opts.useRemoteIDs,
		Logger:       discardLogger(),
	})

	features := cfg.Features
	if opts.features != nil {
		features = opts.features
	}

	featureFlags, err := flags.NewStatic(features, discardLogger())
	if err != nil {
		_ = s.db.Close()
		return nil, err
	}

	s.quotes = app.NewQuoteService(app.QuoteServiceConfig{
		Repository: persistence.NewQuoteRepository(s.db),
		Codec:      persistence.JSONCodec{},
		Session:    persistence.NewSessionStore(storage.NewMemoryStore(0), s.db),
		Remote:     s.remote,
		Flags:      featureFlags,
		Logger:     discardLogger(),
	})

	// Unreadable payloads fall back to the defaults.
	_, _ = s.quotes.Load(context.Background())

	syncTimeout := opts.syncTimeout
	if syncTimeout == 0 {
		syncTimeout = 5 * time.Second
	}

	s.notes = notify.NewFeed(8)
	s.sync = app.NewSyncService(app.SyncConfig{
		Quotes:               s.quotes,
		Remote:               s.remote,
		Notifier:             s.notes,
		Flags:                featureFlags,
		Logger:               discardLogger(),
		Interval:             time.Hour,
		Timeout:              syncTimeout,
		NotificationDuration: cfg.Sync.NotificationDuration,
	})

	registry := ports.NewHealthRegistry().WithCheckTimeout(time.Second)
	if err := registry.Register(s.db); err != nil {
		_ = s.db.Close()
		return nil, err
	}

	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		ServiceName:         "quote-generator",
		Timeout:             10 * time.Second,
		HealthHandler:       handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "test", "test")),
		QuoteHandler:        handlers.NewQuoteHandler(s.quotes),
		SyncHandler:         handlers.NewSyncHandler(s.sync),
		NotificationHandler: handlers.NewNotificationHandler(s.notes),
	})

	s.server = httptest.NewServer(engine)

	return s, nil
}

// close stops the service but leaves the feed and the database file.
// It is safe to call more than once.
func (s *stack) close() error {
	s.closeOnce.Do(func() {
		s.server.Close()
		s.sync.Stop()
		s.quotes.Wait()
		s.closeErr = s.db.Close()
	})

	return s.closeErr
}

// destroy closes the stack, the feed and removes dir.
func (s *stack) destroy() error {
	err := s.close()
	s.feed.server.Close()

	return errors.Join(err, os.RemoveAll(s.dir))
}

// do sends a request to the stack's HTTP server.
func (s *stack) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.server.URL+path, body)
	if err != nil {
		return nil, nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)

	return resp, data, err
}
