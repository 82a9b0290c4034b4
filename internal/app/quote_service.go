// Package app contains the application services: QuoteService owns the
// in-memory quote list and SyncService reconciles it with the remote feed.
// Both depend only on ports, never on concrete adapters.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

const (
	// defaultPushConcurrency applies when the push.max_concurrency flag is unset.
	defaultPushConcurrency = 4

	// backgroundPushTimeout bounds a fire-and-forget push of a new quote.
	backgroundPushTimeout = 10 * time.Second
)

// QuoteMetrics receives store size and push outcomes.
type QuoteMetrics interface {
	SetStoreSize(n int)
	ObservePush(ok bool)
}

// QuoteServiceConfig holds the dependencies of a QuoteService.
// Repository and Codec are required.
type QuoteServiceConfig struct {
	Repository ports.QuoteRepository
	Codec      ports.QuoteCodec

	// Session records the last shown quote and filter. Optional.
	Session ports.SessionStore

	// Remote is used for pushes. Optional; pushes fail without it.
	Remote ports.RemoteSource

	// Flags defaults every flag when nil.
	Flags ports.FeatureFlags

	// Metrics is optional.
	Metrics QuoteMetrics

	Logger *slog.Logger

	// Rand makes random selection reproducible in tests.
	Rand *rand.Rand
}

// QuoteService is the single writer of the quote list. Every read and
// mutation goes through it; network calls happen outside its lock.
type QuoteService struct {
	mu    sync.RWMutex
	store *domain.QuoteStore

	// flushMu orders snapshots written to the repository.
	flushMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand

	repo    ports.QuoteRepository
	codec   ports.QuoteCodec
	session ports.SessionStore
	remote  ports.RemoteSource
	flags   ports.FeatureFlags
	metrics QuoteMetrics
	logger  *slog.Logger

	background sync.WaitGroup
}

// IndexedQuote is a quote with its position in the full list.
type IndexedQuote struct {
	Index int
	domain.Quote
}

// RandomPick is the result of ShowRandom.
type RandomPick struct {
	Quote domain.Quote

	// Category is the filter that was applied after defaulting.
	Category string
}

// ImportResult counts the outcome of an import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// PushResult counts the outcome of PushAll.
type PushResult struct {
	Pushed int
	Failed int
	Errors []error
}

// NewQuoteService creates a QuoteService holding an empty list. Call Load
// to hydrate it. Panics if Repository or Codec is nil.
func NewQuoteService(cfg QuoteServiceConfig) *QuoteService {
	if cfg.Repository == nil {
		panic("QuoteService: Repository is required")
	}

	if cfg.Codec == nil {
		panic("QuoteService: Codec is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &QuoteService{
		store:   domain.NewQuoteStore(nil),
		rng:     cfg.Rand,
		repo:    cfg.Repository,
		codec:   cfg.Codec,
		session: cfg.Session,
		remote:  cfg.Remote,
		flags:   cfg.Flags,
		metrics: cfg.Metrics,
		logger:  logger.With(slog.String("component", "app.QuoteService")),
	}

	return s
}

// Load replaces the in-memory list with the persisted one. When nothing is
// persisted or the payload is unreadable the built-in defaults are used and
// the returned error, if any, is informational.
func (s *QuoteService) Load(ctx context.Context) (int, error) {
	quotes, err := s.repo.LoadQuotes(ctx)
	if err != nil {
		s.log(ctx).Warn("loading quotes failed, using defaults", slog.Any("error", err))
	}

	if err != nil || quotes == nil {
		quotes = domain.DefaultQuotes()
	}

	s.mu.Lock()
	s.store = domain.NewQuoteStore(quotes)
	n := s.store.Len()
	s.mu.Unlock()

	s.recordSize(n)
	s.log(ctx).Info("quotes loaded", slog.Int("count", n))

	return n, err
}

// Len returns the number of quotes.
func (s *QuoteService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Len()
}

// All returns a copy of the full list.
func (s *QuoteService) All() []domain.Quote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.All()
}

// List returns the quotes in category ("all" or "" for every quote) with
// their positions in the full list.
func (s *QuoteService) List(category string) []IndexedQuote {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.store.All()
	out := make([]IndexedQuote, 0, len(all))

	matchAll := domain.IsAllCategories(category)
	want := domain.NormalizeCategory(category)

	for i, q := range all {
		if matchAll || q.Category == want {
			out = append(out, IndexedQuote{Index: i, Quote: q})
		}
	}

	return out
}

// Categories returns the distinct categories in ascending order.
func (s *QuoteService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.store.Categories()
}

// Add appends a quote and persists the list. The returned index is where the
// quote landed, read under the same lock as the append. With the
// quotes.push_on_add flag on, the quote is also pushed to the remote feed in
// the background.
func (s *QuoteService) Add(ctx context.Context, text, category string) (IndexedQuote, error) {
	s.mu.Lock()
	q, err := s.store.Add(text, category)
	index := s.store.Len() - 1
	s.mu.Unlock()

	if err != nil {
		return IndexedQuote{}, err
	}

	s.log(ctx).Info("quote added", slog.Int("index", index), slog.String("category", q.Category))
	s.flush(ctx)

	if s.remote != nil && s.flagEnabled(ctx, ports.FlagPushOnAdd) {
		s.pushInBackground(ctx, q)
	}

	return IndexedQuote{Index: index, Quote: q}, nil
}

// EditAt overwrites the quote at index and persists the list.
func (s *QuoteService) EditAt(ctx context.Context, index int, text, category string) (domain.Quote, error) {
	s.mu.Lock()
	q, err := s.store.EditAt(index, text, category)
	s.mu.Unlock()

	if err != nil {
		s.logMutationError(ctx, "edit", index, err)
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote edited", slog.Int("index", index))
	s.flush(ctx)

	return q, nil
}

// RemoveAt deletes the quote at index and persists the list.
func (s *QuoteService) RemoveAt(ctx context.Context, index int) (domain.Quote, error) {
	s.mu.Lock()
	q, err := s.store.RemoveAt(index)
	s.mu.Unlock()

	if err != nil {
		s.logMutationError(ctx, "remove", index, err)
		return domain.Quote{}, err
	}

	s.log(ctx).Info("quote removed", slog.Int("index", index))
	s.flush(ctx)

	return q, nil
}

// ShowRandom picks a quote uniformly from category. An empty category
// restores the last filter used, falling back to "all". The pick and the
// filter are recorded in the session store.
func (s *QuoteService) ShowRandom(ctx context.Context, category string) (RandomPick, error) {
	if category == "" {
		category = s.lastFilter(ctx)
	}

	if domain.IsAllCategories(category) {
		category = domain.CategoryAll
	} else {
		category = domain.NormalizeCategory(category)
	}

	s.mu.RLock()
	pool := s.store.FilterByCategory(category)
	s.mu.RUnlock()

	s.rngMu.Lock()
	q, ok := domain.PickRandom(pool, s.rng)
	s.rngMu.Unlock()

	s.saveSession(ctx, category, q, ok)

	if !ok {
		return RandomPick{Category: category}, domain.NewNotFoundError(fmt.Sprintf("quotes in category %q", category), "")
	}

	return RandomPick{Quote: q, Category: category}, nil
}

// LastShown returns the quote most recently returned by ShowRandom.
func (s *QuoteService) LastShown(ctx context.Context) (domain.Quote, bool, error) {
	if s.session == nil {
		return domain.Quote{}, false, nil
	}

	return s.session.LoadLastShown(ctx)
}

// LastFilter returns the most recently applied filter, or "all".
func (s *QuoteService) LastFilter(ctx context.Context) string {
	if f := s.lastFilter(ctx); f != "" {
		return f
	}

	return domain.CategoryAll
}

// Import decodes data and appends every usable entry. Nothing is appended
// when the payload itself is malformed.
func (s *QuoteService) Import(ctx context.Context, data []byte) (ImportResult, error) {
	quotes, skipped, err := s.codec.Decode(data)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Skipped: skipped}

	s.mu.Lock()
	for _, q := range quotes {
		if _, err := s.store.Append(q); err != nil {
			res.Skipped++
			continue
		}

		res.Imported++
	}
	s.mu.Unlock()

	s.log(ctx).Info("quotes imported", slog.Int("imported", res.Imported), slog.Int("skipped", res.Skipped))

	if res.Imported > 0 {
		s.flush(ctx)
	}

	return res, nil
}

// Export encodes the full list.
func (s *QuoteService) Export(_ context.Context) ([]byte, error) {
	return s.codec.Encode(s.All())
}

// Merge reconciles a remote batch into the list. The list is read at merge
// time, so local edits made while the batch was in flight are kept.
func (s *QuoteService) Merge(ctx context.Context, remote []domain.Quote) domain.MergeResult {
	s.mu.Lock()
	res := s.store.Merge(remote)
	n := s.store.Len()
	s.mu.Unlock()

	s.recordSize(n)
	s.log(ctx).Debug("remote batch merged",
		slog.Int("inserted", res.Inserted),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
		slog.Int("collapsed", res.Collapsed),
	)

	return res
}

// Persist writes the current list to the repository.
func (s *QuoteService) Persist(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	if err := s.repo.SaveQuotes(ctx, s.All()); err != nil {
		return fmt.Errorf("persisting quotes: %w", err)
	}

	return nil
}

// PushAll publishes every quote to the remote feed with bounded
// concurrency. Individual failures are collected, not fatal.
func (s *QuoteService) PushAll(ctx context.Context) (PushResult, error) {
	if s.remote == nil {
		return PushResult{}, domain.NewUnavailableError("remote", "no remote source configured")
	}

	quotes := s.All()
	limit := defaultPushConcurrency

	if s.flags != nil {
		limit = s.flags.GetInt(ctx, ports.FlagPushConcurrency, defaultPushConcurrency)
	}

	fns := make([]func(context.Context) (struct{}, error), len(quotes))
	for i, q := range quotes {
		fns[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.remote.PushQuote(ctx, q)
		}
	}

	var res PushResult

	for i, r := range ParallelPartialLimit(ctx, limit, fns...) {
		s.recordPush(r.Err == nil)

		if r.Err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Errorf("quote %d: %w", i, r.Err))

			continue
		}

		res.Pushed++
	}

	s.log(ctx).Info("quotes pushed", slog.Int("pushed", res.Pushed), slog.Int("failed", res.Failed))

	return res, nil
}

// Wait blocks until background pushes started by Add have finished.
func (s *QuoteService) Wait() {
	s.background.Wait()
}

func (s *QuoteService) pushInBackground(ctx context.Context, q domain.Quote) {
	ctx = context.WithoutCancel(ctx)

	s.background.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, backgroundPushTimeout)
		defer cancel()

		err := s.remote.PushQuote(ctx, q)
		s.recordPush(err == nil)

		if err != nil {
			s.log(ctx).Warn("background push failed", slog.Any("error", err))
		}
	})
}

// flush persists the list, logging rather than returning failures: the
// in-memory list stays authoritative.
func (s *QuoteService) flush(ctx context.Context) {
	if err := s.Persist(ctx); err != nil {
		s.log(ctx).Error("quotes not persisted", slog.Any("error", err))
	}
}

func (s *QuoteService) lastFilter(ctx context.Context) string {
	if s.session == nil {
		return ""
	}

	f, err := s.session.LoadLastFilter(ctx)
	if err != nil {
		s.log(ctx).Warn("loading last filter failed", slog.Any("error", err))
		return ""
	}

	return f
}

func (s *QuoteService) saveSession(ctx context.Context, category string, q domain.Quote, picked bool) {
	if s.session == nil {
		return
	}

	if err := s.session.SaveLastFilter(ctx, category); err != nil {
		s.log(ctx).Warn("saving last filter failed", slog.Any("error", err))
	}

	if !picked {
		return
	}

	if err := s.session.SaveLastShown(ctx, q); err != nil {
		s.log(ctx).Warn("saving last shown quote failed", slog.Any("error", err))
	}
}

func (s *QuoteService) flagEnabled(ctx context.Context, flag string) bool {
	return s.flags != nil && s.flags.IsEnabled(ctx, flag, false)
}

func (s *QuoteService) logMutationError(ctx context.Context, op string, index int, err error) {
	if domain.IsIndexOutOfRange(err) {
		s.log(ctx).Warn("ignoring "+op+" outside the list", slog.Int("index", index), slog.Any("error", err))
	}
}

func (s *QuoteService) recordSize(n int) {
	if s.metrics != nil {
		s.metrics.SetStoreSize(n)
	}
}

func (s *QuoteService) recordPush(ok bool) {
	if s.metrics != nil {
		s.metrics.ObservePush(ok)
	}
}

func (s *QuoteService) log(ctx context.Context) *slog.Logger {
	if logging.HasLogger(ctx) {
		return logging.FromContext(ctx).With(slog.String("component", "app.QuoteService"))
	}

	return s.logger
}
