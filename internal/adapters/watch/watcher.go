// Package watch imports quote files dropped into an inbox directory.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jsamuelsen/quote-generator/internal/app"
)

const (
	defaultDebounce    = 250 * time.Millisecond
	defaultMaxFileSize = 1 << 20
	minTick            = 10 * time.Millisecond
)

// ErrFileTooLarge is reported for inbox files over Config.MaxFileSize.
var ErrFileTooLarge = errors.New("import file too large")

// Importer appends the quotes in an import payload.
type Importer interface {
	Import(ctx context.Context, data []byte) (app.ImportResult, error)
}

// Config configures an ImportWatcher. Dir and Importer are required.
type Config struct {
	Dir      string
	Importer Importer

	// Debounce is how long a file must stay quiet before it is imported.
	Debounce time.Duration

	// MaxFileSize caps the bytes read from one file, matching the HTTP
	// import limit. Zero means 1 MiB.
	MaxFileSize int64

	Logger *slog.Logger
}

// Stats counts watcher activity.
type Stats struct {
	FilesImported  int
	FilesFailed    int
	QuotesImported int
	QuotesSkipped  int
	LastFile       string
	LastImportAt   time.Time
}

// ImportWatcher watches a directory and imports every *.json file that is
// created or rewritten in it. Bursts of writes to the same file collapse
// into one import once the file has been quiet for the debounce window.
type ImportWatcher struct {
	dir      string
	importer Importer
	debounce time.Duration
	maxSize  int64
	logger   *slog.Logger

	watcher   *fsnotify.Watcher
	closeOnce sync.Once

	mu      sync.Mutex
	pending map[string]time.Time
	stats   Stats
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewImportWatcher creates a stopped watcher.
func NewImportWatcher(cfg Config) (*ImportWatcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch: Dir is required")
	}

	if cfg.Importer == nil {
		return nil, errors.New("watch: Importer is required")
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}

	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	return &ImportWatcher{
		dir:      cfg.Dir,
		importer: cfg.Importer,
		debounce: cfg.Debounce,
		maxSize:  cfg.MaxFileSize,
		logger:   logger.With(slog.String("component", "watch.ImportWatcher"), slog.String("dir", cfg.Dir)),
		watcher:  w,
		pending:  make(map[string]time.Time),
	}, nil
}

// Start creates the directory if needed and begins watching it.
// Files already present are left alone.
func (w *ImportWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("creating import dir: %w", err)
	}

	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.run(context.WithoutCancel(ctx), w.stopCh, w.doneCh)

	w.logger.Info("import watcher started")

	return nil
}

// Stop halts the watcher, waits for an in-flight import and releases the
// underlying fsnotify watcher. A stopped watcher cannot be restarted.
func (w *ImportWatcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	if running {
		close(stop)
		<-done
		w.logger.Info("import watcher stopped")
	}

	w.closeOnce.Do(func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("closing watcher", slog.Any("error", err))
		}
	})
}

// Stats returns a copy of the activity counters.
func (w *ImportWatcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.stats
}

func (w *ImportWatcher) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(w.debounce/2, minTick))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.logger.Error("watcher error", slog.Any("error", err))

		case now := <-ticker.C:
			w.processSettled(ctx, now)
		}
	}
}

func (w *ImportWatcher) handleEvent(event fsnotify.Event) {
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *ImportWatcher) processSettled(ctx context.Context, now time.Time) {
	w.mu.Lock()
	ready := make([]string, 0, len(w.pending))

	for path, seen := range w.pending {
		if now.Sub(seen) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		w.importFile(ctx, path)
	}
}

func (w *ImportWatcher) importFile(ctx context.Context, path string) {
	logger := w.logger.With(slog.String("file", filepath.Base(path)))

	data, err := readLimited(path, w.maxSize)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("file vanished before import")
			return
		case errors.Is(err, ErrFileTooLarge):
			w.recordFailure(path)
			logger.Warn("import file rejected", slog.Any("error", err))
		default:
			w.recordFailure(path)
			logger.Error("reading import file", slog.Any("error", err))
		}

		return
	}

	res, err := w.importer.Import(ctx, data)
	if err != nil {
		w.recordFailure(path)
		logger.Warn("import file rejected", slog.Any("error", err))

		return
	}

	w.mu.Lock()
	w.stats.FilesImported++
	w.stats.QuotesImported += res.Imported
	w.stats.QuotesSkipped += res.Skipped
	w.stats.LastFile = path
	w.stats.LastImportAt = time.Now()
	w.mu.Unlock()

	logger.Info("file imported", slog.Int("imported", res.Imported), slog.Int("skipped", res.Skipped))
}

// readLimited reads at most limit bytes of path, failing with
// ErrFileTooLarge when the file holds more.
func readLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrFileTooLarge, limit)
	}

	return data, nil
}

func (w *ImportWatcher) recordFailure(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stats.FilesFailed++
	w.stats.LastFile = path
}
