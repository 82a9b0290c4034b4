package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

// SyncState is the phase of the current sync cycle.
type SyncState int32

// Sync cycle phases. A cycle always returns to SyncIdle.
const (
	SyncIdle SyncState = iota
	SyncFetching
	SyncMerging
	SyncPersisting
	SyncNotifying
)

// String returns the lower-case phase name.
func (s SyncState) String() string {
	switch s {
	case SyncIdle:
		return "idle"
	case SyncFetching:
		return "fetching"
	case SyncMerging:
		return "merging"
	case SyncPersisting:
		return "persisting"
	case SyncNotifying:
		return "notifying"
	default:
		return "unknown"
	}
}

// Cycle outcomes reported to SyncMetrics.
const (
	OutcomeOK           = "ok"
	OutcomeFetchError   = "fetch_error"
	OutcomePersistError = "persist_error"
	OutcomeSkipped      = "skipped"
)

const (
	defaultSyncInterval         = 20 * time.Second
	defaultNotificationDuration = 4 * time.Second

	// notificationFormat matches the message shown by the browser client.
	notificationFormat = "%d quotes synced from server."
)

// ErrSyncInProgress is returned when a cycle is requested while another is
// still running.
var ErrSyncInProgress error = &domain.ConflictError{Entity: "sync", Reason: "a sync cycle is already running"}

// SyncMetrics records cycle outcomes.
type SyncMetrics interface {
	ObserveCycle(outcome string, inserted, updated int, d time.Duration)
}

// SyncConfig holds the dependencies and timing of a SyncService.
// Quotes and Remote are required.
type SyncConfig struct {
	Quotes   *QuoteService
	Remote   ports.RemoteSource
	Notifier ports.Notifier
	Flags    ports.FeatureFlags
	Metrics  SyncMetrics
	Logger   *slog.Logger

	// Interval between ticks of the background loop.
	Interval time.Duration

	// Timeout bounds one whole cycle. Zero means Interval.
	Timeout time.Duration

	// NotificationDuration is how long a sync notification stays visible.
	NotificationDuration time.Duration

	// Now is overridable for tests.
	Now func() time.Time
}

// SyncResult describes one completed cycle.
type SyncResult struct {
	CycleID    string
	Fetched    int
	Merge      domain.MergeResult
	Notified   bool
	StartedAt  time.Time
	FinishedAt time.Time

	// PersistError is set when the merged list could not be saved. The merge
	// still stands in memory and the next save retries it.
	PersistError string
}

// SyncStatus is a point-in-time view of the sync service.
type SyncStatus struct {
	State       SyncState
	Running     bool
	Interval    time.Duration
	Cycles      int
	LastResult  *SyncResult
	LastError   string
	LastErrorAt time.Time
}

// SyncService periodically reconciles the quote list with the remote feed.
//
// Each cycle moves Idle → Fetching → Merging → Persisting → Notifying → Idle.
// A fetch failure returns straight to Idle without touching the list. Only
// one cycle runs at a time; overlapping requests get ErrSyncInProgress.
type SyncService struct {
	quotes   *QuoteService
	remote   ports.RemoteSource
	notifier ports.Notifier
	flags    ports.FeatureFlags
	metrics  SyncMetrics
	logger   *slog.Logger
	exec     *Executor

	interval     time.Duration
	timeout      time.Duration
	notification time.Duration
	now          func() time.Time

	state atomic.Int32

	mu          sync.Mutex
	cycles      int
	last        *SyncResult
	lastErr     string
	lastErrAt   time.Time
	cancel      context.CancelFunc
	loopDone    chan struct{}
	loopRunning bool
}

// NewSyncService creates a stopped SyncService.
// Panics if Quotes or Remote is nil.
func NewSyncService(cfg SyncConfig) *SyncService {
	if cfg.Quotes == nil {
		panic("SyncService: Quotes is required")
	}

	if cfg.Remote == nil {
		panic("SyncService: Remote is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "app.SyncService"))

	s := &SyncService{
		quotes:       cfg.Quotes,
		remote:       cfg.Remote,
		notifier:     cfg.Notifier,
		flags:        cfg.Flags,
		metrics:      cfg.Metrics,
		logger:       logger,
		exec:         NewExecutor(logger),
		interval:     cfg.Interval,
		timeout:      cfg.Timeout,
		notification: cfg.NotificationDuration,
		now:          cfg.Now,
	}

	if s.interval <= 0 {
		s.interval = defaultSyncInterval
	}

	if s.timeout <= 0 {
		s.timeout = s.interval
	}

	if s.notification <= 0 {
		s.notification = defaultNotificationDuration
	}

	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// State returns the current phase.
func (s *SyncService) State() SyncState {
	return SyncState(s.state.Load())
}

// Status returns the current phase and the outcome of the last cycle.
func (s *SyncService) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SyncStatus{
		State:       s.State(),
		Running:     s.loopRunning,
		Interval:    s.interval,
		Cycles:      s.cycles,
		LastError:   s.lastErr,
		LastErrorAt: s.lastErrAt,
	}

	if s.last != nil {
		last := *s.last
		st.LastResult = &last
	}

	return st
}

// RunOnce runs a single cycle now. It returns ErrSyncInProgress when a
// cycle is already running, and the fetch error otherwise. A failed save
// does not fail the cycle; it is reported in SyncResult.PersistError.
func (s *SyncService) RunOnce(ctx context.Context) (SyncResult, error) {
	if !s.state.CompareAndSwap(int32(SyncIdle), int32(SyncFetching)) {
		if s.metrics != nil {
			s.metrics.ObserveCycle(OutcomeSkipped, 0, 0, 0)
		}

		return SyncResult{}, ErrSyncInProgress
	}
	defer s.state.Store(int32(SyncIdle))

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cycleID := uuid.NewString()
	ctx = logging.WithContext(ctx, s.logger)
	ctx = logging.WithSyncCycle(ctx, cycleID)

	start := s.now()
	res, err := Execute(ctx, s.exec, s.cycle(cycleID, start), struct{}{})

	s.finish(ctx, res, err, start)

	if err != nil {
		var execErr *ExecutionError
		if errors.As(err, &execErr) {
			err = execErr.Cause
		}

		return SyncResult{}, err
	}

	return res, nil
}

// cycle maps the sync phases onto the executor's steps: Perform fetches,
// Verify merges, Archive persists and Respond notifies.
func (s *SyncService) cycle(cycleID string, start time.Time) Operation[struct{}, []domain.Quote, SyncResult, SyncResult] {
	var persistErr error

	return Operation[struct{}, []domain.Quote, SyncResult, SyncResult]{
		Name: "sync",
		OnStep: func(step ExecutionStep) {
			switch step {
			case StepPerform:
				s.state.Store(int32(SyncFetching))
			case StepVerify:
				s.state.Store(int32(SyncMerging))
			case StepArchive:
				s.state.Store(int32(SyncPersisting))
			case StepRespond:
				s.state.Store(int32(SyncNotifying))
			case StepValidate:
			}
		},
		Perform: func(ctx context.Context, _ struct{}) ([]domain.Quote, error) {
			return s.remote.FetchBatch(ctx)
		},
		Verify: func(ctx context.Context, _ struct{}, batch []domain.Quote) (SyncResult, error) {
			return SyncResult{
				CycleID:   cycleID,
				Fetched:   len(batch),
				Merge:     s.quotes.Merge(ctx, batch),
				StartedAt: start,
			}, nil
		},
		Archive: func(ctx context.Context, _ struct{}, res SyncResult) error {
			if res.Merge.Changes() == 0 {
				return nil
			}

			if err := s.quotes.Persist(ctx); err != nil {
				persistErr = err
				logging.FromContext(ctx).Warn("persisting merged quotes failed, keeping them in memory",
					slog.Any("error", err))
			}

			return nil
		},
		Respond: func(ctx context.Context, _ struct{}, res SyncResult) (SyncResult, error) {
			if persistErr != nil {
				res.PersistError = persistErr.Error()
			}

			res.Notified = s.notify(ctx, res)
			res.FinishedAt = s.now()

			return res, nil
		},
	}
}

// notify emits "<n> quotes synced from server." where n is the batch size.
// Empty batches are silent unless sync.notify_on_empty is on.
func (s *SyncService) notify(ctx context.Context, res SyncResult) bool {
	if s.notifier == nil {
		return false
	}

	if res.Fetched == 0 && (s.flags == nil || !s.flags.IsEnabled(ctx, ports.FlagNotifyOnEmpty, false)) {
		return false
	}

	s.notifier.Notify(ctx, domain.Notification{
		Message:   fmt.Sprintf(notificationFormat, res.Fetched),
		CreatedAt: s.now(),
		Duration:  s.notification,
	})

	return true
}

func (s *SyncService) finish(ctx context.Context, res SyncResult, err error, start time.Time) {
	elapsed := s.now().Sub(start)
	outcome := OutcomeOK

	switch {
	case err != nil:
		outcome = OutcomeFetchError
	case res.PersistError != "":
		outcome = OutcomePersistError
	}

	s.mu.Lock()
	s.cycles++

	switch {
	case err != nil:
		s.lastErr = err.Error()
		s.lastErrAt = s.now()
	case res.PersistError != "":
		s.last = &res
		s.lastErr = res.PersistError
		s.lastErrAt = s.now()
	default:
		s.last = &res
		s.lastErr = ""
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.ObserveCycle(outcome, res.Merge.Inserted, res.Merge.Updated, elapsed)
	}

	logger := logging.FromContext(ctx)
	if err != nil {
		step, _ := GetExecutionStep(err)
		logger.Warn("sync cycle failed",
			slog.String("outcome", outcome),
			slog.String("step", string(step)),
			slog.Any("error", err),
		)
		return
	}

	logger.Info("sync cycle completed",
		slog.Int("fetched", res.Fetched),
		slog.Int("inserted", res.Merge.Inserted),
		slog.Int("updated", res.Merge.Updated),
		slog.Int("skipped", res.Merge.Skipped),
		slog.Int("collapsed", res.Merge.Collapsed),
		slog.String("outcome", outcome),
		slog.Duration("duration", elapsed),
	)
}

// Start launches the background loop. With runNow set the first cycle runs
// immediately instead of after one interval. Calling Start on a running
// service is a no-op.
func (s *SyncService) Start(ctx context.Context, runNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loopRunning {
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.loopRunning = true

	go s.loop(ctx, runNow, s.loopDone)

	s.logger.Info("sync loop started", slog.Duration("interval", s.interval))
}

// Stop halts the loop and waits for an in-flight cycle to finish.
func (s *SyncService) Stop() {
	s.mu.Lock()
	if !s.loopRunning {
		s.mu.Unlock()
		return
	}

	cancel, done := s.cancel, s.loopDone
	s.mu.Unlock()

	cancel()
	<-done

	s.mu.Lock()
	s.loopRunning = false
	s.mu.Unlock()

	s.logger.Info("sync loop stopped")
}

func (s *SyncService) loop(ctx context.Context, runNow bool, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if runNow {
		s.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *SyncService) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); errors.Is(err, ErrSyncInProgress) {
		s.logger.Debug("sync tick skipped, previous cycle still running")
	}
}
