package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/mocks"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

type cycleRecord struct {
	outcome  string
	inserted int
	updated  int
}

type fakeSyncMetrics struct {
	mu     sync.Mutex
	cycles []cycleRecord
}

func (m *fakeSyncMetrics) ObserveCycle(outcome string, inserted, updated int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cycles = append(m.cycles, cycleRecord{outcome: outcome, inserted: inserted, updated: updated})
}

func (m *fakeSyncMetrics) outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, len(m.cycles))
	for i, c := range m.cycles {
		out[i] = c.outcome
	}

	return out
}

type syncDeps struct {
	serviceDeps
	notifier *mocks.MockNotifier
	metrics  *fakeSyncMetrics
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestSyncService(t *testing.T, interval time.Duration) (*SyncService, *QuoteService, syncDeps) {
	t.Helper()

	quotes, deps := newTestQuoteService(t, seedQuotes())
	sd := syncDeps{
		serviceDeps: deps,
		notifier:    mocks.NewMockNotifier(t),
		metrics:     &fakeSyncMetrics{},
	}

	svc := NewSyncService(SyncConfig{
		Quotes:   quotes,
		Remote:   deps.remote,
		Notifier: sd.notifier,
		Flags:    deps.flags,
		Metrics:  sd.metrics,
		Logger:   discardLogger(),
		Interval: interval,
		Now:      func() time.Time { return fixedNow },
	})

	return svc, quotes, sd
}

func remoteBatch() []domain.Quote {
	return []domain.Quote{
		{Text: "Less is more.", Category: domain.RemoteCategory},
		{Text: "From the server", Category: domain.RemoteCategory},
	}
}

func TestSyncState_String(t *testing.T) {
	assert.Equal(t, "idle", SyncIdle.String())
	assert.Equal(t, "fetching", SyncFetching.String())
	assert.Equal(t, "merging", SyncMerging.String())
	assert.Equal(t, "persisting", SyncPersisting.String())
	assert.Equal(t, "notifying", SyncNotifying.String())
	assert.Equal(t, "unknown", SyncState(42).String())
}

func TestNewSyncService_PanicsWithoutDependencies(t *testing.T) {
	assert.Panics(t, func() {
		NewSyncService(SyncConfig{Remote: mocks.NewMockRemoteSource(t)})
	})

	quotes, _ := newTestQuoteService(t, nil)
	assert.Panics(t, func() {
		NewSyncService(SyncConfig{Quotes: quotes})
	})
}

func TestSyncService_RunOnce(t *testing.T) {
	svc, quotes, deps := newTestSyncService(t, time.Minute)

	deps.remote.EXPECT().FetchBatch(mock.Anything).Return(remoteBatch(), nil).Once()
	deps.repo.EXPECT().SaveQuotes(mock.Anything, mock.MatchedBy(func(qs []domain.Quote) bool {
		return len(qs) == 4
	})).Return(nil).Once()
	deps.notifier.EXPECT().Notify(mock.Anything, domain.Notification{
		Message:   "2 quotes synced from server.",
		CreatedAt: fixedNow,
		Duration:  defaultNotificationDuration,
	}).Return().Once()

	res, err := svc.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, domain.MergeResult{Inserted: 1, Updated: 1}, res.Merge)
	assert.True(t, res.Notified)
	assert.NotEmpty(t, res.CycleID)
	assert.Equal(t, SyncIdle, svc.State())

	all := quotes.All()
	require.Len(t, all, 4)
	assert.Equal(t, domain.RemoteCategory, all[1].Category, "remote wins on text key")
	assert.Equal(t, "From the server", all[3].Text)

	status := svc.Status()
	assert.Equal(t, 1, status.Cycles)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, res.CycleID, status.LastResult.CycleID)
	assert.Empty(t, status.LastError)
	assert.Equal(t, []string{OutcomeOK}, deps.metrics.outcomes())
}

func TestSyncService_RunOnce_FetchError(t *testing.T) {
	svc, quotes, deps := newTestSyncService(t, time.Minute)
	before := quotes.All()

	deps.remote.EXPECT().FetchBatch(mock.Anything).
		Return(nil, domain.NewUnavailableError("remote-quotes", "connection refused")).Once()

	_, err := svc.RunOnce(context.Background())

	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Equal(t, before, quotes.All())
	assert.Equal(t, SyncIdle, svc.State())
	assert.Equal(t, []string{OutcomeFetchError}, deps.metrics.outcomes())

	status := svc.Status()
	assert.Contains(t, status.LastError, "connection refused")
	assert.Nil(t, status.LastResult)
}

func TestSyncService_RunOnce_PersistError(t *testing.T) {
	svc, quotes, deps := newTestSyncService(t, time.Minute)

	deps.remote.EXPECT().FetchBatch(mock.Anything).Return(remoteBatch(), nil).Once()
	deps.repo.EXPECT().SaveQuotes(mock.Anything, mock.Anything).
		Return(domain.NewStorageError("save", "quotes", errors.New("disk full"))).Once()
	deps.notifier.EXPECT().Notify(mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
		return n.Message == "2 quotes synced from server."
	})).Return().Once()

	res, err := svc.RunOnce(context.Background())

	require.NoError(t, err, "a failed save does not fail the cycle")
	assert.Equal(t, domain.MergeResult{Inserted: 1, Updated: 1}, res.Merge)
	assert.True(t, res.Notified)
	assert.Contains(t, res.PersistError, "disk full")
	assert.Equal(t, 4, quotes.Len(), "memory keeps the merged list")
	assert.Equal(t, SyncIdle, svc.State())
	assert.Equal(t, []string{OutcomePersistError}, deps.metrics.outcomes())

	status := svc.Status()
	require.NotNil(t, status.LastResult)
	assert.Equal(t, 1, status.LastResult.Merge.Inserted)
	assert.Contains(t, status.LastError, "disk full")
}

func TestSyncService_RunOnce_EmptyBatch(t *testing.T) {
	t.Run("silent by default", func(t *testing.T) {
		svc, _, deps := newTestSyncService(t, time.Minute)
		deps.remote.EXPECT().FetchBatch(mock.Anything).Return([]domain.Quote{}, nil).Once()
		deps.flags.EXPECT().IsEnabled(mock.Anything, ports.FlagNotifyOnEmpty, false).Return(false).Once()

		res, err := svc.RunOnce(context.Background())

		require.NoError(t, err)
		assert.False(t, res.Notified)
	})

	t.Run("notifies when flag is on", func(t *testing.T) {
		svc, _, deps := newTestSyncService(t, time.Minute)
		deps.remote.EXPECT().FetchBatch(mock.Anything).Return(nil, nil).Once()
		deps.flags.EXPECT().IsEnabled(mock.Anything, ports.FlagNotifyOnEmpty, false).Return(true).Once()
		deps.notifier.EXPECT().Notify(mock.Anything, mock.MatchedBy(func(n domain.Notification) bool {
			return n.Message == "0 quotes synced from server."
		})).Return().Once()

		res, err := svc.RunOnce(context.Background())

		require.NoError(t, err)
		assert.True(t, res.Notified)
	})
}

func TestSyncService_RunOnce_UnchangedBatchSkipsPersist(t *testing.T) {
	svc, _, deps := newTestSyncService(t, time.Minute)

	deps.remote.EXPECT().FetchBatch(mock.Anything).
		Return([]domain.Quote{{Text: " ", Category: domain.RemoteCategory}}, nil).Once()
	deps.notifier.EXPECT().Notify(mock.Anything, mock.Anything).Return().Once()

	res, err := svc.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Merge.Skipped)
	assert.Zero(t, res.Merge.Changes())
}

func TestSyncService_RunOnce_Overlap(t *testing.T) {
	svc, _, deps := newTestSyncService(t, time.Minute)

	entered := make(chan struct{})
	release := make(chan struct{})

	deps.remote.EXPECT().FetchBatch(mock.Anything).RunAndReturn(func(context.Context) ([]domain.Quote, error) {
		close(entered)
		<-release

		return nil, nil
	}).Once()
	deps.flags.EXPECT().IsEnabled(mock.Anything, ports.FlagNotifyOnEmpty, false).Return(false).Once()

	var wg sync.WaitGroup
	wg.Go(func() {
		_, err := svc.RunOnce(context.Background())
		assert.NoError(t, err)
	})

	<-entered
	assert.Equal(t, SyncFetching, svc.State())

	_, err := svc.RunOnce(context.Background())
	require.ErrorIs(t, err, ErrSyncInProgress)
	assert.True(t, domain.IsConflict(err))

	close(release)
	wg.Wait()

	assert.Equal(t, SyncIdle, svc.State())
	assert.ElementsMatch(t, []string{OutcomeSkipped, OutcomeOK}, deps.metrics.outcomes())
	assert.Equal(t, 1, svc.Status().Cycles)
}

func TestSyncService_RunOnce_Timeout(t *testing.T) {
	quotes, deps := newTestQuoteService(t, seedQuotes())
	svc := NewSyncService(SyncConfig{
		Quotes:  quotes,
		Remote:  deps.remote,
		Logger:  discardLogger(),
		Timeout: 20 * time.Millisecond,
	})

	deps.remote.EXPECT().FetchBatch(mock.Anything).RunAndReturn(func(ctx context.Context) ([]domain.Quote, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}).Once()

	_, err := svc.RunOnce(context.Background())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 3, quotes.Len())
}

func TestSyncService_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, _, deps := newTestSyncService(t, 10*time.Millisecond)

	deps.remote.EXPECT().FetchBatch(mock.Anything).Return(nil, nil)
	deps.flags.EXPECT().IsEnabled(mock.Anything, ports.FlagNotifyOnEmpty, false).Return(false)

	svc.Start(context.Background(), true)
	svc.Start(context.Background(), true)

	assert.True(t, svc.Status().Running)
	assert.Eventually(t, func() bool {
		return svc.Status().Cycles >= 3
	}, 2*time.Second, 5*time.Millisecond)

	svc.Stop()
	svc.Stop()

	status := svc.Status()
	assert.False(t, status.Running)
	assert.Equal(t, SyncIdle, status.State)

	cycles := status.Cycles
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, cycles, svc.Status().Cycles, "no cycles after Stop")
}

func TestSyncService_StopWithoutStart(t *testing.T) {
	svc, _, _ := newTestSyncService(t, time.Minute)

	assert.NotPanics(t, svc.Stop)
}
