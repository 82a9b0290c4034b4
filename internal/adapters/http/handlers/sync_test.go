package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-generator/internal/adapters/notify"
	"github.com/jsamuelsen/quote-generator/internal/app"
	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/mocks"
)

type syncFixture struct {
	*quoteFixture
	remote *mocks.MockRemoteSource
	feed   *notify.Feed
	sync   *app.SyncService
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	remote := mocks.NewMockRemoteSource(t)
	qf := newQuoteFixture(t, remote)
	feed := notify.NewFeed(8)

	svc := app.NewSyncService(app.SyncConfig{
		Quotes:   qf.service,
		Remote:   remote,
		Notifier: feed,
		Logger:   discardLogger(),
		Interval: time.Minute,
	})

	api := qf.router.Group("/api/v1")
	NewSyncHandler(svc).RegisterSyncRoutes(api)
	NewNotificationHandler(feed).RegisterNotificationRoutes(api)

	return &syncFixture{quoteFixture: qf, remote: remote, feed: feed, sync: svc}
}

func TestSyncHandler_TriggerSync(t *testing.T) {
	f := newSyncFixture(t)

	f.remote.EXPECT().FetchBatch(mock.Anything).Return([]domain.Quote{
		{Text: "Ship it.", Category: domain.RemoteCategory},
		{Text: "Brand new", Category: domain.RemoteCategory},
	}, nil).Once()

	w := f.do(http.MethodPost, "/api/v1/sync", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.SyncResultResponse](t, w)
	assert.Equal(t, 2, resp.Fetched)
	assert.Equal(t, 1, resp.Inserted)
	assert.Equal(t, 1, resp.Updated)
	assert.True(t, resp.Notified)
	assert.NotEmpty(t, resp.CycleID)
	assert.Equal(t, 4, f.service.Len())

	w = f.do(http.MethodGet, "/api/v1/notifications", "")

	require.Equal(t, http.StatusOK, w.Code)

	notes := decode[[]dto.NotificationResponse](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, "2 quotes synced from server.", notes[0].Message)
	assert.True(t, notes[0].ExpiresAt.After(notes[0].CreatedAt))

	w = f.do(http.MethodGet, "/api/v1/sync/status", "")

	require.Equal(t, http.StatusOK, w.Code)

	status := decode[dto.SyncStatusResponse](t, w)
	assert.Equal(t, "idle", status.State)
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.Cycles)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, resp.CycleID, status.LastResult.CycleID)
}

func TestSyncHandler_TriggerSync_RemoteDown(t *testing.T) {
	f := newSyncFixture(t)

	f.remote.EXPECT().FetchBatch(mock.Anything).
		Return(nil, domain.NewUnavailableError("remote-quotes", "circuit breaker open")).Once()

	w := f.do(http.MethodPost, "/api/v1/sync", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrorCodeUnavailable, errorCode(t, w))
	assert.Equal(t, seedQuotes(), f.service.All())

	status := decode[dto.SyncStatusResponse](t, f.do(http.MethodGet, "/api/v1/sync/status", ""))
	assert.Contains(t, status.LastError, "circuit breaker open")
	assert.NotNil(t, status.LastErrorAt)
}

func TestSyncHandler_TriggerSync_InProgress(t *testing.T) {
	f := newSyncFixture(t)

	entered := make(chan struct{})
	release := make(chan struct{})

	f.remote.EXPECT().FetchBatch(mock.Anything).RunAndReturn(func(context.Context) ([]domain.Quote, error) {
		close(entered)
		<-release

		return nil, nil
	}).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.sync.RunOnce(context.Background())
	}()

	<-entered

	w := f.do(http.MethodPost, "/api/v1/sync", "")

	close(release)
	<-done

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrorCodeSyncInProgress, errorCode(t, w))
}

type fixedSource []domain.Notification

func (s fixedSource) Active(now time.Time) []domain.Notification {
	var out []domain.Notification

	for _, n := range s {
		if n.Active(now) {
			out = append(out, n)
		}
	}

	return out
}

func TestNotificationHandler_ListNotifications(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	source := fixedSource{
		{Message: "expired", CreatedAt: now.Add(-10 * time.Second), Duration: 4 * time.Second},
		{Message: "visible", CreatedAt: now.Add(-time.Second), Duration: 4 * time.Second},
	}

	h := NewNotificationHandler(source)
	h.now = func() time.Time { return now }

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)

	h.ListNotifications(c)

	require.Equal(t, http.StatusOK, w.Code)

	notes := decode[[]dto.NotificationResponse](t, w)
	require.Len(t, notes, 1)
	assert.Equal(t, "visible", notes[0].Message)
	assert.Equal(t, now.Add(3*time.Second), notes[0].ExpiresAt)
}

func TestNotificationHandler_Empty(t *testing.T) {
	h := NewNotificationHandler(notify.NewFeed(4))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil)

	h.ListNotifications(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
