//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/adapters/clients"
	"github.com/jsamuelsen/quote-generator/internal/domain"
)

func TestRemote_FetchBatch_Translation(t *testing.T) {
	s := newTestStack(t, stackOptions{})
	require.NoError(t, s.feed.setPosts([]byte(`[
		{"userId": 1, "id": 1, "title": "  padded title  ", "body": "ignored"},
		{"userId": 1, "id": 2, "title": "", "body": "blank"}
	]`)))

	quotes, err := s.remote.FetchBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, quotes, 2)
	assert.Equal(t, domain.Quote{Text: "padded title", Category: domain.RemoteCategory}, quotes[0])
	assert.Empty(t, quotes[1].Text, "blank titles are left for the merge to skip")
}

func TestRemote_ErrorMapping(t *testing.T) {
	s := newTestStack(t, stackOptions{maxAttempts: 1})
	s.feed.setDown(true)

	_, err := s.remote.FetchBatch(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Error(t, s.remote.Check(context.Background()))
}

func TestRemote_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	s := newTestStack(t, stackOptions{maxAttempts: 1})
	s.feed.setDown(true)

	ctx := context.Background()

	for range 10 {
		if s.remote.Client().CircuitState() == clients.StateOpen {
			break
		}

		_, _ = s.remote.FetchBatch(ctx)
	}

	require.Equal(t, clients.StateOpen, s.remote.Client().CircuitState())

	before := s.feed.requests.Load()
	_, err := s.remote.FetchBatch(ctx)

	require.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, before, s.feed.requests.Load(), "an open circuit short-circuits the call")
}

func TestRemote_PushQuote(t *testing.T) {
	s := newTestStack(t, stackOptions{})

	require.NoError(t, s.remote.PushQuote(context.Background(), domain.Quote{Text: "Out", Category: "tests"}))

	s.feed.mu.Lock()
	defer s.feed.mu.Unlock()

	require.Len(t, s.feed.pushed, 1)
	assert.Equal(t, "Out", s.feed.pushed[0]["title"])
	assert.Equal(t, "tests", s.feed.pushed[0]["body"])
}
