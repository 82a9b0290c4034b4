package flags

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/platform/logging"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

var _ ports.FeatureFlags = (*Static)(nil)

func newStatic(t *testing.T, features map[string]any) *Static {
	t.Helper()

	s, err := NewStatic(features, logging.Discard())
	require.NoError(t, err)

	return s
}

func TestStatic_IsEnabled(t *testing.T) {
	s := newStatic(t, map[string]any{
		"quotes": map[string]any{"push_on_add": true},
		"sync":   map[string]any{"notify_on_empty": "TRUE"},
		"bad":    map[string]any{"bool": "sometimes"},
		"push":   map[string]any{"max_concurrency": 8},
	})
	ctx := context.Background()

	assert.True(t, s.IsEnabled(ctx, ports.FlagPushOnAdd, false))
	assert.True(t, s.IsEnabled(ctx, ports.FlagNotifyOnEmpty, false))
	assert.True(t, s.IsEnabled(ctx, "bad.bool", true), "unparseable falls back")
	assert.False(t, s.IsEnabled(ctx, "bad.bool", false))
	assert.True(t, s.IsEnabled(ctx, "missing", true))
	assert.False(t, s.IsEnabled(ctx, "quotes", false), "a section is not a flag")
	assert.False(t, s.IsEnabled(ctx, ports.FlagPushConcurrency, false))
}

func TestStatic_GetInt(t *testing.T) {
	s := newStatic(t, map[string]any{
		"push.max_concurrency": "6",
		"a":                    map[string]any{"float": 3.0, "frac": 2.5, "word": "many"},
	})
	ctx := context.Background()

	assert.Equal(t, 6, s.GetInt(ctx, ports.FlagPushConcurrency, 4))
	assert.Equal(t, 3, s.GetInt(ctx, "a.float", 0))
	assert.Equal(t, 1, s.GetInt(ctx, "a.frac", 1))
	assert.Equal(t, 1, s.GetInt(ctx, "a.word", 1))
	assert.Equal(t, 9, s.GetInt(ctx, "missing", 9))
}

func TestStatic_GetString(t *testing.T) {
	s := newStatic(t, map[string]any{"ui": map[string]any{"theme": "dark", "cols": 3}})
	ctx := context.Background()

	assert.Equal(t, "dark", s.GetString(ctx, "ui.theme", "light"))
	assert.Equal(t, "3", s.GetString(ctx, "ui.cols", ""))
	assert.Equal(t, "light", s.GetString(ctx, "ui.missing", "light"))
}

func TestStatic_NilFeatures(t *testing.T) {
	s := newStatic(t, nil)

	assert.Empty(t, s.Keys())
	assert.True(t, s.IsEnabled(context.Background(), ports.FlagPushOnAdd, true))
}

func TestStatic_Update(t *testing.T) {
	s := newStatic(t, map[string]any{"quotes.push_on_add": false})
	ctx := context.Background()

	require.False(t, s.IsEnabled(ctx, ports.FlagPushOnAdd, true))
	require.NoError(t, s.Update(map[string]any{"quotes.push_on_add": true}))
	assert.True(t, s.IsEnabled(ctx, ports.FlagPushOnAdd, false))
	assert.Equal(t, []string{"quotes.push_on_add"}, s.Keys())
}

func TestStatic_ConcurrentUpdate(t *testing.T) {
	s := newStatic(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			_ = s.Update(map[string]any{"push.max_concurrency": i + 1})
		})
		wg.Go(func() {
			n := s.GetInt(ctx, ports.FlagPushConcurrency, 1)
			assert.GreaterOrEqual(t, n, 1)
		})
	}

	wg.Wait()
}
