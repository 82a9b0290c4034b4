package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-generator/internal/domain"
	"github.com/jsamuelsen/quote-generator/internal/ports"
)

var (
	_ ports.KeyValueStore = (*SQLiteStore)(nil)
	_ ports.KeyValueStore = (*MemoryStore)(nil)
	_ ports.HealthChecker = (*SQLiteStore)(nil)
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := OpenSQLite(SQLiteConfig{Path: filepath.Join(t.TempDir(), "quotes.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestOpenSQLite_EmptyPath(t *testing.T) {
	_, err := OpenSQLite(SQLiteConfig{})
	require.ErrorIs(t, err, domain.ErrStorage)
}

func TestOpenSQLite_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "quotes.db")

	s, err := OpenSQLite(SQLiteConfig{Path: path})
	require.NoError(t, err)

	v, err := SchemaVersion(s.db)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(SQLiteConfig{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	v, err = SchemaVersion(reopened.db)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, path, reopened.Path())
}

func TestRunMigrations_SchemaTooNew(t *testing.T) {
	s := openTestSQLite(t)

	err := RunMigrations(s.db, DefaultMigrations()[:1])
	require.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestKeyValueStores(t *testing.T) {
	stores := map[string]func(t *testing.T) ports.KeyValueStore{
		"sqlite": func(t *testing.T) ports.KeyValueStore { return openTestSQLite(t) },
		"memory": func(*testing.T) ports.KeyValueStore { return NewMemoryStore(0) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)

			_, err := s.Get(ctx, "quotes")
			require.ErrorIs(t, err, domain.ErrNotFound)

			require.NoError(t, s.Set(ctx, "quotes", []byte(`[]`), 0))
			got, err := s.Get(ctx, "quotes")
			require.NoError(t, err)
			assert.Equal(t, []byte(`[]`), got)

			require.NoError(t, s.Set(ctx, "quotes", []byte(`[{"text":"a"}]`), 0))
			got, err = s.Get(ctx, "quotes")
			require.NoError(t, err)
			assert.JSONEq(t, `[{"text":"a"}]`, string(got))

			require.NoError(t, s.Delete(ctx, "quotes"))
			require.NoError(t, s.Delete(ctx, "quotes"))

			_, err = s.Get(ctx, "quotes")
			require.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestSQLiteStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "lastShownQuote", []byte(`{}`), time.Minute))
	require.NoError(t, s.Set(ctx, "quotes", []byte(`[]`), 0))

	_, err := s.Get(ctx, "lastShownQuote")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)

	_, err = s.Get(ctx, "lastShownQuote")
	require.ErrorIs(t, err, domain.ErrNotFound)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.Get(ctx, "quotes")
	require.NoError(t, err)
}

func TestSQLiteStore_HealthCheck(t *testing.T) {
	s := openTestSQLite(t)

	assert.Equal(t, "sqlite", s.Name())
	require.NoError(t, s.Check(context.Background()))

	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Check(context.Background()), domain.ErrStorage)
}

func TestMemoryStore_DefaultTTLAndSweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(time.Minute)

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "lastCategoryFilter", []byte("productivity"), 0))
	require.NoError(t, m.Set(ctx, "long", []byte("x"), time.Hour))

	now = now.Add(2 * time.Minute)

	_, err := m.Get(ctx, "lastCategoryFilter")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = m.Get(ctx, "long")
	require.NoError(t, err)

	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStore_CopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	in := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", in, 0))
	in[0] = 'z'

	out, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'z'
	again, _ := m.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore(0)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			_ = m.Set(ctx, "k", []byte{byte(i)}, 0)
			_, _ = m.Get(ctx, "k")
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 1, m.Len())
}
