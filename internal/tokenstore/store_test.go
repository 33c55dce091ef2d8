package tokenstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// backends returns every Store reachable in this environment. Redis is
// included only when REDIS_URL is set.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fs, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	stores := map[string]Store{
		"file":   fs,
		"memory": NewMemoryStore(),
	}

	if url := os.Getenv("REDIS_URL"); url != "" {
		opts, err := redis.ParseURL(url)
		require.NoError(t, err)
		rs, err := NewRedisStore(context.Background(), redis.NewClient(opts), "crms-test:"+t.Name()+":", testLogger())
		require.NoError(t, err)
		t.Cleanup(func() { rs.Close() })
		stores["redis"] = rs
	}
	return stores
}

func TestStore_RoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := s.Get(ctx, "token")
			assert.True(t, IsNotFound(err), "got %v", err)

			require.NoError(t, s.Set(ctx, "token", "abc"))
			got, err := s.Get(ctx, "token")
			require.NoError(t, err)
			assert.Equal(t, "abc", got)

			require.NoError(t, s.Set(ctx, "token", "def"))
			got, err = s.Get(ctx, "token")
			require.NoError(t, err)
			assert.Equal(t, "def", got)

			require.NoError(t, s.Delete(ctx, "token"))
			require.NoError(t, s.Delete(ctx, "token"), "delete is idempotent")

			_, err = s.Get(ctx, "token")
			assert.True(t, IsNotFound(err))
		})
	}
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../token", "a/b", ".hidden", ".."} {
		err := s.Set(ctx, key, "x")
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}
}

func TestFileStore_OwnerOnlyPermissions(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	require.NoError(t, s.Set(context.Background(), "token", "secret"))

	info, err := os.Stat(filepath.Join(dir, "token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_EmptyFileIsNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "token"), []byte("\n"), 0600))

	s, err := NewFileStore(dir, testLogger())
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "token")
	assert.True(t, IsNotFound(err))
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, Config{Backend: BackendMemory}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = New(ctx, Config{Backend: BackendFile, Dir: t.TempDir()}, testLogger())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = New(ctx, Config{Backend: BackendRedis, RedisURL: "::not a url"}, testLogger())
	assert.Error(t, err)

	_, err = New(ctx, Config{Backend: "etcd"}, testLogger())
	assert.Error(t, err)
}
