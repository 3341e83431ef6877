package sessionstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/credentials/sessionstore"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func testSession() *credentials.Session {
	return &credentials.Session{
		UserID:       "user-1",
		Email:        "a@b.com",
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
	}
}

func exerciseStorage(t *testing.T, storage sessionstore.Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := storage.Load(ctx, "browser-1")
	require.ErrorIs(t, err, sessionstore.ErrNotFound)

	require.NoError(t, storage.Save(ctx, "browser-1", testSession()))
	loaded, err := storage.Load(ctx, "browser-1")
	require.NoError(t, err)
	require.Equal(t, testSession(), loaded)

	require.NoError(t, storage.Remove(ctx, "browser-1"))
	_, err = storage.Load(ctx, "browser-1")
	require.ErrorIs(t, err, sessionstore.ErrNotFound)

	// removing a missing key is not an error
	require.NoError(t, storage.Remove(ctx, "browser-1"))
}

func TestMemory(t *testing.T) {
	exerciseStorage(t, sessionstore.NewMemory())
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	storage := sessionstore.NewRedis(rdb, "portal:session", time.Hour)
	exerciseStorage(t, storage)

	require.NoError(t, storage.Save(context.Background(), "browser-2", testSession()))
	require.True(t, mr.Exists("portal:session:browser-2"))
	require.Equal(t, time.Hour, mr.TTL("portal:session:browser-2"))

	mr.FastForward(2 * time.Hour)
	_, err = storage.Load(context.Background(), "browser-2")
	require.ErrorIs(t, err, sessionstore.ErrNotFound)
}
