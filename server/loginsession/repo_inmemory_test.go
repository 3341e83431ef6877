package loginsession_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-hr-portal/server/loginsession"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoginSessionRepo(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	repo := loginsession.NewInMemoryLoginSessionRepo()

	require.Error(t, repo.Upsert(&loginsession.Session{}))

	require.NoError(t, repo.Upsert(&loginsession.Session{ID: "a", CreatedAt: start}))
	require.NoError(t, repo.Upsert(&loginsession.Session{ID: "b", CreatedAt: start}))
	require.Equal(t, 2, repo.Count())

	got, err := repo.Get("a")
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)

	_, err = repo.Get("missing")
	require.ErrorIs(t, err, loginsession.ErrNotFound)
	require.ErrorIs(t, repo.Touch("missing", start), loginsession.ErrNotFound)

	// only "b" is used again, so only "a" goes idle
	require.NoError(t, repo.Touch("b", start.Add(20*time.Minute)))
	expired := repo.ExpireIdle(start.Add(10 * time.Minute))
	require.Len(t, expired, 1)
	require.Equal(t, "a", expired[0].ID)
	require.Equal(t, 1, repo.Count())

	require.NoError(t, repo.Delete("b"))
	require.NoError(t, repo.Delete("b"))
	require.Equal(t, 0, repo.Count())
}

func TestNavigationTake(t *testing.T) {
	var nav loginsession.Navigation

	_, ok := nav.Take()
	require.False(t, ok)

	nav.NavigateTo("/admin/dashboard")
	nav.NavigateTo("/")
	path, ok := nav.Take()
	require.True(t, ok)
	require.Equal(t, "/", path)

	_, ok = nav.Take()
	require.False(t, ok)
}
