package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/users"
	fakeuserrepo "github.com/jrsteele09/go-hr-portal/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	profile := &users.Profile{FullName: "Jane Doe", Email: "a@b.com", Country: users.CountryThailand}

	t.Run("both present", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		repo.Seed("user-1", users.RoleAdmin, profile)

		res := auth.NewResolver(repo).Resolve(ctx, "user-1")
		require.Equal(t, users.RoleAdmin, *res.Role)
		require.Equal(t, "Jane Doe", res.Profile.FullName)
		require.Equal(t, "user-1", res.Profile.UserID)
	})

	t.Run("nothing found", func(t *testing.T) {
		res := auth.NewResolver(fakeuserrepo.NewFakeUserRepo()).Resolve(ctx, "user-1")
		require.Nil(t, res.Role)
		require.Nil(t, res.Profile)
	})

	t.Run("role lookup fails", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		repo.Seed("user-1", users.RoleAdmin, profile)
		repo.Fail(fakeuserrepo.OpFetchRole, errors.New("connection refused"))

		res := auth.NewResolver(repo).Resolve(ctx, "user-1")
		require.Nil(t, res.Role)
		require.NotNil(t, res.Profile)
	})

	t.Run("profile lookup fails", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		repo.Seed("user-1", users.RoleEmployee, profile)
		repo.Fail(fakeuserrepo.OpFetchProfile, errors.New("connection refused"))

		res := auth.NewResolver(repo).Resolve(ctx, "user-1")
		require.Equal(t, users.RoleEmployee, *res.Role)
		require.Nil(t, res.Profile)
	})

	t.Run("unknown role value is ignored", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		repo.Seed("user-1", users.Role("superuser"), profile)

		res := auth.NewResolver(repo).Resolve(ctx, "user-1")
		require.Nil(t, res.Role)
		require.NotNil(t, res.Profile)
	})

	t.Run("lookups run concurrently", func(t *testing.T) {
		repo := fakeuserrepo.NewFakeUserRepo()
		repo.Seed("user-1", users.RoleEmployee, profile)

		// each lookup waits for the other to have started
		roleStarted, profileStarted := make(chan struct{}), make(chan struct{})
		repo.OnCall(fakeuserrepo.OpFetchRole, func(string) {
			close(roleStarted)
			<-profileStarted
		})
		repo.OnCall(fakeuserrepo.OpFetchProfile, func(string) {
			close(profileStarted)
			<-roleStarted
		})

		res := auth.NewResolver(repo).Resolve(ctx, "user-1")
		require.NotNil(t, res.Role)
		require.NotNil(t, res.Profile)
	})
}
