package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-hr-portal/internal/metrics"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Resolution is what the Resolver found for a user. Either field may be nil.
type Resolution struct {
	Role    *users.Role
	Profile *users.Profile
}

// Resolver looks up the role and profile that belong to an authenticated user.
type Resolver struct {
	repo users.Repo
}

func NewResolver(repo users.Repo) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve fetches role and profile concurrently. A lookup that finds nothing
// or fails leaves its field nil without affecting the other; failures other
// than not found are logged.
func (r *Resolver) Resolve(ctx context.Context, userID string) Resolution {
	start := time.Now()
	var res Resolution
	var g errgroup.Group

	g.Go(func() error {
		role, err := r.repo.FetchRole(ctx, userID)
		if err != nil {
			logFetchError("role", userID, err)
			return nil
		}
		if !role.IsValid() {
			log.Warn().Str("user_id", userID).Str("role", string(role)).Msg("Ignoring unknown role")
			return nil
		}
		res.Role = &role
		return nil
	})
	g.Go(func() error {
		profile, err := r.repo.FetchProfile(ctx, userID)
		if err != nil {
			logFetchError("profile", userID, err)
			return nil
		}
		res.Profile = profile
		return nil
	})
	_ = g.Wait()

	result := "complete"
	switch {
	case res.Role == nil && res.Profile == nil:
		result = "empty"
	case res.Role == nil || res.Profile == nil:
		result = "partial"
	}
	metrics.RecordResolution(result, time.Since(start).Seconds())
	return res
}

func logFetchError(field, userID string, err error) {
	if errors.Is(err, users.ErrNotFound) {
		log.Debug().Str("user_id", userID).Msgf("No %s row for user", field)
		return
	}
	metrics.RecordFetchError(field)
	log.Error().Err(err).Str("user_id", userID).Msgf("Failed to fetch %s", field)
}
