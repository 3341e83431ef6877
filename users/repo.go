package users

import "context"

// Repo fronts the relational store holding roles and profiles.
// Fetches return ErrNotFound when the row does not exist.
type Repo interface {
	FetchRole(ctx context.Context, userID string) (Role, error)
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
	InsertProfile(ctx context.Context, profile *Profile) error
	InsertRole(ctx context.Context, userID string, role Role) error
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) error
}
