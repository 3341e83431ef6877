// Package credentials describes the hosted credential service the portal
// authenticates against: sign-in, sign-up, sign-out, the current session and
// the session-changed event stream. Adapters live in sub-packages.
package credentials

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password does not meet requirements")
	ErrNoSession          = errors.New("no active session")
	ErrUnavailable        = errors.New("credential service unavailable")
)

// Session is one authenticated browser session as issued by the credential service
type Session struct {
	UserID       string
	Email        string
	AccessToken  string // Opaque handle owned by the credential service
	RefreshToken string
	ExpiresAt    time.Time
}

// Clone returns a copy so holders never share a pointer with the store
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// User is the credential record created at sign-up
type User struct {
	ID       string
	Email    string
	Metadata map[string]string
}

// SignUpOptions carries metadata stored with the credential record
type SignUpOptions struct {
	Data map[string]string
}

// Event names the kind of session change reported to subscribers
type Event string

const (
	EventInitialSession Event = "INITIAL_SESSION"
	EventSignedIn       Event = "SIGNED_IN"
	EventSignedOut      Event = "SIGNED_OUT"
	EventTokenRefreshed Event = "TOKEN_REFRESHED"
	EventUserUpdated    Event = "USER_UPDATED"
)

// Callback receives session changes. session is nil when nobody is signed in.
// Callbacks run on the store's dispatch path and must not call back into the store.
type Callback func(event Event, session *Session)

// Subscription is the handle returned by OnSessionChange
type Subscription interface {
	Unsubscribe()
}

// Store is the contract of the credential service as seen by one browser session
type Store interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, options SignUpOptions) (*User, error)
	SignOut(ctx context.Context) error
	CurrentSession(ctx context.Context) (*Session, error)
	UpdatePassword(ctx context.Context, newPassword string) error
	OnSessionChange(callback Callback) Subscription
}

// Rekeyer is implemented by stores that persist the session under the
// browser's key. Rekey moves whatever is persisted to key and forgets the old one.
type Rekeyer interface {
	Rekey(ctx context.Context, key string) error
}
