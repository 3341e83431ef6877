package oidcstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/credentials/sessionstore"
	"github.com/rs/zerolog/log"
)

var (
	_ credentials.Store   = (*Client)(nil)
	_ credentials.Rekeyer = (*Client)(nil)
)

// Client is one browser's session against the Provider. The session is
// persisted under key so a restarted process picks it up again.
type Client struct {
	provider  *Provider
	storage   sessionstore.Storage
	key       string
	nowTime   func() time.Time
	mu        sync.Mutex
	loaded    bool
	current   *credentials.Session
	listeners credentials.Broadcaster
}

type ClientOption func(*Client)

func WithNowTime(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = now
	}
}

func NewClient(provider *Provider, storage sessionstore.Storage, key string, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		storage:  storage,
		key:      key,
		nowTime:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SignIn starts a new session. The refresh token of a session it replaces is
// revoked; a failed revocation is logged and does not fail the sign-in.
func (c *Client) SignIn(ctx context.Context, email, password string) (*credentials.Session, error) {
	session, err := c.provider.passwordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}
	previous := c.load(ctx)
	c.persist(ctx, session)
	if previous != nil && previous.RefreshToken != "" && previous.RefreshToken != session.RefreshToken {
		if err := c.provider.revoke(ctx, previous); err != nil {
			log.Warn().Err(err).Msg("Failed to revoke replaced session")
		}
	}
	c.listeners.Emit(credentials.EventSignedIn, session)
	return session.Clone(), nil
}

func (c *Client) SignUp(ctx context.Context, email, password string, options credentials.SignUpOptions) (*credentials.User, error) {
	user, err := c.provider.register(ctx, email, password, options.Data)
	if err != nil {
		return nil, err
	}
	session, err := c.provider.passwordGrant(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.persist(ctx, session)
	c.listeners.Emit(credentials.EventSignedIn, session)
	return user, nil
}

// SignOut revokes the session at the provider and forgets it locally.
// The local session is dropped even when revocation fails.
func (c *Client) SignOut(ctx context.Context) error {
	session := c.load(ctx)
	if session == nil {
		return nil
	}
	revokeErr := c.provider.revoke(ctx, session)
	c.forget(ctx)
	c.listeners.Emit(credentials.EventSignedOut, nil)
	return revokeErr
}

// CurrentSession returns the persisted session, refreshing it once it has expired.
// A session that can no longer be refreshed is dropped with a SIGNED_OUT event.
func (c *Client) CurrentSession(ctx context.Context) (*credentials.Session, error) {
	session := c.load(ctx)
	if session == nil {
		return nil, nil
	}
	if !session.Expired(c.nowTime()) {
		return session, nil
	}
	if session.RefreshToken == "" {
		c.expire(ctx)
		return nil, nil
	}

	refreshed, err := c.provider.refresh(ctx, session)
	if errors.Is(err, credentials.ErrUnavailable) {
		return nil, err
	}
	if err != nil {
		c.expire(ctx)
		return nil, nil
	}
	c.persist(ctx, refreshed)
	c.listeners.Emit(credentials.EventTokenRefreshed, refreshed)
	return refreshed.Clone(), nil
}

func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	session, err := c.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if session == nil {
		return credentials.ErrNoSession
	}
	if err := c.provider.changePassword(ctx, session, newPassword); err != nil {
		return err
	}
	c.listeners.Emit(credentials.EventUserUpdated, session)
	return nil
}

func (c *Client) OnSessionChange(callback credentials.Callback) credentials.Subscription {
	return c.listeners.Subscribe(callback)
}

// Rekey moves the persisted session to key. The old key is removed even when
// nobody is signed in, so it can no longer restore anything.
func (c *Client) Rekey(ctx context.Context, key string) error {
	session := c.load(ctx)

	c.mu.Lock()
	old := c.key
	c.key = key
	c.mu.Unlock()
	if old == key {
		return nil
	}

	if session != nil {
		if err := c.storage.Save(ctx, key, session); err != nil {
			return fmt.Errorf("[Client.Rekey] %w", err)
		}
	}
	if err := c.storage.Remove(ctx, old); err != nil {
		return fmt.Errorf("[Client.Rekey] %w", err)
	}
	return nil
}

func (c *Client) load(ctx context.Context) *credentials.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.current.Clone()
	}
	session, err := c.storage.Load(ctx, c.key)
	switch {
	case errors.Is(err, sessionstore.ErrNotFound):
	case err != nil:
		// leave loaded unset so the next call tries again
		log.Warn().Err(err).Str("key", c.key).Msg("Failed to load persisted session")
		return nil
	default:
		c.current = session
	}
	c.loaded = true
	return c.current.Clone()
}

func (c *Client) persist(ctx context.Context, session *credentials.Session) {
	c.mu.Lock()
	c.current = session.Clone()
	c.loaded = true
	key := c.key
	c.mu.Unlock()
	if err := c.storage.Save(ctx, key, session); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to persist session")
	}
}

func (c *Client) forget(ctx context.Context) {
	c.mu.Lock()
	c.current = nil
	c.loaded = true
	key := c.key
	c.mu.Unlock()
	if err := c.storage.Remove(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to remove persisted session")
	}
}

func (c *Client) expire(ctx context.Context) {
	c.forget(ctx)
	c.listeners.Emit(credentials.EventSignedOut, nil)
}
