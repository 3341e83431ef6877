package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-hr-portal/credentials"
)

var _ credentials.Store = (*Client)(nil)

// Client is one browser's view of the Service. It remembers the current
// session and reports changes to subscribers.
type Client struct {
	svc       *Service
	mu        sync.Mutex
	current   *credentials.Session
	listeners credentials.Broadcaster
}

func NewClient(svc *Service) *Client {
	return &Client{svc: svc}
}

// SignIn issues a new session. A session it replaces is revoked.
func (c *Client) SignIn(ctx context.Context, email, password string) (*credentials.Session, error) {
	session, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.install(ctx, session)
	c.listeners.Emit(credentials.EventSignedIn, session)
	return session.Clone(), nil
}

// SignUp registers the account and signs it in straight away, as a service
// without email confirmation does.
func (c *Client) SignUp(ctx context.Context, email, password string, options credentials.SignUpOptions) (*credentials.User, error) {
	user, err := c.svc.Register(ctx, email, password, options.Data)
	if err != nil {
		return nil, err
	}
	session, err := c.svc.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.install(ctx, session)
	c.listeners.Emit(credentials.EventSignedIn, session)
	return user, nil
}

// SignOut revokes the current session. Without a session it does nothing.
func (c *Client) SignOut(ctx context.Context) error {
	previous := c.replace(nil)
	if previous == nil {
		return nil
	}
	c.svc.Revoke(ctx, previous.AccessToken)
	c.listeners.Emit(credentials.EventSignedOut, nil)
	return nil
}

// CurrentSession returns the stored session, dropping it if the service no longer accepts it
func (c *Client) CurrentSession(ctx context.Context) (*credentials.Session, error) {
	c.mu.Lock()
	session := c.current.Clone()
	c.mu.Unlock()
	if session == nil {
		return nil, nil
	}
	if _, err := c.svc.Validate(ctx, session.AccessToken); err != nil {
		c.Expire()
		return nil, nil
	}
	return session, nil
}

func (c *Client) UpdatePassword(ctx context.Context, newPassword string) error {
	c.mu.Lock()
	session := c.current.Clone()
	c.mu.Unlock()
	if session == nil {
		return credentials.ErrNoSession
	}
	if err := c.svc.ChangePassword(ctx, session.AccessToken, newPassword); err != nil {
		return err
	}
	c.listeners.Emit(credentials.EventUserUpdated, session)
	return nil
}

func (c *Client) OnSessionChange(callback credentials.Callback) credentials.Subscription {
	return c.listeners.Subscribe(callback)
}

// Refresh rotates the access token of the current session
func (c *Client) Refresh(ctx context.Context) error {
	c.mu.Lock()
	session := c.current.Clone()
	c.mu.Unlock()
	if session == nil {
		return credentials.ErrNoSession
	}
	refreshed, err := c.svc.Refresh(ctx, session)
	if err != nil {
		c.Expire()
		return err
	}
	c.replace(refreshed)
	c.listeners.Emit(credentials.EventTokenRefreshed, refreshed)
	return nil
}

// Expire drops the current session as if it had timed out or been revoked elsewhere
func (c *Client) Expire() {
	if previous := c.replace(nil); previous != nil {
		c.listeners.Emit(credentials.EventSignedOut, nil)
	}
}

// Restore installs a session obtained elsewhere without emitting an event,
// as a client does when it starts with a persisted session.
func (c *Client) Restore(session *credentials.Session) {
	c.replace(session)
}

func (c *Client) install(ctx context.Context, session *credentials.Session) {
	if previous := c.replace(session); previous != nil && previous.AccessToken != session.AccessToken {
		c.svc.Revoke(ctx, previous.AccessToken)
	}
}

func (c *Client) replace(session *credentials.Session) *credentials.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	previous := c.current
	c.current = session.Clone()
	return previous
}
