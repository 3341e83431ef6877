package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/access"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/internal/metrics"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog/log"
)

// Navigator moves the browser to another page after an operation completes
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(path string)

func (f NavigatorFunc) NavigateTo(path string) { f(path) }

type Option func(*Controller)

// WithNavigator sets where post-operation navigation goes. Without one navigation is dropped.
func WithNavigator(n Navigator) Option {
	return func(c *Controller) {
		c.navigator = n
	}
}

// WithStateObserver registers fn to see every state change in order. fn runs
// with the state lock held and must not call back into the Controller.
func WithStateObserver(fn func(State)) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(c *Controller) {
		c.nowTime = now
	}
}

// Controller owns who is signed in for one browser session. It listens to
// the credential store, resolves role and profile through the Resolver, and
// is the only writer of State.
type Controller struct {
	store     credentials.Store
	repo      users.Repo
	resolver  *Resolver
	validator *Validator
	navigator Navigator
	observer  func(State)
	nowTime   func() time.Time

	mu         sync.RWMutex
	state      State
	generation uint64        // bumped by every state change that supersedes in-flight resolutions
	settled    chan struct{} // closed while no resolution is pending
	resolving  bool
	closed     bool
	sub        credentials.Subscription

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	tasks     sync.WaitGroup
}

func NewController(store credentials.Store, repo users.Repo, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:     store,
		repo:      repo,
		resolver:  NewResolver(repo),
		validator: NewValidator(),
		nowTime:   time.Now,
		state:     State{Status: StatusUnresolved},
		settled:   make(chan struct{}),
		resolving: true,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start subscribes to session changes and then resolves whatever session the
// store already holds. An event that arrives while the initial lookup is in
// flight wins over the lookup. Later calls do nothing.
func (c *Controller) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		gen := c.beginLocked(nil)
		c.mu.Unlock()

		sub := c.store.OnSessionChange(c.onSessionChange)
		c.mu.Lock()
		c.sub = sub
		c.mu.Unlock()

		session, err := c.store.CurrentSession(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read current session")
			session = nil
		}
		c.resolve(ctx, gen, session)
	})
}

// onSessionChange runs on the store's dispatch path, so resolution is handed
// to its own goroutine instead of calling back into the store from here.
func (c *Controller) onSessionChange(event credentials.Event, session *credentials.Session) {
	log.Debug().Str("event", string(event)).Bool("has_session", session != nil).Msg("Session changed")

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if session == nil {
		c.generation++
		c.settleLocked(State{Status: StatusAnonymous})
		c.mu.Unlock()
		return
	}
	gen := c.beginLocked(session)
	c.tasks.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.tasks.Done()
		c.resolve(c.ctx, gen, session)
	}()
}

// SignIn checks the credentials with the store, resolves role and profile,
// then navigates to the role's dashboard. Store errors are returned as is.
func (c *Controller) SignIn(ctx context.Context, email, password string) (err error) {
	defer func() { metrics.RecordAuthOperation("sign_in", err) }()

	session, err := c.store.SignIn(ctx, email, password)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	gen := c.beginLocked(session)
	c.mu.Unlock()

	c.resolve(ctx, gen, session)
	c.navigate(c.landingPath())
	return nil
}

// SignUp creates the credential record, then the role row, then the profile
// row. When a row write fails the credential record stays and a
// *PartialSignUpError is returned. On success role and profile are set from
// what was written and the browser goes to the role's dashboard.
func (c *Controller) SignUp(ctx context.Context, params SignUpParameters) (err error) {
	defer func() { metrics.RecordAuthOperation("sign_up", err) }()

	params.Normalise()
	if err := c.validator.ValidateSignUp(&params); err != nil {
		return err
	}

	user, err := c.store.SignUp(ctx, params.Email, params.Password, credentials.SignUpOptions{
		Data: map[string]string{
			"full_name":    params.FullName,
			"company_name": params.CompanyName,
			"country":      string(params.Country),
			"role":         string(params.Role),
		},
	})
	if err != nil {
		return err
	}

	if err := c.repo.InsertRole(ctx, user.ID, params.Role); err != nil {
		return c.partialSignUp(ctx, user, params.Email, SignUpPhaseRole, err)
	}
	now := c.nowTime()
	profile := &users.Profile{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		FullName:    params.FullName,
		Email:       params.Email,
		CompanyName: params.CompanyName,
		Country:     params.Country,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := c.repo.InsertProfile(ctx, profile); err != nil {
		return c.partialSignUp(ctx, user, params.Email, SignUpPhaseProfile, err)
	}

	session, err := c.store.CurrentSession(ctx)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("Failed to read session after sign-up")
		session = nil
	}
	if session == nil || session.UserID != user.ID {
		// the store wants the user to sign in first, e.g. after email confirmation
		c.navigate(access.LoginPath)
		return nil
	}

	role := params.Role
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	c.settleLocked(authenticatedState(session, &role, profile))
	c.mu.Unlock()

	c.navigate(access.DashboardRoot(role))
	return nil
}

// partialSignUp reports a half-finished sign-up and re-resolves, so state
// reflects whichever rows did get written.
func (c *Controller) partialSignUp(ctx context.Context, user *credentials.User, email string, phase SignUpPhase, err error) error {
	log.Error().Err(err).
		Str("user_id", user.ID).
		Str("email", email).
		Str("phase", string(phase)).
		Msg("Sign-up left a credential record without its profile data")
	c.reresolve(ctx)
	return &PartialSignUpError{UserID: user.ID, Email: email, Phase: phase, Err: err}
}

func (c *Controller) reresolve(ctx context.Context) {
	session, err := c.store.CurrentSession(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read current session")
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	gen := c.beginLocked(session)
	c.mu.Unlock()
	c.resolve(ctx, gen, session)
}

// SignOut ends the session with the store and clears local state whatever the
// store says. Signing out when nobody is signed in is not an error.
func (c *Controller) SignOut(ctx context.Context) (err error) {
	defer func() { metrics.RecordAuthOperation("sign_out", err) }()

	err = c.store.SignOut(ctx)
	if errors.Is(err, credentials.ErrNoSession) {
		err = nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("Credential service sign-out failed, clearing local session anyway")
	}

	c.mu.Lock()
	c.generation++
	c.settleLocked(State{Status: StatusAnonymous})
	c.mu.Unlock()

	c.navigate(access.HomePath)
	return err
}

// UpdatePassword re-checks currentPassword with the store before changing it.
// A wrong current password returns ErrCurrentPasswordIncorrect.
func (c *Controller) UpdatePassword(ctx context.Context, currentPassword, newPassword string) (err error) {
	defer func() { metrics.RecordAuthOperation("update_password", err) }()

	state := c.State()
	if state.User == nil {
		return ErrNotAuthenticated
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return fmt.Errorf("%w: %v", credentials.ErrWeakPassword, err)
	}

	if _, err := c.store.SignIn(ctx, state.User.Email, currentPassword); err != nil {
		if errors.Is(err, credentials.ErrInvalidCredentials) {
			return ErrCurrentPasswordIncorrect
		}
		return err
	}
	return c.store.UpdatePassword(ctx, newPassword)
}

// UpdateProfile writes the set fields of update and then replaces the held
// profile with a fresh read of the row.
func (c *Controller) UpdateProfile(ctx context.Context, update users.ProfileUpdate) (err error) {
	defer func() { metrics.RecordAuthOperation("update_profile", err) }()

	state := c.State()
	if state.User == nil {
		return ErrNotAuthenticated
	}
	if update.Country != nil && !update.Country.IsValid() {
		return fmt.Errorf("%w: unknown country %q", ErrInvalidProfile, *update.Country)
	}
	if update.IsEmpty() {
		return nil
	}

	userID := state.User.UserID
	if err := c.repo.UpdateProfile(ctx, userID, update); err != nil {
		return err
	}
	profile, err := c.repo.FetchProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("profile saved but could not be reloaded: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.User != nil && c.state.User.UserID == userID {
		next := c.state
		next.Profile = profile
		c.setLocked(next)
	}
	return nil
}

// State returns a copy of the current state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

func (c *Controller) IsResolving() bool {
	return c.State().IsResolving()
}

// Wait blocks until no resolution is pending or ctx is done
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.RLock()
	settled := c.settled
	c.mu.RUnlock()

	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops listening to the store and waits for background resolutions to finish
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	c.cancel()
	c.tasks.Wait()
}

// resolve looks up role and profile for session and applies the result unless
// a newer change has superseded gen.
func (c *Controller) resolve(ctx context.Context, gen uint64, session *credentials.Session) bool {
	next := State{Status: StatusAnonymous}
	if session != nil {
		res := c.resolver.Resolve(ctx, session.UserID)
		next = authenticatedState(session, res.Role, res.Profile)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.generation {
		log.Debug().Uint64("generation", gen).Msg("Discarding superseded resolution")
		return false
	}
	c.settleLocked(next)
	return true
}

// beginLocked enters Resolving for session and returns the new generation.
// Role and profile are kept when the same user is re-resolved.
func (c *Controller) beginLocked(session *credentials.Session) uint64 {
	c.generation++
	if !c.resolving {
		c.settled = make(chan struct{})
		c.resolving = true
	}

	next := State{Status: StatusResolving}
	if session != nil {
		next.User = &Identity{UserID: session.UserID, Email: session.Email}
		next.Session = session.Clone()
		if c.state.User != nil && c.state.User.UserID == session.UserID {
			next.Role = c.state.Role
			next.Profile = c.state.Profile
		}
	}
	c.setLocked(next)
	return c.generation
}

func (c *Controller) settleLocked(next State) {
	c.setLocked(next)
	if c.resolving {
		close(c.settled)
		c.resolving = false
	}
}

func (c *Controller) setLocked(next State) {
	c.state = next
	if c.observer != nil {
		c.observer(next.clone())
	}
}

func (c *Controller) landingPath() string {
	state := c.State()
	if state.Role != nil {
		return access.DashboardRoot(*state.Role)
	}
	return access.HomePath
}

func (c *Controller) navigate(path string) {
	log.Debug().Str("path", path).Msg("Navigating")
	if c.navigator != nil {
		c.navigator.NavigateTo(path)
	}
}
