// Package storefake provides a scriptable credentials.Store for tests of code
// that sits on top of the credential service.
package storefake

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-hr-portal/credentials"
)

var _ credentials.Store = (*FakeStore)(nil)

type account struct {
	id       string
	password string
	metadata map[string]string
}

// FakeStore keeps accounts and the current session in memory. Failures and a
// hook inside CurrentSession can be scripted by tests.
type FakeStore struct {
	mu               sync.Mutex
	accounts         map[string]*account
	current          *credentials.Session
	signInErr        error
	signUpErr        error
	signOutErr       error
	updateErr        error
	currentErr       error
	onCurrentSession func()
	signInCalls      int
	listeners        credentials.Broadcaster
}

func New() *FakeStore {
	return &FakeStore{accounts: make(map[string]*account)}
}

// AddAccount registers an account and returns its id
func (f *FakeStore) AddAccount(email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.accounts[strings.ToLower(email)] = &account{id: id, password: password}
	return id
}

// SetSession installs a session without emitting an event, as a persisted session would be
func (f *FakeStore) SetSession(session *credentials.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = session.Clone()
}

// Emit pushes an event to subscribers as if the service had produced it
func (f *FakeStore) Emit(event credentials.Event, session *credentials.Session) {
	f.mu.Lock()
	f.current = session.Clone()
	f.mu.Unlock()
	f.listeners.Emit(event, session)
}

// SessionFor builds a session for a registered account
func (f *FakeStore) SessionFor(email string) *credentials.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[strings.ToLower(email)]
	if !ok {
		return nil
	}
	return f.sessionLocked(acc.id, email)
}

func (f *FakeStore) FailSignIn(err error)  { f.mu.Lock(); f.signInErr = err; f.mu.Unlock() }
func (f *FakeStore) FailSignUp(err error)  { f.mu.Lock(); f.signUpErr = err; f.mu.Unlock() }
func (f *FakeStore) FailSignOut(err error) { f.mu.Lock(); f.signOutErr = err; f.mu.Unlock() }
func (f *FakeStore) FailUpdate(err error)  { f.mu.Lock(); f.updateErr = err; f.mu.Unlock() }
func (f *FakeStore) FailCurrent(err error) { f.mu.Lock(); f.currentErr = err; f.mu.Unlock() }

// OnCurrentSession runs hook while CurrentSession is in flight, before it returns
func (f *FakeStore) OnCurrentSession(hook func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onCurrentSession = hook
}

func (f *FakeStore) SignInCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signInCalls
}

func (f *FakeStore) Password(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acc, ok := f.accounts[strings.ToLower(email)]; ok {
		return acc.password
	}
	return ""
}

func (f *FakeStore) Subscribers() int {
	return f.listeners.Subscribers()
}

func (f *FakeStore) SignIn(ctx context.Context, email, password string) (*credentials.Session, error) {
	f.mu.Lock()
	f.signInCalls++
	if f.signInErr != nil {
		err := f.signInErr
		f.mu.Unlock()
		return nil, err
	}
	acc, ok := f.accounts[strings.ToLower(email)]
	if !ok || acc.password != password {
		f.mu.Unlock()
		return nil, credentials.ErrInvalidCredentials
	}
	session := f.sessionLocked(acc.id, email)
	f.current = session.Clone()
	f.mu.Unlock()

	f.listeners.Emit(credentials.EventSignedIn, session)
	return session, nil
}

func (f *FakeStore) SignUp(ctx context.Context, email, password string, options credentials.SignUpOptions) (*credentials.User, error) {
	f.mu.Lock()
	if f.signUpErr != nil {
		err := f.signUpErr
		f.mu.Unlock()
		return nil, err
	}
	key := strings.ToLower(email)
	if _, exists := f.accounts[key]; exists {
		f.mu.Unlock()
		return nil, credentials.ErrEmailTaken
	}
	acc := &account{id: uuid.NewString(), password: password, metadata: options.Data}
	f.accounts[key] = acc
	session := f.sessionLocked(acc.id, email)
	f.current = session.Clone()
	f.mu.Unlock()

	f.listeners.Emit(credentials.EventSignedIn, session)
	return &credentials.User{ID: acc.id, Email: email, Metadata: options.Data}, nil
}

func (f *FakeStore) SignOut(ctx context.Context) error {
	f.mu.Lock()
	if f.signOutErr != nil {
		err := f.signOutErr
		f.mu.Unlock()
		return err
	}
	had := f.current != nil
	f.current = nil
	f.mu.Unlock()

	if had {
		f.listeners.Emit(credentials.EventSignedOut, nil)
	}
	return nil
}

func (f *FakeStore) CurrentSession(ctx context.Context) (*credentials.Session, error) {
	f.mu.Lock()
	session, err, hook := f.current.Clone(), f.currentErr, f.onCurrentSession
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (f *FakeStore) UpdatePassword(ctx context.Context, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.current == nil {
		return credentials.ErrNoSession
	}
	for _, acc := range f.accounts {
		if acc.id == f.current.UserID {
			acc.password = newPassword
		}
	}
	return nil
}

func (f *FakeStore) OnSessionChange(callback credentials.Callback) credentials.Subscription {
	return f.listeners.Subscribe(callback)
}

func (f *FakeStore) sessionLocked(userID, email string) *credentials.Session {
	return &credentials.Session{
		UserID:       userID,
		Email:        email,
		AccessToken:  fmt.Sprintf("access-%s", uuid.NewString()),
		RefreshToken: fmt.Sprintf("refresh-%s", uuid.NewString()),
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
	}
}
