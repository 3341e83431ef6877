package loginsession

import (
	"errors"
	"sync"
	"time"

	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/credentials"
)

var ErrNotFound = errors.New("login session not found")

// Session is one browser's connection to the portal, keyed by the value of
// its session cookie.
type Session struct {
	ID         string
	Store      credentials.Store
	Controller *auth.Controller
	Navigation *Navigation
	CreatedAt  time.Time
}

// Close stops the session's controller
func (s *Session) Close() {
	if s.Controller != nil {
		s.Controller.Close()
	}
}

type Repo interface {
	Upsert(session *Session) error
	Get(sessionID string) (*Session, error)
	Delete(sessionID string) error
	// Touch marks the session as used at the given time
	Touch(sessionID string, at time.Time) error
	// ExpireIdle removes and returns every session not touched since before
	ExpireIdle(before time.Time) []*Session
	Count() int
}

// Navigation records where the controller last asked the browser to go, so
// the handler that ran the operation can turn it into a redirect.
type Navigation struct {
	mu   sync.Mutex
	path string
}

var _ auth.Navigator = (*Navigation)(nil)

func (n *Navigation) NavigateTo(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.path = path
}

// Take returns the pending destination and clears it
func (n *Navigation) Take() (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	path := n.path
	n.path = ""
	return path, path != ""
}
