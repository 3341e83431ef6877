package loginsession

import (
	"fmt"
	"sync"
	"time"
)

type entry struct {
	session  *Session
	lastSeen time.Time
}

// InMemoryLoginSessionRepo is an in-memory implementation of Repo
type InMemoryLoginSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

var _ Repo = (*InMemoryLoginSessionRepo)(nil)

// NewInMemoryLoginSessionRepo creates a new in-memory login session repository
func NewInMemoryLoginSessionRepo() *InMemoryLoginSessionRepo {
	return &InMemoryLoginSessionRepo{
		sessions: make(map[string]*entry),
	}
}

// Upsert stores the session, replacing any session with the same ID
func (r *InMemoryLoginSessionRepo) Upsert(session *Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	lastSeen := session.CreatedAt
	if existing, ok := r.sessions[session.ID]; ok && existing.lastSeen.After(lastSeen) {
		lastSeen = existing.lastSeen
	}
	r.sessions[session.ID] = &entry{session: session, lastSeen: lastSeen}
	return nil
}

// Get retrieves a login session by ID
func (r *InMemoryLoginSessionRepo) Get(sessionID string) (*Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return e.session, nil
}

// Delete removes a login session
func (r *InMemoryLoginSessionRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID) // already gone is fine
	return nil
}

func (r *InMemoryLoginSessionRepo) Touch(sessionID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if at.After(e.lastSeen) {
		e.lastSeen = at
	}
	return nil
}

func (r *InMemoryLoginSessionRepo) ExpireIdle(before time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Session
	for id, e := range r.sessions {
		if e.lastSeen.Before(before) {
			expired = append(expired, e.session)
			delete(r.sessions, id)
		}
	}
	return expired
}

func (r *InMemoryLoginSessionRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
