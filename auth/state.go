package auth

import (
	"github.com/jrsteele09/go-hr-portal/access"
	"github.com/jrsteele09/go-hr-portal/credentials"
	"github.com/jrsteele09/go-hr-portal/users"
)

// Status is how far the Controller has got in working out who is signed in
type Status int

const (
	StatusUnresolved Status = iota
	StatusResolving
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusResolving:
		return "resolving"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// Identity is the signed in user as the credential store knows them
type Identity struct {
	UserID string
	Email  string
}

// State is a snapshot of the Controller. User and Session are set whenever
// the store reports a session, even if Role or Profile could not be found.
type State struct {
	Status  Status
	User    *Identity
	Session *credentials.Session
	Role    *users.Role
	Profile *users.Profile
}

func (s State) IsResolving() bool {
	return s.Status == StatusUnresolved || s.Status == StatusResolving
}

// Subject is the view of the state used for route decisions
func (s State) Subject() access.Subject {
	return access.Subject{
		IsResolving: s.IsResolving(),
		HasUser:     s.User != nil,
		Role:        s.Role,
	}
}

func (s State) clone() State {
	out := State{Status: s.Status, Session: s.Session.Clone()}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Role != nil {
		r := *s.Role
		out.Role = &r
	}
	if s.Profile != nil {
		p := *s.Profile
		out.Profile = &p
	}
	return out
}

func authenticatedState(session *credentials.Session, role *users.Role, profile *users.Profile) State {
	return State{
		Status:  StatusAuthenticated,
		User:    &Identity{UserID: session.UserID, Email: session.Email},
		Session: session.Clone(),
		Role:    role,
		Profile: profile,
	}
}
