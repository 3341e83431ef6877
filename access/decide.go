// Package access decides whether a page renders, shows a loading placeholder
// or redirects, given who is signed in and what the page requires. Decide is
// pure; callers act on the returned Decision.
package access

import (
	"net/url"

	"github.com/jrsteele09/go-hr-portal/users"
)

const (
	HomePath              = "/"
	LoginPath             = "/login"
	AdminDashboardPath    = "/admin/dashboard"
	EmployeeDashboardPath = "/employee/dashboard"

	// RedirectParam carries the originally requested location through the login page
	RedirectParam = "redirect"
)

// DefaultRole picks the surface used when a signed in user has no resolved role
const DefaultRole = users.RoleEmployee

// DashboardRoot returns the root of the surface a role may enter
func DashboardRoot(role users.Role) string {
	if role == users.RoleAdmin {
		return AdminDashboardPath
	}
	return EmployeeDashboardPath
}

// Kind is how a page treats authentication
type Kind int

const (
	// Protected pages need a signed in user
	Protected Kind = iota
	// PublicOnly pages are for visitors who have not signed in, such as login and sign-up
	PublicOnly
)

func (k Kind) String() string {
	if k == PublicOnly {
		return "publicOnly"
	}
	return "protected"
}

// Requirement is a page's declared access rule. A nil Roles on a Protected
// page admits any signed in user; a non-nil empty Roles admits nobody.
type Requirement struct {
	Kind  Kind
	Roles []users.Role
}

func (r Requirement) allows(role *users.Role) bool {
	if role == nil {
		return false
	}
	for _, allowed := range r.Roles {
		if allowed == *role {
			return true
		}
	}
	return false
}

// Subject is the part of the auth state a decision needs
type Subject struct {
	IsResolving bool
	HasUser     bool
	Role        *users.Role
}

// Action is what the page layer should do
type Action int

const (
	Render Action = iota
	Loading
	Redirect
)

func (a Action) String() string {
	switch a {
	case Loading:
		return "loading"
	case Redirect:
		return "redirect"
	default:
		return "render"
	}
}

// Decision is the outcome of Decide. Location is set only for Redirect.
type Decision struct {
	Action   Action
	Location string
}

// Decide applies the access rules in order, first match wins:
// loading while resolving, login for anonymous visitors of protected pages,
// the user's own dashboard when the page wants another role, the user's
// dashboard when a user with a role opens a public-only page, else render.
func Decide(subject Subject, req Requirement, requested string) Decision {
	if subject.IsResolving {
		return Decision{Action: Loading}
	}

	switch req.Kind {
	case Protected:
		if !subject.HasUser {
			return redirect(LoginLocation(requested))
		}
		if req.Roles != nil && !req.allows(subject.Role) {
			role := DefaultRole
			if subject.Role != nil {
				role = *subject.Role
			}
			root := DashboardRoot(role)
			if root == pathOf(requested) {
				// a roleless user on the default surface has nowhere else to go
				return redirect(HomePath)
			}
			return redirect(root)
		}
	case PublicOnly:
		if subject.HasUser && subject.Role != nil {
			return redirect(DashboardRoot(*subject.Role))
		}
	}
	return Decision{Action: Render}
}

// LoginLocation builds the login URL that returns to requested after sign-in
func LoginLocation(requested string) string {
	if requested == "" || requested == LoginPath {
		return LoginPath
	}
	q := url.Values{}
	q.Set(RedirectParam, requested)
	return LoginPath + "?" + q.Encode()
}

// SafeReturnPath accepts only local absolute paths as post-login targets
func SafeReturnPath(p string) (string, bool) {
	if p == "" {
		return "", false
	}
	u, err := url.Parse(p)
	if err != nil || u.IsAbs() || u.Host != "" || len(u.Path) == 0 || u.Path[0] != '/' {
		return "", false
	}
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return "", false
	}
	return p, true
}

func redirect(location string) Decision {
	return Decision{Action: Redirect, Location: location}
}

func pathOf(requested string) string {
	u, err := url.Parse(requested)
	if err != nil {
		return requested
	}
	return u.Path
}
