package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jrsteele09/go-hr-portal/auth"
	"github.com/jrsteele09/go-hr-portal/credentials"
	apperrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PageData is the template model shared by every page
type PageData struct {
	AppName string
	Title   string

	// Signed in user, nil for visitors
	User    *auth.Identity
	Role    *users.Role
	Profile *users.Profile

	Error  string
	Notice string

	// Form echoes submitted values back on error
	Form      map[string]string
	Redirect  string
	Countries []users.Country
	Roles     []users.Role

	// Refresh is where the loading page reloads to
	Refresh string
}

// IsAdmin is used by the layout to show admin navigation
func (p PageData) IsAdmin() bool {
	return p.Role != nil && *p.Role == users.RoleAdmin
}

// DisplayName prefers the profile name over the sign-in email
func (p PageData) DisplayName() string {
	if p.Profile != nil && p.Profile.FullName != "" {
		return p.Profile.FullName
	}
	if p.User != nil {
		return p.User.Email
	}
	return ""
}

func (s *Server) pageData(r *http.Request, title string) PageData {
	data := PageData{
		AppName: s.config.GetAppName(),
		Title:   title,
		Form:    map[string]string{},
	}
	if session := browserFromContext(r.Context()); session != nil {
		state := session.Controller.State()
		data.User = state.User
		data.Role = state.Role
		data.Profile = state.Profile
	}
	return data
}

// HealthHandler reports liveness and the number of open browser sessions
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sessions": s.sessions.Count(),
		})
	}
}

func (s *Server) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// statusFor picks the response status for a failed form submission
func statusFor(err error) int {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, auth.ErrInvalidProfile),
		errors.Is(err, credentials.ErrWeakPassword),
		errors.Is(err, apperrors.ErrBadRequest),
		errors.Is(err, apperrors.ErrPasswordMismatch):
		return http.StatusBadRequest
	case errors.Is(err, credentials.ErrInvalidCredentials),
		errors.Is(err, auth.ErrCurrentPasswordIncorrect),
		errors.Is(err, auth.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, credentials.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, credentials.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parseForm(r *http.Request) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.Wrapf(apperrors.ErrBadRequest, "parse form: %v", err)
	}
	return nil
}
