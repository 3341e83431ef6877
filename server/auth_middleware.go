package server

import (
	"context"
	"html/template"
	"net/http"

	"github.com/jrsteele09/go-hr-portal/access"
	"github.com/jrsteele09/go-hr-portal/internal/metrics"
	"github.com/jrsteele09/go-hr-portal/server/loginsession"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyBrowser stores the request's *loginsession.Session
const ContextKeyBrowser ContextKey = "browser"

func withBrowser(r *http.Request, session *loginsession.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyBrowser, session))
}

func browserFromContext(ctx context.Context) *loginsession.Session {
	session, _ := ctx.Value(ContextKeyBrowser).(*loginsession.Session)
	return session
}

// WithBrowser attaches the browser's login session to the request without
// applying any access rule.
func (s *Server) WithBrowser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, withBrowser(r, s.browser(w, r)))
	}
}

// RequireAccess guards a page with req. It gives the browser's identity up to
// the configured resolve wait to settle, then renders, redirects or serves
// the loading page.
func (s *Server) RequireAccess(page string, req access.Requirement) func(http.HandlerFunc) http.HandlerFunc {
	loading := mustParseTemplate("loading.html")

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session := s.browser(w, r)

			ctx, cancel := context.WithTimeout(r.Context(), s.config.GetResolveWait())
			_ = session.Controller.Wait(ctx)
			cancel()

			decision := access.Decide(session.Controller.State().Subject(), req, r.URL.RequestURI())
			metrics.RecordRouteDecision(page, decision.Action.String())

			switch decision.Action {
			case access.Loading:
				s.renderLoading(w, r, loading)
			case access.Redirect:
				http.Redirect(w, r, decision.Location, http.StatusSeeOther)
			default:
				next(w, withBrowser(r, session))
			}
		}
	}
}

func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request, tmpl *template.Template) {
	// a form post cannot be replayed by the refresh, so tell the client to retry
	status := http.StatusOK
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Retry-After", "1")
	renderPage(w, tmpl, status, PageData{
		AppName: s.config.GetAppName(),
		Title:   "Loading",
		Refresh: r.URL.RequestURI(),
	})
}
