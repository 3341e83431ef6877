package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hr-portal/access"
	apperrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

func returnPath(r *http.Request) string {
	path, _ := access.SafeReturnPath(r.FormValue(access.RedirectParam))
	return path
}

// LoginPageHandler serves the login form. A redirect parameter is carried
// through to the submission.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "Sign in")
		data.Redirect = returnPath(r)
		renderPage(w, tmpl, http.StatusOK, data)
	}
}

// LoginSubmissionHandler signs the browser in and moves it to a fresh session
// id. On success it goes to the requested page if there was one, otherwise
// wherever the controller sent it.
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("login.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := browserFromContext(r.Context())
		data := s.pageData(r, "Sign in")

		if err := parseForm(r); err != nil {
			data.Error = apperrors.UserMessage(err)
			renderPage(w, tmpl, statusFor(err), data)
			return
		}
		email := strings.TrimSpace(r.PostFormValue("email"))
		data.Form["email"] = email
		data.Redirect = returnPath(r)

		if err := session.Controller.SignIn(r.Context(), email, r.PostFormValue("password")); err != nil {
			log.Info().Err(err).Str("email", email).Msg("Sign-in failed")
			data.Error = apperrors.UserMessage(err)
			renderPage(w, tmpl, statusFor(err), data)
			return
		}
		s.rotateBrowser(w, r, session)

		destination := navigation(session, access.HomePath)
		if data.Redirect != "" {
			destination = data.Redirect
		}
		http.Redirect(w, r, destination, http.StatusSeeOther)
	}
}

// LogoutHandler signs the browser out. Local state is cleared even when the
// credential service could not be reached.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := browserFromContext(r.Context())
		_ = session.Controller.SignOut(r.Context())
		http.Redirect(w, r, navigation(session, access.HomePath), http.StatusSeeOther)
	}
}
