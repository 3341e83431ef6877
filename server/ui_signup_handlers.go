package server

import (
	"errors"
	"net/http"

	"github.com/jrsteele09/go-hr-portal/access"
	"github.com/jrsteele09/go-hr-portal/auth"
	apperrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/users"
)

var signUpFields = []string{"email", "full_name", "company_name", "country", "role"}

func (s *Server) signupPageData(r *http.Request) PageData {
	data := s.pageData(r, "Create an account")
	data.Countries = users.Countries()
	data.Roles = []users.Role{users.RoleEmployee, users.RoleAdmin}
	return data
}

// SignupGetHandler renders the registration form
func (s *Server) SignupGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signup.html")

	return func(w http.ResponseWriter, r *http.Request) {
		renderPage(w, tmpl, http.StatusOK, s.signupPageData(r))
	}
}

// SignupPostHandler creates the account, its role and its profile
func (s *Server) SignupPostHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("signup.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := browserFromContext(r.Context())
		data := s.signupPageData(r)

		if err := parseForm(r); err != nil {
			data.Error = apperrors.UserMessage(err)
			renderPage(w, tmpl, statusFor(err), data)
			return
		}
		for _, field := range signUpFields {
			data.Form[field] = r.PostFormValue(field)
		}

		err := session.Controller.SignUp(r.Context(), auth.SignUpParameters{
			Email:       r.PostFormValue("email"),
			Password:    r.PostFormValue("password"),
			FullName:    r.PostFormValue("full_name"),
			CompanyName: r.PostFormValue("company_name"),
			Country:     users.Country(r.PostFormValue("country")),
			Role:        users.Role(r.PostFormValue("role")),
		})
		if err != nil {
			// a partial sign-up lands here too; its message tells the user the account exists
			if errors.Is(err, auth.ErrPartialSignUp) {
				s.rotateBrowser(w, r, session)
			}
			data.Error = apperrors.UserMessage(err)
			renderPage(w, tmpl, statusFor(err), data)
			return
		}
		s.rotateBrowser(w, r, session)
		http.Redirect(w, r, navigation(session, access.HomePath), http.StatusSeeOther)
	}
}
