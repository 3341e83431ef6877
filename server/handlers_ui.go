package server

import (
	"net/http"

	"github.com/jrsteele09/go-hr-portal/auth"
	apperrors "github.com/jrsteele09/go-hr-portal/internal/errors"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog/log"
)

func (s *Server) settingsPageData(r *http.Request) PageData {
	data := s.pageData(r, "Settings")
	data.Countries = users.Countries()
	if data.Profile != nil {
		data.Form["full_name"] = data.Profile.FullName
		data.Form["email"] = data.Profile.Email
		data.Form["company_name"] = data.Profile.CompanyName
		data.Form["country"] = string(data.Profile.Country)
	}
	return data
}

// SettingsHandler renders the profile and password forms
func (s *Server) SettingsHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("settings.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.settingsPageData(r)
		if r.URL.Query().Get("saved") != "" {
			data.Notice = "Your changes have been saved."
		}
		renderPage(w, tmpl, http.StatusOK, data)
	}
}

// ProfilePostHandler applies the non-empty fields of the profile form
func (s *Server) ProfilePostHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("settings.html")
	validator := auth.NewValidator()

	return func(w http.ResponseWriter, r *http.Request) {
		session := browserFromContext(r.Context())

		fail := func(err error) {
			data := s.settingsPageData(r)
			data.Error = apperrors.UserMessage(err)
			renderPage(w, tmpl, statusFor(err), data)
		}

		if err := parseForm(r); err != nil {
			fail(err)
			return
		}
		params := auth.ProfileParameters{
			FullName:    r.PostFormValue("full_name"),
			Email:       r.PostFormValue("email"),
			CompanyName: r.PostFormValue("company_name"),
			Country:     users.Country(r.PostFormValue("country")),
		}
		if err := validator.ValidateProfile(&params); err != nil {
			fail(err)
			return
		}
		if err := session.Controller.UpdateProfile(r.Context(), params.Update()); err != nil {
			log.Error().Err(err).Msg("Profile update failed")
			fail(err)
			return
		}
		http.Redirect(w, r, RouteSettings+"?saved=profile", http.StatusSeeOther)
	}
}

// PasswordPostHandler changes the password after re-checking the current one
func (s *Server) PasswordPostHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("settings.html")

	return func(w http.ResponseWriter, r *http.Request) {
		session := browserFromContext(r.Context())

		fail := func(err error) {
			data := s.settingsPageData(r)
			data.Error = apperrors.UserMessage(err)
			renderPage(w, tmpl, statusFor(err), data)
		}

		if err := parseForm(r); err != nil {
			fail(err)
			return
		}
		newPassword := r.PostFormValue("new_password")
		if newPassword != r.PostFormValue("confirm_password") {
			fail(apperrors.ErrPasswordMismatch)
			return
		}
		if err := session.Controller.UpdatePassword(r.Context(), r.PostFormValue("current_password"), newPassword); err != nil {
			fail(err)
			return
		}
		http.Redirect(w, r, RouteSettings+"?saved=password", http.StatusSeeOther)
	}
}
