package server

import (
	"net/http"

	"github.com/jrsteele09/go-hr-portal/access"
)

// IndexHandler renders the home page. Signed in users get a link to their dashboard.
func (s *Server) IndexHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("index.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "Welcome")
		if data.Role != nil {
			data.Redirect = access.DashboardRoot(*data.Role)
		}
		renderPage(w, tmpl, http.StatusOK, data)
	}
}
