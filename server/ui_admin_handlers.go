package server

import (
	"net/http"
)

// AdminDashboardHandler renders the admin surface
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("admin_dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "Admin dashboard")
		renderPage(w, tmpl, http.StatusOK, data)
	}
}

// EmployeeDashboardHandler renders the employee surface
func (s *Server) EmployeeDashboardHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("employee_dashboard.html")

	return func(w http.ResponseWriter, r *http.Request) {
		data := s.pageData(r, "My dashboard")
		renderPage(w, tmpl, http.StatusOK, data)
	}
}
