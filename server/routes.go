package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-hr-portal/access"
	"github.com/jrsteele09/go-hr-portal/users"
	"github.com/rs/zerolog/log"
)

var (
	publicOnly   = access.Requirement{Kind: access.PublicOnly}
	anySignedIn  = access.Requirement{Kind: access.Protected}
	adminOnly    = access.Requirement{Kind: access.Protected, Roles: []users.Role{users.RoleAdmin}}
	employeeOnly = access.Requirement{Kind: access.Protected, Roles: []users.Role{users.RoleEmployee}}
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET /{$}", ChainMiddleware(s.IndexHandler(), s.HTMLMiddleWare(s.WithBrowser)...))

	// LOGIN
	s.RegisterRouteFunc("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.HTMLMiddleWare(s.RequireAccess("login", publicOnly))...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.HTMLMiddleWare(s.RequireAccess("login", publicOnly))...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.HTMLMiddleWare(s.WithBrowser)...))

	// SIGNUP
	s.RegisterRouteFunc("GET "+RouteSignup, ChainMiddleware(s.SignupGetHandler(), s.HTMLMiddleWare(s.RequireAccess("signup", publicOnly))...))
	s.RegisterRouteFunc("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), s.HTMLMiddleWare(s.RequireAccess("signup", publicOnly))...))

	// SETTINGS
	s.RegisterRouteFunc("GET "+RouteSettings, ChainMiddleware(s.SettingsHandler(), s.HTMLMiddleWare(s.RequireAccess("settings", anySignedIn))...))
	s.RegisterRouteFunc("POST "+RouteSettingsProfile, ChainMiddleware(s.ProfilePostHandler(), s.HTMLMiddleWare(s.RequireAccess("settings", anySignedIn))...))
	s.RegisterRouteFunc("POST "+RouteSettingsPassword, ChainMiddleware(s.PasswordPostHandler(), s.HTMLMiddleWare(s.RequireAccess("settings", anySignedIn))...))

	// DASHBOARDS
	s.RegisterRouteFunc("GET "+RouteAdminDashboard, ChainMiddleware(s.AdminDashboardHandler(), s.HTMLMiddleWare(s.RequireAccess("admin_dashboard", adminOnly))...))
	s.RegisterRouteFunc("GET "+RouteEmployeeDashboard, ChainMiddleware(s.EmployeeDashboardHandler(), s.HTMLMiddleWare(s.RequireAccess("employee_dashboard", employeeOnly))...))

	// Operational routes
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())

	s.RegisterRouteFunc("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.URL.Path, "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func logError(method, path, error string) {
	log.Warn().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+error+ResetColor)
}
