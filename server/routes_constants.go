package server

import "github.com/jrsteele09/go-hr-portal/access"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = access.HomePath

	// Auth Routes
	RouteLogin      = access.LoginPath
	RouteSignup     = "/signup"
	RouteAuthLogout = "/auth/logout"

	// Account Routes
	RouteSettings         = "/settings"
	RouteSettingsProfile  = "/settings/profile"
	RouteSettingsPassword = "/settings/password"

	// Dashboard Routes
	RouteAdminDashboard    = access.AdminDashboardPath
	RouteEmployeeDashboard = access.EmployeeDashboardPath

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
