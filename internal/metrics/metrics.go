// Package metrics provides Prometheus metrics for the portal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hrportal"

var (
	// AuthOperationsTotal counts sign-in, sign-up, sign-out and account updates by outcome.
	AuthOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_operations_total",
			Help:      "Total number of session controller operations",
		},
		[]string{"operation", "outcome"},
	)

	// ResolutionsTotal counts identity resolutions by result.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_resolutions_total",
			Help:      "Total number of identity resolutions",
		},
		[]string{"result"},
	)

	// ResolutionDuration measures role and profile resolution time.
	ResolutionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "identity_resolution_duration_seconds",
			Help:      "Duration of role and profile resolution in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// FetchErrorsTotal counts role and profile lookups that failed for reasons other than not found.
	FetchErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identity_fetch_errors_total",
			Help:      "Total number of failed role or profile lookups",
		},
		[]string{"field"},
	)

	// RouteDecisionsTotal counts page guard decisions.
	RouteDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "route_decisions_total",
			Help:      "Total number of route authorization decisions",
		},
		[]string{"page", "action"},
	)

	// ActiveBrowsers tracks the browser sessions held by the server.
	ActiveBrowsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_browser_sessions",
			Help:      "Number of browser sessions currently held in memory",
		},
	)
)

// RecordAuthOperation records the outcome of a controller operation.
func RecordAuthOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	AuthOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordResolution records a finished resolution.
func RecordResolution(result string, seconds float64) {
	ResolutionsTotal.WithLabelValues(result).Inc()
	ResolutionDuration.Observe(seconds)
}

// RecordFetchError records a failed lookup of field.
func RecordFetchError(field string) {
	FetchErrorsTotal.WithLabelValues(field).Inc()
}

// RecordRouteDecision records a guard decision for page.
func RecordRouteDecision(page, action string) {
	RouteDecisionsTotal.WithLabelValues(page, action).Inc()
}
