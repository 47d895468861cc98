// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfg_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gfg_http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Audit trail
	AuditEntriesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfg_audit_entries_recorded_total",
			Help: "Audit entries persisted, by entity type and action",
		},
		[]string{"entity_type", "action"},
	)
	AuditEntriesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfg_audit_entries_failed_total",
			Help: "Audit entries that could not be built or persisted",
		},
		[]string{"entity_type"},
	)
	AuditEntriesSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfg_audit_entries_skipped_total",
			Help: "Mutations left unaudited, by reason",
		},
		[]string{"reason"}, // no_actor|excluded|failed_mutation
	)

	// Sessions
	SessionValidations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfg_session_validations_total",
			Help: "Session validations by outcome",
		},
		[]string{"outcome"}, // valid|extended|expired|missing|error
	)
	LoginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gfg_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"}, // success|failure|throttled
	)

	initOnce sync.Once
)

// Handler serves the default registry.
var Handler = promhttp.Handler

// Init registers every collector with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(AuditEntriesRecorded)
		prometheus.MustRegister(AuditEntriesFailed)
		prometheus.MustRegister(AuditEntriesSkipped)
		prometheus.MustRegister(SessionValidations)
		prometheus.MustRegister(LoginAttempts)
	})
}
