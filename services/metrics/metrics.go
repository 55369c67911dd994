// Package metrics defines the Prometheus metrics exported by the API server.
//
// Metrics live on their own registry, served by Handler on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maintenance"

var (
	Registry = prometheus.NewRegistry()

	// LoginsTotal counts login attempts by outcome (success, invalid_credentials, user_not_found, ...).
	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// GuardDecisionsTotal counts section guard decisions.
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Total section guard decisions by section and state.",
		},
		[]string{"section", "state"},
	)

	// EmailsTotal counts notification emails by backend and status.
	EmailsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Total emails handed to the email backend by status.",
		},
		[]string{"backend", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		LoginsTotal,
		GuardDecisionsTotal,
		EmailsTotal,
		HTTPRequestDuration,
	)
}

func RecordLogin(outcome string) {
	LoginsTotal.WithLabelValues(outcome).Inc()
}

func RecordGuardDecision(section, state string) {
	GuardDecisionsTotal.WithLabelValues(section, state).Inc()
}

func RecordEmail(backend string, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	EmailsTotal.WithLabelValues(backend, status).Inc()
}

func ObserveRequest(method, route string, code int, elapsed time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}
