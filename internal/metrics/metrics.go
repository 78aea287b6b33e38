// ABOUTME: Prometheus collectors for the offscreen service
// ABOUTME: Exposes ingestion, award, and HTTP request metrics

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Ingestion metrics
	SessionsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offscreen_sessions_ingested_total",
			Help: "Total usage sessions accepted",
		},
	)

	SessionsDeduplicated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offscreen_sessions_deduplicated_total",
			Help: "Duplicate session submissions absorbed by the dedupe guard",
		},
	)

	// Gamification metrics
	AwardsGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offscreen_awards_granted_total",
			Help: "Challenge point credits performed",
		},
	)

	AwardsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offscreen_awards_skipped_total",
			Help: "Award attempts that were no-ops (not completed or already awarded)",
		},
	)

	NotificationsDerived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "offscreen_notifications_derived_total",
			Help: "Behavioral notifications derived, by rule",
		},
		[]string{"rule"},
	)

	// HTTP metrics
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "offscreen_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsIngested,
		SessionsDeduplicated,
		AwardsGranted,
		AwardsSkipped,
		NotificationsDerived,
		RequestDuration,
	)
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
