// Package metrics exposes prometheus instrumentation for the scanner.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScansStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_scans_started_total",
			Help: "Total number of scans picked up by workers",
		},
	)

	ScansCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_scans_completed_total",
			Help: "Total number of scans that finished with a result",
		},
	)

	ScansFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "presence_scans_failed_total",
			Help: "Total number of scans that failed before producing a result",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "presence_scan_duration_seconds",
			Help:    "End-to-end scan duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	PlatformLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_platform_lookups_total",
			Help: "Platform checks by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	WebhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "presence_webhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// Handler returns the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
