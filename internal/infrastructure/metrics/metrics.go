// Package metrics defines and registers all custom Prometheus metrics of the
// editais client. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto, and exposed by Server when a metrics address is configured.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "editais"

// ── Backend request metrics ──────────────────────────────────────────────────

// RequestsTotal counts backend requests.
// Labels:
//   - method: HTTP method
//   - route: templated path (e.g. "/api/editais/:key")
//   - outcome: "2xx", "4xx", "5xx" or "transport"
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests issued to the portal backend.",
	},
	[]string{"method", "route", "outcome"},
)

// RequestDuration measures backend round trips.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of requests issued to the portal backend.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

// ── Session metrics ──────────────────────────────────────────────────────────

// SessionResolutionsTotal counts session resolution outcomes.
// Label:
//   - result: "session", "identity_provider", "unauthenticated", "unresolved", "discarded"
var SessionResolutionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_resolutions_total",
		Help:      "Total number of session resolutions, labelled by result.",
	},
	[]string{"result"},
)

// ── Notice metrics ───────────────────────────────────────────────────────────

// NoticesLoaded is the size of the last successfully loaded notice list.
var NoticesLoaded = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "notices_loaded",
		Help:      "Number of notices in the last successful list load.",
	},
)

// ExportBytesTotal counts bytes downloaded by bulk exports.
// Label:
//   - format: "csv" or "xlsx"
var ExportBytesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "export_bytes_total",
		Help:      "Total bytes downloaded by bulk exports.",
	},
	[]string{"format"},
)

// ObserveRequest records one backend round trip. status is 0 for transport failures.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	route := Route(path)
	RequestsTotal.WithLabelValues(method, route, outcome(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Route templates notice keys out of a request path so label cardinality stays bounded.
//
//	/api/editais/123_2024_1        → /api/editais/:key
//	/api/editais/123_2024_1/itens  → /api/editais/:key/itens
func Route(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	const prefix = "/api/editais/"
	if !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return path
	}
	if strings.HasSuffix(rest, "/itens") {
		return prefix + ":key/itens"
	}
	return prefix + ":key"
}

func outcome(status int) string {
	switch {
	case status == 0:
		return "transport"
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
