package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(httpRequestsTotal, httpRequestDuration, backendCallsTotal) }

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Local API requests by method, route pattern and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Local API latency by route pattern.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route"},
	)

	// Calls made to the external backend by endpoint and status class.
	backendCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backend_calls_total",
			Help: "Outbound backend calls by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)
)

func ObserveHTTP(method, route string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// IncBackendCall records an outbound call; status is "2xx", "4xx", "5xx" or "error".
func IncBackendCall(endpoint, status string) {
	backendCallsTotal.WithLabelValues(endpoint, status).Inc()
}
