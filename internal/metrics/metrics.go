// Package metrics holds the Prometheus collectors for the API service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hirely",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hirely",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "hirely",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hirely",
			Subsystem: "jobs",
			Name:      "lifecycle_operations_total",
			Help:      "Job lifecycle operations by outcome.",
		},
		[]string{"operation", "result"},
	)

	statusDrift = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "hirely",
			Subsystem: "jobs",
			Name:      "status_drift",
			Help:      "Jobs whose stored status disagrees with their active assignments, as of the last audit.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		lifecycleOps,
		statusDrift,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted increments the in-flight gauge and returns the func that
// records completion.
func RequestStarted() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordLifecycle counts one lifecycle operation. result is "ok" or an
// error kind name.
func RecordLifecycle(operation, result string) {
	lifecycleOps.WithLabelValues(operation, result).Inc()
}

// SetStatusDrift publishes the drift count from the last audit.
func SetStatusDrift(n int) {
	statusDrift.Set(float64(n))
}
