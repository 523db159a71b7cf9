package metrics

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks web UI request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts web UI requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// APICallDuration tracks outbound blog API calls. status is "0" when no response arrived.
	APICallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "blog_api_call_duration_seconds",
			Help:    "Blog API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// APICallTotal counts outbound blog API calls.
	APICallTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blog_api_calls_total",
			Help: "Total number of blog API calls",
		},
		[]string{"method", "path", "status"},
	)

	// SessionLogins counts successful and failed logins from the web UI.
	SessionLogins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_logins_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)
)

var (
	numericPathSegment = regexp.MustCompile(`/[0-9]+(/|$)`)
	initOnce           sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestDuration, RequestTotal, APICallDuration, APICallTotal, SessionLogins)
	})
}

// NormalizePath reduces cardinality by replacing numeric path segments with {id}.
// E.g. /posts/12/edit -> /posts/{id}/edit, /Post/GetPostById/3 -> /Post/GetPostById/{id}.
func NormalizePath(path string) string {
	return numericPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an inbound HTTP request.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// RecordAPICall has the apiclient.Observer signature.
func RecordAPICall(method, path string, statusCode int, d time.Duration) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	APICallDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	APICallTotal.WithLabelValues(method, path, status).Inc()
}

// IncLogin records a login outcome ("success", "failure").
func IncLogin(outcome string) {
	SessionLogins.WithLabelValues(outcome).Inc()
}
