// Package metrics provides Prometheus metrics for the bloglist API.
// All metrics use the "bloglist" namespace and are registered with the default
// Prometheus registry via promauto, so they are served on /metrics.
//
// HTTP metrics follow the RED pattern:
//   - Rate:     http_requests_total
//   - Errors:   the "status" label of http_requests_total
//   - Duration: http_request_duration_seconds
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "bloglist"

var (
	// HTTPRequestsTotal counts requests by method, route pattern and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration tracks handler latency by method and route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// PostsCreatedTotal counts successfully created posts.
	PostsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_created_total",
		Help:      "Total number of blog posts created.",
	})

	// PostsDeletedTotal counts successfully deleted posts.
	PostsDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "posts_deleted_total",
		Help:      "Total number of blog posts deleted by their owner.",
	})

	// LoginsTotal counts login attempts by outcome.
	// outcome: success | invalid | throttled
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Total login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// TokenRejectionsTotal counts credentials rejected by user resolution.
	// reason: malformed | signature | expired | unknown_user
	TokenRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rejections_total",
			Help:      "Bearer credentials rejected, by reason.",
		},
		[]string{"reason"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Middleware records HTTPRequestsTotal and HTTPRequestDuration. The route
// label is the chi pattern, so ids do not blow up cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
