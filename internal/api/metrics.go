package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unmatched = "unmatched"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quinttest_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quinttest_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds, excluding event streams.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeStreams = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quinttest_http_active_event_streams",
		Help: "Number of open match event streams.",
	})

	streamEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quinttest_http_stream_events_total",
			Help: "Total number of events written to match event streams, by event type.",
		},
		[]string{"event"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, activeStreams, streamEventsTotal)
}

// metricsMiddleware counts every request by chi route pattern. Event streams
// stay open for the whole match, so they are left out of the duration
// histogram.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		if !isStreamRoute(path) {
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		}
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unmatched
}

func isStreamRoute(pattern string) bool {
	return strings.HasSuffix(pattern, "/events")
}

// trackStream marks an event stream as open and returns the func that marks
// it closed.
func trackStream() func() {
	activeStreams.Inc()
	return activeStreams.Dec
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
