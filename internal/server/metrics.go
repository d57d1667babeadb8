package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The HTTP instruments live at package level so constructing several servers
// (tests do) never double-registers a collector.
var (
	activeRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mandelgrid_http_active_requests",
			Help: "The number of HTTP requests currently being served",
		},
	)

	totalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mandelgrid_http_requests_total",
			Help: "The total number of HTTP requests by path",
		},
		[]string{"path"},
	)
)

// Metrics exposes the Prometheus scrape endpoint and the request counters
// updated by the metrics middleware.
type Metrics struct {
	handler http.Handler
}

// NewMetrics returns the server's metrics facade backed by the default
// Prometheus registry, which also carries the convergence loop instruments.
func NewMetrics() *Metrics {
	return &Metrics{handler: promhttp.Handler()}
}

// handleMetrics serves GET /metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "only GET is supported")
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}

// metricsMiddleware tracks in-flight and total request counts per path.
func (s *Server) metricsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeRequests.Inc()
		defer activeRequests.Dec()
		totalRequests.WithLabelValues(r.URL.Path).Inc()
		next(w, r)
	}
}
