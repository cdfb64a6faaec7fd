package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/hylla/tix/internal/adapters/server/common"
	"github.com/hylla/tix/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serverMetrics owns a private registry so handlers built in tests never collide.
type serverMetrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

func newServerMetrics(tickets common.TicketService) *serverMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	for _, status := range domain.Statuses() {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   "tix",
			Name:        "tickets",
			Help:        "Tickets currently stored, labeled by status",
			ConstLabels: prometheus.Labels{"status": string(status)},
		}, func() float64 {
			counts, err := tickets.StatusCounts(context.Background())
			if err != nil {
				return 0
			}
			return float64(counts[status])
		})
	}
	return &serverMetrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tix",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, labeled by route, method and status code",
		}, []string{"route", "method", "code"}),
	}
}

// handler serves the private registry.
func (m *serverMetrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// instrument counts every request passing through next.
func (m *serverMetrics) instrument(cfg Config, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		m.requests.WithLabelValues(routeLabel(cfg, r.URL.Path), r.Method, strconv.Itoa(rec.code)).Inc()
	})
}

// routeLabel buckets paths into a fixed set to bound label cardinality.
func routeLabel(cfg Config, path string) string {
	switch {
	case path == "/healthz":
		return "healthz"
	case path == "/readyz":
		return "readyz"
	case path == "/metrics":
		return "metrics"
	case path == cfg.MCPEndpoint || strings.HasPrefix(path, cfg.MCPEndpoint+"/"):
		return "mcp"
	case path == cfg.APIEndpoint || strings.HasPrefix(path, cfg.APIEndpoint+"/"):
		return "api"
	default:
		return "other"
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code        int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.code = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps streamed MCP responses working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
