package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/public-data-proxy/internal/observability"
)

// Server exposes the /api aggregations next to health, readiness, and
// metrics endpoints.
type Server struct {
	httpServer *http.Server
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes backed by svc.
func NewServer(addr string, ready sharedobs.ReadinessChecker, svc Services, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr: addr,
			Handler: cors.Handler(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         300,
			})(mux),
			ReadTimeout: 10 * time.Second,
			// Grid and dashboard fetches fan out to dozens of upstream calls.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		metrics: metrics,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	h := &handlers{svc: svc, logger: logger}
	s.route(mux, "GET /api/tornado-trends", "tornado_trends", h.tornadoTrends)
	s.route(mux, "GET /api/storm-reports", "storm_reports", h.stormReports)
	s.route(mux, "GET /api/yield-curves", "yield_curves", h.yieldCurves)
	s.route(mux, "GET /api/bls", "bls", h.labor)
	s.route(mux, "POST /api/bls", "bls", h.labor)
	s.route(mux, "GET /api/insurer-buybacks", "insurer_buybacks", h.insurerBuybacks)
	s.route(mux, "GET /api/insurer-dashboard", "insurer_dashboard", h.insurerDashboard)
	s.route(mux, "GET /api/winter-storm", "winter_storm", h.winterStorm)
	s.route(mux, "POST /api/winter-storm-compare", "winter_compare", h.winterCompare)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// route registers fn under pattern, recording request counts and latency
// under the route label.
func (s *Server) route(mux *http.ServeMux, pattern, label string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		fn(rec, r)
		s.metrics.HTTPRequests.WithLabelValues(label, strconv.Itoa(rec.status)).Inc()
		s.metrics.HTTPDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
