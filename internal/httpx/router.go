package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/asad/localsession/internal/core"
	"github.com/asad/localsession/internal/logging"
)

// NewEdgeRouter builds the single HTTP entry point. It installs the
// middleware stack and a /health endpoint, then mounts every service in
// registry under its own prefix.
func NewEdgeRouter(registry *core.Registry, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"localsession"}`))
	})

	for _, service := range registry.Services() {
		logger.Info("registering service routes",
			logging.String("service", service.Name()),
		)
		r.Route("/"+service.Name(), service.RegisterRoutes)
	}

	return r
}

// requestLoggingMiddleware logs method, path, status and latency of each request.
func requestLoggingMiddleware(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request completed",
				logging.String("method", r.Method),
				logging.String("path", r.URL.Path),
				logging.Int("status", ww.Status()),
				logging.Duration("latency_ms", time.Since(start)),
				logging.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
