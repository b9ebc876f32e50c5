package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edutrack/edutrack/api/internal/handlers"
	apimw "github.com/edutrack/edutrack/api/internal/middleware"
	"github.com/edutrack/edutrack/api/internal/metrics"
	"github.com/edutrack/edutrack/common/httputil"
	"github.com/edutrack/edutrack/common/logging"
	"github.com/edutrack/edutrack/common/middleware"
)

const apiPrefix = "/api/v1"

// RouterConfig holds dependencies needed to configure routes
type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	UserHandler     *handlers.UserHandler
	SyllabusHandler *handlers.SyllabusHandler
	AuthMiddleware  *apimw.AuthMiddleware
	Logger          *logging.Logger
	AllowedOrigins  []string
	ClientIP        *httputil.ClientIPResolver
	HSTS            bool
	// HealthCheck reports whether backing stores are reachable. Nil means healthy.
	HealthCheck func(ctx context.Context) error
}

// NewRouter constructs a ServeMux with the API routes registered and wraps it
// in the shared middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	protect := func(h http.HandlerFunc) http.Handler {
		return cfg.AuthMiddleware.RequireAuth(h)
	}

	// Auth endpoints
	mux.HandleFunc("POST "+apiPrefix+"/auth/register", cfg.AuthHandler.Register)
	mux.HandleFunc("POST "+apiPrefix+"/auth/login", cfg.AuthHandler.Login)
	mux.HandleFunc("POST "+apiPrefix+"/auth/logout", cfg.AuthHandler.Logout)
	mux.HandleFunc("GET "+apiPrefix+"/auth/verify", cfg.AuthHandler.Verify)
	mux.HandleFunc("POST "+apiPrefix+"/auth/refresh", cfg.AuthHandler.Refresh)

	// User endpoints (protected)
	mux.Handle("GET "+apiPrefix+"/users/{id}", protect(cfg.UserHandler.Get))
	mux.Handle("PATCH "+apiPrefix+"/users/{id}", protect(cfg.UserHandler.Update))
	mux.Handle("DELETE "+apiPrefix+"/users/{id}", protect(cfg.UserHandler.Delete))

	// Syllabus endpoints (protected)
	mux.Handle("POST "+apiPrefix+"/syllabus", protect(cfg.SyllabusHandler.Create))
	mux.Handle("GET "+apiPrefix+"/syllabus/all", protect(cfg.SyllabusHandler.List))
	mux.Handle("GET "+apiPrefix+"/syllabus/{id}", protect(cfg.SyllabusHandler.Get))
	mux.Handle("PATCH "+apiPrefix+"/syllabus/{id}", protect(cfg.SyllabusHandler.Update))
	mux.Handle("DELETE "+apiPrefix+"/syllabus/{id}", protect(cfg.SyllabusHandler.Delete))

	// Health check
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				cfg.Logger.WarnContext(r.Context(), "health check failed", logging.Error(err))
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "edutrack-api"})
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = instrument(mux)
	handler = apimw.ClientInfo(cfg.ClientIP)(handler)
	handler = middleware.SecurityHeaders(middleware.SecurityConfig{HSTS: cfg.HSTS})(handler)
	handler = middleware.CORS(middleware.DefaultCORSConfig(cfg.AllowedOrigins))(handler)
	handler = logging.Middleware(cfg.Logger)(handler)
	return middleware.RequestID(handler)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// instrument records request durations by route pattern. It must wrap the
// mux directly so the pattern the mux sets on r is visible afterwards.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}
