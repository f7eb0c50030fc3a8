package httpserver

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mintworks/nftregistry-go/internal/core/service"
	"github.com/mintworks/nftregistry-go/internal/server/httpserver/handler"
	"github.com/mintworks/nftregistry-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Registry handles all registry operations.
	Registry *service.RegistryService

	// Keyring resolves API credentials.
	Keyring *Keyring

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics instruments requests and serves /metrics. Optional.
	Metrics *metric.Metrics

	// MetricsAuthRequired indicates if /metrics requires a metrics
	// or admin key.
	MetricsAuthRequired bool

	// CORSAllowedOrigins is the list of allowed CORS origins
	// (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimitEnabled turns on the per-IP rate limiter.
	RateLimitEnabled bool
	RateLimitRPS     float64
	RateLimitBurst   int

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		MetricsAuthRequired: true,
		RateLimitEnabled:    true,
		RateLimitRPS:        50,
		RateLimitBurst:      100,
		EnableAudit:         true,
	}
}

// NewRouter creates and configures the HTTP router. Reads are public,
// mutations require an API key, and /admin/v1 requires the admin role.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Registry, cfg.Logger)

	common := []Middleware{
		RequestID(),
		Recover(cfg.Logger),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimitEnabled {
		common = append(common, RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}
	if cfg.EnableAudit {
		common = append(common, Audit(cfg.Logger))
	}

	readHandler := Chain(h, common...)
	authHandler := Chain(h, append(append([]Middleware{}, common...), Auth(cfg.Keyring))...)
	adminHandler := Chain(h, append(append([]Middleware{}, common...), AdminAuth(cfg.Keyring))...)
	healthHandler := Chain(h, RequestID(), Recover(cfg.Logger))

	mux := http.NewServeMux()

	register := func(pattern string, grouped http.Handler) {
		mux.Handle(pattern, instrument(cfg.Metrics, routeOf(pattern), grouped))
	}

	// Health endpoints, no auth, no rate limit
	register("GET /health", healthHandler)
	register("GET /ready", healthHandler)

	// Metrics endpoint, Prometheus exposition format
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(
			cfg.Metrics.Handler(),
			RequestID(),
			Recover(cfg.Logger),
			MetricsAuth(cfg.Keyring, cfg.MetricsAuthRequired),
		))
	}

	// Public registry queries
	register("GET /registry/info", readHandler)
	register("GET /registry/logo", readHandler)
	register("GET /registry/whitelist", readHandler)
	register("GET /registry/owners/{identity}/balance", readHandler)
	register("GET /registry/owners/{identity}/metadata", readHandler)
	register("GET /registry/tokens/{id}/owner", readHandler)
	register("GET /registry/tokens/{id}/metadata", readHandler)
	register("GET /registry/tokens/{id}/digest", readHandler)
	register("GET /registry/tokens/{id}/content", readHandler)
	register("GET /registry/custodians/{identity}", readHandler)

	// Caller-scoped operator query
	register("GET /registry/operators/{operator}", authHandler)

	// Token mutations
	register("POST /registry/tokens", authHandler)
	register("POST /registry/tokens/simple-mint", authHandler)
	register("POST /registry/tokens/{id}/transfer", authHandler)
	register("POST /registry/tokens/{id}/safe-transfer", authHandler)
	register("POST /registry/tokens/{id}/transfer-notify", authHandler)
	register("POST /registry/tokens/{id}/safe-transfer-notify", authHandler)
	register("POST /registry/tokens/{id}/approve", authHandler)
	register("POST /registry/tokens/{id}/burn", authHandler)
	register("POST /registry/operators", authHandler)

	// Admin endpoints
	register("POST /admin/v1/name", adminHandler)
	register("POST /admin/v1/symbol", adminHandler)
	register("POST /admin/v1/logo", adminHandler)
	register("POST /admin/v1/custodians", adminHandler)
	register("POST /admin/v1/snapshots", adminHandler)
	register("GET /admin/v1/snapshots", adminHandler)

	return mux
}

// routeOf strips the method from a mux pattern, leaving the path
// template used as the metrics route label.
func routeOf(pattern string) string {
	if i := strings.IndexByte(pattern, ' '); i >= 0 {
		return pattern[i+1:]
	}
	return pattern
}

// instrument records request duration and in-flight count for one
// route. Requests pass through untouched when metrics are disabled.
func instrument(m *metric.Metrics, route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.HTTPInFlight().Inc()
		defer m.HTTPInFlight().Dec()

		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		m.ObserveHTTP(r.Method, route, wrapped.statusCode, time.Since(start))
	})
}
