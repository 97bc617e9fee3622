package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/camilomoreno07/gorkis-api/internal/service"
	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
	"github.com/camilomoreno07/gorkis-api/pkg/health"
	"github.com/camilomoreno07/gorkis-api/pkg/httputil"
	"github.com/camilomoreno07/gorkis-api/pkg/middleware"
)

// RouterConfig holds the dependencies of the HTTP surface. Metrics is
// optional. CacheMaxAge above zero marks successful reads as cacheable.
type RouterConfig struct {
	ServiceName string
	Catalog     *service.CatalogService
	Health      *health.Handler
	Metrics     *middleware.HTTPMetrics
	Logger      *slog.Logger
	CacheMaxAge int
}

// NewRouter creates a chi router with the services routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: "route not found", Code: apperrors.CodeNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{Error: "method not allowed", Code: "METHOD_NOT_ALLOWED"})
	})

	// Health check endpoints
	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}

	h := NewServiceHandler(cfg.Catalog, cfg.Logger)

	var reads chi.Middlewares
	if cfg.CacheMaxAge > 0 {
		reads = append(reads, middleware.CacheControl(cfg.CacheMaxAge))
	}

	r.Route("/services", func(r chi.Router) {
		r.With(reads...).Get("/", h.ListServices)
		r.Post("/", h.CreateService)
		r.Put("/rate/{serviceId}", h.RateService)
		r.With(reads...).Get("/{serviceId}", h.GetService)
		r.Put("/{serviceId}", h.UpdateService)
		r.Delete("/{serviceId}", h.DeleteService)
	})

	return r
}
