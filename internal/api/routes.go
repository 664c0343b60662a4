package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ignite/leadgen-crm/internal/pkg/httputil"
)

// RouterOptions configures NewRouter. The zero value is usable.
type RouterOptions struct {
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// NewRouter configures all API routes.
func NewRouter(h *Handlers, health *HealthChecker, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httputil.WriteError(w, req, httputil.NotFound("not found"))
	})

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/live", health.HandleLiveness)
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api/analytics", func(r chi.Router) {
		if opts.RequestTimeout > 0 {
			r.Use(middleware.Timeout(opts.RequestTimeout))
		}
		r.Get("/locations", h.GetLocations)
		r.Get("/sources", h.GetSources)
		r.Get("/pipeline", h.GetPipeline)
		r.Get("/growth", h.GetGrowth)
		r.Get("/overview", h.GetOverview)
		r.Get("/source-breakdown", h.GetSourceBreakdown)
		r.Get("/timeline", h.GetTimeline)
		r.Get("/funnel", h.GetFunnel)
		r.Get("/heatmap", h.GetHeatmap)
		r.Get("/comparison", h.GetComparison)
		r.Get("/top-performers", h.GetTopPerformers)
		r.Get("/costs", h.GetCosts)
	})

	return r
}
