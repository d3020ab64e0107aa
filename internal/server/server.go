package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retail-insights/internal/errors"
	"retail-insights/internal/handlers"
	"retail-insights/internal/observability"
	"retail-insights/internal/services"
)

type Server struct {
	analytics   *services.Analytics
	router      chi.Router
	logger      *slog.Logger
	telemetry   *observability.Telemetry
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

// NewServer builds the router. Middlewares wrap every route, including the
// not-found handler, in the order given.
func NewServer(analytics *services.Analytics, tel *observability.Telemetry, logger *slog.Logger, templateHandlers *TemplateHandlers, middlewares ...func(http.Handler) http.Handler) *Server {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	s := &Server{
		analytics:   analytics,
		router:      chi.NewRouter(),
		logger:      logger,
		telemetry:   tel,
		apiHandlers: handlers.NewAPIHandlers(analytics, logger),
		sseHandlers: handlers.NewSSEHandlers(analytics, logger),
	}
	s.router.Use(middlewares...)
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	r := s.router

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, req, s.logger, errors.NotFound("no route for "+req.URL.Path))
	})

	// Dashboard routes
	r.Get("/", templateHandlers.Dashboard)
	r.Get("/health", s.apiHandlers.HandleHealth)
	r.Get("/ready", s.apiHandlers.HandleReady)
	r.Get("/admin/stats", s.apiHandlers.HandleStats)
	r.Method(http.MethodGet, "/metrics", s.telemetry.MetricsHandler())

	// REST API endpoints
	r.Route("/api", func(r chi.Router) {
		r.Get("/kpis", s.apiHandlers.HandleKPIs)
		r.Get("/country-revenue", s.apiHandlers.HandleCountryRevenue)
		r.Get("/monthly-revenue", s.apiHandlers.HandleMonthlyRevenue)
		r.Get("/weekday-revenue", s.apiHandlers.HandleWeekdayRevenue)
		r.Get("/abc", s.apiHandlers.HandleABC)
		r.Get("/clusters", s.apiHandlers.HandleClusters)
		r.Get("/report", s.apiHandlers.HandleReport)
		r.Get("/options", s.apiHandlers.HandleOptions)
	})

	// Datastar SSE endpoints
	r.Route("/sse", func(r chi.Router) {
		r.Get("/kpis", s.sseHandlers.HandleKPIs)
		r.Get("/country-revenue", s.sseHandlers.HandleCountryRevenue)
		r.Get("/monthly-revenue", s.sseHandlers.HandleMonthlyRevenue)
		r.Get("/weekday-revenue", s.sseHandlers.HandleWeekdayRevenue)
		r.Get("/abc", s.sseHandlers.HandleABC)
		r.Get("/clusters", s.sseHandlers.HandleClusters)
		r.Get("/refresh-all", s.sseHandlers.HandleRefreshAll)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
