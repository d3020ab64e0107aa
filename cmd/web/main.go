package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"retail-insights/internal/config"
	"retail-insights/internal/dataset"
	"retail-insights/internal/middleware"
	"retail-insights/internal/observability"
	"retail-insights/internal/server"
	"retail-insights/internal/services"
	"retail-insights/internal/ui/templates"
)

const (
	renderTimeout      = 10 * time.Second
	datasetLoadTimeout = 2 * time.Minute
	cacheMaxAge        = "public, max-age=300"
)

func dashboardHandler(analytics *services.Analytics, clusters int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		view := templates.DashboardView{Clusters: clusters}
		if sel, err := analytics.Selection(); err == nil {
			view.Countries = sel.Countries
			view.From = sel.From.Format("2006-01-02")
			view.To = sel.To.Format("2006-01-02")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", cacheMaxAge)
		if err := templates.Dashboard(view).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	tel, err := observability.NewTelemetry(cfg.Telemetry, logger)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	analytics := services.NewAnalytics(services.OptionsFromConfig(cfg.Analysis), logger, tel)
	ctx, cancel := context.WithTimeout(context.Background(), datasetLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.Load(ctx, dataset.SourceFromConfig(cfg.Dataset)); err != nil {
		logger.Error("failed to load dataset", "path", cfg.Dataset.Path, "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded successfully", "duration", time.Since(start))

	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(analytics, cfg.Analysis.Clusters),
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	srv := server.NewServer(analytics, tel, logger, templateHandlers,
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Tracing(tel),
		middleware.Logger(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      srv,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("flushing telemetry")
		return tel.Shutdown(ctx)
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
