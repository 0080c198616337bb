package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/rcctl/internal/ctxlog"
	"github.com/specialistvlad/rcctl/internal/entitlements"
	"github.com/specialistvlad/rcctl/internal/expiry"
	"github.com/specialistvlad/rcctl/internal/render"
	"github.com/specialistvlad/rcctl/internal/revenuecat"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger   *slog.Logger
	client   *revenuecat.Client
	enricher *entitlements.Enricher
	resolver expiry.Resolver
	printer  *render.Printer
}

// NewApp is the constructor for the main application. Results go to outW,
// logs to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, logW).With("invocation_id", uuid.NewString())
	logger.Debug("Logger configured successfully.")

	opts := []revenuecat.Option{
		revenuecat.WithUserAgent("rcctl/" + Version),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, revenuecat.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, revenuecat.WithTimeout(cfg.Timeout))
	}
	client := revenuecat.New(cfg.APIKey, cfg.ProjectID, opts...)
	logger.Debug("Backend client created.", "project_id", cfg.ProjectID, "base_url", cfg.BaseURL, "timeout", cfg.Timeout)

	return &App{
		logger:   logger,
		client:   client,
		enricher: &entitlements.Enricher{Backend: client},
		resolver: expiry.Resolver{Now: time.Now, Location: cfg.Location},
		printer: &render.Printer{
			W:        outW,
			Color:    cfg.Color,
			Location: cfg.Location,
			Now:      time.Now,
		},
	}
}

// Close releases pooled connections held by the backend client.
func (a *App) Close() {
	a.client.Close()
	a.logger.Debug("Backend client closed.")
}

// Logger returns the invocation logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

func (a *App) context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
