// Package main is the entrypoint for the MiniCRM web application.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/minicrm/minicrm/internal/auth"
	"github.com/minicrm/minicrm/internal/config"
	"github.com/minicrm/minicrm/internal/enrich"
	"github.com/minicrm/minicrm/internal/handler"
	"github.com/minicrm/minicrm/internal/middleware"
	"github.com/minicrm/minicrm/internal/repository"
	"github.com/minicrm/minicrm/internal/server"
	"github.com/minicrm/minicrm/internal/service"
	"github.com/minicrm/minicrm/internal/web"
)

func main() {
	ctx := context.Background()

	// A .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Open the store file; schema init is idempotent.
	repo, err := repository.New(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error("failed to open database",
			slog.String("error", err.Error()),
			slog.String("path", cfg.DatabasePath),
		)
		os.Exit(1)
	}
	defer repo.Close()
	logger.Info("database ready", "path", cfg.DatabasePath)

	// Initialize services
	sessions := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	userService := service.NewUserService(repo, logger)
	dossierService := service.NewDossierService(repo, logger)
	lookupClient := enrich.NewClient(cfg.LookupBaseURL, cfg.LookupAPIKey, cfg.LookupTimeout)

	// Bootstrap the first administrator before serving any request.
	if err := userService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to bootstrap administrator", "error", err)
		os.Exit(1)
	}

	renderer, err := web.NewRenderer(logger)
	if err != nil {
		logger.Error("failed to parse templates", "error", err)
		os.Exit(1)
	}

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(repo)
	authHandler := handler.NewAuthHandler(userService, sessions, renderer, logger)
	userHandler := handler.NewUserHandler(userService, renderer, logger)
	dossierHandler := handler.NewDossierHandler(dossierService, renderer, logger)
	lookupHandler := handler.NewLookupHandler(lookupClient, logger)

	r := setupRouter(
		healthHandler, authHandler, userHandler, dossierHandler, lookupHandler,
		sessions, repo, logger,
	)

	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	healthHandler *handler.HealthHandler,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	dossierHandler *handler.DossierHandler,
	lookupHandler *handler.LookupHandler,
	sessions *auth.Sessions,
	repo *repository.Repository,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware. Logger wraps Recoverer so a panicking request
	// still produces a request log line with its 500 status.
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Session(middleware.SessionConfig{
		Logger:     logger,
		Sessions:   sessions,
		Repository: repo,
	}))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	// Anonymous surface
	r.Get("/", authHandler.Home)
	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	// Authenticated surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth())

		r.Get("/dashboard", authHandler.Dashboard)
		r.Get("/dossiers", dossierHandler.ListMine)
		r.Get("/dossiers/new", dossierHandler.CreateForm)
		r.Post("/dossiers/new", dossierHandler.Create)
		r.Get("/api/lookup_siret", lookupHandler.LookupSiret)
	})

	// Administrator surface
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin())

		r.Get("/admin/users", userHandler.List)
		r.Post("/admin/users", userHandler.Create)
		r.Get("/admin/dossiers", dossierHandler.ListAll)
	})

	return r
}
