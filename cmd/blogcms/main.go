// Package main is the entry point for the blog server. It loads
// configuration, connects to services, sets up routing, and starts the
// HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogcms/internal/blog"
	"blogcms/internal/cache"
	"blogcms/internal/config"
	"blogcms/internal/database"
	"blogcms/internal/handlers"
	"blogcms/internal/logger"
	"blogcms/internal/middleware"
	"blogcms/internal/render"
	"blogcms/internal/router"
	"blogcms/internal/service"
	"blogcms/internal/session"
	"blogcms/internal/store"
	"blogcms/internal/telemetry"
	"blogcms/web"
)

// Login attempts allowed per client IP within loginWindow.
const (
	loginAttempts = 5
	loginWindow   = time.Minute
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: JSON or text per LOG_FORMAT.
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	log.Info("configuration loaded",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	ctx := context.Background()

	// Install OpenTelemetry providers before any store is built.
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.Server.Env)
	if err != nil {
		log.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}
	if cfg.Telemetry.Enabled {
		log.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	// Connect to PostgreSQL.
	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(ctx, db); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Ensure the admin account exists (no-op if it already does).
	if err := database.Seed(ctx, db, cfg.Admin); err != nil {
		log.Error("failed to seed database", "error", err)
		os.Exit(1)
	}

	// Connect to Valkey (Redis-compatible cache + session store).
	valkeyClient, err := cache.ConnectValkey(ctx, cfg.Valkey)
	if err != nil {
		log.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Outside development, mark cookies as Secure (HTTPS-only).
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// In dev mode, templates load TailwindCSS from its CDN; in production
	// they link the stylesheet embedded in the binary.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		log.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}
	static, err := web.Static()
	if err != nil {
		log.Error("failed to open static assets", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	storeDB := store.New(db, logger.WithComponent(log, "store"), cfg.Database.SlowQuery)
	categoryStore := store.NewCategoryStore(storeDB)
	postStore := store.NewPostStore(storeDB)
	userStore := store.NewUserStore(storeDB)
	activityStore := store.NewActivityStore(storeDB)

	// Show responses are cached in Valkey and dropped on every write.
	responseCache := cache.NewResponseCache(valkeyClient, cfg.Valkey.CacheTTL)

	deps := service.Deps{
		Categories: categoryStore,
		Posts:      postStore,
		Tree:       blog.NewTree(cfg.Blog.RootCategoryID),
		Cache:      responseCache,
		Activity:   activityStore,
	}
	categories := service.NewCategories(deps)
	posts := service.NewPosts(deps)

	loginLimiter := middleware.NewRateLimiter(loginAttempts, loginWindow)
	defer loginLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(router.Config{
		Logger:       log,
		DB:           storeDB,
		Sessions:     sessionStore,
		SecureCookie: secureCookies,
		LoginLimiter: loginLimiter,
		Static:       static,
		API:          handlers.NewAPI(categories, posts, responseCache, cfg.Blog.APIPerPage),
		Admin:        handlers.NewAdmin(renderer, sessionStore, categories, posts, activityStore, cfg.Blog.AdminPerPage),
		Auth:         handlers.NewAuth(renderer, sessionStore, userStore),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Warn("telemetry flush failed", "error", err)
	}

	log.Info("server stopped gracefully")
}
