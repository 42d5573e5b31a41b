// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the Inkpress blog server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkpress/internal/cache"
	"inkpress/internal/config"
	"inkpress/internal/database"
	"inkpress/internal/handlers"
	"inkpress/internal/middleware"
	"inkpress/internal/render"
	"inkpress/internal/router"
	"inkpress/internal/session"
	"inkpress/internal/sitemap"
	"inkpress/internal/slug"
	"inkpress/internal/storage"
	"inkpress/internal/store"
	"inkpress/internal/workflow"
	"inkpress/web"
)

func main() {
	// Load configuration from environment variables (and .env in development).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"site_url", cfg.SiteURL,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (sessions, page cache, form locks).
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Outside development, session and CSRF cookies are HTTPS-only.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	// In dev mode templates are re-read from disk on every render.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	profileStore := store.NewProfileStore(db)
	postStore := store.NewPostStore(db)
	tagStore := store.NewTagStore(db)
	likeStore := store.NewLikeStore(db)

	// Cover uploads are optional. The handler interface must stay nil, not
	// hold a nil *storage.Client, when storage is off.
	var covers handlers.CoverUploader
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		covers = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, cover uploads disabled")
	}

	pageCache := cache.NewPageCache(valkeyClient, cache.DefaultPageTTL)

	// Workflows share the Valkey form lock so double submits are rejected
	// across replicas.
	wfOpts := workflow.Options{
		Guard: cache.NewFormLock(valkeyClient, cache.DefaultFormLockTTL),
		Observe: func(from, to workflow.State) {
			slog.Debug("workflow transition", "from", from, "to", to)
		},
	}
	authoring := workflow.NewPostAuthoring(postStore, tagStore, slug.New(), wfOpts)
	editing := workflow.NewPostEditing(postStore, tagStore, wfOpts)
	profileEditing := workflow.NewProfileEditing(profileStore, wfOpts)

	sm := sitemap.New(cfg.SiteURL, postStore, tagStore, profileStore)

	// Create handler groups with their dependencies.
	h := router.Handlers{
		Public:   handlers.NewPublic(renderer, postStore, tagStore, profileStore, likeStore, sm, pageCache),
		Write:    handlers.NewWrite(renderer, authoring, editing, tagStore, covers, pageCache),
		Settings: handlers.NewSettings(renderer, sessionStore, profileStore, userStore, profileEditing, pageCache),
		Auth:     handlers.NewAuth(renderer, sessionStore, userStore, profileStore),
	}

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		slog.Error("failed to open static assets", "error", err)
		os.Exit(1)
	}

	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer loginLimiter.Stop()
	writeLimiter := middleware.NewRateLimiter(60, time.Minute)
	defer writeLimiter.Stop()

	// Set up the Chi router with all middleware and routes.
	r := router.New(h, router.Options{
		Sessions:      sessionStore,
		SecureCookies: secureCookies,
		Static:        static,
		LoginLimiter:  loginLimiter,
		WriteLimiter:  writeLimiter,
	})

	// WriteTimeout leaves room for cover uploads that are re-encoded
	// before they reach storage.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
