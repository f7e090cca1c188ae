// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/foliocms/foliocms/internal/cache"
	"github.com/foliocms/foliocms/internal/config"
	"github.com/foliocms/foliocms/internal/convert"
	"github.com/foliocms/foliocms/internal/handler"
	"github.com/foliocms/foliocms/internal/handler/api"
	"github.com/foliocms/foliocms/internal/imaging"
	"github.com/foliocms/foliocms/internal/logging"
	"github.com/foliocms/foliocms/internal/middleware"
	"github.com/foliocms/foliocms/internal/render"
	"github.com/foliocms/foliocms/internal/scheduler"
	"github.com/foliocms/foliocms/internal/service"
	"github.com/foliocms/foliocms/internal/session"
	"github.com/foliocms/foliocms/internal/store"
	"github.com/foliocms/foliocms/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "FolioCMS - article and photobook publishing\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_DB_DRIVER        Database driver: sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_DB_DSN           Database DSN (default: ./data/folio.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  FOLIO_CONVERTER_URL    Document converter service URL (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("foliocms %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(textHandler))

	db, err := store.NewDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// Mirror WARN+ logs into the events table once the schema exists
	logger := slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, cfg.DBDriver, cfg.IsDevelopment())

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisURL = cfg.RedisURL
	cacheCfg.Prefix = cfg.CachePrefix
	cacheCfg.DefaultTTL = time.Duration(cfg.CacheTTL) * time.Second
	cacheCfg.MaxItems = cfg.CacheMaxSize
	caches := cache.NewManager(cache.NewBackend(cacheCfg), cacheCfg.DefaultTTL)
	defer func() { _ = caches.Close() }()

	queries := store.New(db)
	versions := service.NewVersionService(db)
	contents := service.NewContentService(db, versions, caches)
	menus := service.NewMenuService(db, caches)
	settings := service.NewSettingsService(queries, caches)
	events := service.NewEventService(db)

	converter := convert.New(cfg.ConverterURL, time.Duration(cfg.ConverterTimeout)*time.Second)
	images := imaging.NewProcessor(cfg.UploadsDir)

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("locating templates: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS: templatesFS,
		IsDev:       cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	jobs := scheduler.New(contents, versions, events, logger,
		time.Duration(cfg.AutosaveRetentionDays)*24*time.Hour)
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer jobs.Stop()

	frontend := handler.NewFrontend(renderer, contents, menus, settings, caches)
	loginGuard := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	apiHandler := api.NewHandler(api.Deps{
		DB:         db,
		Contents:   contents,
		Versions:   versions,
		Menus:      menus,
		Settings:   settings,
		Events:     events,
		Caches:     caches,
		Converter:  converter,
		Images:     images,
		Sessions:   sessionManager,
		LoginGuard: loginGuard,
	})

	router, err := buildRouter(cfg, db, sessionManager, frontend, apiHandler, loginGuard)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// buildRouter assembles the middleware stack and routes.
func buildRouter(cfg *config.Config, db *sql.DB, sessionManager *scs.SessionManager, frontend *handler.Frontend, apiHandler *api.Handler, loginGuard *middleware.LoginProtection) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestPath)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Timeout(30 * time.Second))

	// Static assets from the embedded bundle, uploads from disk
	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		return nil, fmt.Errorf("locating static assets: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))

	// Public site
	r.Get("/", frontend.Home)
	r.Get("/articles", frontend.Articles)
	r.Get("/photobooks", frontend.Photobooks)
	r.Get("/article/{slug}", frontend.Article)
	r.Get("/photobook/{slug}", frontend.Photobook)
	r.NotFound(frontend.NotFound)

	// Admin API
	apiRate := middleware.NewRateLimiter(10, 30)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment())))
		r.Use(apiRate.Middleware())

		r.With(loginGuard.Middleware()).Post("/auth/login", apiHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessionManager))
			r.Use(middleware.LoadUser(sessionManager, db))

			r.Post("/auth/logout", apiHandler.Logout)
			r.Get("/auth/me", apiHandler.Me)
			apiHandler.Routes(r)
		})
	})

	return r, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
