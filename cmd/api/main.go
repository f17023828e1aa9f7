package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/keystonemortgage/backend/docs"
	"github.com/keystonemortgage/backend/internal/app"
	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/handler"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/scheduler"
	"github.com/keystonemortgage/backend/internal/service"
)

// @title Keystone Mortgage API
// @version 1.0
// @description Regional mortgage rates, contact-form leads and the operator API for the Keystone Mortgage site.

// @contact.name Keystone Mortgage
// @contact.email web@keystonemortgage.ca

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the admin token.

func main() {
	hashPassword := flag.Bool("hash-password", false, "Read a password from stdin and print its ADMIN_PASSWORD_HASH value")
	flag.Parse()

	if *hashPassword {
		if err := printPasswordHash(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg := config.Load()

	// Setup structured logger
	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := app.OpenStore(startCtx, cfg)
	cancelStart()
	if err != nil {
		log.Error("Failed to open snapshot store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	// Initialize services
	rateService := service.NewRateService(store.Snapshots, app.RateServiceConfig(cfg))
	contactService := service.NewContactService(store.Leads, app.LeadNotifier(cfg, log))
	adminService := service.NewAdminService(cfg.AdminPasswordHash, cfg.JWTSecret)

	// Snapshot producers are optional for the API; without them the refresh
	// endpoints are not mounted.
	var refreshService *service.RefreshService
	pipeline, err := app.BuildPipeline(cfg, log)
	if err != nil {
		log.Warn("Snapshot producers unavailable, refresh disabled", slog.String("error", err.Error()))
	} else {
		defer func() { _ = pipeline.Close() }()
		refreshService = service.NewRefreshService(pipeline.Orchestrator, rateService, log)
	}

	var refreshScheduler *scheduler.Scheduler
	if cfg.ScraperEnabled && refreshService != nil {
		refreshScheduler = scheduler.New(scheduler.Config{
			Schedule: cfg.ScraperSchedule,
			Timeout:  cfg.ScraperTimeout,
			Enabled:  cfg.ScraperEnabled,
		}, refreshService, log)
		if err := refreshScheduler.Start(); err != nil {
			log.Error("Failed to start refresh scheduler", slog.String("error", err.Error()))
			refreshScheduler = nil
		}
	}

	// Initialize handlers
	rateHandler := handler.NewRateHandler(rateService)
	contactHandler := handler.NewContactHandler(contactService)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Public routes
	r.Get("/api/rates", rateHandler.GetRates)
	r.Get("/api/rates/regions", rateHandler.ListRegions)
	r.Post("/api/contact", contactHandler.Submit)

	var nextRun func() time.Time
	if refreshScheduler != nil {
		nextRun = refreshScheduler.GetNextRunTime
	}
	var refresher handler.RefreshServiceInterface
	if refreshService != nil {
		refresher = refreshService
	}
	adminHandler := handler.NewAdminHandler(adminService, rateService, refresher, nextRun, cfg.ScraperTimeout)

	r.Post("/api/admin/login", adminHandler.Login)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(handler.AdminAuth(adminService))

		r.Put("/api/admin/rates/{region}", adminHandler.PublishRates)
		r.Get("/api/admin/rates/{region}/history", adminHandler.GetHistory)
		r.Get("/api/admin/leads", contactHandler.ListLeads)

		if refresher != nil {
			r.Post("/api/admin/rates/refresh", adminHandler.RefreshRates)
			r.Get("/api/admin/scraper-health", adminHandler.GetScraperHealth)
		}
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Handle graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down server...")

		// Stop scheduler first
		if refreshScheduler != nil {
			<-refreshScheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Info("Server starting",
		slog.String("port", cfg.Port),
		slog.String("snapshot_backend", cfg.SnapshotBackend),
		slog.Bool("refresh_enabled", refresher != nil),
	)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Server failed", slog.String("error", err.Error()))
		return
	}
	<-done
}

func printPasswordHash() error {
	fmt.Fprint(os.Stderr, "Admin password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}

	hash, err := service.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
