package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"village/internal/config"
	"village/internal/database"
	"village/internal/handlers"
	"village/internal/security"
	"village/internal/service"
	"village/internal/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	loc, _ := cfg.Location()

	if cfg.JWTSecret == "change-me" || cfg.CSRFSecret == "change-me-too" {
		log.Println("Warning: using default JWT/CSRF secrets, set JWT_SECRET and CSRF_SECRET in production")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	handlers.CompleteStep(handlers.StepDatabase)
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	handlers.CompleteStep(handlers.StepMigrations)
	log.Println("Migrations completed successfully")

	// Portfolio file storage
	handlers.SetCurrentStep(handlers.StepStorage)
	store, err := storage.NewFromConfig(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	var files http.Handler
	if local, ok := store.(*storage.LocalStore); ok {
		files = local.Handler()
	}
	handlers.CompleteStep(handlers.StepStorage)
	log.Printf("Storage initialized (driver: %s)", cfg.StorageDriver)

	// Initialize services
	handlers.SetCurrentStep(handlers.StepServices)
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
	}

	services := service.New(db, service.Options{
		Tokens:          security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Email:           emailService,
		Store:           store,
		Clock:           service.NewClock(loc),
		SessionDuration: cfg.SessionDuration,
		MaxUploadSize:   cfg.UploadMaxSize,
	})
	handlers.CompleteStep(handlers.StepServices)

	handler := handlers.NewRouter(handlers.RouterConfig{
		Services:             services,
		CSRF:                 security.NewCSRFGenerator(cfg.CSRFSecret),
		LoginLimiter:         security.NewRateLimiter(10, time.Minute),
		ChildLoginLimiter:    security.NewRateLimiter(5, 15*time.Minute),
		TrustProxy:           cfg.TrustProxy,
		OAuthProviders:       handlers.OAuthProvidersFromConfig(cfg),
		OAuthRedirectBaseURL: cfg.OAuthRedirectBaseURL,
		MaxUploadSize:        cfg.UploadMaxSize,
		Files:                files,
		Ping:                 db.PingContext,
	})

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start background session cleanup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go cleanupExpiredSessions(ctx, services)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	handlers.MarkReady()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Println("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Warning: graceful shutdown failed: %v", err)
	}
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(ctx context.Context, services *service.Services) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Cleanup parent sessions and reset tokens
		if err := services.Auth.CleanupExpiredSessions(); err != nil {
			log.Printf("Error cleaning up expired sessions: %v", err)
		} else {
			log.Println("Expired parent sessions cleaned up")
		}

		// Cleanup child sessions
		if err := services.Families.CleanupExpiredChildSessions(); err != nil {
			log.Printf("Error cleaning up expired child sessions: %v", err)
		} else {
			log.Println("Expired child sessions cleaned up")
		}
	}
}
