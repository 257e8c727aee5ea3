package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"codearena/internal/config"
	"codearena/internal/database"
	"codearena/internal/handlers"
	"codearena/internal/repository"
	"codearena/internal/reward"
	"codearena/internal/security"
	"codearena/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	startup := handlers.NewStartupStatus(handlers.StepDatabase, handlers.StepMigrations, handlers.StepContent, handlers.StepServices)

	// Serve the health endpoint while the rest starts up
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", startup.Health)

	handler := handlers.Logging(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", security.UserIDHeader},
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})(mux))

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Initialize database with config (supports sqlite, postgres, mysql)
	startup.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.CompleteStep(handlers.StepDatabase)
	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	startup.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	startup.CompleteStep(handlers.StepMigrations)
	log.Println("Migrations completed successfully")

	// Initialize repositories
	exerciseRepo := repository.NewExerciseRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)

	// Seed exercise content
	startup.SetCurrentStep(handlers.StepContent)
	contentService := service.NewContentService(exerciseRepo)
	ctx := context.Background()
	if n, err := contentService.SeedFromDir(ctx, cfg.ContentPath); err != nil {
		log.Printf("Warning: Failed to load exercise content from %s: %v", cfg.ContentPath, err)
	} else {
		log.Printf("Loaded %d exercises from %s", n, cfg.ContentPath)
	}
	startup.CompleteStep(handlers.StepContent)

	// Initialize services
	startup.SetCurrentStep(handlers.StepServices)
	completions := service.NewCompletionService(rewardRepo, newRewardClient(cfg))
	exerciseService := service.NewExerciseService(contentService, completions, attemptRepo, service.SessionOptions{
		Rules:         cfg.Rules(),
		MismatchDelay: cfg.MismatchDelay,
		HintReveal:    cfg.HintReveal,
	})
	progressService := service.NewProgressService(attemptRepo)

	if cfg.AuthHMACSecret == "" && !cfg.AllowHeaderIdentity {
		log.Println("Warning: AUTH_HMAC_SECRET is not set and header identity is disabled; every session request will be rejected")
	}
	verifier := security.NewTokenVerifier(cfg.AuthHMACSecret, cfg.AllowHeaderIdentity)

	var limiter *security.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = security.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		defer limiter.Close()
	}

	// Setup routes
	handlers.RegisterRoutes(mux,
		handlers.NewMiddleware(verifier, limiter),
		handlers.NewExerciseHandler(contentService, progressService, exerciseService),
		handlers.NewSessionHandler(exerciseService),
		nil,
	)
	startup.CompleteStep(handlers.StepServices)
	startup.MarkReady()

	// Start background session cleanup
	go cleanupIdleSessions(exerciseService, cfg.SessionIdleTimeout)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}

// newRewardClient talks to the reward service when one is configured and
// grants locally otherwise
func newRewardClient(cfg *config.Config) reward.Completer {
	if cfg.RewardBaseURL == "" {
		log.Println("REWARD_BASE_URL not set, rewards are granted locally")
		return reward.LogCompleter{}
	}
	client := reward.NewClient(cfg.RewardBaseURL, cfg.RewardAPIToken, cfg.RewardTimeout)
	return reward.NewResilientClient(client, reward.DefaultResilientConfig())
}

// cleanupIdleSessions periodically removes sessions nobody has touched
func cleanupIdleSessions(exerciseService *service.ExerciseService, maxIdle time.Duration) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		removed := exerciseService.CleanupIdleSessions(maxIdle)
		log.Printf("Idle sessions cleaned up: %d removed, %d active", removed, exerciseService.ActiveSessions())
	}
}
