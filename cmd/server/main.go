package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"cricketscore/internal/config"
	"cricketscore/internal/database"
	"cricketscore/internal/handlers"
	"cricketscore/internal/live"
	"cricketscore/internal/repository"
	"cricketscore/internal/security"
	"cricketscore/internal/service"
	"cricketscore/internal/toss"
)

const (
	loginRateLimit  = 10
	loginRateWindow = time.Minute
)

func main() {
	// Load configuration
	cfg := config.Load()
	status := handlers.NewStartupStatus()

	// Initialize database with config (supports sqlite, postgres, mysql)
	status.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()
	status.CompleteStep(handlers.StepDatabase)

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	status.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	status.CompleteStep(handlers.StepMigrations)

	log.Println("Migrations completed successfully")

	status.SetCurrentStep(handlers.StepServices)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	matchStore, err := repository.OpenMatchStore(cfg.MatchStore, db, cfg.DataDir, cfg.MasterKeyPassphrase)
	if err != nil {
		log.Fatalf("Failed to open match store: %v", err)
	}
	log.Printf("Match history stored in %q store", cfg.MatchStore)

	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenExpiry)
	if tokens == nil {
		log.Println("API tokens disabled: JWT_SECRET not configured")
	}

	var generator toss.Generator
	if cfg.GeminiAPIKey != "" {
		gemini, err := toss.NewGeminiClient(context.Background(), toss.GeminiConfig{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiModel})
		if err != nil {
			log.Printf("Warning: Failed to initialize toss narration, tosses are flipped locally: %v", err)
		} else {
			generator = gemini
		}
	} else {
		log.Println("Toss narration disabled: GEMINI_API_KEY not configured, tosses are flipped locally")
	}
	resolver := toss.NewResolver(generator, cfg.TossTimeout, nil)

	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Printf("Warning: Failed to initialize email service: %v", err)
	}

	hub := live.NewHub(cfg.Debug)

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens, cfg.SessionDuration)
	matchService := service.NewMatchService(matchStore, resolver, hub, emailService, cfg.Debug)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
	}

	csrfSecret := cfg.CSRFSecret
	if csrfSecret == "" {
		log.Println("Warning: CSRF_SECRET not configured, tokens will not survive a restart")
		csrfSecret = security.NewSessionID()
	}
	csrf := security.NewCSRFGenerator(csrfSecret)

	limiter := security.NewRateLimiter(loginRateLimit, loginRateWindow)
	defer limiter.Stop()

	middleware := handlers.NewMiddleware(authService, csrf, limiter, cfg.Debug)
	authHandler := handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL, cfg.AppBaseURL)
	matchHandler := handlers.NewMatchHandler(matchService, hub, cfg.Debug)

	handler := handlers.NewRouter(middleware, authHandler, matchHandler, status)
	status.CompleteStep(handlers.StepServices)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan struct{})
	go cleanupExpiredSessions(authService, stop)

	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()
	status.MarkReady()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	hub.Close()
}

// cleanupExpiredSessions periodically removes expired sessions
func cleanupExpiredSessions(authService *service.AuthService, stop <-chan struct{}) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n, err := authService.CleanupExpiredSessions()
			if err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
				continue
			}
			log.Printf("Expired sessions cleaned up: %d", n)
		}
	}
}
