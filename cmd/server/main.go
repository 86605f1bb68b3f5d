package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"cybercafe/internal/billing"
	"cybercafe/internal/config"
	"cybercafe/internal/database"
	"cybercafe/internal/handlers"
	"cybercafe/internal/logging"
	"cybercafe/internal/metrics"
	"cybercafe/internal/repository"
	"cybercafe/internal/security"
	"cybercafe/internal/service"
	"cybercafe/internal/templates"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load timezone")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	log.Info().Str("type", cfg.DatabaseType).Msg("database connection established")

	if err := db.RunMigrations(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	tmpl, err := templates.Load(loc)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load templates")
	}

	// Initialize repositories
	operatorRepo := repository.NewOperatorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	sessionRepo := repository.NewUsageSessionRepository(db)

	// Initialize services
	plan := billing.Plan{MonthlyFee: cfg.MonthlyFee, RatePerDay: cfg.RatePerDay}
	m := metrics.New()

	authService := service.NewAuthService(operatorRepo, cfg.SessionDuration, m)
	studentService := service.NewStudentService(studentRepo, paymentRepo, sessionRepo, plan, loc, m)
	paymentService := service.NewPaymentService(db, studentRepo, paymentRepo, plan, loc, m)
	usageService := service.NewUsageService(db, studentRepo, sessionRepo, plan, m)

	if _, err := authService.EnsureBootstrapOperator(ctx, cfg.BootstrapUsername, cfg.BootstrapPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to create bootstrap operator")
	}

	// Initialize handlers
	if cfg.UsesDefaultCSRFSecret() {
		log.Warn().Msg("CSRF_SECRET is not set; using the built-in default, set a random secret in production")
	}
	csrf := security.NewCSRF(cfg.CSRFSecret)
	limiter := security.NewRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow)
	proxies, err := security.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse TRUSTED_PROXIES")
	}
	renderer := handlers.NewRenderer(tmpl, csrf)

	router := &handlers.Router{
		Middleware: handlers.NewMiddleware(authService, csrf, limiter, proxies, m),
		Auth:       handlers.NewAuthHandler(authService, renderer),
		Sessions:   handlers.NewSessionHandler(usageService, renderer),
		Students:   handlers.NewStudentHandler(studentService, paymentService, usageService, renderer),
		Payments:   handlers.NewPaymentHandler(paymentService, studentService, renderer),
		Metrics:    m.Handler(),
	}

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handlers.Logging(m.Middleware(router.Handler())),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Background maintenance
	go limiter.Run(ctx, cfg.LoginRateWindow)
	go cleanupExpiredSessions(ctx, authService)

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
}

// cleanupExpiredSessions periodically removes expired operator sessions
func cleanupExpiredSessions(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := authService.CleanupExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("failed to clean up expired sessions")
			}
		}
	}
}
