package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/motivatem3/server/internal/config"
	"github.com/motivatem3/server/internal/database"
	"github.com/motivatem3/server/internal/handler"
	"github.com/motivatem3/server/internal/inference"
	"github.com/motivatem3/server/internal/jobs"
	"github.com/motivatem3/server/internal/mail"
	"github.com/motivatem3/server/internal/markdown"
	"github.com/motivatem3/server/internal/middleware"
	"github.com/motivatem3/server/internal/redis"
	"github.com/motivatem3/server/internal/repository"
	"github.com/motivatem3/server/internal/safety"
	"github.com/motivatem3/server/internal/service"
	"github.com/motivatem3/server/internal/verification"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := cfg.IsProduction()
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("database connected")

	if cfg.AutoMigrate {
		if err := database.Migrate(context.Background(), db.DB.DB); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
		log.Info().Msg("migrations applied")
	}

	redisClient, err := redis.NewClient(context.Background(), cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	provider, err := inference.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure inference provider")
	}

	mailer, err := mail.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure mailer")
	}

	accountRepo := repository.NewAccountRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	motivationRepo := repository.NewMotivationRepository(db.DB)

	rateLimiter := service.NewRateLimiter(redisClient.Client)
	pendingStore := service.NewPendingStore(redisClient.Client, cfg.VerificationCodeTTL())
	issuer := verification.NewIssuer(
		verification.NewTokenSigner(cfg.SecretKey, cfg.VerificationTokenMaxAge()),
		cfg.VerificationCodeTTL(),
	)

	gate := safety.NewGate(provider, provider, provider,
		safety.NewReferenceCache(safety.HarmfulPhrases), cfg.HarmThreshold)
	if cfg.SafetyWarmCache {
		go warmSafetyCache(gate)
	}

	authService := service.NewAuthService(
		accountRepo, sessionRepo, db, issuer, mailer, pendingStore, rateLimiter,
		service.AuthSettings{
			SessionSecret: cfg.SecretKey,
			VerifyURL:     cfg.VerifyURL,
			CodeTTL:       cfg.VerificationCodeTTL(),
			SessionTTL:    config.SessionTTL,
			SingleActive:  cfg.VerificationSingleActive,
		},
	)
	motivationService := service.NewMotivationService(
		motivationRepo, gate, provider, provider, markdown.NewRenderer(), rateLimiter,
	)
	chatService := service.NewChatService(redisClient.Client, provider, rateLimiter)
	adminService := service.NewAdminService(accountRepo, motivationRepo)

	sessionMiddleware := middleware.NewSessionMiddleware(authService)
	csrfMiddleware := middleware.NewCSRFMiddleware(isProduction)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)
	signupLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, config.SignupLimitPerHour, time.Hour, "signup")
	loginLimit := middleware.NewIPRateLimitMiddleware(rateLimiter, config.LoginLimitPerMinute, time.Minute, "login")

	authHandler := handler.NewAuthHandler(authService, handler.AuthRoutes{
		RequireSession: sessionMiddleware.Handler,
		SignupLimit:    signupLimit.Handler,
		LoginLimit:     loginLimit.Handler,
	}, cfg.VerificationCodeTTL(), isProduction)
	motivationHandler := handler.NewMotivationHandler(motivationService)
	chatHandler := handler.NewChatHandler(chatService)
	adminHandler := handler.NewAdminHandler(adminService)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"database": db.Ping,
		"redis":    redisClient.Ping,
	})

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(bodyLimitMiddleware.Handler)
	r.Use(securityHeadersMiddleware.Handler)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", middleware.CSRFHeaderName},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Method(http.MethodGet, "/health", healthHandler)
	r.Get("/auth/verify/{token}", authHandler.VerifyLink)

	r.Route("/api", func(r chi.Router) {
		r.Use(csrfMiddleware.Handler)

		r.Mount("/auth", authHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware.Handler)
			r.Mount("/motivation", motivationHandler.Routes())
			r.Mount("/chat", chatHandler.Routes())

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Mount("/", adminHandler.Routes())
			})
		})
	})

	r.Handle("/*", handler.NewSPAHandler(cfg.StaticDir))

	cleanupJob := jobs.NewCleanupJob(sessionRepo, accountRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Bool("production", isProduction).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// warmSafetyCache embeds the reference phrases before the first request
// needs them. If no phrase can be embedded, nothing is cached and the next
// harm check computes them again.
func warmSafetyCache(gate *safety.Gate) {
	ctx, cancel := context.WithTimeout(context.Background(), config.SafetyWarmTimeout)
	defer cancel()

	n := gate.Warm(ctx)
	log.Info().Int("phrases", n).Int("total", len(safety.HarmfulPhrases)).Msg("safety reference cache warmed")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
