package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/craftfolio/portfolio-server-go/internal/auth"
	"github.com/craftfolio/portfolio-server-go/internal/config"
	"github.com/craftfolio/portfolio-server-go/internal/database"
	"github.com/craftfolio/portfolio-server-go/internal/handler"
	"github.com/craftfolio/portfolio-server-go/internal/jobs"
	"github.com/craftfolio/portfolio-server-go/internal/middleware"
	"github.com/craftfolio/portfolio-server-go/internal/redis"
	"github.com/craftfolio/portfolio-server-go/internal/repository"
	"github.com/craftfolio/portfolio-server-go/internal/service"
	"github.com/craftfolio/portfolio-server-go/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	setLogLevel(cfg.LogLevel)

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	objStorage, err := storage.NewS3Storage(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	userRepo := repository.NewUserRepository(db.DB)
	portfolioRepo := repository.NewPortfolioRepository(db.DB)

	issuer := auth.NewIssuer(
		cfg.AccessTokenSecret, cfg.RefreshTokenSecret,
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry,
	)

	portfolioService := service.NewPortfolioService(db, portfolioRepo, userRepo)
	authService := service.NewAuthService(userRepo, portfolioService, issuer, objStorage)
	userService := service.NewUserService(userRepo, objStorage)
	chatbotService := service.NewChatbotService(portfolioService)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, issuer)
	loginLimiter := middleware.NewLoginRateLimiter(redisClient)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(cfg.AvatarMaxBytes + middleware.DefaultMaxBodySize)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(cfg.IsProduction())

	authHandler := handler.NewAuthHandler(
		authService, authMiddleware.Handler, loginLimiter.Handler,
		cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry,
		cfg.AvatarMaxBytes, cfg.IsProduction(),
	)
	userHandler := handler.NewUserHandler(userService, authService, authMiddleware.Handler, cfg.AvatarMaxBytes)
	portfolioHandler := handler.NewPortfolioHandler(portfolioService, authMiddleware.Handler)
	chatbotHandler := handler.NewChatbotHandler(chatbotService, authMiddleware.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(securityHeadersMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)
	if cfg.CORSOrigin != "" {
		r.Use(middleware.NewCORSMiddleware(cfg.CORSOrigin).Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/users", userHandler.Routes())
		r.Mount("/portfolios", portfolioHandler.Routes())
		r.Mount("/chat", chatbotHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(userRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
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
