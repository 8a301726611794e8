package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/smarttools-be/internal/api"
	"github.com/isdelr/smarttools-be/internal/auth"
	"github.com/isdelr/smarttools-be/internal/cache"
	"github.com/isdelr/smarttools-be/internal/clock"
	"github.com/isdelr/smarttools-be/internal/config"
	"github.com/isdelr/smarttools-be/internal/database"
	"github.com/isdelr/smarttools-be/internal/logger"
	"github.com/isdelr/smarttools-be/internal/monitoring"
	"github.com/isdelr/smarttools-be/internal/services"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	clk := clock.New(cfg.Location)

	// Set up database
	db, err := database.New(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	err = database.Seed(context.Background(), db, database.SeedOptions{
		AdminUsername: cfg.AdminUsername,
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Now:           clk.Now(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed database")
	}

	// Leaderboard cache is optional
	var leaderboardCache cache.LeaderboardCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedisLeaderboard(context.Background(), cfg.RedisAddr, cache.DefaultLeaderboardTTL)
		if err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis unavailable, leaderboard cache disabled")
		} else {
			defer redisCache.Close()
			leaderboardCache = redisCache
		}
	}

	// Set up services
	accountService := services.NewAccountService(db, clk)
	eventService := services.NewEventService(db, clk)
	ledgerService := services.NewLedgerService(db, clk, leaderboardCache)
	toolService := services.NewToolService(db, ledgerService, accountService)
	taskService := services.NewTaskService(db, clk, toolService, accountService)
	postService := services.NewPostService(db, clk, eventService)
	commentService := services.NewCommentService(db, clk, postService)
	imageService, err := services.NewImageService(db, clk, toolService, cfg.UploadDir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("Failed to initialize image storage")
	}

	sessionStore := auth.NewSQLSessionStore(db, clk, cfg.SessionTTL)
	authenticator := auth.NewAuthenticator(
		sessionStore,
		accountService,
		auth.NewTokenIssuer(cfg.JWTSecret, clk),
		cfg.SessionSecret,
		cfg.SessionTTL,
		cfg.IsProduction(),
	)

	adminService := services.NewAdminService(db, clk, accountService, ledgerService, toolService,
		imageService, eventService, sessionStore, monitoring.NewHostHealth(cfg.UploadDir))

	// Set up router
	router, err := api.NewRouter(api.Deps{
		DB:              db,
		Authenticator:   authenticator,
		Accounts:        accountService,
		Ledger:          ledgerService,
		Tools:           toolService,
		Tasks:           taskService,
		Posts:           postService,
		Comments:        commentService,
		Images:          imageService,
		Admin:           adminService,
		Events:          eventService,
		UploadDir:       cfg.UploadDir,
		CORSOrigins:     cfg.CORSOrigins,
		LoginRatePerMin: cfg.LoginRatePerMin,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build router")
	}

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
