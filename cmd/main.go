package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/brackets"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/clashapi"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/config"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/db"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/handlers"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/middleware"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/routes"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/services"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/storage"
	"github.com/go-chi/chi/v5"
)

// @title Clashub API
// @version 1.0
// @description Clan management, tournaments and knowledge hub for Clash communities.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{MaxOpenConns: cfg.DBMaxOpenConns})
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	version, err := db.Migrate(dbConn)
	if err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database schema up to date", slog.Uint64("version", uint64(version)))

	var uploader storage.FileUploader
	if cfg.UploadsEnabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 settings incomplete, file uploads disabled")
	}

	if cfg.ClashAPIToken == "" {
		logger.Warn("CLASH_API_TOKEN not set, game API calls will fail")
	}
	gameAPI := clashapi.NewClient(cfg.ClashAPIBaseURL, cfg.ClashAPIToken)

	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket hub started")

	tx := repositories.NewTransactor(dbConn, logger)
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	clanRepo := repositories.NewPostgresClanRepository(dbConn)
	joinRequestRepo := repositories.NewPostgresJoinRequestRepository(dbConn)
	snapshotRepo := repositories.NewPostgresClanSnapshotRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTournamentTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	postRepo := repositories.NewPostgresPostRepository(dbConn)

	seed := time.Now().UnixNano()
	if cfg.BracketSeed != nil {
		seed = *cfg.BracketSeed
	}
	generator := brackets.NewSingleEliminationGenerator(rand.New(rand.NewSource(seed)))

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, uploader, logger)
	clanService := services.NewClanService(tx, clanRepo, userRepo, gameAPI, uploader, logger)
	clanSyncService := services.NewClanSyncService(tx, clanRepo, snapshotRepo, gameAPI, logger)
	joinRequestService := services.NewJoinRequestService(tx, joinRequestRepo, clanRepo, logger)
	tournamentService := services.NewTournamentService(tournamentRepo, clanRepo, uploader, wsHub, logger)
	participantService := services.NewParticipantService(tx, tournamentRepo, teamRepo, logger)
	bracketService := services.NewBracketService(tx, tournamentRepo, teamRepo, matchRepo, generator, uploader, wsHub, logger)
	matchService := services.NewMatchService(tx, tournamentRepo, teamRepo, matchRepo, wsHub, logger)
	postService := services.NewPostService(postRepo, logger)
	logger.Info("services initialized")

	scheduler, err := services.NewStatusScheduler(tournamentService, cfg.SchedulerInterval, logger)
	if err != nil {
		logger.Error("failed to create status scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start status scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to stop status scheduler", slog.Any("error", err))
		}
	}()

	tokens := middleware.NewTokenIssuer(cfg.JWTSecretKey, middleware.DefaultTokenTTL)
	authenticator := middleware.NewAuthenticator(tokens, authService, logger)

	router := chi.NewRouter()
	routes.SetupRoutes(router, routes.Handlers{
		Auth:        handlers.NewAuthHandler(authService, tokens, cfg.CookieSecure),
		User:        handlers.NewUserHandler(userService),
		Clan:        handlers.NewClanHandler(clanService, clanSyncService),
		JoinRequest: handlers.NewJoinRequestHandler(joinRequestService),
		Tournament:  handlers.NewTournamentHandler(tournamentService),
		Participant: handlers.NewParticipantHandler(participantService),
		Bracket:     handlers.NewBracketHandler(bracketService),
		Match:       handlers.NewMatchHandler(matchService),
		Post:        handlers.NewPostHandler(postService),
		WebSocket:   handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins, logger),
	}, authenticator, cfg.CORSAllowedOrigins)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
