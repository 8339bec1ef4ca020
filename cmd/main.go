package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/live-scoring/config"
	"github.com/Dosada05/live-scoring/db"
	"github.com/Dosada05/live-scoring/handlers"
	"github.com/Dosada05/live-scoring/middleware"
	"github.com/Dosada05/live-scoring/realtime"
	"github.com/Dosada05/live-scoring/repositories"
	api "github.com/Dosada05/live-scoring/routes"
	"github.com/Dosada05/live-scoring/services"
	"github.com/Dosada05/live-scoring/sports"
	"github.com/Dosada05/live-scoring/storage"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("match_store", cfg.MatchStore))

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Правила видов спорта
	overrides := sports.Overrides{}
	if cfg.SportRulesFile != "" {
		overrides, err = sports.LoadOverrides(cfg.SportRulesFile)
		if err != nil {
			logger.Error("failed to load sport rules", slog.String("file", cfg.SportRulesFile), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("sport rule overrides loaded", slog.String("file", cfg.SportRulesFile))
	}
	registry := sports.NewRegistry(overrides)

	// Хранилище матчей
	var (
		matchRepo repositories.MatchRepository
		dbConn    *sql.DB
	)
	switch cfg.MatchStore {
	case config.StoreMemory:
		matchRepo = repositories.NewMemoryMatchRepository(registry.Collections())
		logger.Warn("using in-memory match store, matches are lost on restart")
	default:
		dbConn, err = db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
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
		if err := db.EnsureSchema(ctx, dbConn, registry.Collections()); err != nil {
			logger.Error("failed to prepare database schema", slog.Any("error", err))
			os.Exit(1)
		}
		matchRepo = repositories.NewPostgresMatchRepository(dbConn, registry.Collections())
		logger.Info("database connection established")
	}

	// Инициализация WebSocket Hub
	wsHub := realtime.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	var broadcaster services.Broadcaster = wsHub
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", slog.Any("error", err))
			os.Exit(1)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		relay := realtime.NewRedisRelay(redisClient, wsHub, logger)
		go func() {
			if err := relay.Run(ctx); err != nil {
				logger.Error("redis relay stopped", slog.Any("error", err))
			}
		}()
		broadcaster = relay
		logger.Info("redis broadcast relay enabled")
	}

	// Комментарии
	var commentary services.CommentaryService
	if cfg.CommentaryEnabled() {
		commentator := services.NewOpenAICommentator(services.OpenAICommentatorConfig{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.CommentaryModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		commentary = services.NewCommentaryService(commentator, cfg.CommentaryTimeout, logger)
		logger.Info("commentary enabled", slog.String("model", cfg.CommentaryModel))
	}

	// Архив завершённых матчей (Cloudflare R2)
	var archiver storage.Archiver
	r2cfg := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2cfg.Enabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, r2cfg)
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archiver = storage.NewMatchArchiver(uploader)
		logger.Info("Cloudflare R2 archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	// Инициализация сервисов
	locks := services.NewKeyedMutex()
	scoringService := services.NewScoringService(registry, matchRepo, broadcaster, commentary, archiver, locks, services.ScoringServiceConfig{}, logger)
	matchService := services.NewMatchService(registry, matchRepo, broadcaster, locks, logger)
	leaderboardService := services.NewLeaderboardService(registry, matchRepo, logger)
	performanceService := services.NewPerformanceService(registry, matchRepo, logger)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	verifier := middleware.NewTokenVerifier(cfg.JWTSecretKey, logger)
	var pinger handlers.Pinger
	if dbConn != nil {
		pinger = dbConn
	}
	matchHandler := handlers.NewMatchHandler(matchService, scoringService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	performanceHandler := handlers.NewPerformanceHandler(performanceService)
	webSocketHandler := handlers.NewWebSocketHandler(ctx, wsHub, verifier, scoringService, cfg.CORSAllowedOrigins, logger)
	healthHandler := handlers.NewHealthHandler(pinger, wsHub)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, verifier, cfg.CORSAllowedOrigins, matchHandler, leaderboardHandler, performanceHandler, webSocketHandler, healthHandler)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			exitCode = 1
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			exitCode = 1
		} else {
			logger.Info("server shutdown complete")
		}
	}

	// websocket-соединения закрываются вместе с контекстом, затем ждём фоновые задачи
	stop()
	scoringService.Drain()
	logger.Info("application exited")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
