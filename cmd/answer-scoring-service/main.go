package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/answer-scoring-service/internal/cache"
	"github.com/SAP-F-2025/answer-scoring-service/internal/config"
	"github.com/SAP-F-2025/answer-scoring-service/internal/handlers"
	"github.com/SAP-F-2025/answer-scoring-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/answer-scoring-service/internal/services"
	"github.com/SAP-F-2025/answer-scoring-service/internal/utils"
	"github.com/SAP-F-2025/answer-scoring-service/internal/validator"
	"github.com/SAP-F-2025/answer-scoring-service/pkg"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewLogger("development", os.Stderr).LogError(err, "Failed to load config")
		return err
	}

	logger := utils.NewLogger(cfg.Environment, os.Stdout)
	slogger := logger.Slog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		return err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.LogError(err, "Failed to migrate database")
		return err
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to redis")
		return err
	}
	defer redisClient.Close()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher")
		return err
	}
	defer publisher.Close()

	repo := postgres.NewRepository(db)
	v := validator.New()
	drafts := cache.NewDraftStore(cache.NewRedisCache(redisClient, "answers", slogger))
	notifier := services.NewNotificationEventService(publisher, slogger)

	templateService := services.NewTemplateService(repo, slogger)
	testService := services.NewTestService(repo, templateService, notifier, slogger, v)
	attemptService := services.NewAttemptService(repo, testService, drafts, cfg.DraftTTL, notifier, slogger, v)
	exportService := services.NewExportService(repo, slogger)

	tokens := casdoorsdk.NewClient(
		cfg.Casdoor.Endpoint,
		cfg.Casdoor.ClientID,
		cfg.Casdoor.ClientSecret,
		cfg.Casdoor.Certificate,
		cfg.Casdoor.Organization,
		cfg.Casdoor.Application,
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger), utils.ContextLogger(logger))

	handlers.NewHandlerManager(
		templateService,
		testService,
		attemptService,
		exportService,
		tokens,
		map[string]handlers.HealthCheck{
			"database": repo.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		logger,
	).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Answer scoring service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			logger.LogError(err, "Server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
		return err
	}
	return nil
}
