package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/yniverz/erp-rent/internal/app"
	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/inquiries"
	"github.com/yniverz/erp-rent/internal/observability"
	"github.com/yniverz/erp-rent/internal/platform/cache"
	"github.com/yniverz/erp-rent/internal/platform/db"
	"github.com/yniverz/erp-rent/internal/quotes"
	"github.com/yniverz/erp-rent/internal/settings"
	"github.com/yniverz/erp-rent/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, public cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	catalogRepo := catalog.NewRepository(pool)
	quoteRepo := quotes.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	inquiryRepo := inquiries.NewRepository(pool)

	engine := availability.NewEngine(
		catalog.NewEngineStore(catalogRepo),
		quotes.NewEngineStore(quoteRepo, catalogRepo),
	)

	catalogCache := catalog.NewCache(redisClient, cfg.PublicCacheTTL)
	catalogService := catalog.NewService(catalogRepo, catalogCache, logger)
	quoteService := quotes.NewService(quoteRepo, catalogRepo, engine, logger)
	settingsService := settings.NewService(settingsRepo)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inquiryService := inquiries.NewService(inquiryRepo, catalogRepo, settingsService, jobClient, logger)

	metrics := observability.New()

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		Pool:            pool,
		CatalogHandler:  catalog.NewHandler(logger, catalogService, engine),
		QuoteHandler:    quotes.NewHandler(logger, quoteService, settingsService),
		SettingsHandler: settings.NewHandler(logger, settingsService),
		InquiryHandler:  inquiries.NewHandler(logger, inquiryService),
		PublicCatalog:   catalogService,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
