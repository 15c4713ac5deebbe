package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/yniverz/erp-rent/internal/app"
	"github.com/yniverz/erp-rent/internal/availability"
	"github.com/yniverz/erp-rent/internal/catalog"
	"github.com/yniverz/erp-rent/internal/observability"
	"github.com/yniverz/erp-rent/internal/platform/db"
	"github.com/yniverz/erp-rent/internal/quotes"
	"github.com/yniverz/erp-rent/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	catalogRepo := catalog.NewRepository(pool)
	quoteRepo := quotes.NewRepository(pool)
	engine := availability.NewEngine(
		catalog.NewEngineStore(catalogRepo),
		quotes.NewEngineStore(quoteRepo, catalogRepo),
	)

	metrics := observability.New()
	auditJob := jobs.NewAvailabilityAuditJob(engine, catalogRepo, quoteRepo, logger, metrics)

	auditTask, err := jobs.NewAvailabilityAuditTask(jobs.AvailabilityAuditPayload{
		HorizonDays: cfg.AuditHorizonDays,
	})
	if err != nil {
		logger.Error("build audit task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeAvailabilityAudit, Handler: auditJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.AuditCron, Task: auditTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
