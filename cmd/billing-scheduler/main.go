package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/clubops/club-billing/internal/cache"
	"github.com/clubops/club-billing/internal/config"
	"github.com/clubops/club-billing/internal/lib/sl"
	"github.com/clubops/club-billing/internal/migrations"
	"github.com/clubops/club-billing/internal/notifier"
	"github.com/clubops/club-billing/internal/rabbitmq"
	billingservice "github.com/clubops/club-billing/internal/services/billing"
	services "github.com/clubops/club-billing/internal/services/scheduler"
	"github.com/clubops/club-billing/internal/storage/repository"
)

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil // готово
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.Info("starting billing-scheduler", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.ConnectRetries, cfg.ConnectDelay)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to connect to RabbitMQ:", slog.String("URL", cfg.RabbitMQURL))
	defer func() {
		_ = conn.Close()
	}()

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		logger.Error("failed to setup RabbitMQ channel", sl.Err(err))
		os.Exit(1)
	}
	logger.Info("success to setup RabbitMQ channel")
	defer func() {
		_ = ch.Close()
	}()

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		logger.Error("failed to connect to storage", sl.Err(err))
		os.Exit(1)
	}
	defer func() {
		_ = db.DB.Close()
	}()
	if err = waitForDB(db); err != nil {
		logger.Error("database is not ready:", sl.Err(err))
		os.Exit(1)
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		logger.Error("failed to run migrations", sl.Err(err))
		os.Exit(1)
	}

	settings, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		logger.Error("failed to connect to redis", sl.Err(err))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("failed to load billing timezone", sl.Err(err))
		os.Exit(1)
	}

	engine := billingservice.NewEngine(db, db, settings, notifier.New(ch),
		loc, cfg.FallbackBaseAmount, logger)
	schedulerService := services.NewSchedulerService(engine, logger, loc,
		cfg.JobTimeout, cfg.MonthlyRunAt, cfg.DailyRunAt)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		schedulerService.RunMonthlyGeneration(ctx)
	}()
	go func() {
		defer wg.Done()
		schedulerService.RunDailyReprice(ctx)
	}()
	wg.Wait()

	logger.Info("billing-scheduler stopped gracefully")
}
