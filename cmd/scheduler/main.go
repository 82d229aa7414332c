package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"firmflow/config"
	"firmflow/internal/mq"
	"firmflow/internal/repository"
	"firmflow/internal/service"
	"firmflow/internal/store"
	"firmflow/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting scheduler...",
		zap.Duration("interval", cfg.Scheduler.Interval()),
	)

	st, err := store.NewPostgres(cfg.DB, log)
	if err != nil {
		log.Fatal("store initialization failed", zap.Error(err))
	}
	defer st.Close()

	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	recurring := service.NewRecurringService(
		repository.NewRecurringEngagementRepository(st),
		repository.NewEngagementRepository(st),
		publisher,
		log,
		nil,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(cfg.Scheduler.Interval())
	defer ticker.Stop()

	// Sweep once at startup, then on every tick.
	runSweep(ctx, recurring, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runSweep(ctx, recurring, log)
		case sig := <-sigCh:
			log.Info("Scheduler shutting down", zap.String("signal", sig.String()))
			return
		}
	}
}

func runSweep(ctx context.Context, recurring *service.RecurringService, log *zap.Logger) {
	sweepCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	if _, err := recurring.MaterializeDue(sweepCtx); err != nil {
		log.Error("Recurring sweep failed", zap.Error(err))
	}
}
