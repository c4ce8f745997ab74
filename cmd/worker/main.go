package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/datasource-admin/internal/config"
	"github.com/nikhilbhutani/datasource-admin/internal/database"
	"github.com/nikhilbhutani/datasource-admin/internal/datasource"
	"github.com/nikhilbhutani/datasource-admin/internal/queue"
	"github.com/nikhilbhutani/datasource-admin/internal/queue/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	if cfg.InMemory() {
		slog.Error("DATABASE_URL is required for the worker")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	queueClient := queue.NewClient(cfg.Redis, cfg.Queue.ImportQueue)
	defer queueClient.Close()

	svc := datasource.NewService(datasource.NewPGStore(db), queueClient, nil, 0)

	srv := asynq.NewServer(
		queue.RedisOpt(cfg.Redis),
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues:      queue.WorkerQueues(cfg.Queue),
		},
	)

	registry := queue.NewHandlersRegistry()

	// Register workers
	relayWorker := workers.NewRelayWorker(svc, cfg.Queue.RelayGrace, cfg.Queue.RelayBatch)

	registry.Register(queue.TypeRelayImports, asynq.HandlerFunc(relayWorker.ProcessTask))

	scheduler := asynq.NewScheduler(queue.RedisOpt(cfg.Redis), nil)
	// Unique keeps overlapping ticks from stacking relay runs.
	entryID, err := scheduler.Register(cfg.Queue.RelaySpec, queue.NewRelayImportsTask(),
		asynq.Queue(cfg.Queue.RelayQueue),
		asynq.Unique(cfg.Queue.RelayGrace),
	)
	if err != nil {
		slog.Error("failed to schedule outbox relay", "spec", cfg.Queue.RelaySpec, "error", err)
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		slog.Error("scheduler error", "error", err)
		os.Exit(1)
	}
	defer scheduler.Shutdown()

	slog.Info("starting worker", "concurrency", cfg.Queue.Concurrency, "relay_entry", entryID, "relay_spec", cfg.Queue.RelaySpec)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}
