package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/datasource-admin/internal/api"
	"github.com/nikhilbhutani/datasource-admin/internal/api/handlers"
	"github.com/nikhilbhutani/datasource-admin/internal/auth"
	"github.com/nikhilbhutani/datasource-admin/internal/cache"
	"github.com/nikhilbhutani/datasource-admin/internal/config"
	"github.com/nikhilbhutani/datasource-admin/internal/database"
	"github.com/nikhilbhutani/datasource-admin/internal/datasource"
	"github.com/nikhilbhutani/datasource-admin/internal/models"
	"github.com/nikhilbhutani/datasource-admin/internal/queue"
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

	ctx := context.Background()

	deps := api.Deps{}
	var store datasource.Store

	if cfg.InMemory() {
		slog.Warn("DATABASE_URL not set, running with in-memory storage")
		store = datasource.NewMemoryStore()
		deps.Users = devUsers(cfg)
	} else {
		db, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if cfg.Database.RunMigrations {
			if err := database.RunMigrations(ctx, db); err != nil {
				slog.Error("migrations failed", "error", err)
				os.Exit(1)
			}
		}

		store = datasource.NewPGStore(db)
		deps.Users = auth.NewPGUserStore(db)
		deps.DB = db
	}

	// Redis connection (optional for caching)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	deps.Redis = handlers.RedisPinger(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	var overviewCache datasource.Cache
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unavailable, running without cache", "error", err)
	} else {
		overviewCache = cache.NewCache(rdb, "dsadmin:")
	}

	queueClient := queue.NewClient(cfg.Redis, cfg.Queue.ImportQueue)
	defer queueClient.Close()

	deps.DataSources = datasource.NewService(store, queueClient, overviewCache, cfg.Overview.CacheTTL)

	router := api.NewRouter(cfg, deps)
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("starting API server", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// devUsers seeds a single superuser for in-memory runs and logs a token for it.
func devUsers(cfg *config.Config) auth.UserStore {
	id := uuid.New()
	if cfg.Auth.DevSuperuserID != "" {
		id = uuid.MustParse(cfg.Auth.DevSuperuserID)
	}

	users := auth.NewMemoryUserStore(models.User{
		ID:          id,
		Email:       "dev@localhost",
		IsActive:    true,
		IsSuperuser: true,
		CreatedAt:   time.Now().UTC(),
	})

	token, err := auth.SignToken(cfg.Auth.JWTSecret, id, "dev@localhost", 24*time.Hour)
	if err != nil {
		slog.Warn("failed to sign dev token", "error", err)
		return users
	}
	slog.Info("dev superuser ready", "user_id", id, "token", token)
	return users
}
