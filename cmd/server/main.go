package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fentiaanyun/auction-game/internal/adapter/cache"
	"github.com/fentiaanyun/auction-game/internal/adapter/in_memory"
	"github.com/fentiaanyun/auction-game/internal/adapter/notify"
	"github.com/fentiaanyun/auction-game/internal/adapter/pg"
	httpapi "github.com/fentiaanyun/auction-game/internal/api/http"
	"github.com/fentiaanyun/auction-game/internal/core"
	"github.com/fentiaanyun/auction-game/internal/port"
	"github.com/fentiaanyun/auction-game/internal/scheduler"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := configFromEnv()

	var repo port.Repository
	var users port.UserStore
	if dsn := os.Getenv("AUCTION_PG_DSN"); dsn != "" {
		pgRepo, err := pg.NewPgRepo(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect to Postgres", "err", err)
			os.Exit(1)
		}
		defer pgRepo.Close()
		repo = pgRepo
		users = pgRepo
	} else {
		slog.Info("no AUCTION_PG_DSN set, using in-memory persistence")
		repo = in_memory.NewMemoryRepo()
		store := in_memory.NewUserStore()
		store.Seed("admin", decimal.NewFromInt(10000))
		users = store
	}

	opts := []core.Option{core.WithNotifier(notify.NewSlogNotifier())}
	if addr := os.Getenv("AUCTION_REDIS_ADDR"); addr != "" {
		opts = append(opts, core.WithCache(cache.NewRedisCache(addr, os.Getenv("AUCTION_REDIS_PASSWORD"), 0, 5*time.Minute)))
	}

	engine := core.NewEngine(repo, users, cfg, opts...)
	if err := engine.Load(ctx); err != nil {
		slog.Error("failed to load auction data", "err", err)
		os.Exit(1)
	}

	sched := scheduler.New(engine, cfg.TickInterval, cfg.AISweepInterval)
	go sched.Run(ctx)

	addr := getEnv("AUCTION_HTTP_ADDR", ":8080")
	server := httpapi.NewHTTPServer(engine)
	slog.Info("starting HTTP server", "addr", addr)
	if err := server.Run(addr); err != nil {
		slog.Error("HTTP server failed", "err", err)
		os.Exit(1)
	}
}

func configFromEnv() core.Config {
	cfg := core.DefaultConfig()
	if v := getEnvInt("AUCTION_DEFAULT_DURATION"); v > 0 {
		cfg.DefaultDuration = v
	}
	if v := getEnvInt("AUCTION_EXTEND_WINDOW"); v > 0 {
		cfg.ExtendWindow = v
	}
	if v := os.Getenv("AUCTION_MIN_INCREMENT"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			cfg.MinIncrement = d
		}
	}
	if v := os.Getenv("AUCTION_AI_PROBABILITY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.AIProbability = f
		}
	}
	if v := getEnvInt("AUCTION_AI_SWEEP_SECONDS"); v > 0 {
		cfg.AISweepInterval = time.Duration(v) * time.Second
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return v
}
