package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/emsdir/searchd/internal/cache"
	"github.com/emsdir/searchd/internal/cache/redisstore"
	"github.com/emsdir/searchd/internal/config"
	"github.com/emsdir/searchd/internal/health"
	"github.com/emsdir/searchd/internal/invalidation/kafkaconsumer"
	"github.com/emsdir/searchd/internal/logger"
	"github.com/emsdir/searchd/internal/observability"
	"github.com/emsdir/searchd/internal/search"
	"github.com/emsdir/searchd/internal/server"
	"github.com/emsdir/searchd/internal/store/postgres"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Component: "searchd",
	}, os.Stdout)

	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting searchd",
		"addr", cfg.Addr,
		"version", Version,
		"redis", cfg.RedisAddr,
		"invalidation", cfg.Invalidation.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		appLog.Error("postgres open failed", "err", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	pingers := map[string]health.Pinger{"postgres": store}

	var rc *cache.ResponseCache
	if cfg.CacheEnabled {
		client, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			// the cache is an optimization; start without it
			appLog.Warn("redis unavailable, serving uncached", "err", err)
		} else {
			defer func() { _ = client.Close() }()
			rc = cache.NewResponseCache(client, cfg.CacheTTLDefault, cfg.CacheOpTimeout, appLog)
		}
	}

	eng := search.NewEngine(store, appLog)

	if cfg.Invalidation.Enabled && rc != nil {
		consumer := kafkaconsumer.New(
			kafkaconsumer.NewConfig(cfg.Invalidation.Brokers, cfg.Invalidation.Topic, cfg.Invalidation.GroupID),
			appLog, rc)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	if err := server.Run(ctx, cfg, appLog, server.Deps{
		Engine:  eng,
		Cache:   rc,
		Pingers: pingers,
	}); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
