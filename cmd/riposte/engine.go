package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	riposte "github.com/lcampedelli/riposte"
	"github.com/lcampedelli/riposte/internal/config"
	"github.com/lcampedelli/riposte/internal/logging"
	"github.com/lcampedelli/riposte/pkg/adapters/file"
	"github.com/lcampedelli/riposte/pkg/adapters/memory"
	redisadapter "github.com/lcampedelli/riposte/pkg/adapters/redis"
	"github.com/lcampedelli/riposte/pkg/domain"
	"github.com/lcampedelli/riposte/pkg/observability"
	"github.com/lcampedelli/riposte/pkg/ports"
)

// setup is the shared bootstrap for run and serve: environment config, a
// logger and a metrics registry.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, *prometheus.Registry, *observability.Metrics, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, nil, err
	}

	level := cfg.LogLevel
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		level = flagLevel
	}
	logger := logging.New(logging.ParseLevel(level))

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	return cfg, logger, registry, metrics, nil
}

// buildEngine loads a definition and assembles the engine with the backends
// the config selects. The returned cleanup closes the redis client, if any.
func buildEngine(cmd *cobra.Command, path string, cfg config.Config, logger *slog.Logger, metrics *observability.Metrics) (*riposte.Engine, func(), error) {
	opts := []riposte.Option{
		riposte.WithLogger(logger),
		riposte.WithMetrics(metrics),
		riposte.WithPollInterval(cfg.PollInterval),
		riposte.WithDispatcher(newEmitDispatcher(os.Stdout)),
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval > 0 {
		opts = append(opts, riposte.WithPollInterval(interval))
	}

	cleanup := func() {}
	switch cfg.Store {
	case "", "memory":
		opts = append(opts, riposte.WithStore(memory.NewStore()))
	case "file":
		opts = append(opts, riposte.WithStore(file.New(cfg.StorePath)))
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cleanup = func() { _ = client.Close() }
		opts = append(opts,
			riposte.WithStore(redisadapter.NewFromClient(client)),
			riposte.WithLocker(redisadapter.NewLocker(client, "riposte:lock:"), 10*time.Second),
			riposte.WithFactSource(redisadapter.NewSource(client, cfg.FactsKey)),
		)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}

	engine, err := riposte.Load(path, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

// newEmitDispatcher writes each triggered action to w as one NDJSON line,
// for an input-simulation host reading our stdout.
func newEmitDispatcher(w io.Writer) ports.ActionDispatcher {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return ports.DispatchFunc(func(ctx context.Context, action string, facts domain.Facts) (any, error) {
		mu.Lock()
		defer mu.Unlock()
		err := enc.Encode(map[string]any{
			"action": action,
			"at":     time.Now().UTC().Format(time.RFC3339Nano),
		})
		return nil, err
	})
}
