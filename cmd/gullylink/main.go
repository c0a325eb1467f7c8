package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gullylink/gullylink/params"
	"github.com/gullylink/gullylink/pkg/api"
	"github.com/gullylink/gullylink/pkg/hub"
	"github.com/gullylink/gullylink/pkg/metrics"
	"github.com/gullylink/gullylink/pkg/orders"
	"github.com/gullylink/gullylink/pkg/storage"
	"github.com/gullylink/gullylink/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile)

	if err := run(cfg, sugar); err != nil {
		sugar.Fatalw("hub_failed", "err", err)
	}
	sugar.Info("shutdown complete")
}

// run serves until a signal arrives or the API server fails. Deferred
// cleanup completes before main decides the exit status.
func run(cfg params.Config, sugar *zap.SugaredLogger) error {
	// ---- External store ----
	var store orders.Store
	if cfg.Storage.Path == params.MemoryDB {
		store = storage.NewInMemoryStore()
		sugar.Warn("using in-memory store; orders will not survive a restart")
	} else {
		pebbleStore, err := storage.NewPebbleStore(cfg.Storage.Path)
		if err != nil {
			return fmt.Errorf("open store %s: %w", cfg.Storage.Path, err)
		}
		defer closeQuietly(pebbleStore)
		store = pebbleStore
		sugar.Infow("store_opened", "path", cfg.Storage.Path)
	}

	if cfg.API.MetricsEnabled {
		metrics.Register(prometheus.DefaultRegisterer)
	}

	// ---- Realtime hub ----
	registry := hub.NewRegistry()
	dispatcher := hub.NewDispatcher(registry, sugar)
	gateway := orders.NewGateway(store, dispatcher, sugar)

	apiServer := api.NewServer(api.Deps{
		Config:     cfg,
		Registry:   registry,
		Dispatcher: dispatcher,
		Gateway:    gateway,
		Logger:     sugar,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return apiServer.Run(ctx) })

	sugar.Infow("hub_starting",
		"api_addr", cfg.API.Addr,
		"allowed_origins", cfg.API.AllowedOrigins,
		"metrics", cfg.API.MetricsEnabled)

	return g.Wait()
}

func closeQuietly(c io.Closer) {
	_ = c.Close()
}
