package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"PocketStore/internal/config"
	"PocketStore/internal/kv"
	"PocketStore/internal/remote"
	"PocketStore/internal/store"
	"PocketStore/pkg/kit"
)

const flushTimeout = 5 * time.Second

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}
	if c.IsSet("catalog-url") {
		cfg.CatalogURL = c.String("catalog-url")
	}
	if c.IsSet("kv-driver") {
		cfg.KV.Driver = c.String("kv-driver")
	}
	if c.IsSet("kv-dsn") {
		cfg.KV.DSN = c.String("kv-dsn")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, cfg.Validate()
}

type session struct {
	cfg      config.Config
	log      *zap.Logger
	kv       kv.Store
	registry *prometheus.Registry
	store    *store.Store
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log, err := kit.NewLogger("pocketstore", cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	kvs, err := kv.Open(c.Context, cfg.KV)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	st := store.New(store.Deps{
		KV:             kvs,
		Source:         remote.NewClient(cfg.CatalogURL, cfg.FetchTimeout),
		Log:            log,
		Metrics:        store.NewMetrics(reg),
		Policy:         cfg.Policy(),
		FetchTimeout:   cfg.FetchTimeout,
		PersistTimeout: cfg.PersistTimeout,
	})

	log.Info("store opened",
		zap.String("kv_driver", cfg.KV.Driver),
		zap.String("catalog_url", cfg.CatalogURL),
	)
	return &session{cfg: cfg, log: log, kv: kvs, registry: reg, store: st}, nil
}

func (rt *session) Close() {
	if err := rt.kv.Close(); err != nil {
		rt.log.Warn("close kv", zap.Error(err))
	}
	_ = rt.log.Sync()
}

// withStore hydrates the store, runs fn, and waits for pending writes before
// returning. A failed catalog fetch during hydration is logged, not fatal.
func withStore(c *cli.Context, fn func(ctx context.Context, rt *session) error) error {
	rt, err := openSession(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(c.Context)
	done := make(chan struct{})
	go func() {
		rt.store.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	if err := rt.store.Init(ctx); err != nil {
		rt.log.Warn("hydration incomplete", zap.Error(err))
	}

	if err := fn(ctx, rt); err != nil {
		return err
	}

	fctx, fcancel := context.WithTimeout(context.Background(), flushTimeout)
	defer fcancel()
	return rt.store.Flush(fctx)
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
