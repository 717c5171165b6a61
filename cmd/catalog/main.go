package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"PocketStore/internal/catalog"
	"PocketStore/pkg/kit"
)

func main() {
	service := "catalog"
	log, err := kit.NewLogger(service, getenv("LOG_LEVEL", "info"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := getenv("PORT", "8082")
	token := os.Getenv("METRICS_TOKEN")

	latency, err := time.ParseDuration(getenv("CATALOG_LATENCY", "0s"))
	if err != nil {
		log.Fatal("bad CATALOG_LATENCY", zap.Error(err))
	}

	store, closeStore, err := openStore(ctx, os.Getenv("DATABASE_URL"), log)
	if err != nil {
		log.Fatal("open catalog store", zap.Error(err))
	}
	defer closeStore()

	h := catalog.NewHandler(&catalog.Server{Store: store, Log: log}, catalog.HTTPDeps{
		Log:            log,
		Service:        service,
		Registry:       prometheus.NewRegistry(),
		MetricsEnabled: token != "",
		MetricsToken:   token,
		Latency:        latency,
	})

	if err := kit.RunHTTPServer(ctx, ":"+port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}

// openStore uses Postgres when dsn is set and the seeded in-memory catalog
// otherwise.
func openStore(ctx context.Context, dsn string, log *zap.Logger) (catalog.Store, func(), error) {
	if dsn == "" {
		log.Info("using in-memory catalog")
		return catalog.NewMemStore(), func() {}, nil
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	s := catalog.NewPostgresStore(db)
	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	log.Info("using postgres catalog")
	return s, func() { _ = db.Close() }, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
