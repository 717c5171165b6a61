package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "pocketstore",
		Usage: "offline-first product, order and cart store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "HTTP listen address (overrides POCKETSTORE_ADDR)"},
			&cli.StringFlag{Name: "catalog-url", Usage: "remote catalog base URL (overrides POCKETSTORE_CATALOG_URL)"},
			&cli.StringFlag{Name: "kv-driver", Usage: "memory, sqlite, postgres, mysql or s3 (overrides POCKETSTORE_KV_DRIVER)"},
			&cli.StringFlag{Name: "kv-dsn", Usage: "KV connection string (overrides POCKETSTORE_KV_DSN)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides POCKETSTORE_LOG_LEVEL)"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			productsCommand(),
			ordersCommand(),
			refreshCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "pocketstore:", err)
		os.Exit(1)
	}
}
