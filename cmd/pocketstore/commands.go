package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"PocketStore/internal/api"
	"PocketStore/internal/checkout"
	"PocketStore/internal/shop"
	"PocketStore/pkg/kit"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "hydrate the store and serve it over HTTP",
		Action: func(c *cli.Context) error {
			rt, err := openSession(c)
			if err != nil {
				return err
			}
			defer rt.Close()

			h := api.NewHandler(&api.Server{
				Store:    rt.store,
				Checkout: checkout.NewService(rt.store.Orders, rt.log.Named("checkout")),
				KV:       rt.kv,
				Log:      rt.log,
			}, api.HTTPDeps{
				Log:             rt.log,
				Service:         "pocketstore",
				Registry:        rt.registry,
				MetricsToken:    rt.cfg.MetricsToken,
				CheckoutLimiter: kit.NewIPRateLimiter(rt.cfg.CheckoutLimit, rt.cfg.CheckoutWindow),
			})

			g, ctx := errgroup.WithContext(c.Context)
			g.Go(func() error {
				rt.store.Run(ctx)
				return nil
			})
			g.Go(func() error {
				if err := rt.store.Init(ctx); err != nil {
					rt.log.Warn("hydration incomplete", zap.Error(err))
				}
				return nil
			})
			g.Go(func() error {
				return kit.RunHTTPServer(ctx, rt.cfg.Addr, h, rt.log)
			})
			err = g.Wait()

			// Requests finishing during server shutdown may enqueue writes
			// after the persister's last drain.
			fctx, fcancel := context.WithTimeout(context.Background(), flushTimeout)
			defer fcancel()
			if ferr := rt.store.Flush(fctx); ferr != nil {
				rt.log.Error("final flush", zap.Error(ferr))
			}
			if n := rt.store.Persister().Pending(); n > 0 {
				rt.log.Error("writes not persisted at exit", zap.Int("keys", n))
			}
			return err
		},
	}
}

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "inspect the product catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print products, most recent first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category", Usage: "only products in this category"},
				},
				Action: func(c *cli.Context) error {
					return withStore(c, func(_ context.Context, rt *session) error {
						if cat := c.String("category"); cat != "" {
							return printJSON(c, rt.store.Products.ByCategory()[cat])
						}
						return printJSON(c, rt.store.Products.List())
					})
				},
			},
			{
				Name:  "stats",
				Usage: "print product count, average price and category breakdown",
				Action: func(c *cli.Context) error {
					return withStore(c, func(_ context.Context, rt *session) error {
						return printJSON(c, rt.store.Products.Stats())
					})
				},
			},
		},
	}
}

func ordersCommand() *cli.Command {
	return &cli.Command{
		Name:  "orders",
		Usage: "inspect and progress orders",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print orders, most recent first",
				Action: func(c *cli.Context) error {
					return withStore(c, func(_ context.Context, rt *session) error {
						return printJSON(c, rt.store.Orders.List())
					})
				},
			},
			{
				Name:      "advance",
				Usage:     "move an order to its next status",
				ArgsUsage: "ORDER_ID",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if id == "" {
						return errors.New("order id required")
					}
					return withStore(c, func(_ context.Context, rt *session) error {
						o, err := rt.store.Orders.Advance(id)
						if err != nil {
							return err
						}
						return printJSON(c, o)
					})
				},
			},
			{
				Name:      "set-status",
				Usage:     "set an order's status; it must be the next one",
				ArgsUsage: "ORDER_ID STATUS",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return errors.New("usage: orders set-status ORDER_ID STATUS")
					}
					id, status := c.Args().Get(0), shop.Status(c.Args().Get(1))
					return withStore(c, func(_ context.Context, rt *session) error {
						o, err := rt.store.Orders.UpdateStatus(id, status)
						if err != nil {
							return err
						}
						return printJSON(c, o)
					})
				},
			},
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "replace the cached catalog with the remote one",
		Action: func(c *cli.Context) error {
			return withStore(c, func(ctx context.Context, rt *session) error {
				if err := rt.store.RefreshProducts(ctx); err != nil {
					return err
				}
				_, err := fmt.Fprintf(c.App.Writer, "refreshed %d products\n", rt.store.Products.Len())
				return err
			})
		},
	}
}
