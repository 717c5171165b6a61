// Package config reads PocketStore settings from POCKETSTORE_* environment
// variables.
package config

import (
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"

	"PocketStore/internal/kv"
	"PocketStore/internal/shop"
)

const Prefix = "pocketstore"

type Config struct {
	Addr       string `envconfig:"ADDR" default:":8090"`
	CatalogURL string `envconfig:"CATALOG_URL" default:"https://fakestoreapi.com"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	PersistTimeout time.Duration `envconfig:"PERSIST_TIMEOUT" default:"3s"`

	MetricsToken     string `envconfig:"METRICS_TOKEN"`
	TerminalDelivery bool   `envconfig:"TERMINAL_DELIVERY" default:"false"`

	CheckoutLimit  int           `envconfig:"CHECKOUT_LIMIT" default:"10"`
	CheckoutWindow time.Duration `envconfig:"CHECKOUT_WINDOW" default:"1m"`

	KV kv.Config `envconfig:"KV"`
}

func Load() (Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return Config{}, errors.Wrap(err, "read environment")
	}
	return c, nil
}

func (c Config) Validate() error {
	u, err := url.Parse(c.CatalogURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Errorf("catalog url %q must be absolute", c.CatalogURL)
	}
	if c.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be positive")
	}
	if c.PersistTimeout <= 0 {
		return errors.New("persist timeout must be positive")
	}
	if c.CheckoutLimit <= 0 || c.CheckoutWindow <= 0 {
		return errors.New("checkout rate limit must be positive")
	}
	return nil
}

// Policy is the order status progression selected by TerminalDelivery.
func (c Config) Policy() shop.TransitionPolicy {
	if c.TerminalDelivery {
		return shop.TerminalTransition
	}
	return shop.CyclicTransition
}
