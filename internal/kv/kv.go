// Package kv holds the persistent key-value backends the offline store writes
// its collections to. Values are opaque string blobs.
package kv

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
	DriverS3       Driver = "s3"
)

var ErrUnknownDriver = errors.New("unknown kv driver")

// Store is durable get/set of string blobs. A missing key is reported with
// found=false and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (blob string, found bool, err error)
	Set(ctx context.Context, key, blob string) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Driver string `envconfig:"DRIVER" default:"sqlite"`
	DSN    string `envconfig:"DSN" default:"pocketstore.db"`

	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"pocketstore/"`
	S3PathStyle bool   `envconfig:"S3_PATH_STYLE"`

	S3AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

// Open selects a backend by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch Driver(strings.ToLower(strings.TrimSpace(cfg.Driver))) {
	case DriverMemory:
		return NewMemStore(), nil
	case DriverSQLite, "":
		s, err = openSQL(ctx, DriverSQLite, cfg.DSN)
	case DriverPostgres:
		s, err = openSQL(ctx, DriverPostgres, cfg.DSN)
	case DriverMySQL:
		s, err = openSQL(ctx, DriverMySQL, cfg.DSN)
	case DriverS3:
		s, err = openS3(ctx, S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			PathStyle: cfg.S3PathStyle,

			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
	default:
		return nil, errors.Wrapf(ErrUnknownDriver, "driver=%q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQL(ctx context.Context, driver Driver, dsn string) (Store, error) {
	s, err := OpenSQL(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openS3(ctx context.Context, cfg S3Config) (Store, error) {
	s, err := OpenS3(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s, nil
}
