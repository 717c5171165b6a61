package kv

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

type dialect struct {
	driverName string
	ddl        string
	upsert     string
}

var dialects = map[Driver]dialect{
	DriverSQLite: {
		driverName: "sqlite",
		ddl: `CREATE TABLE IF NOT EXISTS state (
			bucket TEXT PRIMARY KEY,
			payload TEXT NOT NULL
		)`,
		upsert: `INSERT INTO state (bucket, payload) VALUES (?, ?)
			ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload`,
	},
	DriverPostgres: {
		driverName: "pgx",
		ddl: `CREATE TABLE IF NOT EXISTS state (
			bucket TEXT PRIMARY KEY,
			payload TEXT NOT NULL
		)`,
		upsert: `INSERT INTO state (bucket, payload) VALUES (?, ?)
			ON CONFLICT (bucket) DO UPDATE SET payload = excluded.payload`,
	},
	DriverMySQL: {
		driverName: "mysql",
		ddl: `CREATE TABLE IF NOT EXISTS state (
			bucket VARCHAR(191) PRIMARY KEY,
			payload LONGTEXT NOT NULL
		)`,
		upsert: `INSERT INTO state (bucket, payload) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE payload = VALUES(payload)`,
	},
}

// SQLStore keeps every key as one row of the state table.
type SQLStore struct {
	db     *sqlx.DB
	upsert string
	get    string
}

func OpenSQL(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDriver, "driver=%q", driver)
	}
	if dsn == "" {
		return nil, errors.Errorf("%s: dsn required", driver)
	}
	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, errors.Wrap(err, "create sqlite dir")
			}
		}
	}

	db, err := sqlx.Open(d.driverName, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}

	s := newSQLStore(db, d)
	if err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, d.ddl)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create state table")
	}
	return s, nil
}

func newSQLStore(db *sqlx.DB, d dialect) *SQLStore {
	return &SQLStore{
		db:     db,
		upsert: db.Rebind(d.upsert),
		get:    db.Rebind(`SELECT payload FROM state WHERE bucket = ?`),
	}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		return s.db.GetContext(ctx, &payload, s.get, key)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "get %s", key)
	}
	return payload, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, blob string) error {
	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, s.upsert, key, blob)
		return err
	})
	return errors.Wrapf(err, "set %s", key)
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
