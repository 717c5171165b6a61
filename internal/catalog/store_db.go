package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"PocketStore/internal/shop"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second

	pgUndefinedTable = "42P01"
)

var ErrSchemaMissing = errors.New("catalog schema missing")

const productColumns = `id, title, price, category, image, description, rating_rate, rating_count`

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

// EnsureSchema creates the products table and loads SeedProducts into it when
// it is empty.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	return withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		if _, err := s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS products (
				id           BIGINT PRIMARY KEY,
				title        TEXT NOT NULL,
				price        NUMERIC(12,2) NOT NULL CHECK (price >= 0),
				category     TEXT NOT NULL,
				image        TEXT,
				description  TEXT,
				rating_rate  NUMERIC(3,1),
				rating_count INTEGER
			)
		`); err != nil {
			return errors.Wrap(err, "create products table")
		}

		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		for _, p := range SeedProducts() {
			if err := s.insert(ctx, p); err != nil {
				return errors.Wrapf(err, "seed product %d", p.ID)
			}
		}
		return nil
	})
}

func (s *PostgresStore) insert(ctx context.Context, p shop.Product) error {
	var (
		rate  decimal.NullDecimal
		count sql.NullInt64
	)
	if p.Rating != nil {
		rate = decimal.NewNullDecimal(p.Rating.Rate)
		count = sql.NullInt64{Int64: int64(p.Rating.Count), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Title, p.Price, p.Category, p.Image, p.Description, rate, count)
	return err
}

func (s *PostgresStore) ListSortedByID(ctx context.Context) ([]shop.Product, error) {
	var out []shop.Product

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			ORDER BY id ASC
		`)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = make([]shop.Product, 0, 16)
		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})

	if isUndefinedTable(err) {
		return nil, ErrSchemaMissing
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (shop.Product, bool, error) {
	var (
		p   shop.Product
		err error
	)

	err = withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+productColumns+`
			FROM products
			WHERE id = $1
		`, id)
		p, err = scanProduct(row)
		return err
	})

	if errors.Is(err, sql.ErrNoRows) {
		return shop.Product{}, false, nil
	}
	if isUndefinedTable(err) {
		return shop.Product{}, false, ErrSchemaMissing
	}
	if err != nil {
		return shop.Product{}, false, err
	}
	return p, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (shop.Product, error) {
	var (
		p           shop.Product
		image, desc sql.NullString
		rate        decimal.NullDecimal
		count       sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Price, &p.Category, &image, &desc, &rate, &count); err != nil {
		return shop.Product{}, err
	}
	if image.Valid {
		p.Image = &image.String
	}
	if desc.Valid {
		p.Description = &desc.String
	}
	if rate.Valid {
		p.Rating = &shop.Rating{Rate: rate.Decimal, Count: int(count.Int64)}
	}
	return p, nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUndefinedTable
	}
	return false
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
