// Package catalog is a fakestore-compatible product catalog used as the
// remote source during development and in end-to-end tests.
package catalog

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"PocketStore/internal/shop"
)

type Store interface {
	Ping(ctx context.Context) error
	ListSortedByID(ctx context.Context) ([]shop.Product, error)
	Get(ctx context.Context, id int64) (shop.Product, bool, error)
}

// SeedProducts is the starter catalog served by MemStore and loaded into an
// empty Postgres table.
func SeedProducts() []shop.Product {
	return []shop.Product{
		seed(1, "Fjallraven - Foldsack No. 1 Backpack", "109.95", "men's clothing", "3.9", 120),
		seed(2, "Mens Casual Premium Slim Fit T-Shirts", "22.30", "men's clothing", "4.1", 259),
		seed(3, "John Hardy Women's Legends Naga Bracelet", "695.00", "jewelery", "4.6", 400),
		seed(4, "Solid Gold Petite Micropave", "168.00", "jewelery", "3.9", 70),
		seed(5, "WD 2TB Elements Portable External Hard Drive", "64.00", "electronics", "3.3", 203),
		seed(6, "Samsung 49-Inch CHG90 Curved Gaming Monitor", "999.99", "electronics", "2.2", 140),
		seed(7, "BIYLACLESEN Women's 3-in-1 Snowboard Jacket", "56.99", "women's clothing", "2.6", 235),
		seed(8, "Opna Women's Short Sleeve Moisture", "7.95", "women's clothing", "4.5", 146),
	}
}

func seed(id int64, title, price, category, rate string, count int) shop.Product {
	image := "https://fakestoreapi.com/img/" + strconv.FormatInt(id, 10) + ".jpg"
	return shop.Product{
		ID:       id,
		Title:    title,
		Price:    decimal.RequireFromString(price),
		Category: category,
		Image:    &image,
		Rating:   &shop.Rating{Rate: decimal.RequireFromString(rate), Count: count},
	}
}
