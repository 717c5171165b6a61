package shop

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var ErrNegativePrice = errors.New("price must be non-negative")

// Categories is the known category set of the catalog. Products may still carry
// any free-text category.
var Categories = []string{
	"electronics",
	"jewelery",
	"men's clothing",
	"women's clothing",
}

type Rating struct {
	Rate  decimal.Decimal `json:"rate"`
	Count int             `json:"count"`
}

type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       *string         `json:"image"`
	Description *string         `json:"description"`
	Rating      *Rating         `json:"rating,omitempty"`
}

// Clone returns a deep copy so that snapshots never share pointers with the
// live collection.
func (p Product) Clone() Product {
	out := p
	if p.Image != nil {
		v := *p.Image
		out.Image = &v
	}
	if p.Description != nil {
		v := *p.Description
		out.Description = &v
	}
	if p.Rating != nil {
		r := *p.Rating
		out.Rating = &r
	}
	return out
}

// NormalizePrice rejects negative prices and rounds the rest to cents.
func NormalizePrice(price decimal.Decimal) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Decimal{}, errors.Wrapf(ErrNegativePrice, "price=%s", price.String())
	}
	return price.Round(2), nil
}

func CloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func SumPrices(items []Product) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return total
}
