package store

import (
	"sync"

	"github.com/shopspring/decimal"

	"PocketStore/internal/shop"
)

// CartStore is the in-memory cart. It is never persisted and starts empty on
// every launch.
type CartStore struct {
	mu    sync.RWMutex
	items []shop.Product
}

// Add appends a copy of p; the same product may be added more than once.
func (c *CartStore) Add(p shop.Product) {
	c.mu.Lock()
	c.items = append(c.items, p.Clone())
	c.mu.Unlock()
}

// Remove drops every line item with the given product id and reports how many
// were removed.
func (c *CartStore) Remove(id int64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := make([]shop.Product, 0, len(c.items))
	for _, p := range c.items {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	removed := len(c.items) - len(kept)
	c.items = kept
	return removed
}

func (c *CartStore) Clear() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// Settle hands a copy of the cart to fn while holding the cart, so no line
// item can be added or removed in between. When fn succeeds and clear is set,
// the cart is emptied.
func (c *CartStore) Settle(clear bool, fn func(items []shop.Product) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := fn(shop.CloneProducts(c.items)); err != nil {
		return err
	}
	if clear {
		c.items = nil
	}
	return nil
}

func (c *CartStore) Items() []shop.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return shop.CloneProducts(c.items)
}

func (c *CartStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *CartStore) Total() decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return shop.SumPrices(c.items)
}
