package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
)

type ProductStats struct {
	Count        int             `json:"count"`
	AveragePrice decimal.Decimal `json:"average_price"`
	Categories   map[string]int  `json:"categories"`
}

// ProductStore holds the catalog. The slice is most-recent-first: Add
// prepends, hydration keeps the order it was given.
type ProductStore struct {
	mu        sync.RWMutex
	items     []shop.Product
	hydrating *atomic.Bool

	source       CatalogSource
	persist      *Persister
	log          *zap.Logger
	metrics      *Metrics
	fetchTimeout time.Duration
}

func (s *ProductStore) List() []shop.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return shop.CloneProducts(s.items)
}

func (s *ProductStore) Get(id int64) (shop.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.items {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return shop.Product{}, false
}

func (s *ProductStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Add ignores p.ID and assigns one greater than the current maximum.
func (s *ProductStore) Add(p shop.Product) (shop.Product, error) {
	price, err := shop.NormalizePrice(p.Price)
	if err != nil {
		return shop.Product{}, err
	}
	p = p.Clone()
	p.Price = price

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return shop.Product{}, err
	}

	p.ID = nextProductID(s.items)
	next := make([]shop.Product, 0, len(s.items)+1)
	next = append(next, p)
	next = append(next, s.items...)
	s.items = next
	s.persistLocked()

	return p.Clone(), nil
}

// Update replaces the product with p.ID. An unknown id changes nothing.
func (s *ProductStore) Update(p shop.Product) error {
	price, err := shop.NormalizePrice(p.Price)
	if err != nil {
		return err
	}
	p = p.Clone()
	p.Price = price

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return err
	}

	idx := s.indexLocked(p.ID)
	if idx < 0 {
		return nil
	}
	s.items[idx] = p
	s.persistLocked()
	return nil
}

// Remove drops the product with id. An unknown id changes nothing.
func (s *ProductStore) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return err
	}

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil
	}
	next := make([]shop.Product, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)
	s.items = next
	s.persistLocked()
	return nil
}

// Refresh replaces the collection with the remote catalog. On failure the
// current collection is kept.
func (s *ProductStore) Refresh(ctx context.Context) error {
	products, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return err
	}
	s.items = products
	s.persistLocked()
	return nil
}

// Replace swaps the collection without persisting it.
func (s *ProductStore) Replace(products []shop.Product) {
	clean := sanitizeProducts(products, s.log)
	s.mu.Lock()
	s.items = clean
	s.mu.Unlock()
}

func (s *ProductStore) Stats() ProductStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ProductStats{
		Count:        len(s.items),
		AveragePrice: decimal.Zero,
		Categories:   map[string]int{},
	}
	for _, p := range s.items {
		st.Categories[p.Category]++
	}
	if st.Count > 0 {
		st.AveragePrice = shop.SumPrices(s.items).
			Div(decimal.NewFromInt(int64(st.Count))).
			Round(2)
	}
	return st
}

func (s *ProductStore) ByCategory() map[string][]shop.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string][]shop.Product{}
	for _, p := range s.items {
		out[p.Category] = append(out[p.Category], p.Clone())
	}
	return out
}

func (s *ProductStore) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range s.items {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out
}

// fetch runs outside the lock so readers are not held up by the network.
func (s *ProductStore) fetch(ctx context.Context) ([]shop.Product, error) {
	if s.source == nil {
		return nil, fmt.Errorf("%w: no catalog source configured", ErrCatalogFetch)
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	products, err := s.source.FetchProducts(ctx)
	if err != nil {
		s.metrics.fetchFailed()
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	return sanitizeProducts(products, s.log), nil
}

func (s *ProductStore) indexLocked(id int64) int {
	for i, p := range s.items {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *ProductStore) persistLocked() {
	blob, err := shop.EncodeProducts(s.items)
	if err != nil {
		s.log.Error("encode products", zap.Error(err))
		return
	}
	s.persist.Enqueue(ProductsKey, blob)
}

func nextProductID(items []shop.Product) int64 {
	var hi int64
	for _, p := range items {
		if p.ID > hi {
			hi = p.ID
		}
	}
	return hi + 1
}

// sanitizeProducts drops entries that would break the id and price
// invariants: repeated ids after the first and negative prices.
func sanitizeProducts(in []shop.Product, log *zap.Logger) []shop.Product {
	out := make([]shop.Product, 0, len(in))
	seen := make(map[int64]struct{}, len(in))
	for _, p := range in {
		if _, dup := seen[p.ID]; dup {
			log.Warn("dropping product with duplicate id", zap.Int64("id", p.ID))
			continue
		}
		price, err := shop.NormalizePrice(p.Price)
		if err != nil {
			log.Warn("dropping product", zap.Int64("id", p.ID), zap.Error(err))
			continue
		}
		seen[p.ID] = struct{}{}
		p = p.Clone()
		p.Price = price
		out = append(out, p)
	}
	return out
}
