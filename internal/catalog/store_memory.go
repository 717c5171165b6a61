package catalog

import (
	"context"
	"sort"
	"sync"

	"PocketStore/internal/shop"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[int64]shop.Product
}

func NewMemStore() *MemStore {
	s := &MemStore{m: map[int64]shop.Product{}}
	for _, p := range SeedProducts() {
		s.m[p.ID] = p
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) Put(p shop.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p.Clone()
}

func (s *MemStore) ListSortedByID(ctx context.Context) ([]shop.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]shop.Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p.Clone())
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int64) (shop.Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	if !ok {
		return shop.Product{}, false, nil
	}
	return p.Clone(), true, nil
}
