package store

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
)

// OrderStore holds placed orders, most-recent-first. Orders are only ever
// created locally and never deleted.
type OrderStore struct {
	mu        sync.RWMutex
	items     []shop.Order
	hydrating *atomic.Bool

	policy  shop.TransitionPolicy
	persist *Persister
	log     *zap.Logger
}

func (s *OrderStore) List() []shop.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOrders(s.items)
}

func (s *OrderStore) Get(id string) (shop.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return shop.Order{}, false
}

func (s *OrderStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexLocked(id) >= 0
}

func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *OrderStore) Add(o shop.Order) error {
	if o.ID == "" {
		return shop.ErrOrderIDRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return err
	}

	if s.indexLocked(o.ID) >= 0 {
		return errors.Wrapf(shop.ErrDuplicateOrder, "id=%s", o.ID)
	}
	next := make([]shop.Order, 0, len(s.items)+1)
	next = append(next, o.Clone())
	next = append(next, s.items...)
	s.items = next
	s.persistLocked()
	return nil
}

// UpdateStatus moves the order to newStatus, which must be the successor the
// transition policy computes for its current status.
func (s *OrderStore) UpdateStatus(id string, newStatus shop.Status) (shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return shop.Order{}, err
	}

	i := s.indexLocked(id)
	if i < 0 {
		return shop.Order{}, errors.Wrapf(shop.ErrOrderNotFound, "id=%s", id)
	}
	if !newStatus.Valid() {
		return shop.Order{}, errors.Wrapf(shop.ErrUnknownStatus, "status=%q", newStatus)
	}

	cur := s.items[i].Status
	want, err := s.policy(cur)
	if err != nil {
		return shop.Order{}, err
	}
	if newStatus != want {
		return shop.Order{}, errors.Wrapf(shop.ErrInvalidTransition, "%q -> %q", cur, newStatus)
	}

	s.items[i].Status = newStatus
	s.persistLocked()
	return s.items[i].Clone(), nil
}

// Advance moves the order to whatever status follows its current one.
func (s *OrderStore) Advance(id string) (shop.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkHydrated(s.hydrating); err != nil {
		return shop.Order{}, err
	}

	i := s.indexLocked(id)
	if i < 0 {
		return shop.Order{}, errors.Wrapf(shop.ErrOrderNotFound, "id=%s", id)
	}
	next, err := s.policy(s.items[i].Status)
	if err != nil {
		return shop.Order{}, err
	}

	s.items[i].Status = next
	s.persistLocked()
	return s.items[i].Clone(), nil
}

func (s *OrderStore) replace(orders []shop.Order) {
	s.mu.Lock()
	s.items = cloneOrders(orders)
	s.mu.Unlock()
}

func (s *OrderStore) indexLocked(id string) int {
	for i, o := range s.items {
		if o.ID == id {
			return i
		}
	}
	return -1
}

func (s *OrderStore) persistLocked() {
	blob, err := shop.EncodeOrders(s.items)
	if err != nil {
		s.log.Error("encode orders", zap.Error(err))
		return
	}
	s.persist.Enqueue(OrdersKey, blob)
}

func cloneOrders(in []shop.Order) []shop.Order {
	out := make([]shop.Order, len(in))
	for i, o := range in {
		out[i] = o.Clone()
	}
	return out
}
