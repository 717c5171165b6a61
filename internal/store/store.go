// Package store is the offline-first state of the shop: products, orders and
// the cart, held in memory and written through to a KV store in the
// background.
package store

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"PocketStore/internal/shop"
)

const (
	ProductsKey = "pocketstore/products"
	OrdersKey   = "pocketstore/orders"

	defaultFetchTimeout = 10 * time.Second
)

var (
	ErrCatalogFetch = errors.New("catalog fetch failed")
	// ErrLoading rejects product and order mutations while Init is replacing
	// the collections with the hydrated ones.
	ErrLoading = errors.New("store is loading")
)

// KV is the subset of kv.Store the state layer needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

type CatalogSource interface {
	FetchProducts(ctx context.Context) ([]shop.Product, error)
}

type Deps struct {
	KV             KV
	Source         CatalogSource
	Log            *zap.Logger
	Metrics        *Metrics
	Policy         shop.TransitionPolicy
	FetchTimeout   time.Duration
	PersistTimeout time.Duration
}

type Store struct {
	Products *ProductStore
	Orders   *OrderStore
	Cart     *CartStore

	persister *Persister
	loader    *Loader
	log       *zap.Logger

	loading   atomic.Bool
	hydrating atomic.Bool

	mu      sync.RWMutex
	lastErr error
}

// New wires the stores. The store reports Loading until Init has run.
func New(d Deps) *Store {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Policy == nil {
		d.Policy = shop.CyclicTransition
	}
	if d.FetchTimeout <= 0 {
		d.FetchTimeout = defaultFetchTimeout
	}

	p := NewPersister(d.KV, d.Log.Named("persist"), d.Metrics, d.PersistTimeout)

	s := &Store{
		Cart:      &CartStore{},
		persister: p,
		loader: &Loader{
			kv:           d.KV,
			source:       d.Source,
			persist:      p,
			log:          d.Log.Named("loader"),
			metrics:      d.Metrics,
			fetchTimeout: d.FetchTimeout,
		},
		log: d.Log,
	}
	s.Products = &ProductStore{
		hydrating:    &s.hydrating,
		source:       d.Source,
		persist:      p,
		log:          d.Log,
		metrics:      d.Metrics,
		fetchTimeout: d.FetchTimeout,
	}
	s.Orders = &OrderStore{
		hydrating: &s.hydrating,
		policy:    d.Policy,
		persist:   p,
		log:       d.Log,
	}
	s.loading.Store(true)
	return s
}

func (s *Store) Persister() *Persister { return s.persister }

// Run blocks running the background writer until ctx is cancelled.
func (s *Store) Run(ctx context.Context) { s.persister.Run(ctx) }

func (s *Store) Flush(ctx context.Context) error { return s.persister.Flush(ctx) }

// Init hydrates the stores from the KV store, or from the remote catalog when
// no products are cached. Orders are hydrated even when the fetch fails.
// Product and order mutations attempted while Init runs fail with ErrLoading;
// mutations made before Init are replaced by the hydrated state.
func (s *Store) Init(ctx context.Context) error {
	s.loading.Store(true)
	s.hydrating.Store(true)
	defer s.loading.Store(false)

	res, err := s.loader.Load(ctx)
	s.Products.Replace(res.Products)
	s.Orders.replace(res.Orders)
	s.hydrating.Store(false)

	s.setLastError(err)
	return err
}

// RefreshProducts replaces the catalog with the remote one. A failure keeps
// the current catalog and is reported through LastError as well.
func (s *Store) RefreshProducts(ctx context.Context) error {
	if err := checkHydrated(&s.hydrating); err != nil {
		return err
	}
	s.loading.Store(true)
	defer s.loading.Store(false)

	err := s.Products.Refresh(ctx)
	if err != nil {
		s.log.Warn("refresh products", zap.Error(err))
	}
	s.setLastError(err)
	return err
}

func (s *Store) Loading() bool { return s.loading.Load() }

func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func checkHydrated(hydrating *atomic.Bool) error {
	if hydrating != nil && hydrating.Load() {
		return ErrLoading
	}
	return nil
}

func (s *Store) setLastError(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}
