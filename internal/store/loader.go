package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"PocketStore/internal/shop"
)

// Source records where the product collection came from on load.
type Source string

const (
	SourceCache  Source = "cache"
	SourceRemote Source = "remote"
	SourceNone   Source = "none"
)

type LoadResult struct {
	Products      []shop.Product
	Orders        []shop.Order
	ProductSource Source
}

// Loader reads the persisted collections, falling back to the remote catalog
// for products only. A cached catalog is authoritative until refreshed.
type Loader struct {
	kv           KV
	source       CatalogSource
	persist      *Persister
	log          *zap.Logger
	metrics      *Metrics
	fetchTimeout time.Duration
}

// Load returns a fetch error wrapped with ErrCatalogFetch alongside a usable
// result: orders are still loaded and products are empty.
func (l *Loader) Load(ctx context.Context) (LoadResult, error) {
	res := LoadResult{Products: []shop.Product{}, ProductSource: SourceNone}

	var fetchErr error
	if cached, ok := l.cachedProducts(ctx); ok {
		res.Products = cached
		res.ProductSource = SourceCache
	} else {
		products, err := l.remoteProducts(ctx)
		if err != nil {
			fetchErr = err
			l.log.Warn("catalog fetch failed, starting with an empty catalog", zap.Error(err))
		} else {
			res.Products = products
			res.ProductSource = SourceRemote
		}
	}
	l.metrics.hydrated("products", res.ProductSource)

	res.Orders = l.cachedOrders(ctx)
	if len(res.Orders) > 0 {
		l.metrics.hydrated("orders", SourceCache)
	} else {
		l.metrics.hydrated("orders", SourceNone)
	}

	l.log.Info("store hydrated",
		zap.String("product_source", string(res.ProductSource)),
		zap.Int("products", len(res.Products)),
		zap.Int("orders", len(res.Orders)),
	)
	return res, fetchErr
}

func (l *Loader) cachedProducts(ctx context.Context) ([]shop.Product, bool) {
	blob, found, err := l.kv.Get(ctx, ProductsKey)
	if err != nil {
		l.log.Warn("read cached products", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	products, err := shop.DecodeProducts(blob)
	if err != nil {
		l.log.Warn("cached products unreadable, treating as a miss", zap.Error(err))
		return nil, false
	}
	return sanitizeProducts(products, l.log), true
}

func (l *Loader) remoteProducts(ctx context.Context) ([]shop.Product, error) {
	if l.source == nil {
		return nil, fmt.Errorf("%w: no catalog source configured", ErrCatalogFetch)
	}
	fctx, cancel := context.WithTimeout(ctx, l.fetchTimeout)
	defer cancel()

	products, err := l.source.FetchProducts(fctx)
	if err != nil {
		l.metrics.fetchFailed()
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}
	products = sanitizeProducts(products, l.log)

	blob, err := shop.EncodeProducts(products)
	if err != nil {
		l.log.Error("encode products", zap.Error(err))
		return products, nil
	}
	l.persist.Enqueue(ProductsKey, blob)
	return products, nil
}

func (l *Loader) cachedOrders(ctx context.Context) []shop.Order {
	blob, found, err := l.kv.Get(ctx, OrdersKey)
	if err != nil {
		l.log.Warn("read cached orders", zap.Error(err))
		return []shop.Order{}
	}
	if !found {
		return []shop.Order{}
	}
	orders, err := shop.DecodeOrders(blob)
	if err != nil {
		l.log.Warn("cached orders unreadable, starting empty", zap.Error(err))
		return []shop.Order{}
	}
	return orders
}
