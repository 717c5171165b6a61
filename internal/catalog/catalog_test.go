package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketStore/internal/catalog"
	"PocketStore/internal/remote"
	"PocketStore/internal/shop"
)

func newCatalogTS(t *testing.T, store catalog.Store, deps catalog.HTTPDeps) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(catalog.NewHandler(&catalog.Server{Store: store}, deps))
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestCatalog_ServesRemoteClient(t *testing.T) {
	ts := newCatalogTS(t, catalog.NewMemStore(), catalog.HTTPDeps{})

	products, err := remote.NewClient(ts.URL, time.Second).FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, len(catalog.SeedProducts()))

	for i := 1; i < len(products); i++ {
		assert.Less(t, products[i-1].ID, products[i].ID)
	}
	assert.Equal(t, "109.95", products[0].Price.StringFixed(2))
	require.NotNil(t, products[0].Rating)
	assert.Equal(t, 120, products[0].Rating.Count)
}

func TestCatalog_GetProduct(t *testing.T) {
	ts := newCatalogTS(t, catalog.NewMemStore(), catalog.HTTPDeps{})

	var p shop.Product
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products/3", &p))
	assert.Equal(t, int64(3), p.ID)
	assert.Equal(t, "jewelery", p.Category)

	assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/products/300", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/products/abc", nil))
}

func TestCatalog_LimitSortAndCategories(t *testing.T) {
	store := catalog.NewMemStore()
	store.Put(shop.Product{ID: 20, Title: "Cable", Price: decimal.RequireFromString("3.50"), Category: "electronics"})
	ts := newCatalogTS(t, store, catalog.HTTPDeps{})

	var limited []shop.Product
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products?limit=2&sort=desc", &limited))
	require.Len(t, limited, 2)
	assert.Equal(t, int64(20), limited[0].ID)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, ts.URL+"/products?limit=-1", nil))

	var categories []string
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products/categories", &categories))
	assert.ElementsMatch(t, shop.Categories, categories)

	var electronics []shop.Product
	require.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/products/category/electronics", &electronics))
	assert.Len(t, electronics, 3)
}

func TestCatalog_SlowCatalogTimesOutClient(t *testing.T) {
	ts := newCatalogTS(t, catalog.NewMemStore(), catalog.HTTPDeps{Latency: 500 * time.Millisecond})

	_, err := remote.NewClient(ts.URL, 50*time.Millisecond).FetchProducts(context.Background())
	assert.True(t, errors.Is(err, remote.ErrCatalogUnavailable), "%v", err)
}

type brokenStore struct{}

func (brokenStore) Ping(context.Context) error { return errors.New("db down") }
func (brokenStore) ListSortedByID(context.Context) ([]shop.Product, error) {
	return nil, catalog.ErrSchemaMissing
}
func (brokenStore) Get(context.Context, int64) (shop.Product, bool, error) {
	return shop.Product{}, false, catalog.ErrSchemaMissing
}

func TestCatalog_StoreErrors(t *testing.T) {
	ts := newCatalogTS(t, brokenStore{}, catalog.HTTPDeps{})

	assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, ts.URL+"/readyz", nil))
	assert.Equal(t, http.StatusInternalServerError, getJSON(t, ts.URL+"/products", nil))

	_, err := remote.NewClient(ts.URL, time.Second).FetchProducts(context.Background())
	assert.True(t, errors.Is(err, remote.ErrCatalogBadStatus), "%v", err)
}
