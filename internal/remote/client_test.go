package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketStore/internal/remote"
)

const fakestoreBody = `[
  {"id":1,"title":"Fjallraven - Foldsack No. 1 Backpack","price":109.95,"description":"Your perfect pack","category":"men's clothing","image":"https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg","rating":{"rate":3.9,"count":120}},
  {"id":2,"title":"Mens Casual Premium Slim Fit T-Shirts","price":22.3,"description":"Slim-fitting style","category":"men's clothing","image":"https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg","rating":{"rate":4.1,"count":259}},
  {"id":3,"title":"Mens Cotton Jacket","price":55.99,"description":null,"category":"men's clothing","image":null}
]`

func TestClient_FetchProducts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(fakestoreBody))
	}))
	t.Cleanup(ts.Close)

	c := remote.NewClient(ts.URL+"/", time.Second)
	products, err := c.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, "109.95", products[0].Price.String())
	require.NotNil(t, products[0].Rating)
	assert.Equal(t, 120, products[0].Rating.Count)
	assert.Nil(t, products[2].Image)
	assert.Nil(t, products[2].Description)
}

func TestClient_FetchProducts_BadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(ts.Close)

	_, err := remote.NewClient(ts.URL, time.Second).FetchProducts(context.Background())
	assert.True(t, errors.Is(err, remote.ErrCatalogBadStatus), "%v", err)
}

func TestClient_FetchProducts_Decode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"oops":`))
	}))
	t.Cleanup(ts.Close)

	_, err := remote.NewClient(ts.URL, time.Second).FetchProducts(context.Background())
	assert.True(t, errors.Is(err, remote.ErrCatalogDecode), "%v", err)
}

func TestClient_FetchProducts_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := remote.NewClient(url, time.Second).FetchProducts(context.Background())
	assert.True(t, errors.Is(err, remote.ErrCatalogUnavailable), "%v", err)
}

func TestClient_FetchProducts_Timeout(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		ts.Close()
	})

	_, err := remote.NewClient(ts.URL, 50*time.Millisecond).FetchProducts(context.Background())
	assert.True(t, errors.Is(err, remote.ErrCatalogUnavailable), "%v", err)
}

func TestClient_FetchProducts_Cancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := remote.NewClient(ts.URL, time.Second).FetchProducts(ctx)
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
}
