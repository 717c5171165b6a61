package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketStore/internal/shop"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8090", c.Addr)
	assert.Equal(t, "https://fakestoreapi.com", c.CatalogURL)
	assert.Equal(t, 10*time.Second, c.FetchTimeout)
	assert.Equal(t, 3*time.Second, c.PersistTimeout)
	assert.Equal(t, "sqlite", c.KV.Driver)
	assert.Equal(t, "pocketstore.db", c.KV.DSN)
	assert.Equal(t, "pocketstore/", c.KV.S3Prefix)
	assert.False(t, c.TerminalDelivery)
	require.NoError(t, c.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("POCKETSTORE_ADDR", ":9999")
	t.Setenv("POCKETSTORE_FETCH_TIMEOUT", "250ms")
	t.Setenv("POCKETSTORE_TERMINAL_DELIVERY", "true")
	t.Setenv("POCKETSTORE_KV_DRIVER", "s3")
	t.Setenv("POCKETSTORE_KV_S3_BUCKET", "shop-state")
	t.Setenv("POCKETSTORE_KV_S3_PATH_STYLE", "true")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", c.Addr)
	assert.Equal(t, 250*time.Millisecond, c.FetchTimeout)
	assert.Equal(t, "s3", c.KV.Driver)
	assert.Equal(t, "shop-state", c.KV.S3Bucket)
	assert.True(t, c.KV.S3PathStyle)

	_, err = c.Policy()(shop.StatusDelivered)
	assert.ErrorIs(t, err, shop.ErrInvalidTransition)
}

func TestLoad_BadDuration(t *testing.T) {
	t.Setenv("POCKETSTORE_PERSIST_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	c.CatalogURL = "fakestoreapi.com"
	assert.Error(t, c.Validate())

	c.CatalogURL = "http://localhost:8082"
	c.FetchTimeout = 0
	assert.Error(t, c.Validate())
}

func TestPolicy_DefaultIsCyclic(t *testing.T) {
	next, err := Config{}.Policy()(shop.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, shop.StatusProcessing, next)
}
