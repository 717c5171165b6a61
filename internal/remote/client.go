package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"PocketStore/internal/shop"
)

const (
	defaultTimeout = 10 * time.Second
	maxCatalogBody = 16 << 20
)

var (
	ErrCatalogBadStatus   = errors.New("catalog bad status")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrCatalogDecode      = errors.New("catalog decode failed")
)

// Client reads the full product catalog from a fakestore-compatible API.
type Client struct {
	BaseURL string
	Client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchProducts(ctx context.Context) ([]shop.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/products", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, errors.Wrap(ErrCatalogUnavailable, "timeout")
		}
		return nil, errors.Wrap(ErrCatalogUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrap(ErrCatalogBadStatus, fmt.Sprintf("status=%d", resp.StatusCode))
	}

	var products []shop.Product
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxCatalogBody)).Decode(&products); err != nil {
		return nil, errors.Wrap(ErrCatalogDecode, err.Error())
	}
	if products == nil {
		products = []shop.Product{}
	}
	return products, nil
}
