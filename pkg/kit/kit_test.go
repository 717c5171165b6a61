package kit

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestIPRateLimiter(t *testing.T) {
	h := NewIPRateLimiter(2, time.Minute).Middleware(okHandler())

	call := func(remote, xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/checkout", nil)
		req.RemoteAddr = remote
		if xff != "" {
			req.Header.Set("X-Forwarded-For", xff)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1234", ""))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:5678", ""))
	assert.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:9999", ""))

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1234", ""))
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1234", "192.168.1.5, 10.0.0.1"))
}

func TestPrune(t *testing.T) {
	now := time.Now()
	ts := []time.Time{now.Add(-2 * time.Minute), now.Add(-30 * time.Second), now}
	assert.Len(t, prune(ts, now.Add(-time.Minute)), 2)
}

func TestMetricsAuth(t *testing.T) {
	cases := []struct {
		name, token, header string
		want                int
	}{
		{"no token configured", "", "Bearer x", http.StatusForbidden},
		{"missing header", "secret", "", http.StatusForbidden},
		{"wrong scheme", "secret", "Basic secret", http.StatusForbidden},
		{"wrong token", "secret", "Bearer nope", http.StatusForbidden},
		{"ok", "secret", "Bearer secret", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			MetricsAuth(tc.token)(okHandler()).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}
	decode := func(raw string) error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))
		var b body
		return DecodeJSON(httptest.NewRecorder(), req, &b)
	}

	assert.NoError(t, decode(`{"name":"a"}`))
	assert.Error(t, decode(`{"name":"a","extra":1}`))
	assert.Error(t, decode(`{"name":"a"}{"name":"b"}`))
	assert.Error(t, decode(`{"name":"`+strings.Repeat("x", MaxBodyBytes)+`"}`))
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("pocketstore", "debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	_, err = NewLogger("pocketstore", "loud")
	assert.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- Serve(ctx, ln, okHandler(), zap.NewNop()) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsMiddleware_LabelsByRoute(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware("test", nil))
	r.Get("/orders/{id}", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Post("/orders", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusConflict) })

	for _, p := range []string{"/orders/a", "/orders/b", "/nope/1", "/nope/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("test", "GET", "/orders/{id}", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("test", "GET", unmatchedRoute, "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("test", "POST", "/orders", "409")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.InFlight.WithLabelValues("test")))
}

func TestRouteLabel_OutsideChi(t *testing.T) {
	assert.Equal(t, unmatchedRoute, RouteLabel(httptest.NewRequest(http.MethodGet, "/x", nil)))
}
