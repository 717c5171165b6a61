//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = getenv("E2E_BASE_URL", "http://localhost:8090")

func TestSystem_E2E_CheckoutSurvivesRestart(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	waitReady(t, ctx, baseURL+"/readyz")

	var products []map[string]any
	doJSON(t, http.MethodGet, baseURL+"/products", nil, &products, 200)
	if len(products) == 0 {
		t.Fatalf("expected a hydrated catalog")
	}

	pid, _ := products[0]["id"].(float64)
	if pid == 0 {
		t.Fatalf("product id missing in response: %#v", products[0])
	}

	doJSON(t, http.MethodDelete, baseURL+"/cart", nil, nil, 204)
	doJSON(t, http.MethodPost, baseURL+"/cart", map[string]any{"product_id": pid}, nil, 201)
	doJSON(t, http.MethodPost, baseURL+"/cart", map[string]any{"product_id": pid}, nil, 201)

	var order map[string]any
	doJSON(t, http.MethodPost, baseURL+"/checkout", map[string]any{
		"shipping":   map[string]string{"name": "E2E", "address": "1 Test Street", "phone": "555-0100"},
		"method":     "cod",
		"clear_cart": true,
	}, &order, 201)

	orderID, _ := order["id"].(string)
	if orderID == "" {
		t.Fatalf("order id missing: %#v", order)
	}
	if order["status"] != "Processing" {
		t.Fatalf("status=%v want Processing", order["status"])
	}

	var advanced map[string]any
	doJSON(t, http.MethodPost, baseURL+"/orders/"+orderID+"/advance", nil, &advanced, 200)
	if advanced["status"] != "Packed" {
		t.Fatalf("status=%v want Packed", advanced["status"])
	}

	if os.Getenv("E2E_RESTART_POCKETSTORE") == "1" {
		restartContainer(t, ctx, "pocketstore")
		waitReady(t, ctx, baseURL+"/readyz")

		var got map[string]any
		doJSON(t, http.MethodGet, baseURL+"/orders/"+orderID, nil, &got, 200)
		if got["status"] != "Packed" {
			t.Fatalf("after restart status=%v want Packed", got["status"])
		}

		var cart map[string]any
		doJSON(t, http.MethodGet, baseURL+"/cart", nil, &cart, 200)
		if cart["count"] != float64(0) {
			t.Fatalf("cart must start empty after restart: %#v", cart)
		}
	}
}

func waitReady(t *testing.T, ctx context.Context, url string) {
	t.Helper()
	client := &http.Client{Timeout: 2 * time.Second}

	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil && resp != nil && resp.StatusCode == 200 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("service not ready: %s", url)
}

func doJSON(t *testing.T, method, url string, body any, out any, want int) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s: status=%d want=%d", method, url, resp.StatusCode, want)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
