package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplist/shopping-gateway/internal/infrastructure/config"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/discovery"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/resilience"
)

func backends(t *testing.T, pricer http.HandlerFunc) (listURL, pricerURL string) {
	t.Helper()

	list := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"coffee":2,"bacon":1,"eggs":3}`)
	}))
	t.Cleanup(list.Close)

	prices := httptest.NewServer(pricer)
	t.Cleanup(prices.Close)

	return list.URL, prices.URL
}

func newTestServer(t *testing.T, pricer http.HandlerFunc) (*Server, *httptest.Server) {
	t.Helper()

	listURL, pricerURL := backends(t, pricer)

	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.RateLimit.Enabled = false
	cfg.ListBackend.URL = listURL
	cfg.Pricer.Discovery = "static"
	cfg.Pricer.URL = pricerURL
	cfg.Breaker.CallTimeout = 200 * time.Millisecond

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func readLines(t *testing.T, resp *http.Response) []map[string]interface{} {
	t.Helper()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestEndToEndPricedList(t *testing.T) {
	_, srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/prices/")
		_, _ = io.WriteString(w, `{"name":"`+name+`","price":1.5}`)
	})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/x-ndjson", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))

	lines := readLines(t, resp)
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 1.5, line["price"])
		assert.Equal(t, true, line["available"])
	}
}

func TestEndToEndPricerDownOpensBreaker(t *testing.T) {
	s, srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	lines := readLines(t, resp)
	resp.Body.Close()

	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, false, line["available"])
		assert.Nil(t, line["price"])
	}
	assert.Equal(t, resilience.StateOpen, s.Breaker().State())

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	assert.Contains(t, string(body), `shopping_gateway_breaker_transitions_total{breaker="pricer",from="closed",to="open"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestEndToEndHealthAndBreaker(t *testing.T) {
	_, srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	resp, err = http.Get(srv.URL + "/breaker")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, "closed", snap["state"])
}

func TestNewResolver(t *testing.T) {
	r, err := newResolver(config.PricerConfig{Service: "pricer-service", URL: "http://p:1", Discovery: "static"})
	require.NoError(t, err)
	assert.IsType(t, discovery.Static{}, r)

	r, err = newResolver(config.PricerConfig{Service: "pricer-service", Discovery: "env"})
	require.NoError(t, err)
	assert.IsType(t, discovery.KubernetesEnv{}, r)

	r, err = newResolver(config.PricerConfig{Service: "pricer-service", URL: "http://p:1", Discovery: "env"})
	require.NoError(t, err)
	url, err := r.Resolve(context.Background(), "pricer-service")
	require.NoError(t, err)
	assert.Equal(t, "http://p:1", url)

	_, err = newResolver(config.PricerConfig{Discovery: "dns"})
	assert.Error(t, err)
}

func TestRunAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run() }()

	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}
