package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shoplist/shopping-gateway/internal/api/middleware"
	"github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/monitoring"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/resilience"
	"github.com/shoplist/shopping-gateway/internal/providers/pricer"
)

type listFunc func(ctx context.Context) ([]shopping.Item, error)

func (f listFunc) FetchList(ctx context.Context) ([]shopping.Item, error) {
	return f(ctx)
}

type sourceFunc func(ctx context.Context, name string) (decimal.Decimal, error)

func (f sourceFunc) PriceOf(ctx context.Context, name string) (decimal.Decimal, error) {
	return f(ctx, name)
}

type fixture struct {
	router  *gin.Engine
	breaker *resilience.Breaker
	metrics *monitoring.Metrics
	calls   *int32
}

func newFixture(t *testing.T, lists listFunc, source sourceFunc) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var calls int32
	counted := sourceFunc(func(ctx context.Context, name string) (decimal.Decimal, error) {
		atomic.AddInt32(&calls, 1)
		return source(ctx, name)
	})

	breaker := resilience.New("pricer", resilience.Settings{
		MaxFailures:  3,
		ResetTimeout: time.Minute,
		CallTimeout:  time.Second,
	})
	metrics := monitoring.NewMetrics(prometheus.NewRegistry())

	gw := pricer.NewGateway(counted, breaker, nil)
	handlers := NewHandlers(lists, shopping.NewAggregator(gw, 0), breaker, nil).WithMetrics(metrics)

	router := gin.New()
	router.Use(middleware.Recovery(zap.NewNop()))
	handlers.Register(router)

	return &fixture{router: router, breaker: breaker, metrics: metrics, calls: &calls}
}

func (f *fixture) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func staticList(items ...shopping.Item) listFunc {
	return func(ctx context.Context) ([]shopping.Item, error) {
		return items, nil
	}
}

func breakfast() listFunc {
	return staticList(
		shopping.Item{Name: "coffee", Quantity: 2},
		shopping.Item{Name: "bacon", Quantity: 1},
		shopping.Item{Name: "eggs", Quantity: 3},
	)
}

func decodeLines(t *testing.T, body string) []map[string]interface{} {
	t.Helper()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(strings.NewReader(body))
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line), "line %q", scanner.Text())
		lines = append(lines, line)
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestShoppingListStreamsInCompletionOrder(t *testing.T) {
	prices := map[string]string{"coffee": "4.2", "bacon": "6.5", "eggs": "2"}
	f := newFixture(t, breakfast(), func(ctx context.Context, name string) (decimal.Decimal, error) {
		if name == "bacon" {
			time.Sleep(200 * time.Millisecond)
		}
		return decimal.RequireFromString(prices[name]), nil
	})

	w := f.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ContentType, w.Header().Get("Content-Type"))

	lines := decodeLines(t, w.Body.String())
	require.Len(t, lines, 3)
	assert.Equal(t, "bacon", lines[2]["name"])
	for _, line := range lines {
		assert.Equal(t, true, line["available"])
		assert.NotNil(t, line["price"])
	}
	assert.Equal(t, float64(3), testutil.ToFloat64(f.metrics.StreamedLines.WithLabelValues("true")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StreamsEnded.WithLabelValues(EndComplete)))
}

func TestShoppingListLineFormat(t *testing.T) {
	f := newFixture(t, staticList(shopping.Item{Name: "coffee", Quantity: 2}),
		func(ctx context.Context, name string) (decimal.Decimal, error) {
			return decimal.RequireFromString("4.20"), nil
		})

	w := f.get("/")
	assert.Equal(t, "{\"name\":\"coffee\",\"quantity\":2,\"price\":4.2,\"available\":true}\n", w.Body.String())
}

func TestShoppingListOpenBreakerSkipsPricer(t *testing.T) {
	f := newFixture(t, breakfast(), func(ctx context.Context, name string) (decimal.Decimal, error) {
		return decimal.NewFromInt(1), nil
	})

	for i := 0; i < 3; i++ {
		_, _ = f.breaker.Execute(context.Background(), func(context.Context) (interface{}, error) {
			return nil, errors.New("pricer down")
		})
	}
	require.Equal(t, resilience.StateOpen, f.breaker.State())

	w := f.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	lines := decodeLines(t, w.Body.String())
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, false, line["available"])
		assert.Contains(t, line, "price")
		assert.Nil(t, line["price"])
	}
	assert.Zero(t, atomic.LoadInt32(f.calls))
}

func TestShoppingListPricerFailuresDegrade(t *testing.T) {
	f := newFixture(t, breakfast(), func(ctx context.Context, name string) (decimal.Decimal, error) {
		if name == "bacon" {
			return decimal.Zero, errors.New("no bacon price")
		}
		return decimal.NewFromInt(1), nil
	})

	w := f.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	available := map[string]bool{}
	for _, line := range decodeLines(t, w.Body.String()) {
		available[line["name"].(string)] = line["available"].(bool)
	}
	assert.Equal(t, map[string]bool{"coffee": true, "bacon": false, "eggs": true}, available)
}

func TestShoppingListEmpty(t *testing.T) {
	f := newFixture(t, staticList(), func(ctx context.Context, name string) (decimal.Decimal, error) {
		return decimal.NewFromInt(1), nil
	})

	w := f.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Zero(t, atomic.LoadInt32(f.calls))
}

func TestShoppingListBackendUnavailable(t *testing.T) {
	f := newFixture(t, func(ctx context.Context) ([]shopping.Item, error) {
		return nil, shopping.ErrBackendUnavailable
	}, func(ctx context.Context, name string) (decimal.Decimal, error) {
		return decimal.NewFromInt(1), nil
	})

	w := f.get("/")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "shopping backend unavailable", body["error"])
	assert.Zero(t, atomic.LoadInt32(f.calls))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.StreamsEnded.WithLabelValues(EndListUnavailable)))
}

type pricerFunc func(ctx context.Context, item shopping.Item) shopping.PriceResult

func (f pricerFunc) GetPrice(ctx context.Context, item shopping.Item) shopping.PriceResult {
	return f(ctx, item)
}

func TestShoppingListInternalErrorDropsConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)

	broken := pricerFunc(func(ctx context.Context, item shopping.Item) shopping.PriceResult {
		if item.Name == "bacon" {
			time.Sleep(50 * time.Millisecond)
			panic("aggregation bug")
		}
		return shopping.Priced(item, decimal.NewFromInt(1))
	})
	breaker := resilience.New("pricer", resilience.DefaultSettings())
	handlers := NewHandlers(breakfast(), shopping.NewAggregator(broken, 0), breaker, nil)

	router := gin.New()
	router.Use(middleware.Recovery(zap.NewNop()))
	handlers.Register(router)

	srv := httptest.NewServer(router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_, err = io.ReadAll(resp.Body)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestShoppingListPricerPanicDegrades(t *testing.T) {
	f := newFixture(t, breakfast(), func(ctx context.Context, name string) (decimal.Decimal, error) {
		if name == "bacon" {
			panic("pricer client bug")
		}
		return decimal.NewFromInt(1), nil
	})

	w := f.get("/")

	assert.Equal(t, http.StatusOK, w.Code)
	lines := decodeLines(t, w.Body.String())
	require.Len(t, lines, 3)
	for _, line := range lines {
		if line["name"] == "bacon" {
			assert.Equal(t, false, line["available"])
			assert.Nil(t, line["price"])
		}
	}
	assert.Equal(t, uint32(1), f.breaker.Counts().TotalFailures)
}

func TestShoppingListClientDisconnectIsNotAFailure(t *testing.T) {
	release := make(chan struct{})
	f := newFixture(t, breakfast(), func(ctx context.Context, name string) (decimal.Decimal, error) {
		if name == "coffee" {
			return decimal.NewFromInt(1), nil
		}
		select {
		case <-release:
			return decimal.NewFromInt(1), nil
		case <-ctx.Done():
			return decimal.Zero, ctx.Err()
		}
	})
	defer close(release)

	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, "coffee")

	cancel()
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.StreamsEnded.WithLabelValues(EndDisconnected)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, f.breaker.Counts().TotalFailures)
	assert.Equal(t, resilience.StateClosed, f.breaker.State())
}

func TestHealth(t *testing.T) {
	f := newFixture(t, staticList(), nil)

	w := f.get("/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestBreakerSnapshot(t *testing.T) {
	f := newFixture(t, staticList(), nil)

	w := f.get("/breaker")

	assert.Equal(t, http.StatusOK, w.Code)
	var snap map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "pricer", snap["name"])
	assert.Equal(t, "closed", snap["state"])
}
