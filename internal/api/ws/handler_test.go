package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplist/shopping-gateway/internal/domain/shopping"
)

type listFunc func(ctx context.Context) ([]shopping.Item, error)

func (f listFunc) FetchList(ctx context.Context) ([]shopping.Item, error) {
	return f(ctx)
}

type pricerFunc func(ctx context.Context, item shopping.Item) shopping.PriceResult

func (f pricerFunc) GetPrice(ctx context.Context, item shopping.Item) shopping.PriceResult {
	return f(ctx, item)
}

func dial(t *testing.T, lists listFunc, p pricerFunc) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/stream", NewHandler(lists, shopping.NewAggregator(p, 0), nil).HandleConnection)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readAll returns every text message and the close code ending the stream
func readAll(t *testing.T, conn *websocket.Conn) ([]map[string]interface{}, int) {
	t.Helper()

	var messages []map[string]interface{}
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			return messages, closeErr.Code
		}

		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &msg))
		messages = append(messages, msg)
	}
}

func TestStreamSendsOneMessagePerItem(t *testing.T) {
	conn := dial(t, func(ctx context.Context) ([]shopping.Item, error) {
		return []shopping.Item{{Name: "coffee", Quantity: 2}, {Name: "bacon", Quantity: 1}}, nil
	}, func(ctx context.Context, item shopping.Item) shopping.PriceResult {
		if item.Name == "bacon" {
			return shopping.Unavailable(item)
		}
		return shopping.Priced(item, decimal.NewFromInt(3))
	})

	messages, code := readAll(t, conn)

	assert.Equal(t, websocket.CloseNormalClosure, code)
	require.Len(t, messages, 2)
	byName := map[string]map[string]interface{}{}
	for _, m := range messages {
		byName[m["name"].(string)] = m
	}
	assert.Equal(t, true, byName["coffee"]["available"])
	assert.Equal(t, float64(3), byName["coffee"]["price"])
	assert.Equal(t, false, byName["bacon"]["available"])
	assert.Nil(t, byName["bacon"]["price"])
}

func TestStreamListUnavailable(t *testing.T) {
	conn := dial(t, func(ctx context.Context) ([]shopping.Item, error) {
		return nil, shopping.ErrBackendUnavailable
	}, nil)

	messages, code := readAll(t, conn)

	assert.Equal(t, websocket.CloseInternalServerErr, code)
	require.Len(t, messages, 1)
	assert.Equal(t, "shopping backend unavailable", messages[0]["error"])
}

func TestStreamPricingFailureCloses(t *testing.T) {
	conn := dial(t, func(ctx context.Context) ([]shopping.Item, error) {
		return []shopping.Item{{Name: "coffee", Quantity: 1}}, nil
	}, func(ctx context.Context, item shopping.Item) shopping.PriceResult {
		panic("broken pricer")
	})

	messages, code := readAll(t, conn)

	assert.Empty(t, messages)
	assert.Equal(t, websocket.CloseInternalServerErr, code)
}
