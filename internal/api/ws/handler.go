package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/monitoring"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler streams the priced shopping list over a WebSocket
type Handler struct {
	lists      shopping.ListSource
	aggregator *shopping.Aggregator
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(lists shopping.ListSource, aggregator *shopping.Aggregator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		lists:      lists,
		aggregator: aggregator,
		logger:     logger,
	}
}

// WithMetrics sets the metrics collector
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection sends one text message per priced item, then closes the
// socket: 1000 once every item was sent, 1011 when the list could not be
// fetched or pricing failed.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client never sends data; reading only surfaces its close.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	end := func(string) {}
	if h.metrics != nil {
		end = h.metrics.StreamStarted()
	}

	items, err := h.lists.FetchList(ctx)
	if err != nil {
		end("list_unavailable")
		_ = h.send(conn, map[string]string{"error": shopping.ErrBackendUnavailable.Error()})
		h.close(conn, websocket.CloseInternalServerErr, "shopping backend unavailable")
		return
	}

	seq := h.aggregator.Enrich(ctx, items)
	for result := range seq.Results() {
		line := result.Line()
		if err := h.send(conn, line); err != nil {
			cancel()
			end("disconnected")
			return
		}
		if h.metrics != nil {
			h.metrics.RecordStreamedLine(line.Available)
		}
	}

	if err := seq.Err(); err != nil {
		if ctx.Err() != nil {
			end("disconnected")
			return
		}
		end("aborted")
		h.logger.Error("aborting websocket stream", zap.Error(err), tracing.Field(ctx))
		h.close(conn, websocket.CloseInternalServerErr, "pricing failed")
		return
	}

	end("complete")
	h.close(conn, websocket.CloseNormalClosure, "complete")
}

func (h *Handler) send(conn *websocket.Conn, v interface{}) error {
	data, err := sonic.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Handler) close(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
