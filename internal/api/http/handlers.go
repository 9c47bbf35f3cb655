package http

import (
	"context"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/monitoring"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/resilience"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
)

// ContentType of the streamed list
const ContentType = "application/x-ndjson"

// Stream end reasons, used as metric labels
const (
	EndComplete        = "complete"
	EndDisconnected    = "disconnected"
	EndAborted         = "aborted"
	EndListUnavailable = "list_unavailable"
)

// BreakerStatus exposes the pricer breaker for inspection
type BreakerStatus interface {
	Snapshot() resilience.Snapshot
}

// Handlers contains HTTP request handlers
type Handlers struct {
	lists      shopping.ListSource
	aggregator *shopping.Aggregator
	breaker    BreakerStatus
	logger     *zap.Logger
	metrics    *monitoring.Metrics
}

// NewHandlers creates a new handlers instance
func NewHandlers(lists shopping.ListSource, aggregator *shopping.Aggregator, breaker BreakerStatus, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		lists:      lists,
		aggregator: aggregator,
		breaker:    breaker,
		logger:     logger,
	}
}

// WithMetrics sets the metrics collector
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// Breaker returns the pricer breaker state and counters
func (h *Handlers) Breaker(c *gin.Context) {
	c.JSON(http.StatusOK, h.breaker.Snapshot())
}

// ShoppingList fetches the list and streams one priced line per item as
// soon as its lookup resolves. A list failure is answered with 503 before
// any line is written. An internal failure mid-stream drops the connection
// so the client cannot mistake a partial list for a complete one.
func (h *Handlers) ShoppingList(c *gin.Context) {
	end := h.streamStarted()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	items, err := h.lists.FetchList(ctx)
	if err != nil {
		end(EndListUnavailable)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   shopping.ErrBackendUnavailable.Error(),
			"details": err.Error(),
		})
		return
	}

	c.Header("Content-Type", ContentType)
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	seq := h.aggregator.Enrich(ctx, items)
	written := 0
	for result := range seq.Results() {
		if err := h.writeLine(c, result); err != nil {
			cancel()
			end(EndDisconnected)
			h.logger.Debug("client went away mid-stream",
				zap.Int("written", written),
				zap.Int("items", len(items)),
				zap.Error(err),
				tracing.Field(ctx))
			return
		}
		written++
	}

	err = seq.Err()
	switch {
	case err == nil:
		end(EndComplete)
	case c.Request.Context().Err() != nil:
		end(EndDisconnected)
	default:
		end(EndAborted)
		h.logger.Error("aborting shopping list stream",
			zap.Int("written", written),
			zap.Int("items", len(items)),
			zap.Error(err),
			tracing.Field(ctx))
		_ = c.Error(err)
		panic(http.ErrAbortHandler)
	}
}

func (h *Handlers) writeLine(c *gin.Context, result shopping.PriceResult) error {
	line := result.Line()
	data, err := sonic.Marshal(line)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if _, err := c.Writer.Write(data); err != nil {
		return err
	}
	c.Writer.Flush()

	if h.metrics != nil {
		h.metrics.RecordStreamedLine(line.Available)
	}
	return c.Request.Context().Err()
}

func (h *Handlers) streamStarted() func(string) {
	if h.metrics == nil {
		return func(string) {}
	}
	return h.metrics.StreamStarted()
}
