package shopping

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	domain "github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/monitoring"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
	"github.com/shoplist/shopping-gateway/internal/providers/http/client"
)

// ListPath is the list backend resource
const ListPath = "/shopping"

// Gateway talks to the shopping list backend
type Gateway struct {
	client  *client.Client
	baseURL string
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewGateway creates a gateway for the backend at baseURL
func NewGateway(c *client.Client, baseURL string, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// WithMetrics sets the metrics collector
func (g *Gateway) WithMetrics(metrics *monitoring.Metrics) *Gateway {
	g.metrics = metrics
	return g
}

// FetchList retrieves the current list. Every failure wraps
// domain.ErrBackendUnavailable.
func (g *Gateway) FetchList(ctx context.Context) ([]domain.Item, error) {
	start := time.Now()

	items, err := g.fetch(ctx)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		g.logger.Warn("shopping list fetch failed", zap.Error(err), tracing.Field(ctx))
	} else {
		g.logger.Debug("shopping list fetched", zap.Int("items", len(items)), tracing.Field(ctx))
	}
	if g.metrics != nil {
		g.metrics.RecordListFetch(outcome, time.Since(start))
	}
	return items, err
}

func (g *Gateway) fetch(ctx context.Context) ([]domain.Item, error) {
	req, err := g.client.Request(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	resp, err := req.Get(g.baseURL + ListPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if err := client.CheckStatus(resp); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	items, err := DecodeList(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("%w: malformed list: %v", domain.ErrBackendUnavailable, err)
	}
	return items, nil
}

// Add stores an item, replacing the quantity of an existing entry
func (g *Gateway) Add(ctx context.Context, item domain.Item) error {
	if err := item.Validate(); err != nil {
		return err
	}

	body, err := sonic.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	req, err := g.client.Request(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	resp, err := req.
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(g.baseURL + ListPath)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if err := client.CheckStatus(resp); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	g.logger.Info("shopping item added", zap.String("name", item.Name), zap.Int("quantity", item.Quantity))
	return nil
}

// Remove deletes an item by name
func (g *Gateway) Remove(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", domain.ErrInvalidItem)
	}

	req, err := g.client.Request(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	resp, err := req.Delete(g.baseURL + ListPath + "/" + url.PathEscape(name))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	if err := client.CheckStatus(resp); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	g.logger.Info("shopping item removed", zap.String("name", name))
	return nil
}
