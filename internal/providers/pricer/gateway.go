package pricer

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shoplist/shopping-gateway/internal/domain/shopping"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/monitoring"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/resilience"
	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
)

// Lookup outcomes, used as metric labels
const (
	OutcomePriced      = "priced"
	OutcomeFailed      = "failed"
	OutcomeTimeout     = "timeout"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeCancelled   = "cancelled"
)

// Gateway prices items through a shared circuit breaker and never fails:
// every problem becomes an unavailable result
type Gateway struct {
	source  PriceSource
	breaker *resilience.Breaker
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewGateway creates a gateway guarding source with breaker
func NewGateway(source PriceSource, breaker *resilience.Breaker, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		source:  source,
		breaker: breaker,
		logger:  logger,
	}
}

// WithMetrics sets the metrics collector
func (g *Gateway) WithMetrics(metrics *monitoring.Metrics) *Gateway {
	g.metrics = metrics
	return g
}

// GetPrice implements shopping.Pricer
func (g *Gateway) GetPrice(ctx context.Context, item shopping.Item) shopping.PriceResult {
	start := time.Now()

	var lookupErr error
	price := resilience.Run(ctx, g.breaker,
		func(ctx context.Context) (decimal.NullDecimal, error) {
			p, err := g.source.PriceOf(ctx, item.Name)
			if err != nil {
				return decimal.NullDecimal{}, err
			}
			return decimal.NewNullDecimal(p), nil
		},
		func(err error) decimal.NullDecimal {
			lookupErr = err
			return decimal.NullDecimal{}
		},
	)

	outcome := Outcome(ctx, lookupErr)
	if g.metrics != nil {
		g.metrics.RecordPriceLookup(outcome, time.Since(start))
	}

	switch outcome {
	case OutcomePriced:
		return shopping.Priced(item, price.Decimal)
	case OutcomeCircuitOpen, OutcomeCancelled:
		g.logger.Debug("price lookup skipped",
			zap.String("item", item.Name),
			zap.String("outcome", outcome),
			tracing.Field(ctx))
	default:
		g.logger.Warn("price lookup failed",
			zap.String("item", item.Name),
			zap.String("outcome", outcome),
			zap.Error(lookupErr),
			tracing.Field(ctx))
	}
	return shopping.Unavailable(item)
}

// Outcome classifies the error of a guarded lookup
func Outcome(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return OutcomePriced
	case resilience.IsRejection(err):
		return OutcomeCircuitOpen
	case errors.Is(err, resilience.ErrCallTimeout):
		return OutcomeTimeout
	case ctx.Err() != nil:
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}
