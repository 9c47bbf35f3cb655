package pricer

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"github.com/shoplist/shopping-gateway/internal/infrastructure/discovery"
	"github.com/shoplist/shopping-gateway/internal/providers/http/client"
)

// PricePath is the pricer resource; the item name is appended
const PricePath = "/prices/"

// ErrMalformedPrice is returned when the pricer answers without a usable price
var ErrMalformedPrice = errors.New("malformed price")

// PriceSource is the raw, unprotected pricer call
type PriceSource interface {
	PriceOf(ctx context.Context, name string) (decimal.Decimal, error)
}

type priceResponse struct {
	Name  string              `json:"name"`
	Price decimal.NullDecimal `json:"price"`
}

// HTTPSource calls the pricer service over HTTP, locating it on every call
type HTTPSource struct {
	client   *client.Client
	resolver discovery.Resolver
	service  string
}

// NewHTTPSource creates a source for the named service
func NewHTTPSource(c *client.Client, resolver discovery.Resolver, service string) *HTTPSource {
	return &HTTPSource{
		client:   c,
		resolver: resolver,
		service:  service,
	}
}

// PriceOf implements PriceSource
func (s *HTTPSource) PriceOf(ctx context.Context, name string) (decimal.Decimal, error) {
	base, err := s.resolver.Resolve(ctx, s.service)
	if err != nil {
		return decimal.Zero, fmt.Errorf("locate %s: %w", s.service, err)
	}

	req, err := s.client.Request(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	resp, err := req.Get(base + PricePath + url.PathEscape(name))
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q: %w", name, err)
	}
	if err := client.CheckStatus(resp); err != nil {
		return decimal.Zero, err
	}

	var body priceResponse
	if err := sonic.Unmarshal(resp.Body(), &body); err != nil {
		return decimal.Zero, fmt.Errorf("decode price of %q: %w", name, err)
	}
	if !body.Price.Valid {
		return decimal.Zero, fmt.Errorf("%w: no price for %q", ErrMalformedPrice, name)
	}
	if body.Price.Decimal.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price for %q: %s", ErrMalformedPrice, name, body.Price.Decimal)
	}
	return body.Price.Decimal, nil
}
