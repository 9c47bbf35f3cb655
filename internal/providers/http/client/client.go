package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/shoplist/shopping-gateway/internal/infrastructure/tracing"
)

// ErrStatus marks a response with a non-2xx status code
var ErrStatus = errors.New("unexpected response status")

// Options configures a Client
type Options struct {
	// BaseURL is prepended to relative request paths; may be empty
	BaseURL string
	// Timeout bounds a whole request including retries
	Timeout time.Duration
	// RetryCount is the number of retries on transport errors; 0 disables them
	RetryCount   int
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	// RateLimit caps outgoing requests per second; <= 0 means unlimited
	RateLimit float64
	UserAgent string
}

// DefaultOptions returns options for a backend called on the request path:
// no retries, a 5 second timeout, unlimited rate.
func DefaultOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		RetryWait:    100 * time.Millisecond,
		RetryMaxWait: 2 * time.Second,
		UserAgent:    "shopping-list-service/1.0",
	}
}

// Client wraps resty with rate limiting and trace propagation
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Mu      sync.RWMutex
}

// New creates a client on a pooled transport
func New(opts Options) *Client {
	// retryablehttp only contributes its pooled transport; resty drives retries
	pooled := retryablehttp.NewClient()
	pooled.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTransport(pooled.HTTPClient.Transport).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryMaxWait)

	if opts.UserAgent != "" {
		restyClient.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.BaseURL != "" {
		restyClient.SetBaseURL(opts.BaseURL)
	}

	restyClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		tracing.InjectTraceContext(req.Context(), req.Header)
		return nil
	})

	c := &Client{Resty: restyClient}
	c.SetRateLimit(opts.RateLimit)
	return c
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
	}
}

// Request creates a new request bound to ctx once the rate limiter allows it
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// CheckStatus turns a non-2xx response into an error wrapping ErrStatus
func CheckStatus(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("%w: %s %s returned %d", ErrStatus, resp.Request.Method, resp.Request.URL, resp.StatusCode())
}
