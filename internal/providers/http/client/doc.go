// Package client provides the outbound HTTP client shared by the shopping
// and pricer gateways and the CLI.
//
// Built on go-resty/resty over the pooled transport from
// hashicorp/go-retryablehttp:
//   - Optional retries with exponential backoff
//   - Connection pooling and keep-alive
//   - Context-based cancellation
//   - Rate limiting per client instance
//   - Trace and span headers copied from the request context
//
// Example Usage:
//
//	c := client.New(client.DefaultOptions())
//	req, err := c.Request(ctx)
//	resp, err := req.Get(baseURL + "/shopping")
//	if err := client.CheckStatus(resp); err != nil { ... }
package client
