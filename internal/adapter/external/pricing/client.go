// Package pricing calls the external pricing service for SKU quotes.
package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"faultline/internal/catalog"
	"faultline/internal/fault"
	"faultline/internal/faults"
	"faultline/internal/platform/httpclient"
	"faultline/pkg/retry"
)

// Client fetches quotes over HTTP. It implements catalog.PriceQuoter.
type Client struct {
	base  string
	hc    *httpclient.Client
	retry retry.Config
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithRetryConfig overrides the retry policy for quote calls.
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) { c.retry = cfg }
}

// New creates a pricing client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: baseURL,
		hc:   httpclient.New(httpclient.WithTimeout(10 * time.Second)),
		retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type quoteResponse struct {
	SKU        string `json:"sku"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// Quote asks the pricing service for the current price of sku. Transport
// failures and non-200 responses come back as typed upstream faults with
// the response body attached as opaque diagnostic payload.
func (c *Client) Quote(ctx context.Context, sku string) (catalog.Quote, error) {
	endpoint := fmt.Sprintf("%s/v1/quotes/%s", c.base, url.PathEscape(sku))

	var out quoteResponse
	err := retry.Do(ctx, c.retry, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.hc.Do(ctx, req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{code: resp.StatusCode, body: body}
		}
		return json.Unmarshal(body, &out)
	})
	if err != nil {
		return catalog.Quote{}, faults.ErrUpstreamCall.Wrap(err,
			fault.F("endpoint", endpoint),
			fault.F("meta", map[string]any{"sku": sku, "attempts": c.retry.MaxAttempts}),
			fault.Opaque("payload", payloadOf(err)),
		)
	}

	return catalog.Quote{SKU: out.SKU, PriceCents: out.PriceCents, Currency: out.Currency}, nil
}

// statusError carries a non-200 upstream response through the retry loop.
type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("pricing: unexpected status %d", e.code)
}

func payloadOf(err error) string {
	var se *statusError
	if errors.As(err, &se) {
		return string(se.body)
	}
	return ""
}
