// Package kalshi provides a client for the public Kalshi market-data API.
// No authentication is required for the endpoints used here: the bulk event
// listing (with nested market quotes) and per-market historical candlesticks.
//
// The client retries transport failures and 5xx responses with a linear
// backoff. Non-retryable responses (4xx) fail immediately.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL serves all markets (crypto, economics, politics, ...)
// despite the "elections" host name.
const DefaultBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

// Client provides access to the Kalshi REST API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetries sets the retry configuration.
func WithRetries(max int, delayBase time.Duration) ClientOption {
	return func(c *Client) {
		if max > 0 {
			c.maxRetries = max
		}
		if delayBase > 0 {
			c.retryDelayBase = delayBase
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Kalshi client. An empty baseURL selects
// DefaultBaseURL; a non-positive timeout defaults to 30 seconds.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: timeout},
		maxRetries:     3,
		retryDelayBase: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetEvents fetches events filtered by status, optionally with their market
// quotes nested. The API caps limit at 200.
func (c *Client) GetEvents(ctx context.Context, status string, withNestedMarkets bool, limit int) (*EventsResponse, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	query.Set("with_nested_markets", strconv.FormatBool(withNestedMarkets))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var resp EventsResponse
	if err := c.get(ctx, "/events", query, &resp); err != nil {
		return nil, fmt.Errorf("get events: %w", err)
	}
	return &resp, nil
}

// GetMarketCandlesticks fetches historical price candles for one market.
// periodInterval is the bucket size in minutes (1, 60, or 1440).
func (c *Client) GetMarketCandlesticks(ctx context.Context, seriesTicker, marketTicker string, startTs, endTs int64, periodInterval int) (*CandlesticksResponse, error) {
	query := url.Values{}
	query.Set("start_ts", strconv.FormatInt(startTs, 10))
	query.Set("end_ts", strconv.FormatInt(endTs, 10))
	query.Set("period_interval", strconv.Itoa(periodInterval))

	path := fmt.Sprintf("/series/%s/markets/%s/candlesticks", seriesTicker, marketTicker)
	var resp CandlesticksResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get candlesticks for %s: %w", marketTicker, err)
	}
	return &resp, nil
}

// get performs a GET request with retry and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}
