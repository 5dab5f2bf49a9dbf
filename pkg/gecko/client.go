// Package gecko implements a minimal read-only client for the GeckoTerminal
// public API, scoped to a single pool.
package gecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"poolwatch/pkg/core"
)

const (
	// DefaultBaseURL is the public GeckoTerminal API endpoint.
	DefaultBaseURL = "https://api.geckoterminal.com/api/v2"

	requestTimeout = 30 * time.Second
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client fetches snapshots and trades for one pool. It carries no state
// between calls; failed requests are reported to the caller and simply
// retried on the next polling cycle.
type Client struct {
	baseURL string
	network string
	pool    string
	http    *http.Client
}

// Option is a function that configures a Client instance
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.http = httpClient
	}
}

// NewClient creates a client bound to one network/pool pair.
func NewClient(network, pool string, options ...Option) *Client {
	client := &Client{
		baseURL: DefaultBaseURL,
		network: network,
		pool:    pool,
		http:    &http.Client{Timeout: requestTimeout},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

type poolResponse struct {
	Data struct {
		Attributes struct {
			Name               string `json:"name"`
			FDVUSD             string `json:"fdv_usd"`
			BaseTokenPriceUSD  string `json:"base_token_price_usd"`
			QuoteTokenPriceUSD string `json:"quote_token_price_usd"`
		} `json:"attributes"`
	} `json:"data"`
}

type tradesResponse struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Kind           string `json:"kind"`
			VolumeInUSD    string `json:"volume_in_usd"`
			BlockTimestamp string `json:"block_timestamp"`
		} `json:"attributes"`
	} `json:"data"`
}

// Pool implements core.Feeder. An FDV missing from an otherwise well-formed
// response is not an error here; the caller distinguishes that case.
func (c *Client) Pool(ctx context.Context) (core.PoolSnapshot, error) {
	url := fmt.Sprintf("%s/networks/%s/pools/%s", c.baseURL, c.network, c.pool)

	var response poolResponse
	if err := c.get(ctx, url, &response); err != nil {
		return core.PoolSnapshot{}, fmt.Errorf("pool request failed: %w", err)
	}

	attributes := response.Data.Attributes
	return core.PoolSnapshot{
		Name:               attributes.Name,
		FDVUSD:             attributes.FDVUSD,
		BaseTokenPriceUSD:  attributes.BaseTokenPriceUSD,
		QuoteTokenPriceUSD: attributes.QuoteTokenPriceUSD,
	}, nil
}

// Trades implements core.Feeder.
func (c *Client) Trades(ctx context.Context) ([]core.Trade, error) {
	url := fmt.Sprintf("%s/networks/%s/pools/%s/trades", c.baseURL, c.network, c.pool)

	var response tradesResponse
	if err := c.get(ctx, url, &response); err != nil {
		return nil, fmt.Errorf("trades request failed: %w", err)
	}

	trades := make([]core.Trade, 0, len(response.Data))
	for _, entry := range response.Data {
		volume, err := strconv.ParseFloat(entry.Attributes.VolumeInUSD, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed trade volume %q: %w", entry.Attributes.VolumeInUSD, err)
		}

		timestamp, err := time.Parse(time.RFC3339, entry.Attributes.BlockTimestamp)
		if err != nil {
			return nil, fmt.Errorf("malformed trade timestamp %q: %w", entry.Attributes.BlockTimestamp, err)
		}

		trades = append(trades, core.Trade{
			ID:        entry.ID,
			Kind:      core.TradeKind(entry.Attributes.Kind),
			VolumeUSD: volume,
			Timestamp: timestamp.UTC(),
		})
	}

	return trades, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent)

	response, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", response.StatusCode)
	}

	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
