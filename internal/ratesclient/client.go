// Package ratesclient fetches display rates from the rate API for the web
// front end. It never fails: when live rates cannot be read it returns the
// fallback table and marks the result degraded.
package ratesclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/keystonemortgage/backend/internal/model"
)

// ErrNoRates is reported when the API answers with an empty rate list.
var ErrNoRates = errors.New("rate API returned no rates")

const maxResponseBytes = 2 << 20

// Config holds the client settings. CacheTTL applies to FetchPrerender only
// and is unrelated to the server's staleness threshold.
type Config struct {
	BaseURL  string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// DefaultConfig returns the local development settings
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:8080",
		CacheTTL: 4 * time.Hour,
		Timeout:  10 * time.Second,
	}
}

// PayloadCache stores raw API responses for pre-rendering.
type PayloadCache interface {
	Get(ctx context.Context, key string, maxAge time.Duration) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// Result is what the front end renders.
type Result struct {
	Rates       []model.DisplayRate `json:"rates"`
	Degraded    bool                `json:"degraded"`
	Reason      string              `json:"reason,omitempty"`
	Source      string              `json:"source"`
	LastUpdated time.Time           `json:"lastUpdated"`
	DataAge     int                 `json:"dataAge"`
	Stale       bool                `json:"stale"`
	Region      string              `json:"region,omitempty"`
	FromCache   bool                `json:"fromCache,omitempty"`
}

// Client calls GET /api/rates
type Client struct {
	cfg        Config
	httpClient *http.Client
	cache      PayloadCache
	logger     *slog.Logger
}

// New creates a client. httpClient, cache and logger may be nil; without a
// cache FetchPrerender always goes to the API.
func New(cfg Config, httpClient *http.Client, cache PayloadCache, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{cfg: cfg, httpClient: httpClient, cache: cache, logger: logger}
}

// Fetch reads live rates for an interactive page load. No cache is used.
func (c *Client) Fetch(ctx context.Context, region string) Result {
	_, result, err := c.fetch(ctx, region, false)
	if err != nil {
		return c.degraded(region, err)
	}
	return result
}

// FetchPrerender reads rates for a server-side render, serving a cached
// response younger than CacheTTL when one exists. Degraded results are
// never cached.
func (c *Client) FetchPrerender(ctx context.Context, region string) Result {
	key := cacheKey(region)

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		payload, ok, err := c.cache.Get(ctx, key, c.cfg.CacheTTL)
		switch {
		case err != nil:
			c.logger.Warn("rate cache read failed", "key", key, "error", err)
		case ok:
			if result, err := decodeResult(payload); err == nil {
				result.FromCache = true
				return result
			}
			c.logger.Warn("discarding unreadable cached rates", "key", key)
		}
	}

	body, result, err := c.fetch(ctx, region, true)
	if err != nil {
		return c.degraded(region, err)
	}

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.Set(ctx, key, body); err != nil {
			c.logger.Warn("rate cache write failed", "key", key, "error", err)
		}
	}
	return result
}

func (c *Client) fetch(ctx context.Context, region string, prerender bool) ([]byte, Result, error) {
	endpoint := c.cfg.BaseURL + "/api/rates"
	if region != "" {
		endpoint += "?" + url.Values{"region": {region}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if prerender {
		req.Header.Set("Cache-Control", fmt.Sprintf("max-age=%d", int(c.cfg.CacheTTL.Seconds())))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, Result{}, fmt.Errorf("request rates: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, Result{}, fmt.Errorf("read rates: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, Result{}, statusError(resp.StatusCode, body)
	}

	result, err := decodeResult(body)
	if err != nil {
		return nil, Result{}, err
	}
	return body, result, nil
}

func (c *Client) degraded(region string, cause error) Result {
	c.logger.Warn("serving fallback rates",
		"region", region,
		"reason", cause.Error(),
	)
	return Result{
		Rates:    FallbackRates(),
		Degraded: true,
		Reason:   cause.Error(),
		Source:   FallbackSource,
		Region:   region,
	}
}

func decodeResult(body []byte) (Result, error) {
	var resp model.RatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, fmt.Errorf("decode rates: %w", err)
	}

	var rates []model.DisplayRate
	for _, provider := range resp.Rates {
		rates = append(rates, provider.Rates...)
	}
	if len(rates) == 0 {
		return Result{}, ErrNoRates
	}

	return Result{
		Rates:       rates,
		Source:      resp.Source,
		LastUpdated: resp.LastUpdated,
		DataAge:     resp.DataAge,
		Stale:       resp.Stale,
		Region:      resp.Region,
	}, nil
}

func statusError(status int, body []byte) error {
	var unavailable model.UnavailableResponse
	if json.Unmarshal(body, &unavailable) == nil && unavailable.Error != "" {
		return fmt.Errorf("rate API returned %d: %s", status, unavailable.Error)
	}
	return fmt.Errorf("rate API returned %d", status)
}

func cacheKey(region string) string {
	if region == "" {
		return "rates:default"
	}
	return "rates:" + strings.ToLower(region)
}
