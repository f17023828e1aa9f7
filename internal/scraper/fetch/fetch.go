// Package fetch retrieves competitor and lender pages for snapshot producers.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/scraper/browser"
)

const maxBodyBytes = 10 << 20

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
}

// RandomUserAgent returns one of the desktop user agents
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}

// PageFetcher returns the raw body of a page
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]byte, error)
}

// Direct fetches pages with a plain HTTP client and browser-like headers
type Direct struct {
	client *http.Client
}

// NewDirect creates a direct fetcher. A nil client gets a 30s timeout.
func NewDirect(client *http.Client) *Direct {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Direct{client: client}
}

// Fetch implements PageFetcher
func (d *Direct) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", RandomUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/pdf;q=0.8,*/*;q=0.7")
	req.Header.Set("Accept-Language", "en-CA,en;q=0.9,fr-CA;q=0.7")
	req.Header.Set("Cache-Control", "max-age=0")

	return do(d.client, req)
}

// ScrapingAPI fetches through a hosted scraping proxy for sites that block
// datacenter traffic. The proxy receives the target as the url parameter.
type ScrapingAPI struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewScrapingAPI creates a scraping API fetcher
func NewScrapingAPI(client *http.Client, endpoint, apiKey string) *ScrapingAPI {
	if client == nil {
		client = &http.Client{Timeout: 90 * time.Second}
	}
	return &ScrapingAPI{client: client, endpoint: endpoint, apiKey: apiKey}
}

// Fetch implements PageFetcher
func (s *ScrapingAPI) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if s.endpoint == "" || s.apiKey == "" {
		return nil, errors.New("scraping API is not configured")
	}

	u, err := url.Parse(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing scraping API endpoint: %w", err)
	}
	q := u.Query()
	q.Set("api_key", s.apiKey)
	q.Set("url", pageURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return do(s.client, req)
}

// Browser renders pages in a headless browser. The pool is launched on first
// use so runs without browser jobs never start Chrome.
type Browser struct {
	newPool func() (*browser.Pool, error)

	once    sync.Once
	pool    *browser.Pool
	initErr error
}

// NewBrowser creates a lazily started browser fetcher
func NewBrowser(newPool func() (*browser.Pool, error)) *Browser {
	return &Browser{newPool: newPool}
}

// Fetch implements PageFetcher
func (b *Browser) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	b.once.Do(func() {
		b.pool, b.initErr = b.newPool()
	})
	if b.initErr != nil {
		return nil, fmt.Errorf("starting browser: %w", b.initErr)
	}

	html, err := b.pool.Render(ctx, pageURL, "")
	if err != nil {
		return nil, scraper.NewScrapeError("browser", "render", fmt.Errorf("%w: %v", scraper.ErrSourceUnavailable, err))
	}
	return []byte(html), nil
}

// Close stops the browser if it was started
func (b *Browser) Close() error {
	if b.pool == nil {
		return nil
	}
	return b.pool.Close()
}

// Set resolves the fetcher named by a producer job
type Set struct {
	Direct      PageFetcher
	ScrapingAPI PageFetcher
	Browser     PageFetcher
}

// For returns the fetcher for a job's fetcher name
func (s Set) For(name string) (PageFetcher, error) {
	var f PageFetcher
	switch name {
	case "", config.FetcherDirect:
		f = s.Direct
	case config.FetcherScrapingAPI:
		f = s.ScrapingAPI
	case config.FetcherBrowser:
		f = s.Browser
	default:
		return nil, fmt.Errorf("unknown fetcher: %s", name)
	}
	if f == nil {
		return nil, fmt.Errorf("fetcher %s is not available", name)
	}
	return f, nil
}

func do(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", scraper.ErrNetworkTimeout, err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", scraper.ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, scraper.HTTPStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}
