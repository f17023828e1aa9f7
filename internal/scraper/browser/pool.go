// Package browser renders JS-heavy lender pages with a pooled headless Chrome.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrPoolClosed is returned when acquiring from a closed pool
var ErrPoolClosed = errors.New("browser pool is closed")

// Pool manages a fixed set of reusable browser tabs
type Pool struct {
	browser     *rod.Browser
	pages       chan *rod.Page
	pageTimeout time.Duration
	logger      *slog.Logger
	mu          sync.Mutex
	closed      bool
}

// PoolConfig holds configuration for the browser pool
type PoolConfig struct {
	MaxPages    int           // Concurrent tabs (default: 2)
	PageTimeout time.Duration // Per-navigation timeout (default: 60s)
	Headless    bool
	UserDataDir string // Optional Chrome profile directory
	BrowserBin  string // Optional path to Chrome; downloaded when empty
}

// DefaultPoolConfig returns the default pool configuration
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxPages:    2,
		PageTimeout: 60 * time.Second,
		Headless:    true,
	}
}

// NewPool launches a browser and pre-opens MaxPages tabs
func NewPool(cfg PoolConfig, logger *slog.Logger) (*Pool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 2
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 60 * time.Second
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("disable-setuid-sandbox")

	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	pool := &Pool{
		browser:     b,
		pages:       make(chan *rod.Page, cfg.MaxPages),
		pageTimeout: cfg.PageTimeout,
		logger:      logger,
	}

	for i := 0; i < cfg.MaxPages; i++ {
		page, err := pool.createPage()
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("creating page %d: %w", i, err)
		}
		pool.pages <- page
	}

	logger.Info("Browser pool initialized",
		slog.Int("max_pages", cfg.MaxPages),
		slog.Bool("headless", cfg.Headless),
	)

	return pool, nil
}

func (p *Pool) createPage() (*rod.Page, error) {
	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  1920,
		Height: 1080,
	}); err != nil {
		return nil, err
	}

	// Some lender sites hide rate tables from obvious automation
	_, err = page.Eval(`() => {
		Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
		Object.defineProperty(navigator, 'languages', { get: () => ['en-CA', 'en', 'fr-CA'] });
	}`)
	if err != nil {
		p.logger.Warn("Failed to mask automation flags", slog.String("error", err.Error()))
	}

	return page, nil
}

// Acquire takes a tab from the pool, blocking until one is free
func (p *Pool) Acquire(ctx context.Context) (*rod.Page, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrPoolClosed
	}

	select {
	case page, ok := <-p.pages:
		if !ok {
			return nil, ErrPoolClosed
		}
		return page, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release resets a tab and returns it to the pool
func (p *Pool) Release(page *rod.Page) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = page.Close()
		return
	}

	_ = page.Navigate("about:blank")
	_ = page.SetCookies(nil)

	select {
	case p.pages <- page:
	default:
		_ = page.Close()
	}
}

// Render loads url in a pooled tab and returns the rendered HTML. When
// waitSelector is set it waits for that element before reading the DOM.
func (p *Pool) Render(ctx context.Context, url, waitSelector string) (string, error) {
	page, err := p.Acquire(ctx)
	if err != nil {
		return "", err
	}
	defer p.Release(page)

	tab := page.Context(ctx).Timeout(p.pageTimeout)
	defer tab.CancelTimeout()

	if err := tab.Navigate(url); err != nil {
		return "", fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := tab.WaitLoad(); err != nil {
		return "", fmt.Errorf("waiting for load: %w", err)
	}

	if waitSelector != "" {
		if _, err := tab.Element(waitSelector); err != nil {
			return "", fmt.Errorf("waiting for selector %s: %w", waitSelector, err)
		}
	} else {
		// Rate widgets usually populate from XHR after load; best effort
		_ = tab.WaitIdle(5 * time.Second)
	}

	html, err := tab.HTML()
	if err != nil {
		return "", fmt.Errorf("reading page HTML: %w", err)
	}
	return html, nil
}

// Close shuts down every tab and the browser
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	close(p.pages)
	for page := range p.pages {
		_ = page.Close()
	}

	if err := p.browser.Close(); err != nil {
		return fmt.Errorf("closing browser: %w", err)
	}

	p.logger.Info("Browser pool closed")
	return nil
}
