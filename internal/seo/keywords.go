package seo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// DefaultTerms are the mortgage phrases counted on competitor pages.
var DefaultTerms = []string{
	"mortgage rates",
	"fixed rate",
	"variable rate",
	"prime rate",
	"renewal",
	"refinance",
	"pre-approval",
	"first-time buyer",
	"amortization",
	"stress test",
	"insured mortgage",
	"heloc",
}

// KeywordCount is one row of the keyword report.
type KeywordCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// KeywordCrawler visits competitor pages and one level of same-site links,
// counting terms in titles, headings and meta tags.
type KeywordCrawler struct {
	terms     []string
	userAgent string
	delay     time.Duration
	logger    *slog.Logger
}

// NewKeywordCrawler creates a crawler. Empty terms fall back to DefaultTerms.
func NewKeywordCrawler(terms []string, delay time.Duration, logger *slog.Logger) *KeywordCrawler {
	if len(terms) == 0 {
		terms = DefaultTerms
	}
	if logger == nil {
		logger = slog.Default()
	}
	normalized := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			normalized = append(normalized, t)
		}
	}
	return &KeywordCrawler{
		terms:     normalized,
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		delay:     delay,
		logger:    logger,
	}
}

// Crawl visits every seed URL and returns term counts sorted by frequency.
// Terms that never appear are left out.
func (k *KeywordCrawler) Crawl(ctx context.Context, seeds []string) ([]KeywordCount, error) {
	domains := make([]string, 0, len(seeds))
	for _, seed := range seeds {
		u, err := url.Parse(seed)
		if err != nil || u.Hostname() == "" {
			return nil, fmt.Errorf("invalid seed url %q", seed)
		}
		domains = append(domains, u.Hostname())
	}

	c := colly.NewCollector(
		colly.AllowedDomains(domains...),
		colly.MaxDepth(2),
		colly.UserAgent(k.userAgent),
	)
	if k.delay > 0 {
		if err := c.Limit(&colly.LimitRule{DomainGlob: "*", Delay: k.delay, Parallelism: 1}); err != nil {
			return nil, fmt.Errorf("configure crawl limit: %w", err)
		}
	}

	var (
		mu     sync.Mutex
		counts = make(map[string]int, len(k.terms))
		pages  int
	)
	count := func(text string) {
		text = strings.ToLower(text)
		mu.Lock()
		defer mu.Unlock()
		for _, term := range k.terms {
			counts[term] += strings.Count(text, term)
		}
	}

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})
	c.OnResponse(func(*colly.Response) {
		mu.Lock()
		pages++
		mu.Unlock()
	})
	c.OnHTML("title, h1, h2, h3", func(e *colly.HTMLElement) {
		count(e.Text)
	})
	c.OnHTML(`meta[name="keywords"], meta[name="description"]`, func(e *colly.HTMLElement) {
		count(e.Attr("content"))
	})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		_ = e.Request.Visit(e.Attr("href"))
	})
	c.OnError(func(r *colly.Response, err error) {
		k.logger.Warn("keyword crawl request failed", "url", r.Request.URL.String(), "status", r.StatusCode, "error", err)
	})

	var firstErr error
	for _, seed := range seeds {
		if err := c.Visit(seed); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("visit %s: %w", seed, err)
		}
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pages == 0 && firstErr != nil {
		return nil, firstErr
	}

	k.logger.Info("keyword crawl finished", "pages", pages, "seeds", len(seeds))
	return sortCounts(counts), nil
}

func sortCounts(counts map[string]int) []KeywordCount {
	out := make([]KeywordCount, 0, len(counts))
	for term, n := range counts {
		if n > 0 {
			out = append(out, KeywordCount{Term: term, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// WriteKeywords writes the report as indented JSON.
func WriteKeywords(w io.Writer, counts []KeywordCount) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if counts == nil {
		counts = []KeywordCount{}
	}
	return enc.Encode(counts)
}
