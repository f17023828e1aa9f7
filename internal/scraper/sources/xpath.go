package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/scraper/fetch"
)

// XPathProducer reads rates from pages whose markup is not a plain table.
// Column expressions are evaluated relative to each row node.
type XPathProducer struct {
	base
	fetcher fetch.PageFetcher

	row    *xpath.Expr
	term   *xpath.Expr
	rate   *xpath.Expr
	kind   *xpath.Expr // optional
	lender *xpath.Expr // optional
}

// NewXPathProducer compiles the job's selectors up front so a typo fails at
// startup instead of on the first run.
func NewXPathProducer(b base, fetcher fetch.PageFetcher) (*XPathProducer, error) {
	sel := b.job.XPath
	p := &XPathProducer{base: b, fetcher: fetcher}

	var err error
	compile := func(name, expr string, optional bool) *xpath.Expr {
		if err != nil || (optional && expr == "") {
			return nil
		}
		var e *xpath.Expr
		if e, err = xpath.Compile(expr); err != nil {
			err = fmt.Errorf("invalid %s selector %q: %w", name, expr, err)
		}
		return e
	}

	p.row = compile("row", sel.Row, false)
	p.term = compile("term", sel.Term, false)
	p.rate = compile("rate", sel.Rate, false)
	p.kind = compile("type", sel.Type, true)
	p.lender = compile("lender", sel.Lender, true)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Produce implements scraper.Producer
func (p *XPathProducer) Produce(ctx context.Context) (*model.RateSnapshot, error) {
	body, err := p.fetcher.Fetch(ctx, p.job.URL)
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "fetch", err)
	}

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "parse", fmt.Errorf("%w: %v", scraper.ErrParsingFailed, err))
	}

	return p.snapshot(p.job.URL, p.parseRows(doc))
}

func (p *XPathProducer) parseRows(doc *html.Node) []model.RateRecord {
	var records []model.RateRecord

	for _, row := range htmlquery.QuerySelectorAll(doc, p.row) {
		termText := p.text(row, p.term)
		term, err := scraper.NormalizeTerm(termText)
		if err != nil {
			continue
		}

		rate, err := scraper.ParseRate(p.text(row, p.rate))
		if err != nil {
			continue
		}

		kind := scraper.DetectType(termText)
		if label := p.text(row, p.kind); label != "" {
			if t, err := scraper.ParseRateType(label); err == nil {
				kind = t
			} else {
				kind = scraper.DetectType(label)
			}
		}

		records = append(records, p.record(term, kind, rate, p.text(row, p.lender), ""))
	}

	return records
}

func (p *XPathProducer) text(row *html.Node, expr *xpath.Expr) string {
	if expr == nil {
		return ""
	}
	node := htmlquery.QuerySelector(row, expr)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.InnerText(node))
}
