package sources

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/scraper/fetch"
	"github.com/keystonemortgage/backend/pkg/currency"
)

// TableProducer reads rate tables from a competitor page. A table qualifies
// when its header mentions a term or a rate; the first column holds the term
// and the remaining columns hold rates, typed by their header.
type TableProducer struct {
	base
	fetcher fetch.PageFetcher
}

// Produce implements scraper.Producer
func (p *TableProducer) Produce(ctx context.Context) (*model.RateSnapshot, error) {
	body, err := p.fetcher.Fetch(ctx, p.job.URL)
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "fetch", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "parse", fmt.Errorf("%w: %v", scraper.ErrParsingFailed, err))
	}

	return p.snapshot(p.job.URL, p.parseTables(doc))
}

func (p *TableProducer) parseTables(doc *goquery.Document) []model.RateRecord {
	var records []model.RateRecord

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		var headers []string
		table.Find("tr").First().Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, strings.ToLower(strings.TrimSpace(cell.Text())))
		})

		joined := strings.Join(headers, " ")
		if !strings.Contains(joined, "term") && !strings.Contains(joined, "rate") {
			return
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < 2 {
				return
			}

			termText := strings.TrimSpace(cells.First().Text())
			term, err := scraper.NormalizeTerm(termText)
			if err != nil {
				return
			}

			var lender, payment string
			type cellRate struct {
				header string
				text   string
			}
			var candidates []cellRate

			cells.Each(func(k int, cell *goquery.Selection) {
				if k == 0 {
					return
				}
				header := ""
				if k < len(headers) {
					header = headers[k]
				}
				text := strings.TrimSpace(cell.Text())

				switch {
				case strings.Contains(header, "lender"):
					lender = text
				case strings.Contains(header, "payment"):
					if _, err := currency.Parse(text, currency.CAD); err == nil {
						payment = text
					}
				default:
					candidates = append(candidates, cellRate{header: header, text: text})
				}
			})

			for _, c := range candidates {
				rate, err := scraper.ParseRate(c.text)
				if err != nil {
					continue
				}

				kind := scraper.DetectType(termText)
				if hasTypeLabel(c.header) {
					kind = scraper.DetectType(c.header)
				}

				// A quoted payment belongs to the row's first rate only
				records = append(records, p.record(term, kind, rate, lender, payment))
				payment = ""
			}
		})
	})

	return records
}

func hasTypeLabel(header string) bool {
	return strings.Contains(header, "fixed") ||
		strings.Contains(header, "variable") ||
		strings.Contains(header, "open")
}
