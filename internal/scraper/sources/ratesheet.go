package sources

import (
	"context"
	"fmt"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/scraper/fetch"
	"github.com/keystonemortgage/backend/internal/scraper/pdf"
)

// RateSheetProducer reads a lender's published PDF rate sheet
type RateSheetProducer struct {
	base
	fetcher fetch.PageFetcher
}

// Produce implements scraper.Producer
func (p *RateSheetProducer) Produce(ctx context.Context) (*model.RateSnapshot, error) {
	data, err := p.fetcher.Fetch(ctx, p.job.URL)
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "fetch", err)
	}

	text, err := pdf.ExtractText(data)
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "extract", fmt.Errorf("%w: %v", scraper.ErrParsingFailed, err))
	}

	sheet := pdf.ParseRateSheet(text)
	records := make([]model.RateRecord, 0, len(sheet))
	for _, r := range sheet {
		records = append(records, p.record(r.Term, r.Type, r.Rate, "", ""))
	}

	return p.snapshot(p.job.URL, records)
}
