package sources

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
)

// manualTable is the YAML layout operators use to publish rates by hand
type manualTable struct {
	URL       string       `yaml:"url"`
	UpdatedAt time.Time    `yaml:"updated_at"`
	Rates     []manualRate `yaml:"rates"`
}

type manualRate struct {
	Term    string `yaml:"term"`
	Rate    string `yaml:"rate"`
	Type    string `yaml:"type"`
	Lender  string `yaml:"lender"`
	Payment string `yaml:"payment"`
}

// ManualProducer publishes a hand-maintained YAML rate table. It doubles as
// the fallback job for a region whose scraped source is down.
type ManualProducer struct {
	base
}

// Produce implements scraper.Producer
func (p *ManualProducer) Produce(_ context.Context) (*model.RateSnapshot, error) {
	data, err := os.ReadFile(p.job.File)
	if err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "read", fmt.Errorf("%w: %v", scraper.ErrSourceUnavailable, err))
	}

	var table manualTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, scraper.NewScrapeError(p.job.Name, "parse", fmt.Errorf("%w: %v", scraper.ErrParsingFailed, err))
	}

	records := make([]model.RateRecord, 0, len(table.Rates))
	for i, r := range table.Rates {
		term, err := scraper.NormalizeTerm(r.Term)
		if err != nil {
			return nil, scraper.NewScrapeError(p.job.Name, fmt.Sprintf("rates[%d]", i), err)
		}
		rate, err := scraper.ParseRate(r.Rate)
		if err != nil {
			return nil, scraper.NewScrapeError(p.job.Name, fmt.Sprintf("rates[%d]", i), err)
		}

		kind := scraper.DetectType(r.Term)
		if r.Type != "" {
			if kind, err = scraper.ParseRateType(r.Type); err != nil {
				return nil, scraper.NewScrapeError(p.job.Name, fmt.Sprintf("rates[%d]", i), err)
			}
		}

		records = append(records, p.record(term, kind, rate, r.Lender, r.Payment))
	}

	url := table.URL
	if url == "" {
		url = p.job.URL
	}

	snapshot, err := p.snapshot(url, records)
	if err != nil {
		return nil, err
	}
	if !table.UpdatedAt.IsZero() {
		snapshot.ScrapedAt = table.UpdatedAt.UTC()
	}
	return snapshot, nil
}
