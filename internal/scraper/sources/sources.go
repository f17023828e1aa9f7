// Package sources builds snapshot producers from the producer job file.
package sources

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/scraper/fetch"
)

// Build creates one producer per job, in file order
func Build(jobs []config.ProducerJob, fetchers fetch.Set, basis scraper.PaymentBasis) ([]scraper.Producer, error) {
	producers := make([]scraper.Producer, 0, len(jobs))

	for _, job := range jobs {
		b := base{job: job, basis: basis, now: time.Now}

		if job.Kind == config.KindManual {
			producers = append(producers, &ManualProducer{base: b})
			continue
		}

		fetcher, err := fetchers.For(job.Fetcher)
		if err != nil {
			return nil, fmt.Errorf("producer %s: %w", job.Name, err)
		}

		var p scraper.Producer
		switch job.Kind {
		case config.KindTable:
			p = &TableProducer{base: b, fetcher: fetcher}
		case config.KindXPath:
			p, err = NewXPathProducer(b, fetcher)
		case config.KindRateSheet:
			p = &RateSheetProducer{base: b, fetcher: fetcher}
		default:
			err = fmt.Errorf("unknown kind %q", job.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("producer %s: %w", job.Name, err)
		}
		producers = append(producers, p)
	}

	return producers, nil
}

// base carries what every producer kind shares
type base struct {
	job   config.ProducerJob
	basis scraper.PaymentBasis
	now   func() time.Time
}

func (b *base) Name() string   { return b.job.Name }
func (b *base) Region() string { return b.job.Region }

func (b *base) lender(found string) string {
	if l := strings.TrimSpace(found); l != "" {
		return l
	}
	if b.job.Lender != "" {
		return b.job.Lender
	}
	return b.job.Source
}

// record builds a display record, computing the payment when the source did
// not quote one.
func (b *base) record(term string, kind model.RateType, rate decimal.Decimal, lender, payment string) model.RateRecord {
	if strings.TrimSpace(payment) == "" {
		payment = scraper.FormatPayment(scraper.MonthlyPayment(b.basis, rate))
	}
	return model.RateRecord{
		Term:    term,
		Rate:    scraper.FormatRate(rate),
		Type:    kind,
		Lender:  b.lender(lender),
		Payment: payment,
	}
}

func (b *base) snapshot(url string, records []model.RateRecord) (*model.RateSnapshot, error) {
	records = scraper.DedupeRates(records)
	if len(records) == 0 {
		return nil, scraper.NewScrapeError(b.job.Name, "parse", scraper.ErrNoDataFound)
	}
	return &model.RateSnapshot{
		Source:    b.job.Source,
		URL:       url,
		ScrapedAt: b.now().UTC(),
		Rates:     records,
	}, nil
}
