package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Producer source kinds.
const (
	KindTable     = "table"
	KindXPath     = "xpath"
	KindRateSheet = "ratesheet"
	KindManual    = "manual"
)

// Page fetchers used by HTML producers.
const (
	FetcherDirect      = "direct"
	FetcherScrapingAPI = "scrapingapi"
	FetcherBrowser     = "browser"
)

// XPathSelectors locate rate rows for the xpath source kind. Column
// expressions are evaluated relative to each matched row.
type XPathSelectors struct {
	Row    string `yaml:"row"`
	Term   string `yaml:"term"`
	Rate   string `yaml:"rate"`
	Type   string `yaml:"type"`
	Lender string `yaml:"lender"`
}

// ProducerJob describes one snapshot producer: where the rates come from and
// which region's snapshot they replace.
type ProducerJob struct {
	Name    string         `yaml:"name"`
	Region  string         `yaml:"region"`
	Kind    string         `yaml:"kind"`
	Source  string         `yaml:"source"` // Provider label written into the snapshot
	URL     string         `yaml:"url"`
	Fetcher string         `yaml:"fetcher"`
	Lender  string         `yaml:"lender"` // Used when the source has no lender column
	File    string         `yaml:"file"`   // Manual table path
	XPath   XPathSelectors `yaml:"xpath"`
}

// ProducersConfig is the root of the producers YAML file.
type ProducersConfig struct {
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
	Jobs     []ProducerJob `yaml:"producers"`
}

// LoadProducers reads and validates the producer job file.
func LoadProducers(path string) (*ProducersConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read producers file: %w", err)
	}
	return ParseProducers(data)
}

// ParseProducers decodes producer jobs and fills defaults.
func ParseProducers(data []byte) (*ProducersConfig, error) {
	var cfg ProducersConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse producers file: %w", err)
	}

	if cfg.MinDelay == 0 {
		cfg.MinDelay = 2 * time.Second
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}

	for i := range cfg.Jobs {
		job := &cfg.Jobs[i]
		job.Region = strings.ToLower(strings.TrimSpace(job.Region))
		if job.Fetcher == "" {
			job.Fetcher = FetcherDirect
		}
		if job.Name == "" {
			job.Name = fmt.Sprintf("%s-%s", job.Region, job.Kind)
		}
		if err := job.Validate(); err != nil {
			return nil, fmt.Errorf("producer %d (%s): %w", i, job.Name, err)
		}
	}

	return &cfg, nil
}

// Validate checks that the job has what its kind needs.
func (j ProducerJob) Validate() error {
	if j.Region == "" {
		return fmt.Errorf("region is required")
	}
	if j.Source == "" {
		return fmt.Errorf("source is required")
	}

	switch j.Kind {
	case KindManual:
		if j.File == "" {
			return fmt.Errorf("manual producer needs a file")
		}
		return nil
	case KindTable, KindRateSheet:
	case KindXPath:
		if j.XPath.Row == "" || j.XPath.Term == "" || j.XPath.Rate == "" {
			return fmt.Errorf("xpath producer needs row, term and rate selectors")
		}
	default:
		return fmt.Errorf("unknown kind %q", j.Kind)
	}

	if j.URL == "" {
		return fmt.Errorf("url is required")
	}

	switch j.Fetcher {
	case FetcherDirect, FetcherScrapingAPI, FetcherBrowser:
		return nil
	default:
		return fmt.Errorf("unknown fetcher %q", j.Fetcher)
	}
}
