// Package app assembles the stores and the snapshot pipeline from config for
// the command binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/notify"
	"github.com/keystonemortgage/backend/internal/repository"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/scraper/browser"
	"github.com/keystonemortgage/backend/internal/scraper/fetch"
	"github.com/keystonemortgage/backend/internal/scraper/sources"
	"github.com/keystonemortgage/backend/internal/service"
)

// Store holds the configured repositories. Leads is nil with the file
// backend.
type Store struct {
	Snapshots repository.SnapshotRepository
	Leads     repository.LeadRepository
	db        *sqlx.DB
}

// OpenStore opens the snapshot backend named by cfg, migrating Postgres first.
func OpenStore(ctx context.Context, cfg *config.Config) (*Store, error) {
	if !cfg.UsePostgres() {
		snapshots, err := repository.NewFileSnapshotRepository(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		return &Store{Snapshots: snapshots}, nil
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		Snapshots: repository.NewPostgresSnapshotRepository(db),
		Leads:     repository.NewLeadRepository(db),
		db:        db,
	}, nil
}

// Close releases the database connection, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RateServiceConfig maps the environment config onto the read policy.
func RateServiceConfig(cfg *config.Config) service.RateServiceConfig {
	return service.RateServiceConfig{
		DefaultRegion: cfg.DefaultRegion,
		StaleAfter:    cfg.StaleAfter,
		ContactPhone:  cfg.ContactPhone,
		HistoryKeep:   cfg.HistoryKeep,
	}
}

// LeadNotifier returns the SMTP mailer, or nil when mail is not configured.
func LeadNotifier(cfg *config.Config, logger *slog.Logger) service.LeadNotifier {
	if !cfg.SMTP.Enabled() {
		return nil
	}
	return notify.NewMailer(cfg.SMTP, logger)
}

// Pipeline is the orchestrator with the page fetchers it owns.
type Pipeline struct {
	Orchestrator *scraper.Orchestrator
	browser      *fetch.Browser
}

// BuildPipeline loads the producer jobs and wires their fetchers.
func BuildPipeline(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	producers, err := config.LoadProducers(cfg.ProducersFile)
	if err != nil {
		return nil, err
	}

	orchCfg := scraper.DefaultOrchestratorConfig()
	if producers.MinDelay > 0 {
		orchCfg.MinDelay = producers.MinDelay
	}
	if producers.MaxDelay > 0 {
		orchCfg.MaxDelay = producers.MaxDelay
	}
	return NewPipeline(cfg, producers.Jobs, orchCfg, logger)
}

// NewPipeline builds an orchestrator over the given jobs.
func NewPipeline(cfg *config.Config, jobs []config.ProducerJob, orchCfg scraper.OrchestratorConfig, logger *slog.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := &http.Client{Timeout: 30 * time.Second}
	browserFetcher := fetch.NewBrowser(func() (*browser.Pool, error) {
		return browser.NewPool(browser.DefaultPoolConfig(), logger)
	})
	fetchers := fetch.Set{
		Direct:  fetch.NewDirect(client),
		Browser: browserFetcher,
	}
	if cfg.ScrapingAPIURL != "" && cfg.ScrapingAPIKey != "" {
		fetchers.ScrapingAPI = fetch.NewScrapingAPI(client, cfg.ScrapingAPIURL, cfg.ScrapingAPIKey)
	}

	basis := scraper.PaymentBasis{
		Principal:         decimal.NewFromInt(cfg.PaymentPrincipal),
		AmortizationYears: cfg.AmortizationYears,
	}
	list, err := sources.Build(jobs, fetchers, basis)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, errors.New("no producers configured")
	}

	return &Pipeline{
		Orchestrator: scraper.NewOrchestrator(orchCfg, list, logger),
		browser:      browserFetcher,
	}, nil
}

// Close stops the headless browser if a job started it.
func (p *Pipeline) Close() error {
	return p.browser.Close()
}
