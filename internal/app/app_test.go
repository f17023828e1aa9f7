package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/notify"
	"github.com/keystonemortgage/backend/internal/scraper"
)

const manualRates = `
url: https://keystonemortgage.ca/rates
updated_at: 2026-10-19T06:00:00Z
rates:
  - term: 5 Year
    rate: "4.79%"
    type: Fixed
    lender: RMG
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenStore_File(t *testing.T) {
	cfg := &config.Config{SnapshotBackend: "file", SnapshotDir: filepath.Join(t.TempDir(), "rates")}

	store, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	assert.NotNil(t, store.Snapshots)
	assert.Nil(t, store.Leads, "leads need postgres")
	assert.NoError(t, store.Close())
}

func TestRateServiceConfig(t *testing.T) {
	cfg := &config.Config{
		DefaultRegion: "calgary",
		StaleAfter:    48 * time.Hour,
		ContactPhone:  "1-888-555-0100",
		HistoryKeep:   7,
	}

	got := RateServiceConfig(cfg)
	assert.Equal(t, "calgary", got.DefaultRegion)
	assert.Equal(t, 48*time.Hour, got.StaleAfter)
	assert.Equal(t, "1-888-555-0100", got.ContactPhone)
	assert.Equal(t, 7, got.HistoryKeep)
}

func TestBuildPipeline(t *testing.T) {
	dir := t.TempDir()
	manual := writeFile(t, dir, "toronto.yaml", manualRates)
	producers := writeFile(t, dir, "producers.yaml", `
min_delay: 10ms
max_delay: 20ms
producers:
  - name: toronto-table
    region: toronto
    kind: table
    source: RateHub
    url: https://example.com/rates
  - name: toronto-manual
    region: toronto
    kind: manual
    source: Keystone Mortgage
    file: `+manual+`
`)

	cfg := &config.Config{ProducersFile: producers, PaymentPrincipal: 400000, AmortizationYears: 25}
	pipeline, err := BuildPipeline(cfg, nil)
	require.NoError(t, err)
	defer pipeline.Close()

	assert.Equal(t, 2, pipeline.Orchestrator.ProducerCount())
}

func TestBuildPipeline_ScrapingAPIRequiresKey(t *testing.T) {
	producers := writeFile(t, t.TempDir(), "producers.yaml", `
producers:
  - region: toronto
    kind: table
    source: RateHub
    url: https://example.com/rates
    fetcher: scrapingapi
`)

	_, err := BuildPipeline(&config.Config{ProducersFile: producers}, nil)
	assert.ErrorContains(t, err, "not available")

	cfg := &config.Config{ProducersFile: producers, ScrapingAPIURL: "https://api.scraper.example/", ScrapingAPIKey: "k"}
	pipeline, err := BuildPipeline(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, pipeline.Orchestrator.ProducerCount())
}

func TestBuildPipeline_Errors(t *testing.T) {
	_, err := BuildPipeline(&config.Config{ProducersFile: filepath.Join(t.TempDir(), "missing.yaml")}, nil)
	assert.Error(t, err)

	empty := writeFile(t, t.TempDir(), "producers.yaml", "producers: []\n")
	_, err = BuildPipeline(&config.Config{ProducersFile: empty}, nil)
	assert.ErrorContains(t, err, "no producers")
}

func TestNewPipeline_SingleJob(t *testing.T) {
	manual := writeFile(t, t.TempDir(), "toronto.yaml", manualRates)
	jobs := []config.ProducerJob{{Name: "toronto-manual", Region: "toronto", Kind: config.KindManual, Source: "Keystone Mortgage", File: manual}}

	orchCfg := scraper.DefaultOrchestratorConfig()
	orchCfg.RetryConfig.MaxAttempts = 1
	pipeline, err := NewPipeline(&config.Config{PaymentPrincipal: 400000, AmortizationYears: 25}, jobs, orchCfg, nil)
	require.NoError(t, err)
	defer pipeline.Close()

	results, err := pipeline.Orchestrator.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)
	assert.Equal(t, "Keystone Mortgage", results[0].Snapshot.Source)
	assert.Equal(t, "$2,278.83", results[0].Snapshot.Rates[0].Payment)
}

func TestLeadNotifier(t *testing.T) {
	disabled := LeadNotifier(&config.Config{SMTP: config.SMTPConfig{To: "leads@keystonemortgage.ca"}}, nil)
	assert.Nil(t, disabled, "no mailer without an SMTP host")

	enabled := LeadNotifier(&config.Config{SMTP: config.SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		To:   "leads@keystonemortgage.ca",
	}}, nil)
	assert.IsType(t, &notify.Mailer{}, enabled)
}
