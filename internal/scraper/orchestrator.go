package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/keystonemortgage/backend/internal/model"
)

// OrchestratorConfig holds configuration for the producer orchestrator
type OrchestratorConfig struct {
	// MinDelay is the minimum delay between consecutive producers
	MinDelay time.Duration
	// MaxDelay is the maximum delay between consecutive producers
	MaxDelay time.Duration
	// RetryConfig holds retry configuration for failed producers
	RetryConfig RetryConfig
}

// DefaultOrchestratorConfig returns the default orchestrator configuration
func DefaultOrchestratorConfig() OrchestratorConfig {
	return OrchestratorConfig{
		MinDelay:    2 * time.Second,
		MaxDelay:    5 * time.Second,
		RetryConfig: DefaultRetryConfig(),
	}
}

// Producer builds a complete rate snapshot for one region
type Producer interface {
	Name() string
	Region() string
	Produce(ctx context.Context) (*model.RateSnapshot, error)
}

// JobResult holds the outcome of running a single producer
type JobResult struct {
	Producer     string
	Region       string
	Snapshot     *model.RateSnapshot
	Success      bool
	Error        error
	Duration     time.Duration
	RatesScraped int
}

// Orchestrator runs snapshot producers sequentially. Producers listed for the
// same region act as fallbacks: once one succeeds the rest are skipped.
type Orchestrator struct {
	config    OrchestratorConfig
	producers []Producer
	metrics   *MetricsCollector
	logger    *slog.Logger
}

// NewOrchestrator creates a new producer orchestrator
func NewOrchestrator(cfg OrchestratorConfig, producers []Producer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		config:    cfg,
		producers: producers,
		metrics:   NewMetricsCollector(),
		logger:    logger,
	}
}

// RunAll runs every producer with rate limiting between them
func (o *Orchestrator) RunAll(ctx context.Context) ([]JobResult, error) {
	return o.run(ctx, o.producers)
}

// RunRegion runs only the producers for region
func (o *Orchestrator) RunRegion(ctx context.Context, region string) ([]JobResult, error) {
	var selected []Producer
	for _, p := range o.producers {
		if p.Region() == region {
			selected = append(selected, p)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no producer configured for region: %s", region)
	}
	return o.run(ctx, selected)
}

func (o *Orchestrator) run(ctx context.Context, producers []Producer) ([]JobResult, error) {
	o.logger.Info("Starting snapshot producers",
		slog.Int("producer_count", len(producers)),
	)

	results := make([]JobResult, 0, len(producers))
	covered := make(map[string]bool)

	for i, producer := range producers {
		select {
		case <-ctx.Done():
			o.logger.Warn("Producer run cancelled",
				slog.Int("completed", i),
				slog.Int("total", len(producers)),
			)
			o.metrics.FinishRun()
			return results, ctx.Err()
		default:
		}

		if covered[producer.Region()] {
			o.logger.Debug("Region already produced, skipping fallback",
				slog.String("producer", producer.Name()),
				slog.String("region", producer.Region()),
			)
			continue
		}

		result := o.runProducer(ctx, producer)
		results = append(results, result)
		if result.Success {
			covered[producer.Region()] = true
		}

		if i < len(producers)-1 {
			delay := o.randomDelay()
			select {
			case <-ctx.Done():
				o.metrics.FinishRun()
				return results, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	o.metrics.FinishRun()

	var successCount, failCount, totalRates int
	for _, r := range results {
		if r.Success {
			successCount++
			totalRates += r.RatesScraped
		} else {
			failCount++
		}
	}

	o.logger.Info("Snapshot producers completed",
		slog.Int("successful", successCount),
		slog.Int("failed", failCount),
		slog.Int("total_rates", totalRates),
	)

	return results, nil
}

// runProducer runs a single producer with retry logic
func (o *Orchestrator) runProducer(ctx context.Context, producer Producer) JobResult {
	name, region := producer.Name(), producer.Region()
	log := o.logger.With(slog.String("producer", name), slog.String("region", region))

	log.Info("Running producer")
	o.metrics.StartScrape(name, region)
	startTime := time.Now()

	var snapshot *model.RateSnapshot
	err := WithRetry(ctx, o.config.RetryConfig, log, func() error {
		var err error
		snapshot, err = producer.Produce(ctx)
		if err != nil {
			return err
		}
		if snapshot == nil || len(snapshot.Rates) == 0 {
			return NewScrapeError(name, "produce", ErrNoDataFound)
		}
		return nil
	})

	duration := time.Since(startTime)

	if err != nil {
		o.metrics.RecordFailure(name, err)
		log.Error("Producer failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", duration),
		)
		return JobResult{
			Producer: name,
			Region:   region,
			Success:  false,
			Error:    err,
			Duration: duration,
		}
	}

	o.metrics.RecordSuccess(name, len(snapshot.Rates))
	log.Info("Producer succeeded",
		slog.Int("rates_count", len(snapshot.Rates)),
		slog.Duration("duration", duration),
	)

	return JobResult{
		Producer:     name,
		Region:       region,
		Snapshot:     snapshot,
		Success:      true,
		Duration:     duration,
		RatesScraped: len(snapshot.Rates),
	}
}

// GetMetrics returns the metrics collector
func (o *Orchestrator) GetMetrics() *MetricsCollector {
	return o.metrics
}

// GetHealthStatus returns the current health status
func (o *Orchestrator) GetHealthStatus(nextRunTime time.Time) HealthStatus {
	return o.metrics.GetHealthStatus(nextRunTime, len(o.metrics.GetLastRunMetrics()))
}

// ProducerCount returns the number of configured producers
func (o *Orchestrator) ProducerCount() int {
	return len(o.producers)
}

// randomDelay returns a random delay between MinDelay and MaxDelay
func (o *Orchestrator) randomDelay() time.Duration {
	if o.config.MaxDelay <= o.config.MinDelay {
		return o.config.MinDelay
	}
	diff := o.config.MaxDelay - o.config.MinDelay
	jitter := time.Duration(rand.Int63n(int64(diff)))
	return o.config.MinDelay + jitter
}
