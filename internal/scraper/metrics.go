package scraper

import (
	"sort"
	"sync"
	"time"
)

// ProducerMetrics holds metrics for a single producer run
type ProducerMetrics struct {
	Producer     string
	Region       string
	StartedAt    time.Time
	CompletedAt  time.Time
	RatesScraped int
	Success      bool
	ErrorMessage string
	Duration     time.Duration
}

// MetricsCollector collects and aggregates producer metrics
type MetricsCollector struct {
	mu             sync.RWMutex
	currentRun     map[string]*ProducerMetrics
	lastRun        map[string]*ProducerMetrics
	totalRuns      int
	successfulRuns int
	failedRuns     int
	lastRunTime    time.Time
}

// NewMetricsCollector creates a new MetricsCollector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		currentRun: make(map[string]*ProducerMetrics),
		lastRun:    make(map[string]*ProducerMetrics),
	}
}

// StartScrape records the start of a producer run
func (mc *MetricsCollector) StartScrape(producer, region string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.currentRun[producer] = &ProducerMetrics{
		Producer:  producer,
		Region:    region,
		StartedAt: time.Now(),
	}
}

// RecordSuccess records a successful producer run
func (mc *MetricsCollector) RecordSuccess(producer string, ratesScraped int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if m, ok := mc.currentRun[producer]; ok {
		m.CompletedAt = time.Now()
		m.Duration = m.CompletedAt.Sub(m.StartedAt)
		m.RatesScraped = ratesScraped
		m.Success = true
	}
}

// RecordFailure records a failed producer run
func (mc *MetricsCollector) RecordFailure(producer string, err error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if m, ok := mc.currentRun[producer]; ok {
		m.CompletedAt = time.Now()
		m.Duration = m.CompletedAt.Sub(m.StartedAt)
		m.Success = false
		if err != nil {
			m.ErrorMessage = err.Error()
		}
	}
}

// FinishRun marks the current run as complete and moves metrics to lastRun
func (mc *MetricsCollector) FinishRun() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, m := range mc.currentRun {
		if m.Success {
			mc.successfulRuns++
		} else {
			mc.failedRuns++
		}
	}

	mc.totalRuns++
	mc.lastRunTime = time.Now()
	mc.lastRun = mc.currentRun
	mc.currentRun = make(map[string]*ProducerMetrics)
}

// GetLastRunMetrics returns metrics from the last completed run
func (mc *MetricsCollector) GetLastRunMetrics() map[string]*ProducerMetrics {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	result := make(map[string]*ProducerMetrics, len(mc.lastRun))
	for k, v := range mc.lastRun {
		metricsCopy := *v
		result[k] = &metricsCopy
	}
	return result
}

// MetricsSummary provides an overview of producer performance
type MetricsSummary struct {
	TotalRuns           int           `json:"total_runs"`
	TotalSuccessful     int           `json:"total_successful"`
	TotalFailed         int           `json:"total_failed"`
	LastRunTime         time.Time     `json:"last_run_time"`
	LastRunSuccesses    int           `json:"last_run_successes"`
	LastRunFailures     int           `json:"last_run_failures"`
	LastRunDuration     time.Duration `json:"last_run_duration"`
	LastRunRatesScraped int           `json:"last_run_rates_scraped"`
}

// GetSummary returns a summary of all producer runs
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	summary := MetricsSummary{
		TotalRuns:       mc.totalRuns,
		TotalSuccessful: mc.successfulRuns,
		TotalFailed:     mc.failedRuns,
		LastRunTime:     mc.lastRunTime,
	}

	for _, m := range mc.lastRun {
		if m.Success {
			summary.LastRunSuccesses++
			summary.LastRunRatesScraped += m.RatesScraped
		} else {
			summary.LastRunFailures++
		}
		summary.LastRunDuration += m.Duration
	}

	return summary
}

// HealthStatus represents the health of the snapshot producers
type HealthStatus struct {
	Healthy            bool              `json:"healthy"`
	LastRunTime        time.Time         `json:"last_run_time"`
	NextRunTime        time.Time         `json:"next_run_time"`
	TotalProducers     int               `json:"total_producers"`
	HealthyProducers   int               `json:"healthy_producers"`
	UnhealthyProducers []string          `json:"unhealthy_producers,omitempty"`
	ProducerStatuses   map[string]string `json:"producer_statuses"`
	Message            string            `json:"message,omitempty"`
}

// GetHealthStatus returns the current health status of the producers
func (mc *MetricsCollector) GetHealthStatus(nextRunTime time.Time, totalProducers int) HealthStatus {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	status := HealthStatus{
		LastRunTime:      mc.lastRunTime,
		NextRunTime:      nextRunTime,
		TotalProducers:   totalProducers,
		ProducerStatuses: make(map[string]string),
	}

	for name, m := range mc.lastRun {
		if m.Success {
			status.HealthyProducers++
			status.ProducerStatuses[name] = "healthy"
		} else {
			status.UnhealthyProducers = append(status.UnhealthyProducers, name)
			status.ProducerStatuses[name] = "unhealthy: " + m.ErrorMessage
		}
	}
	sort.Strings(status.UnhealthyProducers)

	// Healthy if at least 70% of producers succeeded
	if totalProducers > 0 {
		successRate := float64(status.HealthyProducers) / float64(totalProducers)
		status.Healthy = successRate >= 0.7
	}

	switch {
	case len(mc.lastRun) == 0:
		status.Message = "No producer runs recorded yet"
		status.Healthy = true
	case status.Healthy:
		status.Message = "Producers are operating normally"
	default:
		status.Message = "Some producers are experiencing issues"
	}

	return status
}
