package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"
)

// Common producer errors
var (
	ErrNetworkTimeout    = errors.New("network request timed out")
	ErrParsingFailed     = errors.New("failed to parse rate data")
	ErrInvalidResponse   = errors.New("invalid response from source")
	ErrRateLimited       = errors.New("rate limited by source")
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrNoDataFound       = errors.New("no mortgage rate data found")
)

// ScrapeError represents an error that occurred while producing a snapshot
type ScrapeError struct {
	Producer  string
	Operation string
	Err       error
	Timestamp time.Time
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("[%s] %s: %v at %s",
		e.Producer, e.Operation, e.Err, e.Timestamp.Format(time.RFC3339))
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError
func NewScrapeError(producer, operation string, err error) *ScrapeError {
	return &ScrapeError{
		Producer:  producer,
		Operation: operation,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// HTTPStatusError classifies a non-200 response from a source.
func HTTPStatusError(status int) error {
	switch {
	case status == 429:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	case status >= 500:
		return fmt.Errorf("%w: status %d", ErrSourceUnavailable, status)
	default:
		return fmt.Errorf("%w: status %d", ErrInvalidResponse, status)
	}
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry executes fn with exponential backoff. Only errors accepted by
// IsRetryableError are retried; anything else stops the loop.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if logger != nil {
			logger.Warn("producer attempt failed",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", cfg.MaxAttempts),
				slog.String("error", err.Error()),
			)
		}

		if !IsRetryableError(err) {
			return fmt.Errorf("attempt %d failed permanently: %w", attempt, err)
		}

		if attempt < cfg.MaxAttempts {
			// Jitter spreads out retries against the same host
			waitTime := delay
			if quarter := int64(delay / 4); quarter > 0 {
				waitTime += time.Duration(rand.Int63n(quarter))
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryableError determines if an error should be retried
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	case errors.Is(err, ErrNetworkTimeout),
		errors.Is(err, ErrSourceUnavailable),
		errors.Is(err, ErrRateLimited):
		return true
	}

	return false
}
