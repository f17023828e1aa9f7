package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/keystonemortgage/backend/internal/app"
	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/scraper"
)

// Runs one producer job once, without retries, and prints what it parsed.
// Used when writing selectors for a new source.
func main() {
	name := flag.String("name", "", "Producer name from the producers file")
	file := flag.String("producers", "", "Producers file (default: PRODUCERS_FILE)")
	asJSON := flag.Bool("json", false, "Print the snapshot as JSON")
	timeout := flag.Duration("timeout", 2*time.Minute, "Run timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.Load()
	if *file != "" {
		cfg.ProducersFile = *file
	}

	producers, err := config.LoadProducers(cfg.ProducersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var jobs []config.ProducerJob
	for _, job := range producers.Jobs {
		if *name == "" || job.Name == *name {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		fmt.Fprintf(os.Stderr, "No producer named %q in %s\n", *name, cfg.ProducersFile)
		os.Exit(1)
	}
	if len(jobs) > 1 {
		fmt.Fprintln(os.Stderr, "Several producers configured; pass -name with one of:")
		for _, job := range jobs {
			fmt.Fprintf(os.Stderr, "  %s (%s, %s)\n", job.Name, job.Region, job.Kind)
		}
		os.Exit(2)
	}

	// Single attempt, no pacing
	orchCfg := scraper.OrchestratorConfig{
		MinDelay: 0,
		MaxDelay: 0,
		RetryConfig: scraper.RetryConfig{
			MaxAttempts:  1,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     time.Second,
			Multiplier:   2.0,
		},
	}

	pipeline, err := app.NewPipeline(cfg, jobs, orchCfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = pipeline.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	results, err := pipeline.Orchestrator.RunAll(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	result := results[0]
	if !result.Success {
		fmt.Printf("%s failed after %s: %v\n", result.Producer, result.Duration.Round(time.Millisecond), result.Error)
		os.Exit(1)
	}

	if *asJSON {
		data, _ := json.MarshalIndent(result.Snapshot, "", "  ")
		fmt.Println(string(data))
		return
	}

	snap := result.Snapshot
	fmt.Printf("%s -> %s (%d rates, %s)\n", result.Producer, result.Region, len(snap.Rates), result.Duration.Round(time.Millisecond))
	fmt.Printf("Source: %s  URL: %s\n\n", snap.Source, snap.URL)
	fmt.Printf("%-18s %-9s %-8s %-12s %s\n", "TERM", "TYPE", "RATE", "PAYMENT", "LENDER")
	for _, r := range snap.Rates {
		fmt.Printf("%-18s %-9s %-8s %-12s %s\n", r.Term, r.Type, r.Rate, r.Payment, r.Lender)
	}
}
