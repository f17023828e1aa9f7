package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/keystonemortgage/backend/internal/app"
	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
	"github.com/keystonemortgage/backend/internal/service"
)

func main() {
	// Flags
	region := flag.String("region", "", "Only run producers for this region (default: all)")
	output := flag.String("output", "", "Output file for JSON results (default: none)")
	timeout := flag.Duration("timeout", 5*time.Minute, "Refresh timeout")
	dryRun := flag.Bool("dry-run", false, "Run producers without publishing snapshots")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.Env, os.Stderr)

	fmt.Println("Keystone Mortgage rate snapshot refresh")
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pipeline, err := app.BuildPipeline(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = pipeline.Close() }()

	target := strings.ToLower(strings.TrimSpace(*region))
	if target == "" {
		fmt.Printf("Running %d producers...\n", pipeline.Orchestrator.ProducerCount())
	} else {
		fmt.Printf("Running producers for %s...\n", target)
	}
	fmt.Println()

	var result interface{}
	if *dryRun {
		result, err = runDry(ctx, pipeline.Orchestrator, target)
	} else {
		result, err = runPublish(ctx, cfg, pipeline.Orchestrator, target, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *output != "" {
		data, _ := json.MarshalIndent(result, "", "  ")
		if err := os.WriteFile(*output, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", *output)
	}
}

func runPublish(ctx context.Context, cfg *config.Config, orch *scraper.Orchestrator, region string, log *slog.Logger) (*service.RefreshSummary, error) {
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	rates := service.NewRateService(store.Snapshots, app.RateServiceConfig(cfg))
	refresh := service.NewRefreshService(orch, rates, log)

	var summary *service.RefreshSummary
	if region == "" {
		summary, err = refresh.Refresh(ctx)
	} else {
		summary, err = refresh.RefreshRegion(ctx, region)
	}
	if summary != nil {
		printSummary(summary)
	}
	return summary, err
}

func printSummary(summary *service.RefreshSummary) {
	for _, p := range summary.Published {
		fmt.Printf("OK    %-12s %-24s %d rates (version %d)\n", p.Region, p.Producer, p.Rates, p.Version)
	}
	for _, f := range summary.Failed {
		fmt.Printf("FAIL  %-12s %-24s %s\n", f.Region, f.Producer, f.Error)
	}
	fmt.Println()
	fmt.Printf("SUMMARY: %d published, %d failed, %s\n", len(summary.Published), len(summary.Failed), summary.Duration)
}

type dryRunResult struct {
	Producer string              `json:"producer"`
	Region   string              `json:"region"`
	Error    string              `json:"error,omitempty"`
	Snapshot *model.RateSnapshot `json:"snapshot,omitempty"`
}

func runDry(ctx context.Context, orch *scraper.Orchestrator, region string) ([]dryRunResult, error) {
	var (
		results []scraper.JobResult
		err     error
	)
	if region == "" {
		results, err = orch.RunAll(ctx)
	} else {
		results, err = orch.RunRegion(ctx, region)
	}

	out := make([]dryRunResult, 0, len(results))
	for _, r := range results {
		row := dryRunResult{Producer: r.Producer, Region: r.Region}
		if r.Success {
			row.Snapshot = r.Snapshot
			fmt.Printf("OK    %-12s %-24s %d rates (%.1fs)\n", r.Region, r.Producer, r.RatesScraped, r.Duration.Seconds())
		} else {
			row.Error = r.Error.Error()
			fmt.Printf("FAIL  %-12s %-24s %v\n", r.Region, r.Producer, r.Error)
		}
		out = append(out, row)
	}
	return out, err
}
