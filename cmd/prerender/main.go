package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/ratecache"
	"github.com/keystonemortgage/backend/internal/ratesclient"
)

func main() {
	// Flags
	regions := flag.String("regions", "", "Comma-separated regions to render (default: the API default region)")
	output := flag.String("output", "", "Output file for JSON results (default: stdout)")
	live := flag.Bool("live", false, "Skip the pre-render cache")
	purge := flag.Bool("purge", false, "Delete cache entries older than the cache TTL before fetching")
	timeout := flag.Duration("timeout", time.Minute, "Fetch timeout")
	flag.Parse()

	cfg := config.Load()
	log := logger.New(cfg.Env, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cache, err := ratecache.Open(cfg.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = cache.Close() }()

	if *purge {
		removed, err := cache.Purge(ctx, cfg.FetchCacheTTL)
		if err != nil {
			log.Warn("rate cache purge failed", "error", err)
		} else {
			log.Info("rate cache purged", "removed", removed)
		}
	}

	client := ratesclient.New(ratesclient.Config{
		BaseURL:  cfg.RatesAPIBaseURL,
		CacheTTL: cfg.FetchCacheTTL,
	}, nil, cache, log)

	targets := []string{""}
	if *regions != "" {
		targets = strings.Split(*regions, ",")
	}

	results := make([]ratesclient.Result, 0, len(targets))
	for _, region := range targets {
		region = strings.TrimSpace(region)
		var result ratesclient.Result
		if *live {
			result = client.Fetch(ctx, region)
		} else {
			result = client.FetchPrerender(ctx, region)
		}
		log.Info("rates rendered",
			"region", result.Region,
			"rates", len(result.Rates),
			"degraded", result.Degraded,
			"from_cache", result.FromCache,
		)
		results = append(results, result)
	}

	data, _ := json.MarshalIndent(results, "", "  ")
	if *output == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}
