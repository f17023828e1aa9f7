package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/keystonemortgage/backend/internal/app"
	"github.com/keystonemortgage/backend/internal/config"
	"github.com/keystonemortgage/backend/internal/logger"
	"github.com/keystonemortgage/backend/internal/seo"
)

func main() {
	// Flags
	sitemapOut := flag.String("sitemap", "", "Write sitemap.xml to this file")
	keywordsOut := flag.String("keywords", "", "Write the keyword report to this file")
	competitors := flag.String("competitors", "", "Comma-separated competitor URLs to crawl for keywords")
	terms := flag.String("terms", "", "Comma-separated keyword terms (default: built-in mortgage terms)")
	delay := flag.Duration("delay", 2*time.Second, "Delay between competitor requests")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout")
	flag.Parse()

	if *sitemapOut == "" && *keywordsOut == "" {
		fmt.Fprintln(os.Stderr, "Nothing to do: pass -sitemap and/or -keywords")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.New(cfg.Env, os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *sitemapOut != "" {
		store, err := app.OpenStore(ctx, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		regionPages, err := seo.RegionPages(ctx, store.Snapshots, log)
		_ = store.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		pages := append(append([]seo.Page{}, seo.StaticPages...), regionPages...)
		if err := writeFile(*sitemapOut, func(w io.Writer) error {
			return seo.WriteSitemap(w, cfg.SiteURL, pages)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing sitemap: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d pages to %s\n", len(pages), *sitemapOut)
	}

	if *keywordsOut != "" {
		seeds := splitList(*competitors)
		if len(seeds) == 0 {
			fmt.Fprintln(os.Stderr, "Error: -keywords needs -competitors")
			os.Exit(2)
		}

		crawler := seo.NewKeywordCrawler(splitList(*terms), *delay, log)
		counts, err := crawler.Crawl(ctx, seeds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := writeFile(*keywordsOut, func(w io.Writer) error {
			return seo.WriteKeywords(w, counts)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing keywords: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d keywords to %s\n", len(counts), *keywordsOut)
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
