// Package seo builds the static SEO artifacts published with the site: the
// sitemap and a keyword report of competitor pages.
package seo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/beevik/etree"

	"github.com/keystonemortgage/backend/internal/model"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// Page is one sitemap entry. A zero LastMod is omitted.
type Page struct {
	Path       string
	LastMod    civil.Date
	ChangeFreq string
	Priority   float64
}

// StaticPages are the site pages that exist regardless of rate data.
var StaticPages = []Page{
	{Path: "/", ChangeFreq: "weekly", Priority: 1.0},
	{Path: "/rates", ChangeFreq: "daily", Priority: 0.9},
	{Path: "/calculator", ChangeFreq: "monthly", Priority: 0.6},
	{Path: "/contact", ChangeFreq: "monthly", Priority: 0.5},
	{Path: "/about", ChangeFreq: "yearly", Priority: 0.3},
}

// SnapshotSource lists regions and reads their current snapshot
type SnapshotSource interface {
	Regions(ctx context.Context) ([]string, error)
	Get(ctx context.Context, region string) (*model.RateSnapshot, error)
}

// RegionPages returns one /rates/{region} page per stored region, dated by the
// snapshot's scrape day. Regions whose snapshot cannot be read are listed
// without a date.
func RegionPages(ctx context.Context, snapshots SnapshotSource, logger *slog.Logger) ([]Page, error) {
	if logger == nil {
		logger = slog.Default()
	}

	regions, err := snapshots.Regions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list regions: %w", err)
	}

	pages := make([]Page, 0, len(regions))
	for _, region := range regions {
		page := Page{Path: "/rates/" + region, ChangeFreq: "daily", Priority: 0.8}

		snap, err := snapshots.Get(ctx, region)
		if err != nil {
			logger.Warn("sitemap: snapshot unreadable, omitting lastmod", "region", region, "error", err)
		} else {
			page.LastMod = civil.DateOf(snap.ScrapedAt.UTC())
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// WriteSitemap renders pages as a sitemaps.org urlset under siteURL.
func WriteSitemap(w io.Writer, siteURL string, pages []Page) error {
	siteURL = strings.TrimRight(siteURL, "/")

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	urlset := doc.CreateElement("urlset")
	urlset.CreateAttr("xmlns", sitemapNS)

	for _, p := range pages {
		u := urlset.CreateElement("url")
		u.CreateElement("loc").SetText(siteURL + p.Path)
		if p.LastMod.IsValid() {
			u.CreateElement("lastmod").SetText(p.LastMod.String())
		}
		if p.ChangeFreq != "" {
			u.CreateElement("changefreq").SetText(p.ChangeFreq)
		}
		if p.Priority > 0 {
			u.CreateElement("priority").SetText(strconv.FormatFloat(p.Priority, 'f', 1, 64))
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}
