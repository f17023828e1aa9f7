// Package pdf extracts mortgage rates from lender rate-sheet PDFs.
package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/keystonemortgage/backend/internal/model"
	"github.com/keystonemortgage/backend/internal/scraper"
)

// ExtractText extracts all text from an in-memory PDF
func ExtractText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	return readPages(r), nil
}

// ExtractTextFile extracts all text from a PDF on disk
func ExtractTextFile(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	return readPages(r), nil
}

func readPages(r *pdf.Reader) string {
	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text.WriteString(content)
		text.WriteString("\n")
	}
	return text.String()
}

// SheetRate is one term parsed from a rate sheet
type SheetRate struct {
	Term string
	Type model.RateType
	Rate decimal.Decimal
}

var (
	sheetRatePattern = regexp.MustCompile(`(\d{1,2})[.,](\d{2,3})\s*%?`)
	spacePattern     = regexp.MustCompile(`[ \t\x{00A0}]+`)
)

// ParseRateSheet reads term/rate pairs from rate-sheet text. Section headings
// such as "Variable Rate Mortgages" set the type for the rows below them. When
// a row lists several rates (posted and discounted) the lowest is kept.
func ParseRateSheet(text string) []SheetRate {
	lines := strings.Split(spacePattern.ReplaceAllString(text, " "), "\n")

	var rates []SheetRate
	seen := make(map[string]bool)
	section := model.RateTypeFixed

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		term, err := scraper.NormalizeTerm(line)
		if err != nil {
			if isHeading(line) {
				section = scraper.DetectType(line)
			}
			continue
		}

		matches := sheetRatePattern.FindAllString(line, -1)

		// Tabular layouts put the rate on the following lines
		for j := i + 1; len(matches) == 0 && j < len(lines) && j <= i+3; j++ {
			next := strings.TrimSpace(lines[j])
			if next == "" {
				continue
			}
			if _, err := scraper.NormalizeTerm(next); err == nil {
				break
			}
			matches = sheetRatePattern.FindAllString(next, -1)
		}

		best, ok := lowestRate(matches)
		if !ok {
			continue
		}

		kind := section
		if t := scraper.DetectType(line); t != model.RateTypeFixed {
			kind = t
		}

		key := term + "|" + string(kind)
		if seen[key] {
			continue
		}
		seen[key] = true

		rates = append(rates, SheetRate{Term: term, Type: kind, Rate: best})
	}

	return rates
}

func lowestRate(matches []string) (decimal.Decimal, bool) {
	var best decimal.Decimal
	found := false
	for _, m := range matches {
		rate, err := scraper.ParseRate(m)
		if err != nil {
			continue
		}
		if !found || rate.LessThan(best) {
			best = rate
			found = true
		}
	}
	return best, found
}

func isHeading(line string) bool {
	if sheetRatePattern.MatchString(line) {
		return false
	}
	lower := strings.ToLower(line)
	return strings.Contains(lower, "fixed") ||
		strings.Contains(lower, "variable") ||
		strings.Contains(lower, "open")
}
