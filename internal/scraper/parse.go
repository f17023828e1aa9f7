package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/keystonemortgage/backend/internal/model"
)

var (
	rateNumberPattern = regexp.MustCompile(`\d{1,2}(?:[.,]\d{1,3})?`)
	yearTermPattern   = regexp.MustCompile(`(\d{1,2})\s*-?\s*(?:years?|yrs?|ans?)\b`)
	monthTermPattern  = regexp.MustCompile(`(\d{1,3})\s*-?\s*(?:months?|mos?|mois)\b`)
	bareNumberPattern = regexp.MustCompile(`^(\d{1,2})$`)
)

// Bounds for a plausible posted mortgage rate, in percent
var (
	minRate = decimal.NewFromFloat(0.5)
	maxRate = decimal.NewFromInt(25)
)

// ParseRate parses an advertised rate such as "4.79%", "4,79 %" or "from 5.09"
func ParseRate(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	match := rateNumberPattern.FindString(cleaned)
	if match == "" {
		return decimal.Zero, fmt.Errorf("%w: no rate in %q", ErrParsingFailed, s)
	}

	rate, err := decimal.NewFromString(strings.ReplaceAll(match, ",", "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	if rate.LessThan(minRate) || rate.GreaterThan(maxRate) {
		return decimal.Zero, fmt.Errorf("%w: rate out of range: %s", ErrParsingFailed, rate)
	}

	return rate, nil
}

// FormatRate renders a rate as the display string stored in snapshots
func FormatRate(rate decimal.Decimal) string {
	return rate.StringFixed(2) + "%"
}

// NormalizeTerm maps a source term label onto the canonical form used by the
// display lookups: "5 yr" and "60 months" both become "5 Year", "6 mo" becomes
// "6 Month".
func NormalizeTerm(s string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(s))

	if m := yearTermPattern.FindStringSubmatch(lower); m != nil {
		years, _ := strconv.Atoi(m[1])
		if years > 0 && years <= 30 {
			return fmt.Sprintf("%d Year", years), nil
		}
	}

	if m := monthTermPattern.FindStringSubmatch(lower); m != nil {
		months, _ := strconv.Atoi(m[1])
		switch {
		case months <= 0:
		case months%12 == 0 && months <= 360:
			return fmt.Sprintf("%d Year", months/12), nil
		case months < 12:
			return fmt.Sprintf("%d Month", months), nil
		}
	}

	// Lender tables often label the term column with a bare year count
	if m := bareNumberPattern.FindStringSubmatch(lower); m != nil {
		years, _ := strconv.Atoi(m[1])
		if years > 0 && years <= 10 {
			return fmt.Sprintf("%d Year", years), nil
		}
	}

	return "", fmt.Errorf("%w: unrecognized term %q", ErrParsingFailed, s)
}

// DetectType infers the product family from a label. Anything that is not
// marked variable or open is treated as fixed.
func DetectType(s string) model.RateType {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "variable"), strings.Contains(lower, "prime"),
		strings.Contains(lower, "adjustable"):
		return model.RateTypeVariable
	case strings.Contains(lower, "open") && !strings.Contains(lower, "closed"):
		return model.RateTypeOpen
	default:
		return model.RateTypeFixed
	}
}

// ParseRateType accepts an explicit type label ("fixed", "Variable", "OPEN")
func ParseRateType(s string) (model.RateType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fixed":
		return model.RateTypeFixed, nil
	case "variable":
		return model.RateTypeVariable, nil
	case "open":
		return model.RateTypeOpen, nil
	}
	return "", fmt.Errorf("%w: unknown rate type %q", ErrParsingFailed, s)
}

// DedupeRates keeps the first record for each (term, type) pair, preserving
// source order.
func DedupeRates(records []model.RateRecord) []model.RateRecord {
	type key struct {
		term string
		kind model.RateType
	}

	seen := make(map[key]bool, len(records))
	out := make([]model.RateRecord, 0, len(records))
	for _, r := range records {
		k := key{r.Term, r.Type}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
