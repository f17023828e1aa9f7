package model

import "time"

// PopularTerm and PopularType mark the product highlighted on the site.
const (
	PopularTerm = "5 Year"
	PopularType = RateTypeFixed
)

type termType struct {
	term string
	kind RateType
}

var bestForLabels = map[termType]string{
	{"1 Year", RateTypeFixed}:    "Short-term flexibility",
	{"2 Year", RateTypeFixed}:    "Expecting rates to fall",
	{"3 Year", RateTypeFixed}:    "Balance of stability and flexibility",
	{"4 Year", RateTypeFixed}:    "Mid-term planning",
	{"5 Year", RateTypeFixed}:    "Long-term stability",
	{"7 Year", RateTypeFixed}:    "Extended certainty",
	{"10 Year", RateTypeFixed}:   "Maximum payment certainty",
	{"3 Year", RateTypeVariable}: "Shorter commitment with prime savings",
	{"5 Year", RateTypeVariable}: "Potential savings if rates drop",
	{"1 Year", RateTypeOpen}:     "Paying off your mortgage soon",
	{"5 Year", RateTypeOpen}:     "Full prepayment freedom",
	{"6 Month", RateTypeOpen}:    "Bridge before selling or refinancing",
	{"6 Month", RateTypeFixed}:   "Bridge before selling or refinancing",
}

// BestFor returns the audience label for a term/type pair, or "" if none.
func BestFor(term string, kind RateType) string {
	return bestForLabels[termType{term, kind}]
}

// IsPopular reports whether the pair is the highlighted product.
func IsPopular(term string, kind RateType) bool {
	return term == PopularTerm && kind == PopularType
}

// DisplayRate is a RateRecord decorated for the client. It is derived on
// every read and never stored.
type DisplayRate struct {
	RateRecord
	Popular bool   `json:"popular"`
	BestFor string `json:"bestFor,omitempty"`
}

// NewDisplayRate derives the display fields for r.
func NewDisplayRate(r RateRecord) DisplayRate {
	return DisplayRate{
		RateRecord: r,
		Popular:    IsPopular(r.Term, r.Type),
		BestFor:    BestFor(r.Term, r.Type),
	}
}

// NewDisplayRates maps every record, preserving order.
func NewDisplayRates(records []RateRecord) []DisplayRate {
	out := make([]DisplayRate, len(records))
	for i, r := range records {
		out[i] = NewDisplayRate(r)
	}
	return out
}

// ProviderRates groups display rates under the snapshot's source.
type ProviderRates struct {
	Provider string        `json:"provider"`
	Rates    []DisplayRate `json:"rates"`
}

// RatesResponse is the successful read payload.
type RatesResponse struct {
	Rates       []ProviderRates `json:"rates"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Source      string          `json:"source"`
	DataAge     int             `json:"dataAge"` // Hours since the snapshot was produced
	Stale       bool            `json:"stale"`
	Region      string          `json:"region"`
	Version     int64           `json:"version,omitempty"`
}

// UnavailableResponse is returned with 503 when no usable snapshot exists.
// It never carries rates.
type UnavailableResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// UnavailableErrorKind is the machine-readable error of UnavailableResponse.
const UnavailableErrorKind = "rates_unavailable"
