package model

import (
	"math"
	"time"
)

// RateType is the mortgage product family of a rate record.
type RateType string

const (
	RateTypeFixed    RateType = "Fixed"
	RateTypeVariable RateType = "Variable"
	RateTypeOpen     RateType = "Open"
)

// Valid reports whether t is one of the known rate types.
func (t RateType) Valid() bool {
	switch t {
	case RateTypeFixed, RateTypeVariable, RateTypeOpen:
		return true
	}
	return false
}

// RateRecord is one advertised rate. Rate and Payment are display strings
// ("4.79%", "$2,326.42") and are never parsed by the serving layer.
type RateRecord struct {
	Term    string   `json:"term"` // "5 Year"
	Rate    string   `json:"rate"`
	Type    RateType `json:"type"`
	Lender  string   `json:"lender"`
	Payment string   `json:"payment"`
}

// RateSnapshot is the persisted rate table for one region. Producers replace
// it wholesale; Region and Version are assigned by the store.
type RateSnapshot struct {
	Source    string       `json:"source"`
	URL       string       `json:"url"`
	ScrapedAt time.Time    `json:"scrapedAt"`
	Rates     []RateRecord `json:"rates"`
	Region    string       `json:"region,omitempty"`
	Version   int64        `json:"version,omitempty"`
}

// Age returns how long ago the snapshot was produced.
func (s *RateSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.ScrapedAt)
}

// DataAgeHours is Age rounded to whole hours. A scrapedAt ahead of now
// counts as fresh.
func (s *RateSnapshot) DataAgeHours(now time.Time) int {
	age := s.Age(now)
	if age < 0 {
		return 0
	}
	return int(math.Round(age.Hours()))
}

// SnapshotVersion summarizes one stored revision of a region's snapshot.
type SnapshotVersion struct {
	Region      string    `db:"region" json:"region"`
	Version     int64     `db:"version" json:"version"`
	Source      string    `db:"source" json:"source"`
	ScrapedAt   time.Time `db:"scraped_at" json:"scrapedAt"`
	PublishedAt time.Time `db:"published_at" json:"publishedAt"`
	RateCount   int       `db:"rate_count" json:"rateCount"`
}
