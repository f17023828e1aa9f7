// Package currency formats and parses the monetary display strings carried in
// rate snapshots. Amounts are decimal.Decimal to avoid floating-point errors.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Supported currencies.
const (
	CAD Currency = "CAD" // Canadian Dollar
	USD Currency = "USD" // US Dollar
)

// DefaultCurrency is the default currency when none is specified.
const DefaultCurrency = CAD

// CurrencyInfo contains metadata about a currency.
type CurrencyInfo struct {
	Code          Currency
	Name          string
	Symbol        string
	DecimalPlaces int
	ThousandsSep  string
	DecimalSep    string
}

var currencies = map[Currency]CurrencyInfo{
	CAD: {Code: CAD, Name: "Canadian Dollar", Symbol: "$", DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", DecimalPlaces: 2, ThousandsSep: ",", DecimalSep: "."},
}

// IsValid checks if a currency code is supported.
func IsValid(code string) bool {
	_, ok := currencies[Currency(code)]
	return ok
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (CurrencyInfo, bool) {
	info, ok := currencies[code]
	return info, ok
}

// Money represents a monetary amount with currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney creates a new Money value.
func NewMoney(amount decimal.Decimal, curr Currency) Money {
	if curr == "" {
		curr = DefaultCurrency
	}
	return Money{Amount: amount, Currency: curr}
}

// Parse reads a display string such as "$2,326.42" or "2326" back into Money.
func Parse(s string, curr Currency) (Money, error) {
	info, ok := GetInfo(curr)
	if !ok {
		info = currencies[DefaultCurrency]
	}

	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "/mo")
	cleaned = strings.TrimPrefix(cleaned, string(info.Code))
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimPrefix(cleaned, info.Symbol)
	cleaned = strings.ReplaceAll(cleaned, info.ThousandsSep, "")
	if info.DecimalSep != "." {
		cleaned = strings.ReplaceAll(cleaned, info.DecimalSep, ".")
	}

	d, err := decimal.NewFromString(strings.TrimSpace(cleaned))
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return NewMoney(d, info.Code), nil
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// Round rounds the amount to the currency's decimal places.
func (m Money) Round() Money {
	info, ok := GetInfo(m.Currency)
	if !ok {
		info = currencies[DefaultCurrency]
	}
	return NewMoney(m.Amount.Round(int32(info.DecimalPlaces)), m.Currency)
}

// Format renders the amount with symbol and thousands grouping, e.g. "$2,326.42".
func (m Money) Format() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
	}

	fixed := m.Amount.Abs().StringFixed(int32(info.DecimalPlaces))
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if m.Amount.IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(info.Symbol)
	b.WriteString(group(whole, info.ThousandsSep))
	if frac != "" {
		b.WriteString(info.DecimalSep)
		b.WriteString(frac)
	}
	return b.String()
}

// String returns the amount as a plain string.
func (m Money) String() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return m.Amount.String()
	}
	return m.Amount.Round(int32(info.DecimalPlaces)).String()
}

func group(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}

	var b strings.Builder
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
