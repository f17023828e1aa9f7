package scraper

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/keystonemortgage/backend/pkg/currency"
)

// PaymentBasis is the reference loan a monthly payment is quoted against
type PaymentBasis struct {
	Principal         decimal.Decimal
	AmortizationYears int
}

// DefaultPaymentBasis returns the $400,000 / 25-year reference loan
func DefaultPaymentBasis() PaymentBasis {
	return PaymentBasis{
		Principal:         decimal.NewFromInt(400000),
		AmortizationYears: 25,
	}
}

// MonthlyPayment computes the monthly payment for an annual rate given in
// percent. Canadian fixed-rate mortgages compound semi-annually, so the
// nominal rate is converted to an effective monthly rate first.
func MonthlyPayment(basis PaymentBasis, annualRate decimal.Decimal) decimal.Decimal {
	n := basis.AmortizationYears * 12
	if n <= 0 || basis.Principal.Sign() <= 0 {
		return decimal.Zero
	}

	principal := basis.Principal.InexactFloat64()
	if annualRate.Sign() <= 0 {
		return decimal.NewFromFloat(principal / float64(n)).Round(2)
	}

	j := annualRate.InexactFloat64() / 100
	i := math.Pow(1+j/2, 1.0/6.0) - 1
	payment := principal * i / (1 - math.Pow(1+i, -float64(n)))

	return decimal.NewFromFloat(payment).Round(2)
}

// FormatPayment renders a monthly payment as a CAD display string
func FormatPayment(amount decimal.Decimal) string {
	return currency.NewMoney(amount, currency.CAD).Round().Format()
}
