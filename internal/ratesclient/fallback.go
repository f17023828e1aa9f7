package ratesclient

import "github.com/keystonemortgage/backend/internal/model"

// FallbackSource labels results built from the fallback table.
const FallbackSource = "Keystone Mortgage (indicative rates)"

// fallbackRecords are shown only when live rates cannot be reached. Payments
// assume a $400,000 mortgage over 25 years.
var fallbackRecords = [...]model.RateRecord{
	{Term: "1 Year", Rate: "6.09%", Type: model.RateTypeFixed, Lender: "Keystone Mortgage", Payment: "$2,580.66"},
	{Term: "2 Year", Rate: "5.49%", Type: model.RateTypeFixed, Lender: "Keystone Mortgage", Payment: "$2,439.24"},
	{Term: "3 Year", Rate: "4.99%", Type: model.RateTypeFixed, Lender: "Keystone Mortgage", Payment: "$2,324.14"},
	{Term: "5 Year", Rate: "4.79%", Type: model.RateTypeFixed, Lender: "Keystone Mortgage", Payment: "$2,278.83"},
	{Term: "10 Year", Rate: "5.59%", Type: model.RateTypeFixed, Lender: "Keystone Mortgage", Payment: "$2,462.56"},
	{Term: "5 Year", Rate: "5.95%", Type: model.RateTypeVariable, Lender: "Keystone Mortgage", Payment: "$2,547.35"},
}

// FallbackRates returns a fresh copy of the fallback table as display rates.
func FallbackRates() []model.DisplayRate {
	return model.NewDisplayRates(fallbackRecords[:])
}
