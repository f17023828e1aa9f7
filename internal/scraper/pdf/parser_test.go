package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keystonemortgage/backend/internal/model"
)

func TestParseRateSheet_Sections(t *testing.T) {
	text := `Residential Mortgage Rates
Effective October 1
Fixed Rate Mortgages
1 Year Closed   6.79%   6.09%
5 Year Closed   6.49%   4.79%
Variable Rate Mortgages
5 Year   6.20%   5.10%
Open Mortgages
1 Year   8.00%
`

	rates := ParseRateSheet(text)
	require.Len(t, rates, 4)

	assert.Equal(t, "1 Year", rates[0].Term)
	assert.Equal(t, model.RateTypeFixed, rates[0].Type)
	assert.Equal(t, "6.09", rates[0].Rate.StringFixed(2), "lowest rate on the row wins")

	assert.Equal(t, "5 Year", rates[1].Term)
	assert.Equal(t, "4.79", rates[1].Rate.StringFixed(2))

	assert.Equal(t, "5 Year", rates[2].Term)
	assert.Equal(t, model.RateTypeVariable, rates[2].Type)
	assert.Equal(t, "5.10", rates[2].Rate.StringFixed(2))

	assert.Equal(t, model.RateTypeOpen, rates[3].Type)
	assert.Equal(t, "8.00", rates[3].Rate.StringFixed(2))
}

func TestParseRateSheet_TabularLayout(t *testing.T) {
	text := "Term\nRate\n3 Year\n5.49%\n5 Year\n\n4.89 %\n10 Year\n"

	rates := ParseRateSheet(text)
	require.Len(t, rates, 2)
	assert.Equal(t, "3 Year", rates[0].Term)
	assert.Equal(t, "5.49", rates[0].Rate.StringFixed(2))
	assert.Equal(t, "5 Year", rates[1].Term)
	assert.Equal(t, "4.89", rates[1].Rate.StringFixed(2))
}

func TestParseRateSheet_Deduplicates(t *testing.T) {
	text := "5 Year Fixed 4.79%\n5 Year Fixed 4.99%\n5 Year Variable 5.10%\n"

	rates := ParseRateSheet(text)
	require.Len(t, rates, 2)
	assert.Equal(t, "4.79", rates[0].Rate.StringFixed(2))
	assert.Equal(t, model.RateTypeVariable, rates[1].Type)
}

func TestParseRateSheet_NoRates(t *testing.T) {
	assert.Empty(t, ParseRateSheet(""))
	assert.Empty(t, ParseRateSheet("Please contact your branch for current rates."))
}

func TestExtractText_InvalidPDF(t *testing.T) {
	_, err := ExtractText([]byte("not a pdf"))
	assert.Error(t, err)

	_, err = ExtractTextFile("/nonexistent/rates.pdf")
	assert.Error(t, err)
}
