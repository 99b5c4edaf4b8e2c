package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/models"
)

func TestCleanAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"-6 600,00 ₽", "-6600,00"},
		{"$1,234.56", "1,234.56"},
		{"CHF 1'234.56", "1234.56"},
		{"abc", ""},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, CleanAmount(tc.input))
		})
	}
}

func TestSeparatorVote(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		sep    models.DecimalSeparator
		weight int
	}{
		{"comma last of both", "1.234,56", models.DecimalComma, 2},
		{"dot last of both", "1,234.56", models.DecimalDot, 2},
		{"comma cents", "-6600,00", models.DecimalComma, 1},
		{"dot cents", "27473.95", models.DecimalDot, 1},
		{"comma grouping only", "1,234", "", 0},
		{"dot single decimal", "12.5", "", 0},
		{"integer", "100", "", 0},
		{"empty", "", "", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sep, weight := SeparatorVote(tc.input)
			assert.Equal(t, tc.sep, sep)
			assert.Equal(t, tc.weight, weight)
		})
	}
}

func TestParsePreviewAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      models.DecimalSeparator
		expected float64
		ok       bool
	}{
		{"european grouping", "1.000,50", models.DecimalComma, 1000.5, true},
		{"us grouping", "1,000.50", models.DecimalDot, 1000.5, true},
		{"negative comma", "-6600,00", models.DecimalComma, -6600, true},
		{"symbol and spaces", "€ 12,30", models.DecimalComma, 12.3, true},
		{"numeric prefix only", "12-3", models.DecimalDot, 12, true},
		{"trailing dot", "5.", models.DecimalDot, 5, true},
		{"leading dot", ".5", models.DecimalDot, 0.5, true},
		{"dash only", "-", models.DecimalDot, 0, false},
		{"letters", "abc", models.DecimalComma, 0, false},
		{"empty", "", models.DecimalDot, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParsePreviewAmount(tc.input, tc.sep)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.InDelta(t, tc.expected, got, 1e-9)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		sep      models.DecimalSeparator
		expected string
		hasError bool
	}{
		{"comma decimal", "-6 600,00", models.DecimalComma, "-6600", false},
		{"dot decimal with symbol", "$1,234.56", models.DecimalDot, "1234.56", false},
		{"rouble suffix", "27473,95₽", models.DecimalComma, "27473.95", false},
		{"empty", "  ", models.DecimalDot, "0", true},
		{"text", "n/a", models.DecimalDot, "0", true},
		{"malformed", "1.2.3", models.DecimalDot, "0", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseAmount(tc.input, tc.sep)
			if tc.hasError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tc.expected).Equal(got), "got %s", got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "-6600.00", FormatAmount(decimal.NewFromInt(-6600)))
	assert.Equal(t, "0.50", FormatAmount(decimal.RequireFromString("0.5")))
}

func TestSign(t *testing.T) {
	assert.True(t, IsNegative(decimal.NewFromInt(-1)))
	assert.False(t, IsNegative(decimal.Zero))
	assert.True(t, IsPositive(decimal.NewFromInt(1)))
	assert.False(t, IsPositive(decimal.Zero))
}
