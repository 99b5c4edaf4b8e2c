// Package currencyutils provides amount cleaning and parsing under a known
// decimal convention.
package currencyutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fjacquet/ledger-import/internal/models"
)

var (
	nonAmountChars = regexp.MustCompile(`[^\d.,-]`)
	leadingNumber  = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)
	centsComma     = regexp.MustCompile(`,\d{2}$`)
	centsDot       = regexp.MustCompile(`\.\d{2}$`)
)

// CleanAmount strips everything except digits, '.', ',' and '-'.
func CleanAmount(raw string) string {
	return nonAmountChars.ReplaceAllString(raw, "")
}

// normalizeSeparators drops the grouping character and leaves '.' as the
// only decimal mark.
func normalizeSeparators(s string, sep models.DecimalSeparator) string {
	if sep == models.DecimalComma {
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	}
	return strings.ReplaceAll(s, ",", "")
}

// SeparatorVote inspects one raw amount and returns the separator it points
// to with its weight. A sample carrying both marks votes for the last one
// with weight 2. A sample with a single kind of mark votes 1 only when it is
// followed by exactly two trailing digits. Weight 0 means no opinion.
func SeparatorVote(raw string) (models.DecimalSeparator, int) {
	cleaned := CleanAmount(raw)
	if cleaned == "" {
		return "", 0
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			return models.DecimalComma, 2
		}
		return models.DecimalDot, 2
	case hasComma:
		if centsComma.MatchString(cleaned) {
			return models.DecimalComma, 1
		}
	case hasDot:
		if centsDot.MatchString(cleaned) {
			return models.DecimalDot, 1
		}
	}
	return "", 0
}

// ParsePreviewAmount parses raw for display under the given separator. It
// reads the longest numeric prefix of the cleaned value, so "12-3" yields 12.
// It reports false when no number can be read.
func ParsePreviewAmount(raw string, sep models.DecimalSeparator) (float64, bool) {
	cleaned := CleanAmount(raw)
	if cleaned == "" {
		return 0, false
	}

	prefix := leadingNumber.FindString(normalizeSeparators(cleaned, sep))
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// StripCurrencyGlyphs removes the common currency symbols and spaces that
// exports put around amounts.
func StripCurrencyGlyphs(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', '₽', ' ':
			return -1
		}
		return r
	}, s)
}

// ParseAmount is the strict parse used when persisting: the whole value,
// minus currency glyphs, must be a number under the given separator.
func ParseAmount(raw string, sep models.DecimalSeparator) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	s = normalizeSeparators(StripCurrencyGlyphs(s), sep)
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", raw, err)
	}
	return amount, nil
}

// FormatAmount renders an amount with two decimals and no grouping.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// IsNegative checks if an amount is negative
func IsNegative(amount decimal.Decimal) bool {
	return amount.LessThan(decimal.Zero)
}

// IsPositive checks if an amount is positive
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}
