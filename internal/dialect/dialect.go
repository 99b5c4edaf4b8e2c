// Package dialect infers how an export file is encoded: its field delimiter,
// decimal separator and date format. All detectors are pure functions.
package dialect

import (
	"strings"

	"fjacquet/ledger-import/internal/currencyutils"
	"fjacquet/ledger-import/internal/dateutils"
	"fjacquet/ledger-import/internal/models"
)

// SampleLines is the number of non-blank lines or values inspected.
const SampleLines = 10

// DefaultDelimiter is returned when no candidate produces the expected
// column count on any sampled line.
const DefaultDelimiter = ';'

// SampleNonBlank returns up to limit lines of text that are not blank. A
// trailing carriage return is dropped from each line.
func SampleNonBlank(text string, limit int) []string {
	var sample []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		sample = append(sample, line)
		if len(sample) == limit {
			break
		}
	}
	return sample
}

// DetectDelimiter picks the candidate delimiter that splits the sampled
// lines into the expected number of columns. Candidates are tried in
// priority order; the first one on which every sampled line agrees wins
// outright. Otherwise the candidate with the most matching lines is chosen,
// earlier candidates winning ties.
func DetectDelimiter(text string) rune {
	lines := SampleNonBlank(text, SampleLines)

	best := rune(DefaultDelimiter)
	bestScore := 0

	for _, delim := range models.Delimiters {
		sep := string(delim)
		score := 0
		for _, line := range lines {
			if len(strings.Split(line, sep)) == models.ExpectedColumns {
				score++
			}
		}
		if len(lines) > 0 && score == len(lines) {
			return delim
		}
		if score > bestScore {
			bestScore = score
			best = delim
		}
	}

	return best
}

// DetectDecimalSeparator tallies the separator votes of every amount and
// returns ',' only when it strictly outscores '.'.
func DetectDecimalSeparator(amounts []string) models.DecimalSeparator {
	commaScore, dotScore := 0, 0

	for _, raw := range amounts {
		sep, weight := currencyutils.SeparatorVote(raw)
		switch sep {
		case models.DecimalComma:
			commaScore += weight
		case models.DecimalDot:
			dotScore += weight
		}
	}

	if commaScore > dotScore {
		return models.DecimalComma
	}
	return models.DecimalDot
}

// DetectDateFormat returns the first supported format that every sample
// matches. Month-first slash dates are skipped when a sample's first group
// cannot be a month. Only the first SampleLines non-blank samples are used.
func DetectDateFormat(dates []string) models.DateFormat {
	var samples []string
	for _, d := range dates {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		samples = append(samples, d)
		if len(samples) == SampleLines {
			break
		}
	}
	if len(samples) == 0 {
		return models.DateFormatDotDMY
	}

	for _, format := range models.DateFormats {
		if !allValid(samples, format) {
			continue
		}
		if format == models.DateFormatSlashMDY && anyFirstGroupAbove(samples, 12) {
			continue
		}
		return format
	}

	return models.DateFormatDotDMY
}

func allValid(samples []string, format models.DateFormat) bool {
	for _, s := range samples {
		if !dateutils.IsValidDate(s, format) {
			return false
		}
	}
	return true
}

func anyFirstGroupAbove(samples []string, limit int) bool {
	for _, s := range samples {
		if dateutils.FirstGroup(s) > limit {
			return true
		}
	}
	return false
}

// FromRows completes a dialect for rows already split with delim. Decimal
// detection sees every non-empty amount; date detection sees the first
// SampleLines non-empty dates.
func FromRows(delim rune, rows []models.RawRow) models.Dialect {
	amounts := make([]string, 0, len(rows))
	dates := make([]string, 0, SampleLines)
	for _, r := range rows {
		if r.Total != "" {
			amounts = append(amounts, r.Total)
		}
		if r.Date != "" && len(dates) < SampleLines {
			dates = append(dates, r.Date)
		}
	}

	return models.Dialect{
		Delimiter:        delim,
		DecimalSeparator: DetectDecimalSeparator(amounts),
		DateFormat:       DetectDateFormat(dates),
	}
}
