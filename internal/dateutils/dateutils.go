// Package dateutils handles the fixed set of export date formats: positional
// splitting, range validation and conversion to Go time layouts.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"fjacquet/ledger-import/internal/models"
)

// Plausible ranges for a date component.
const (
	MinYear = 1900
	MaxYear = 2100
)

var (
	dotPattern   = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})$`)
	isoPattern   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	slashPattern = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

	layoutReplacer = strings.NewReplacer("yyyy", "2006", "MM", "01", "dd", "02")
)

// Parts is a date split into numeric components without calendar checks.
type Parts struct {
	Year  int
	Month int
	Day   int
}

// Layout converts a dd/MM/yyyy style format into a Go time layout.
func Layout(format models.DateFormat) string {
	return layoutReplacer.Replace(string(format))
}

// SplitDate extracts year, month and day from value following the exact
// positional pattern of format. It reports false if the pattern does not
// match.
func SplitDate(value string, format models.DateFormat) (Parts, bool) {
	var m []string
	switch format {
	case models.DateFormatDotDMY:
		m = dotPattern.FindStringSubmatch(value)
	case models.DateFormatISO:
		m = isoPattern.FindStringSubmatch(value)
	case models.DateFormatSlashDMY, models.DateFormatSlashMDY:
		m = slashPattern.FindStringSubmatch(value)
	default:
		return Parts{}, false
	}
	if m == nil {
		return Parts{}, false
	}

	a, b, c := atoi(m[1]), atoi(m[2]), atoi(m[3])
	switch format {
	case models.DateFormatISO:
		return Parts{Year: a, Month: b, Day: c}, true
	case models.DateFormatSlashMDY:
		return Parts{Year: c, Month: a, Day: b}, true
	default:
		return Parts{Year: c, Month: b, Day: a}, true
	}
}

// IsValidDate reports whether value matches format and its components fall
// into plausible ranges. Day is not checked against the month length.
func IsValidDate(value string, format models.DateFormat) bool {
	p, ok := SplitDate(value, format)
	if !ok {
		return false
	}
	if p.Month < 1 || p.Month > 12 {
		return false
	}
	if p.Day < 1 || p.Day > 31 {
		return false
	}
	return p.Year >= MinYear && p.Year <= MaxYear
}

// FirstGroup returns the leading numeric group of a slash separated date,
// or -1 if there is none.
func FirstGroup(value string) int {
	head, _, _ := strings.Cut(value, "/")
	n, err := strconv.Atoi(head)
	if err != nil {
		return -1
	}
	return n
}

// ParseDate parses value with the given format. Unlike IsValidDate this is a
// full calendar check, so 31.02.2026 is rejected.
func ParseDate(value string, format models.DateFormat) (time.Time, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(Layout(format), value)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse date %q as %s: %w", value, format, err)
	}
	return t, nil
}

// FormatDate renders t with the given format.
func FormatDate(t time.Time, format models.DateFormat) string {
	return t.Format(Layout(format))
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
