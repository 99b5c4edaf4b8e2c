package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/ledger-import/internal/models"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		format   models.DateFormat
		expected string
	}{
		{models.DateFormatDotDMY, "02.01.2006"},
		{models.DateFormatISO, "2006-01-02"},
		{models.DateFormatSlashDMY, "02/01/2006"},
		{models.DateFormatSlashMDY, "01/02/2006"},
	}

	for _, tc := range tests {
		t.Run(string(tc.format), func(t *testing.T) {
			assert.Equal(t, tc.expected, Layout(tc.format))
		})
	}
}

func TestSplitDate(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		format models.DateFormat
		want   Parts
		ok     bool
	}{
		{"dotted", "19.02.2026", models.DateFormatDotDMY, Parts{2026, 2, 19}, true},
		{"iso", "2026-02-19", models.DateFormatISO, Parts{2026, 2, 19}, true},
		{"slash day first", "19/02/2026", models.DateFormatSlashDMY, Parts{2026, 2, 19}, true},
		{"slash month first", "02/19/2026", models.DateFormatSlashMDY, Parts{2026, 2, 19}, true},
		{"single digit day rejected", "1.02.2026", models.DateFormatDotDMY, Parts{}, false},
		{"wrong separator", "19-02-2026", models.DateFormatDotDMY, Parts{}, false},
		{"trailing text", "2026-02-19T10:00", models.DateFormatISO, Parts{}, false},
		{"unknown format", "19.02.2026", models.DateFormat("yyyy/MM/dd"), Parts{}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SplitDate(tc.value, tc.format)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		format models.DateFormat
		valid  bool
	}{
		{"plain", "19.02.2026", models.DateFormatDotDMY, true},
		{"month 13", "19.13.2026", models.DateFormatDotDMY, false},
		{"day 32", "32.01.2026", models.DateFormatDotDMY, false},
		{"day zero", "00.01.2026", models.DateFormatDotDMY, false},
		{"year too early", "01.01.1899", models.DateFormatDotDMY, false},
		{"year too late", "2101-01-01", models.DateFormatISO, false},
		{"range bounds", "2100-12-31", models.DateFormatISO, true},
		{"us with day over 12", "02/19/2026", models.DateFormatSlashMDY, true},
		{"us with month over 12", "19/02/2026", models.DateFormatSlashMDY, false},
		{"no calendar check", "31.02.2026", models.DateFormatDotDMY, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, IsValidDate(tc.value, tc.format))
		})
	}
}

func TestFirstGroup(t *testing.T) {
	assert.Equal(t, 19, FirstGroup("19/02/2026"))
	assert.Equal(t, 2, FirstGroup("02/19/2026"))
	assert.Equal(t, -1, FirstGroup("/02/2026"))
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate(" 19.02.2026 ", models.DateFormatDotDMY)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.February, 19, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseDate("02/19/2026", models.DateFormatSlashMDY)
	require.NoError(t, err)
	assert.Equal(t, time.February, got.Month())

	_, err = ParseDate("31.02.2026", models.DateFormatDotDMY)
	assert.Error(t, err)

	_, err = ParseDate("2026-02-19", models.DateFormatDotDMY)
	assert.Error(t, err)
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2026, time.February, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "19.02.2026", FormatDate(d, models.DateFormatDotDMY))
	assert.Equal(t, "02/19/2026", FormatDate(d, models.DateFormatSlashMDY))
	assert.Equal(t, "2026-02-19", FormatDate(d, models.DateFormatISO))
}
