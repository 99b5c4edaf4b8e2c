package models

import "fmt"

// DecimalSeparator is the character separating the integer and fractional
// parts of an amount.
type DecimalSeparator string

const (
	DecimalComma DecimalSeparator = ","
	DecimalDot   DecimalSeparator = "."
)

// Valid reports whether s is one of the supported separators.
func (s DecimalSeparator) Valid() bool {
	return s == DecimalComma || s == DecimalDot
}

// DateFormat is a date pattern expressed with dd/MM/yyyy tokens.
type DateFormat string

const (
	DateFormatDotDMY   DateFormat = "dd.MM.yyyy"
	DateFormatISO      DateFormat = "yyyy-MM-dd"
	DateFormatSlashDMY DateFormat = "dd/MM/yyyy"
	DateFormatSlashMDY DateFormat = "MM/dd/yyyy"
)

// DateFormats lists the supported formats in detection priority order.
var DateFormats = []DateFormat{
	DateFormatDotDMY,
	DateFormatISO,
	DateFormatSlashDMY,
	DateFormatSlashMDY,
}

// Valid reports whether f is a supported format.
func (f DateFormat) Valid() bool {
	for _, known := range DateFormats {
		if f == known {
			return true
		}
	}
	return false
}

// Delimiters lists the candidate field delimiters in priority order.
var Delimiters = []rune{';', ',', '\t', '|'}

// Dialect describes how a particular upload is encoded. It is detected once
// per file and never changed afterwards.
type Dialect struct {
	Delimiter        rune             `json:"delimiter" yaml:"delimiter"`
	DecimalSeparator DecimalSeparator `json:"decimal_separator" yaml:"decimal_separator"`
	DateFormat       DateFormat       `json:"date_format" yaml:"date_format"`
}

// DelimiterName returns a printable name for the delimiter.
func (d Dialect) DelimiterName() string {
	return DelimiterName(d.Delimiter)
}

// DelimiterName returns a printable name for a delimiter rune.
func DelimiterName(r rune) string {
	switch r {
	case '\t':
		return "TAB"
	case 0:
		return ""
	default:
		return string(r)
	}
}

func (d Dialect) String() string {
	return fmt.Sprintf("delimiter=%q decimal=%q date=%s", d.DelimiterName(), string(d.DecimalSeparator), d.DateFormat)
}
