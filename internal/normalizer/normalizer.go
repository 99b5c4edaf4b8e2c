// Package normalizer turns raw export rows into display-only records. The
// parsed amounts it produces are never submitted; the executor reparses the
// original strings.
package normalizer

import (
	"fjacquet/ledger-import/internal/currencyutils"
	"fjacquet/ledger-import/internal/models"
)

// RowError returns the first reason the row is unusable, or "" if it passes
// the gate. Required fields are checked in column order before the amount
// is parsed.
func RowError(row models.RawRow, sep models.DecimalSeparator) string {
	switch {
	case row.Date == "":
		return models.ReasonMissingDate
	case row.Account == "":
		return models.ReasonMissingAccount
	case row.Total == "":
		return models.ReasonMissingAmount
	case row.Currency == "":
		return models.ReasonMissingCurrency
	}
	if _, ok := currencyutils.ParsePreviewAmount(row.Total, sep); !ok {
		return models.ReasonAmountNotNumber
	}
	return ""
}

// ClassifyRow derives the display type. A transfer field always wins; an
// amount that could not be parsed is shown as an expense.
func ClassifyRow(isTransfer bool, amount *float64) models.RowType {
	if isTransfer {
		return models.RowTypeTransfer
	}
	if amount != nil && *amount >= 0 {
		return models.RowTypeIncome
	}
	return models.RowTypeExpense
}

// Normalize interprets one row. number is its 1-based position in the
// upload.
func Normalize(number int, row models.RawRow, sep models.DecimalSeparator) models.NormalizedRow {
	var amount *float64
	if v, ok := currencyutils.ParsePreviewAmount(row.Total, sep); ok {
		amount = &v
	}
	return models.NormalizedRow{
		Number:       number,
		Raw:          row,
		ParsedAmount: amount,
		ErrorReason:  RowError(row, sep),
		RowType:      ClassifyRow(row.IsTransfer(), amount),
	}
}

// NormalizeAll builds a fresh slice of normalized rows.
func NormalizeAll(rows []models.RawRow, sep models.DecimalSeparator) []models.NormalizedRow {
	out := make([]models.NormalizedRow, len(rows))
	for i, r := range rows {
		out[i] = Normalize(i+1, r, sep)
	}
	return out
}
