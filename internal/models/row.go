package models

import "strings"

// RawRow is one data line of an export file, kept exactly as the file
// carried it (after trimming). Nothing here is validated.
type RawRow struct {
	Date        string `json:"date" yaml:"date" csv:"date"`
	Account     string `json:"account" yaml:"account" csv:"account"`
	Category    string `json:"category" yaml:"category" csv:"category"`
	Total       string `json:"total" yaml:"total" csv:"total"`
	Currency    string `json:"currency" yaml:"currency" csv:"currency"`
	Description string `json:"description" yaml:"description" csv:"description"`
	Transfer    string `json:"transfer" yaml:"transfer" csv:"transfer"`
}

// RawRowFromRecord maps a positional record onto a RawRow. Missing
// trailing cells become empty strings and surplus cells are ignored.
func RawRowFromRecord(record []string) RawRow {
	cell := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	return RawRow{
		Date:        cell(ColDate),
		Account:     cell(ColAccount),
		Category:    cell(ColCategory),
		Total:       cell(ColTotal),
		Currency:    cell(ColCurrency),
		Description: cell(ColDescription),
		Transfer:    cell(ColTransfer),
	}
}

// Record returns the row in column order.
func (r RawRow) Record() []string {
	return []string{r.Date, r.Account, r.Category, r.Total, r.Currency, r.Description, r.Transfer}
}

// IsBlank reports whether every cell is empty after trimming.
func (r RawRow) IsBlank() bool {
	for _, c := range r.Record() {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// IsTransfer reports whether the row is one leg of a transfer.
func (r RawRow) IsTransfer() bool {
	return strings.TrimSpace(r.Transfer) != ""
}
