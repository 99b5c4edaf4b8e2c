package models

// RowType is the display classification of an imported row.
type RowType string

const (
	RowTypeIncome   RowType = "income"
	RowTypeExpense  RowType = "expense"
	RowTypeTransfer RowType = "transfer"
)

// Row error reasons, in the order the gate checks them.
const (
	ReasonMissingDate     = "missing date"
	ReasonMissingAccount  = "missing account"
	ReasonMissingAmount   = "missing amount"
	ReasonMissingCurrency = "missing currency"
	ReasonAmountNotNumber = "amount not a number"
)

// NormalizedRow is the display-only interpretation of a RawRow. It is
// derived on every preview pass and never submitted.
type NormalizedRow struct {
	Number       int      `json:"row_number" yaml:"row_number"`
	Raw          RawRow   `json:"raw" yaml:"raw"`
	ParsedAmount *float64 `json:"parsed_amount" yaml:"parsed_amount"`
	ErrorReason  string   `json:"error_reason,omitempty" yaml:"error_reason,omitempty"`
	RowType      RowType  `json:"row_type" yaml:"row_type"`
}

// HasError reports whether the row failed the validity gate.
func (r NormalizedRow) HasError() bool {
	return r.ErrorReason != ""
}

// PreviewStats aggregates a full row set. Transfers counts pairs.
type PreviewStats struct {
	Total             int      `json:"total" yaml:"total"`
	Expenses          int      `json:"expenses" yaml:"expenses"`
	Incomes           int      `json:"incomes" yaml:"incomes"`
	Transfers         int      `json:"transfers" yaml:"transfers"`
	Errors            int      `json:"errors" yaml:"errors"`
	NewAccounts       []string `json:"new_accounts" yaml:"new_accounts"`
	NewCategories     []string `json:"new_categories" yaml:"new_categories"`
	UnpairedTransfers []int    `json:"unpaired_transfers" yaml:"unpaired_transfers"`
}

// TransferPair links the two legs of a transfer by 1-based row number.
type TransferPair struct {
	Source int `json:"source" yaml:"source"`
	Dest   int `json:"dest" yaml:"dest"`
}
