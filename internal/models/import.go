package models

// FullImportRequest is what the pipeline hands to the backend executor.
// Rows are the original strings; the executor reparses them with the
// detected dialect.
type FullImportRequest struct {
	DateFormat       DateFormat        `json:"date_format"`
	DecimalSeparator DecimalSeparator  `json:"decimal_separator"`
	CurrencyMapping  map[string]string `json:"currency_mapping"`
	NewCurrencies    []NewCurrency     `json:"new_currencies"`
	Rows             []RawRow          `json:"rows"`
}

// FailedRow is a row the executor rejected. RowNumber is 1-based over the
// submitted rows.
type FailedRow struct {
	RowNumber int    `json:"row_number" yaml:"row_number" csv:"row_number"`
	Data      RawRow `json:"data" yaml:"data" csv:"-"`
	Error     string `json:"error" yaml:"error" csv:"error"`
}

// FullImportResponse is the executor's per-call outcome. Partial success is
// normal: Imported and FailedRows can both be non-empty.
type FullImportResponse struct {
	Imported          int         `json:"imported" yaml:"imported"`
	AccountsCreated   []string    `json:"accounts_created" yaml:"accounts_created"`
	CategoriesCreated []string    `json:"categories_created" yaml:"categories_created"`
	CurrenciesCreated []string    `json:"currencies_created" yaml:"currencies_created"`
	FailedRows        []FailedRow `json:"failed_rows" yaml:"failed_rows"`
}
