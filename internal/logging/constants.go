package logging

// Standard field names for structured import logs.
const (
	FieldFile             = "file_path"
	FieldFileSize         = "file_size"
	FieldOperation        = "operation"
	FieldError            = "error"
	FieldDuration         = "duration_ms"
	FieldCount            = "count"
	FieldRowNumber        = "row_number"
	FieldDelimiter        = "delimiter"
	FieldDecimalSeparator = "decimal_separator"
	FieldDateFormat       = "date_format"
	FieldCurrency         = "currency"
	FieldAccount          = "account"
	FieldCategory         = "category"
	FieldState            = "state"
	FieldAction           = "action"
	FieldRequestID        = "request_id"
	FieldImported         = "imported"
	FieldFailed           = "failed"
)
