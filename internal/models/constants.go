package models

// ExpectedColumns is the fixed column count of a full-import export file:
// date, account, category, total, currency, description, transfer.
const ExpectedColumns = 7

// Column positions inside a raw record.
const (
	ColDate = iota
	ColAccount
	ColCategory
	ColTotal
	ColCurrency
	ColDescription
	ColTransfer
)

// CategorySeparator joins a parent and a child category name ("Parent\Child").
const CategorySeparator = `\`

// MaxUploadSize is the default upper bound for an uploaded export file.
const MaxUploadSize int64 = 50 * 1024 * 1024

// File permissions
const (
	PermissionConfigFile = 0600
	PermissionDirectory  = 0750
	PermissionReportFile = 0644
)
