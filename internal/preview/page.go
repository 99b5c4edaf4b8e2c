package preview

import "fjacquet/ledger-import/internal/models"

// DefaultPageSize is the number of rows shown per preview page.
const DefaultPageSize = 50

// Page is one window of preview rows.
type Page struct {
	Index int                    `json:"index" yaml:"index"`
	Count int                    `json:"count" yaml:"count"`
	Rows  []models.NormalizedRow `json:"rows" yaml:"rows"`
}

// PageCount returns the number of pages needed for total rows.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return (total + size - 1) / size
}

// Paginate returns page index of rows. The index is clamped to the
// available pages.
func Paginate(rows []models.NormalizedRow, index, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	count := PageCount(len(rows), size)
	if index >= count {
		index = count - 1
	}
	if index < 0 {
		index = 0
	}

	start := index * size
	end := min(start+size, len(rows))
	return Page{Index: index, Count: count, Rows: rows[start:end]}
}
