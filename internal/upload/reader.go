package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
)

// ReadRecords splits text into records with delim. Quoted fields may hold
// the delimiter or line breaks; records may have any number of fields and
// empty lines are skipped.
func ReadRecords(text string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			line := 0
			if errors.As(err, &pe) {
				line = pe.Line
			}
			return nil, &parsererror.ParseError{
				Parser: "csv",
				Field:  fmt.Sprintf("line %d", line),
				Value:  models.DelimiterName(delim),
				Err:    err,
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// RowsFromRecords drops the header record and all-blank records and maps
// the rest onto RawRows.
func RowsFromRecords(records [][]string) []models.RawRow {
	if len(records) < 2 {
		return []models.RawRow{}
	}
	rows := make([]models.RawRow, 0, len(records)-1)
	for _, rec := range records[1:] {
		if isBlankRecord(rec) {
			continue
		}
		rows = append(rows, models.RawRowFromRecord(rec))
	}
	return rows
}

func isBlankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
