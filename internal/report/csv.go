package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"fjacquet/ledger-import/internal/fileutils"
	"fjacquet/ledger-import/internal/models"
)

// failedRowCSV is a FailedRow in upload column order. The detector wants
// exactly models.ExpectedColumns fields per line, so the rejection reason is
// left to the results report.
type failedRowCSV struct {
	Date        string `csv:"date"`
	Account     string `csv:"account"`
	Category    string `csv:"category"`
	Total       string `csv:"total"`
	Currency    string `csv:"currency"`
	Description string `csv:"description"`
	Transfer    string `csv:"transfer"`
}

// WriteFailedRowsCSV writes failed rows as an export that can be fixed and
// uploaded again, using delim as the field separator.
func WriteFailedRowsCSV(w io.Writer, rows []models.FailedRow, delim rune) error {
	out := make([]failedRowCSV, len(rows))
	for i, f := range rows {
		out[i] = failedRowCSV{
			Date:        f.Data.Date,
			Account:     f.Data.Account,
			Category:    f.Data.Category,
			Total:       f.Data.Total,
			Currency:    f.Data.Currency,
			Description: f.Data.Description,
			Transfer:    f.Data.Transfer,
		}
	}

	csvWriter := csv.NewWriter(w)
	if delim != 0 {
		csvWriter.Comma = delim
	}
	if err := gocsv.MarshalCSV(out, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
		return fmt.Errorf("failed to write failed rows: %w", err)
	}
	return nil
}

// WriteFailedRowsFile writes failed rows to path.
func WriteFailedRowsFile(path string, rows []models.FailedRow, delim rune) (err error) {
	f, err := fileutils.CreateFile(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return WriteFailedRowsCSV(f, rows, delim)
}
