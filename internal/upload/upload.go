// Package upload turns a selected export file into an analysed upload: its
// dialect, its raw rows and the automatic currency resolution. Each call
// starts from scratch; nothing is carried over from earlier uploads.
package upload

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"fjacquet/ledger-import/internal/currency"
	"fjacquet/ledger-import/internal/dialect"
	"fjacquet/ledger-import/internal/fileutils"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/parsererror"
)

const expectedShape = "7-column delimited text: date, account, category, total, currency, description, transfer"

// Result is everything derived from one file.
type Result struct {
	FileName             string            `json:"file_name" yaml:"file_name"`
	Dialect              models.Dialect    `json:"dialect" yaml:"dialect"`
	Rows                 []models.RawRow   `json:"rows" yaml:"rows"`
	UnresolvedCurrencies []string          `json:"unresolved_currencies" yaml:"unresolved_currencies"`
	CurrencyResolutions  map[string]string `json:"currency_resolutions" yaml:"currency_resolutions"`
}

// HasUnresolved reports whether the user has to resolve currency tokens.
func (r *Result) HasUnresolved() bool {
	return len(r.UnresolvedCurrencies) > 0
}

// Analyzer reads and analyses uploads.
type Analyzer struct {
	logger  logging.Logger
	maxSize int64
}

// NewAnalyzer creates an Analyzer. A non-positive maxSize selects the
// default 50 MB limit.
func NewAnalyzer(logger logging.Logger, maxSize int64) *Analyzer {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	if maxSize <= 0 {
		maxSize = models.MaxUploadSize
	}
	return &Analyzer{logger: logger, maxSize: maxSize}
}

// MaxSize returns the size limit in bytes.
func (a *Analyzer) MaxSize() int64 {
	return a.maxSize
}

// AnalyzeFile checks the file size before reading anything, then analyses
// the content.
func (a *Analyzer) AnalyzeFile(path string, registry models.CurrencyRegistry) (*Result, error) {
	f, info, err := fileutils.OpenRegular(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			a.logger.WithError(cerr).Warn("Failed to close input file", logging.F(logging.FieldFile, path))
		}
	}()

	if info.Size() > a.maxSize {
		return nil, &parsererror.FileTooLargeError{FilePath: path, Size: info.Size(), Limit: a.maxSize}
	}
	return a.Analyze(filepath.Base(path), f, registry)
}

// Analyze reads at most the size limit from r. Content past the limit is
// rejected with a FileTooLargeError.
func (a *Analyzer) Analyze(name string, r io.Reader, registry models.CurrencyRegistry) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, a.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if int64(len(data)) > a.maxSize {
		return nil, &parsererror.FileTooLargeError{FilePath: name, Size: int64(len(data)), Limit: a.maxSize}
	}
	return a.AnalyzeBytes(name, data, registry)
}

// AnalyzeBytes runs the detection pipeline over an in-memory file.
func (a *Analyzer) AnalyzeBytes(name string, data []byte, registry models.CurrencyRegistry) (*Result, error) {
	start := time.Now()
	log := a.logger.WithFields(logging.F(logging.FieldFile, name), logging.F(logging.FieldFileSize, len(data)))

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &parsererror.InvalidFormatError{FilePath: name, ExpectedFormat: expectedShape, Msg: "file is empty"}
	}

	text, err := DecodeText(data)
	if err != nil {
		return nil, &parsererror.InvalidFormatError{FilePath: name, ExpectedFormat: expectedShape, Msg: "unreadable text encoding", Err: err}
	}

	delim := dialect.DetectDelimiter(text)
	records, err := ReadRecords(text, delim)
	if err != nil {
		return nil, &parsererror.InvalidFormatError{FilePath: name, ExpectedFormat: expectedShape, Msg: "failed to parse delimited text", Err: err}
	}
	if len(records) < 2 {
		return nil, &parsererror.InvalidFormatError{
			FilePath:             name,
			ExpectedFormat:       expectedShape,
			ActualContentSnippet: snippet(text),
			Msg:                  fmt.Sprintf("expected a header and at least one row, got %d record(s)", len(records)),
		}
	}

	rows := RowsFromRecords(records)
	d := dialect.FromRows(delim, rows)
	resolution := currency.ResolveRows(rows, registry)

	log.Info("Analysed upload",
		logging.F(logging.FieldDelimiter, d.DelimiterName()),
		logging.F(logging.FieldDecimalSeparator, string(d.DecimalSeparator)),
		logging.F(logging.FieldDateFormat, string(d.DateFormat)),
		logging.F(logging.FieldCount, len(rows)),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
	if len(resolution.Unresolved) > 0 {
		log.Warn("Upload has unresolved currency tokens", logging.F(logging.FieldCurrency, resolution.Unresolved))
	}

	return &Result{
		FileName:             name,
		Dialect:              d,
		Rows:                 rows,
		UnresolvedCurrencies: resolution.Unresolved,
		CurrencyResolutions:  resolution.Resolved,
	}, nil
}

func snippet(text string) string {
	const limit = 80
	r := []rune(text)
	if len(r) > limit {
		return string(r[:limit])
	}
	return text
}
