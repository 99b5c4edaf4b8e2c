// Package report renders analysis previews and import results for the CLI,
// and writes rejected rows back out as CSV.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/upload"
)

// Format is an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", s)
	}
}

// Analysis is what the analyze command reports about an upload.
type Analysis struct {
	File                 string              `json:"file" yaml:"file"`
	Delimiter            string              `json:"delimiter" yaml:"delimiter"`
	DecimalSeparator     string              `json:"decimal_separator" yaml:"decimal_separator"`
	DateFormat           string              `json:"date_format" yaml:"date_format"`
	UnresolvedCurrencies []string            `json:"unresolved_currencies" yaml:"unresolved_currencies"`
	CurrencyResolutions  map[string]string   `json:"currency_resolutions" yaml:"currency_resolutions"`
	Stats                models.PreviewStats `json:"stats" yaml:"stats"`
}

// NewAnalysis combines an upload with its preview statistics.
func NewAnalysis(res *upload.Result, stats models.PreviewStats) *Analysis {
	unresolved := res.UnresolvedCurrencies
	if unresolved == nil {
		unresolved = []string{}
	}
	return &Analysis{
		File:                 res.FileName,
		Delimiter:            res.Dialect.DelimiterName(),
		DecimalSeparator:     string(res.Dialect.DecimalSeparator),
		DateFormat:           string(res.Dialect.DateFormat),
		UnresolvedCurrencies: unresolved,
		CurrencyResolutions:  res.CurrencyResolutions,
		Stats:                stats,
	}
}

// Generator renders reports in the supported formats.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Generator{logger: logger}
}

// RenderAnalysis renders an analysis in the given format.
func (g *Generator) RenderAnalysis(a *Analysis, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, FormatYAML:
		return g.marshal(a, format)
	case FormatMarkdown:
		return []byte(analysisMarkdown(a)), nil
	case FormatText:
		return []byte(analysisText(a)), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// RenderResults renders an import outcome in the given format.
func (g *Generator) RenderResults(resp *models.FullImportResponse, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, FormatYAML:
		return g.marshal(resp, format)
	case FormatMarkdown:
		return []byte(resultsMarkdown(resp)), nil
	case FormatText:
		return []byte(resultsText(resp)), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

func (g *Generator) marshal(v interface{}, format Format) ([]byte, error) {
	var (
		out []byte
		err error
	)
	if format == FormatJSON {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = yaml.Marshal(v)
	}
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal report", logging.F("format", string(format)))
		return nil, fmt.Errorf("failed to marshal %s report: %w", format, err)
	}
	return out, nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func rowNumbers(numbers []int) []string {
	out := make([]string, len(numbers))
	for i, n := range numbers {
		out[i] = fmt.Sprintf("%d", n)
	}
	return out
}

func analysisText(a *Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File:              %s\n", a.File)
	fmt.Fprintf(&b, "Delimiter:         %s\n", a.Delimiter)
	fmt.Fprintf(&b, "Decimal separator: %s\n", a.DecimalSeparator)
	fmt.Fprintf(&b, "Date format:       %s\n", a.DateFormat)
	fmt.Fprintf(&b, "Unresolved:        %s\n", joinOrNone(a.UnresolvedCurrencies))
	fmt.Fprintf(&b, "Rows:              %d (%d errors)\n", a.Stats.Total, a.Stats.Errors)
	fmt.Fprintf(&b, "Expenses:          %d\n", a.Stats.Expenses)
	fmt.Fprintf(&b, "Incomes:           %d\n", a.Stats.Incomes)
	fmt.Fprintf(&b, "Transfers:         %d\n", a.Stats.Transfers)
	fmt.Fprintf(&b, "New accounts:      %s\n", joinOrNone(a.Stats.NewAccounts))
	fmt.Fprintf(&b, "New categories:    %s\n", joinOrNone(a.Stats.NewCategories))
	if len(a.Stats.UnpairedTransfers) > 0 {
		fmt.Fprintf(&b, "Unpaired legs:     rows %s\n", strings.Join(rowNumbers(a.Stats.UnpairedTransfers), ", "))
	}
	return b.String()
}

func analysisMarkdown(a *Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Import preview: %s\n\n", a.File)
	b.WriteString("| Dialect | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Delimiter | `%s` |\n", a.Delimiter)
	fmt.Fprintf(&b, "| Decimal separator | `%s` |\n", a.DecimalSeparator)
	fmt.Fprintf(&b, "| Date format | `%s` |\n\n", a.DateFormat)

	b.WriteString("## Rows\n\n| Kind | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Total | %d |\n", a.Stats.Total)
	fmt.Fprintf(&b, "| Expenses | %d |\n", a.Stats.Expenses)
	fmt.Fprintf(&b, "| Incomes | %d |\n", a.Stats.Incomes)
	fmt.Fprintf(&b, "| Transfers | %d |\n", a.Stats.Transfers)
	fmt.Fprintf(&b, "| Errors | %d |\n\n", a.Stats.Errors)

	if len(a.UnresolvedCurrencies) > 0 {
		fmt.Fprintf(&b, "**Unresolved currencies:** %s\n\n", strings.Join(a.UnresolvedCurrencies, ", "))
	}
	b.WriteString("## Will be created\n\n")
	fmt.Fprintf(&b, "- Accounts: %s\n", joinOrNone(a.Stats.NewAccounts))
	fmt.Fprintf(&b, "- Categories: %s\n", joinOrNone(a.Stats.NewCategories))
	if len(a.Stats.UnpairedTransfers) > 0 {
		fmt.Fprintf(&b, "\n> Transfer legs without a counterpart: rows %s\n", strings.Join(rowNumbers(a.Stats.UnpairedTransfers), ", "))
	}
	return b.String()
}

func resultsText(resp *models.FullImportResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Imported:           %d\n", resp.Imported)
	fmt.Fprintf(&b, "Failed:             %d\n", len(resp.FailedRows))
	fmt.Fprintf(&b, "Accounts created:   %s\n", joinOrNone(resp.AccountsCreated))
	fmt.Fprintf(&b, "Categories created: %s\n", joinOrNone(resp.CategoriesCreated))
	fmt.Fprintf(&b, "Currencies created: %s\n", joinOrNone(resp.CurrenciesCreated))
	for _, f := range resp.FailedRows {
		fmt.Fprintf(&b, "  row %d: %s\n", f.RowNumber, f.Error)
	}
	return b.String()
}

func resultsMarkdown(resp *models.FullImportResponse) string {
	var b strings.Builder
	b.WriteString("# Import results\n\n")
	fmt.Fprintf(&b, "- Imported: **%d**\n", resp.Imported)
	fmt.Fprintf(&b, "- Accounts created: %s\n", joinOrNone(resp.AccountsCreated))
	fmt.Fprintf(&b, "- Categories created: %s\n", joinOrNone(resp.CategoriesCreated))
	fmt.Fprintf(&b, "- Currencies created: %s\n", joinOrNone(resp.CurrenciesCreated))
	if len(resp.FailedRows) == 0 {
		return b.String()
	}
	fmt.Fprintf(&b, "\n## Failed rows (%d)\n\n| Row | Date | Account | Total | Error |\n|---|---|---|---|---|\n", len(resp.FailedRows))
	for _, f := range resp.FailedRows {
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n", f.RowNumber, f.Data.Date, f.Data.Account, f.Data.Total, f.Error)
	}
	return b.String()
}
