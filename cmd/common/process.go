// Package common contains shared functionality for command handlers
package common

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"

	"fjacquet/ledger-import/internal/container"
	"fjacquet/ledger-import/internal/fileutils"
	"fjacquet/ledger-import/internal/ledger"
	"fjacquet/ledger-import/internal/logging"
	"fjacquet/ledger-import/internal/models"
	"fjacquet/ledger-import/internal/preview"
	"fjacquet/ledger-import/internal/report"
	"fjacquet/ledger-import/internal/wizard"
)

// ErrCancelled is returned when the user declines the import prompt.
var ErrCancelled = errors.New("import cancelled")

// MarkdownStyle is the glamour style used for markdown output. "auto" picks
// a style from the terminal.
var MarkdownStyle = "auto"

// AnalyzeOptions are the analyze command's inputs.
type AnalyzeOptions struct {
	Input  string
	Format report.Format
	// SnapshotOut, when set, receives the ledger snapshot the analysis ran
	// against, for later use as ledger.snapshot_file.
	SnapshotOut string
}

// Analyze reads the input file, matches it against the current ledger and
// writes the analysis report to out.
func Analyze(ctx context.Context, c *container.Container, opts AnalyzeOptions, out io.Writer) error {
	if opts.Input == "" {
		return errors.New("no input file given, use --input")
	}

	snap, err := c.GetLedgerSource().Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	res, err := c.GetAnalyzer().AnalyzeFile(opts.Input, snap.Currencies)
	if err != nil {
		return err
	}

	stats := preview.Compute(res.Rows, res.Dialect.DecimalSeparator, snap.PreviewLedger())
	data, err := c.GetReportGenerator().RenderAnalysis(report.NewAnalysis(res, stats), opts.Format)
	if err != nil {
		return err
	}
	if err := write(out, data, opts.Format); err != nil {
		return err
	}

	if opts.SnapshotOut != "" {
		if err := ledger.SaveSnapshotFile(opts.SnapshotOut, snap); err != nil {
			return err
		}
		c.GetLogger().Info("Ledger snapshot saved", logging.F(logging.FieldFile, opts.SnapshotOut))
	}
	return nil
}

// ImportOptions are the answers the import command collects from flags.
type ImportOptions struct {
	Input  string
	Format report.Format
	// Mappings are TOKEN=CODE answers for unresolved currency tokens.
	Mappings []string
	// NewCurrencies are TOKEN=CODE:Name proposals.
	NewCurrencies []string
	// Yes skips the confirmation prompt.
	Yes bool
	// FailedOutput, when set, receives the rows the backend rejected.
	FailedOutput string
}

// Import drives a wizard through upload, currency resolution, preview and
// submission. The prompt is read from in unless opts.Yes is set.
func Import(ctx context.Context, c *container.Container, opts ImportOptions, in io.Reader, out io.Writer) (*models.FullImportResponse, error) {
	log := c.GetLogger()
	gen := c.GetReportGenerator()

	mappings, err := ParseMappings(opts.Mappings)
	if err != nil {
		return nil, err
	}
	proposals, err := ParseNewCurrencies(opts.NewCurrencies)
	if err != nil {
		return nil, err
	}

	f, err := openInput(opts.Input)
	if err != nil {
		return nil, err
	}
	defer closeInput(f, log)

	w := c.NewWizard()
	if err := w.SelectFile(ctx, filepath.Base(opts.Input), f); err != nil {
		return nil, err
	}
	if err := w.Next(); err != nil {
		return nil, err
	}

	if w.State() == wizard.StateResolveCurrencies {
		if err := resolveCurrencies(w, mappings, proposals); err != nil {
			return nil, err
		}
		if pending := w.PendingCurrencies(); len(pending) > 0 {
			return nil, fmt.Errorf("unresolved currency tokens %s: answer them with --map or --new-currency", strings.Join(pending, ", "))
		}
		if err := w.Next(); err != nil {
			return nil, err
		}
	}

	stats, err := w.Stats()
	if err != nil {
		return nil, err
	}
	upload := w.Upload()
	data, err := gen.RenderAnalysis(report.NewAnalysis(upload, stats), opts.Format)
	if err != nil {
		return nil, err
	}
	if err := write(out, data, opts.Format); err != nil {
		return nil, err
	}

	if !w.CanSubmit() {
		return nil, fmt.Errorf("%s has no rows to import", opts.Input)
	}
	if !opts.Yes {
		ok, err := Confirm(in, out, fmt.Sprintf("Import %d rows? [y/N] ", len(upload.Rows)))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrCancelled
		}
	}

	resp, err := w.Submit(ctx)
	if err != nil {
		return nil, fmt.Errorf("import failed: %w", err)
	}

	data, err = gen.RenderResults(resp, opts.Format)
	if err != nil {
		return nil, err
	}
	if err := write(out, data, opts.Format); err != nil {
		return nil, err
	}

	if opts.FailedOutput != "" && len(resp.FailedRows) > 0 {
		if err := report.WriteFailedRowsFile(opts.FailedOutput, resp.FailedRows, upload.Dialect.Delimiter); err != nil {
			return resp, err
		}
		log.Info("Failed rows written",
			logging.F(logging.FieldFile, opts.FailedOutput),
			logging.F(logging.FieldCount, len(resp.FailedRows)))
	}
	return resp, nil
}

func resolveCurrencies(w *wizard.Wizard, mappings map[string]string, proposals map[string]models.NewCurrency) error {
	pending := w.PendingCurrencies()
	for _, token := range pending {
		if code, ok := mappings[token]; ok {
			if err := w.MapCurrency(token, code); err != nil {
				return err
			}
			continue
		}
		if nc, ok := proposals[token]; ok {
			if err := w.ProposeCurrency(token, nc.Code, nc.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseMappings parses TOKEN=CODE flag values.
func ParseMappings(values []string) (map[string]string, error) {
	out := make(map[string]string, len(values))
	for _, v := range values {
		token, code, ok := strings.Cut(v, "=")
		token, code = strings.TrimSpace(token), strings.TrimSpace(code)
		if !ok || token == "" || code == "" {
			return nil, fmt.Errorf("invalid currency mapping %q, expected TOKEN=CODE", v)
		}
		out[token] = code
	}
	return out, nil
}

// ParseNewCurrencies parses TOKEN=CODE:Name flag values.
func ParseNewCurrencies(values []string) (map[string]models.NewCurrency, error) {
	out := make(map[string]models.NewCurrency, len(values))
	for _, v := range values {
		token, rest, ok := strings.Cut(v, "=")
		token = strings.TrimSpace(token)
		code, name, hasName := strings.Cut(rest, ":")
		code, name = strings.TrimSpace(code), strings.TrimSpace(name)
		if !ok || !hasName || token == "" || code == "" || name == "" {
			return nil, fmt.Errorf("invalid new currency %q, expected TOKEN=CODE:Name", v)
		}
		out[token] = models.NewCurrency{Code: code, Name: name, Symbol: token}
	}
	return out, nil
}

// Confirm writes prompt and reads a yes/no answer. Anything but y or yes is
// a no.
func Confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false, err
	}
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// RenderMarkdown renders markdown for the terminal with glamour.
func RenderMarkdown(md []byte, style string) ([]byte, error) {
	option := glamour.WithStandardStyle(style)
	if style == "auto" {
		option = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(option, glamour.WithWordWrap(100))
	if err != nil {
		return nil, fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	rendered, err := r.RenderBytes(md)
	if err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}

func write(out io.Writer, data []byte, format report.Format) error {
	if format == report.FormatMarkdown {
		rendered, err := RenderMarkdown(data, MarkdownStyle)
		if err != nil {
			return err
		}
		data = rendered
	}
	_, err := out.Write(data)
	return err
}

func openInput(input string) (*os.File, error) {
	if input == "" {
		return nil, errors.New("no input file given, use --input")
	}
	f, _, err := fileutils.OpenRegular(input)
	return f, err
}

func closeInput(f *os.File, log logging.Logger) {
	if err := f.Close(); err != nil {
		log.WithError(err).Warn("Failed to close input file", logging.F(logging.FieldFile, f.Name()))
	}
}
