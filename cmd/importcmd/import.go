// Package importcmd handles the import command
package importcmd

import (
	"errors"

	"github.com/spf13/cobra"

	"fjacquet/ledger-import/cmd/common"
	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/internal/report"
)

var (
	format        string
	mappings      []string
	newCurrencies []string
	assumeYes     bool
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import an export into the ledger",
	Long: `Run the full import: analyse the export, resolve its currency tokens,
show the preview and submit every row in one request. Rows the backend
rejects are reported and, with --output, written to a CSV that can be fixed
and imported again.`,
	Example: `  ledger-import import -i export.csv --map руб=RUB
  ledger-import import -i export.csv --new-currency "֏=AMD:Armenian Dram" --yes -o failed.csv`,
	RunE: importFunc,
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "Report format: text, json, yaml or markdown")
	Cmd.Flags().StringArrayVar(&mappings, "map", nil, "Map an unresolved currency token to a registry code (TOKEN=CODE)")
	Cmd.Flags().StringArrayVar(&newCurrencies, "new-currency", nil, "Create a currency for an unresolved token (TOKEN=CODE:Name)")
	Cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Submit without asking for confirmation")
}

func importFunc(cmd *cobra.Command, args []string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	c, err := root.NewContainer()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	resp, err := common.Import(root.Context(cmd), c, common.ImportOptions{
		Input:         root.SharedFlags.Input,
		Format:        f,
		Mappings:      mappings,
		NewCurrencies: newCurrencies,
		Yes:           assumeYes,
		FailedOutput:  root.SharedFlags.Output,
	}, cmd.InOrStdin(), cmd.OutOrStdout())
	if errors.Is(err, common.ErrCancelled) {
		root.Log.Info("Import cancelled, nothing was submitted")
		return nil
	}
	if err != nil {
		return err
	}

	root.Log.WithField("imported", resp.Imported).
		WithField("failed", len(resp.FailedRows)).
		Info("Import completed")
	return nil
}
