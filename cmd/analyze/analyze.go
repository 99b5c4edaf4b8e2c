// Package analyze handles the analyze command
package analyze

import (
	"io"

	"github.com/spf13/cobra"

	"fjacquet/ledger-import/cmd/common"
	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/internal/fileutils"
	"fjacquet/ledger-import/internal/report"
)

var (
	format      string
	snapshotOut string
)

// Cmd represents the analyze command
var Cmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse an export without importing it",
	Long: `Detect the dialect of an export, match its currency tokens against the
ledger registry and report what a full import would create.`,
	Example: `  ledger-import analyze -i export.csv
  ledger-import analyze -i export.csv --format markdown
  ledger-import analyze -i export.csv --save-ledger ledger.yaml`,
	RunE: analyzeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&format, "format", "f", string(report.FormatText), "Report format: text, json, yaml or markdown")
	Cmd.Flags().StringVar(&snapshotOut, "save-ledger", "", "Save the ledger snapshot used for the analysis to a YAML file")
}

func analyzeFunc(cmd *cobra.Command, args []string) error {
	f, err := report.ParseFormat(format)
	if err != nil {
		return err
	}

	c, err := root.NewContainer()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	root.Log.WithField("input", root.SharedFlags.Input).Debug("Analyzing export")

	var out io.Writer = cmd.OutOrStdout()
	if root.SharedFlags.Output != "" {
		file, err := fileutils.CreateFile(root.SharedFlags.Output)
		if err != nil {
			return err
		}
		defer func() { _ = file.Close() }()
		out = file
	}
	return common.Analyze(root.Context(cmd), c, common.AnalyzeOptions{
		Input:       root.SharedFlags.Input,
		Format:      f,
		SnapshotOut: snapshotOut,
	}, out)
}
