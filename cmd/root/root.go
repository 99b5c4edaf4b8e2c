// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fjacquet/ledger-import/internal/config"
	"fjacquet/ledger-import/internal/container"
	"fjacquet/ledger-import/internal/logging"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
	Config string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// AppConfig is the configuration loaded before any subcommand runs
	AppConfig *config.Config

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "ledger-import",
		Short: "A CLI tool to import bank CSV exports into a personal finance ledger.",
		Long: `ledger-import analyses a semicolon or comma separated export of
transactions, resolves its currencies against the ledger, previews what
will be created and submits the whole file in one full import.
It also runs the reference ledger backend with "serve".`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to ledger-import!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv(logging.NewLogrusAdapterFromLogger(Log))

			cfg, err := config.LoadConfig(SharedFlags.Config)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			AppConfig = cfg
			Log = config.ConfigureLoggingFromConfig(cfg)
			return nil
		},
	}

	// Common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input file")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output file")
	Cmd.PersistentFlags().StringVar(&SharedFlags.Config, "config", "", "Config file (default searches ./config.yaml, .ledger-import/ and $HOME/.ledger-import/)")
}

// NewContainer wires the application dependencies from AppConfig, logging
// through Log.
func NewContainer() (*container.Container, error) {
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return container.NewContainerWithLogger(AppConfig, logging.NewLogrusAdapterFromLogger(Log))
}

// Context returns the command's context, or a background context when the
// command runs outside Execute.
func Context(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
