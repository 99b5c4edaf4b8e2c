package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"fjacquet/ledger-import/cmd/analyze"
	"fjacquet/ledger-import/cmd/importcmd"
	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/cmd/serve"
	"fjacquet/ledger-import/internal/config"
)

func init() {
	// 1. Load environment variables silently first (no logging yet)
	config.LoadEnv(nil)

	// 2. Configure the global log level before any logger is created
	configureLogLevelDirectly()

	// 3. Initialize root command and add subcommands
	root.Init()
	root.Cmd.AddCommand(analyze.Cmd)
	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

// configureLogLevelDirectly sets the global logrus level from
// LEDGER_IMPORT_LOG_LEVEL, falling back to info.
func configureLogLevelDirectly() logrus.Level {
	logLevelStr := config.GetEnv(config.EnvPrefix+"_LOG_LEVEL", "info")

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	root.Log.SetLevel(logLevel)

	return logLevel
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
