// Package serve handles the serve command, which runs the reference ledger
// backend.
package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"fjacquet/ledger-import/cmd/root"
	"fjacquet/ledger-import/internal/container"
	"fjacquet/ledger-import/internal/logging"
)

// ShutdownTimeout bounds how long in-flight requests may take once the
// server is asked to stop.
const ShutdownTimeout = 10 * time.Second

var address string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference ledger backend",
	Long: `Serve the ledger API (currencies, accounts, categories and the full
import endpoint) on top of a SQLite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := root.NewContainer()
		if err != nil {
			return err
		}
		defer func() { _ = c.Close() }()

		addr := address
		if addr == "" {
			addr = c.GetConfig().Server.Address
		}
		return Serve(root.Context(cmd), c, addr)
	},
}

func init() {
	Cmd.Flags().StringVar(&address, "address", "", "Listen address (default server.address)")
}

// Serve runs the backend on addr until ctx is cancelled or the listener
// fails.
func Serve(ctx context.Context, c *container.Container, addr string) error {
	log := c.GetLogger()

	backend, err := c.NewBackend(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}()

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Ledger backend listening", logging.F("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		log.Info("Shutting down ledger backend")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
