package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pystudio/pystudio/internal/api"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the engine over HTTP",
		Long: `Serve starts the JSON API used by editor integrations: auditing,
syntax pre-checks, installs, and supervised script runs with polled
output. The server stops gracefully on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := c.newEngine(noCache)
			server := &http.Server{
				Addr:    addr,
				Handler: api.NewServer(eng, c.Logger).Router(),
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.ListenAndServe()
			}()
			c.Logger.Info("listening", "addr", addr)

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.Logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8642", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the package-snapshot cache")

	return cmd
}
