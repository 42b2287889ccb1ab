package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/authornet/internal/server"
	"github.com/matzehuels/authornet/pkg/session"
)

// serveCommand runs the HTTP and websocket service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		backend string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve explorer sessions over HTTP and websockets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if backend != "" {
				cfg.Session.Backend = backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			store, err := session.Open(ctx, cfg.Session.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			metrics := server.NewMetrics()
			metrics.Install()

			srv := server.New(server.Options{
				Config:  *cfg,
				Store:   store,
				Runner:  runner,
				Logger:  c.Logger,
				Metrics: metrics,
			})
			printInfo("Listening on %s", StyleValue.Render(cfg.Server.Addr))
			printDetail("Sessions: %s · cache: %s", cfg.Session.Backend, cfg.Cache.Backend)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&backend, "sessions", "", "session backend: memory, file, sqlite, redis, mongo")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the export cache")
	return cmd
}
