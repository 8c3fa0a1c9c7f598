package cli

import (
	"github.com/spf13/cobra"

	"github.com/evsingleline/singleline/internal/server"
	"github.com/evsingleline/singleline/pkg/buildinfo"
	"github.com/evsingleline/singleline/pkg/pipeline"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the survey API over HTTP",
		Long: `Serve starts the JSON API under /api/v1. Surveys are kept in the store
named by [store] in the config file; rendered artifacts are cached in the
[cache] backend.

The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			st, err := cfg.OpenStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			cat, err := cfg.Catalog()
			if err != nil {
				return err
			}

			srv := server.New(st, runner, cat,
				server.WithLogger(c.Logger),
				server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
				server.WithVersion(buildinfo.Version),
				server.WithRenderDefaults(pipeline.Options{
					Title:  cfg.Diagram.Title,
					Legend: cfg.Diagram.Legend,
					Scale:  cfg.Diagram.Scale,
				}))

			c.Logger.Info("starting API",
				"addr", addr,
				"store", cfg.Store.Backend,
				"cache", cfg.Cache.Backend,
				"profiles", cat.Len())
			return srv.ListenAndServe(ctx, addr, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
