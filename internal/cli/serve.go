package cli

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cratedeps/internal/server"
	"github.com/matzehuels/cratedeps/pkg/config"
	"github.com/matzehuels/cratedeps/pkg/observability/prom"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		opts   backendOpts
		limits limitOpts
		addr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve dependency graphs over HTTP",
		Long: `Serve dependency graphs over HTTP.

Routes:
  GET /healthz
  GET /metrics                                  Prometheus metrics
  GET /api/v1/crates/{crate}/graph              ?version=&max_depth=&format=json|dot
  GET /api/v1/crates/{crate}/versions

Resolved graphs are cached with the configured cache backend. Use a Redis
cache to share it between replicas.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, reg, runner, cleanup, err := c.setup(ctx, &opts, func(cfg *config.Config) {
				limits.overlay(cfg)
				if addr != "" {
					cfg.Server.Addr = addr
				}
			})
			if err != nil {
				return err
			}
			defer cleanup()

			metrics, err := prom.Register(prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			metrics.Install()

			srv := server.New(server.Config{
				Runner:   runner,
				Registry: reg,
				Defaults: pipelineOptions(cfg),
				Logger:   c.Logger,
			})
			return srv.ListenAndServe(ctx, cfg.Server.Addr)
		},
	}
	opts.bind(cmd)
	limits.bind(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}
