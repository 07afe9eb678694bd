package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/heatmap/internal/server"
)

// serveCommand runs the HTTP API until interrupted.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		rateLimit  int
		maxPixels  int
		trustProxy bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the render API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.profile().Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("rate-limit") {
				cfg.RateLimit = rateLimit
			}
			if cmd.Flags().Changed("max-pixels") {
				cfg.MaxPixels = maxPixels
			}
			if cmd.Flags().Changed("trust-proxy") {
				cfg.TrustProxy = trustProxy
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(runner, cfg, c.Logger)
			defer srv.Close()

			printInfo("Serving on %s", StyleHighlight.Render(cfg.Addr))
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().IntVar(&rateLimit, "rate-limit", 0, "render requests per client per minute, 0 disables")
	cmd.Flags().IntVar(&maxPixels, "max-pixels", 0, "largest width*height per request (default 4096*4096), 0 disables")
	cmd.Flags().BoolVar(&trustProxy, "trust-proxy", false, "rate-limit on X-Forwarded-For / X-Real-IP instead of the peer address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the render cache")
	return cmd
}
