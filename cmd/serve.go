package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tranvictor/ensprefs/config"
	"github.com/tranvictor/ensprefs/server"
)

var Listen string

func serverConfig(c *config.Config) server.Config {
	return server.Config{
		ListenAddress:  c.Server.Listen,
		RequestTimeout: c.RequestTimeout,
		CacheTTL:       c.Server.CacheTTL,
		RateLimit: server.RateLimit{
			RequestsPerMinute: c.Server.RequestsPerMinute,
			Burst:             c.Server.Burst,
			TrustedProxies:    c.Server.TrustedProxies,
		},
		LogRequests: c.Server.LogRequests,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve GET /api/resolve?address=0x... over HTTP",
	Long: `Starts the query service. Successful lookups are cached for the
configured TTL, clients are rate limited per IP, /healthz answers ok and
/metrics exposes Prometheus metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Server.Listen = Listen
		}
		svc, err := newServices(cfg)
		if err != nil {
			return err
		}
		sc := serverConfig(cfg)
		obs := server.NewObservability(server.ObservabilityConfig{
			ServiceName:   "ensprefs",
			MetricsPrefix: "ensprefs",
			LogRequests:   sc.LogRequests,
		}, logger)
		handler, err := server.NewRouter(sc, svc.loader(cfg), obs, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		logger.Info("starting ensprefs",
			"network", svc.network.GetName(),
			"listen", sc.ListenAddress,
			"cache_ttl", sc.CacheTTL.String(),
		)
		return server.Run(ctx, sc.ListenAddress, handler, logger)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&Listen, "listen", "l", config.DefaultPort, "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

