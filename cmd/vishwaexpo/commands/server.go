package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/common"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/config"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/metrics"
	"github.com/Vishwa-Ansh/vishwaexpo-framework/pkg/router"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const healthPath = "/healthz"

func newServeCmd() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Long:  "Run the HTTP server configured by the config file and VISHWA_* environment variables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			logger, err := cfg.Logger.NewLogger()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "config file path")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides server.address")

	return cmd
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.NewLoader().WithYAMLFile(path).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// buildRouter assembles the router described by cfg: the configured
// interceptors, static files, the metrics route and the health check.
func buildRouter(cfg *config.Config, logger *zap.Logger) *router.Router {
	rc := cfg.RouterConfig(logger)

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(metrics.Config{
			Namespace:         cfg.Metrics.Namespace,
			ProcessCollectors: true,
		})
		rc.Metrics = collector
	}

	r := router.NewRouter(rc)
	if cfg.Server.StaticDir != "" {
		r.Static(cfg.Server.StaticDir)
	}
	if collector != nil {
		r.Mount(cfg.Metrics.Path, collector.Handler())
	}
	r.Get(healthPath, func(req *common.Request, res *common.Response) error {
		return res.JSON(map[string]string{"status": "ok"})
	})
	return r
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	r := buildRouter(cfg, logger)
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.Int("routes", len(r.Routes())))
	return r.Serve(ctx, srv)
}
