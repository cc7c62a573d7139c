package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Eman-Sallam/ai-pipeline-editor/bootstrap"
	"github.com/Eman-Sallam/ai-pipeline-editor/catalog"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Serve or query the stage type catalog",
	}
	cmd.AddCommand(newCatalogServeCmd(opts), newCatalogListCmd(opts))
	return cmd
}

func newCatalogServeCmd(opts *rootOptions) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the stage catalog on /api/nodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			f.latencySet = cmd.Flags().Changed("latency")
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return serveCatalog(ctx, cfg, f)
		},
	}
	cmd.Flags().StringVar(&f.addr, "addr", "", "listen address (default from config, :8000)")
	cmd.Flags().DurationVar(&f.latency, "latency", catalog.DefaultLatency, "simulated delay before the list is served")
	return cmd
}

type serveFlags struct {
	addr       string
	latency    time.Duration
	latencySet bool
}

// apply writes explicitly set flags over cfg after the last defaults pass.
func (f serveFlags) apply(cfg *Config) error {
	if f.addr != "" {
		cfg.Catalog.Server.Addr = f.addr
	}
	if f.latencySet {
		cfg.Catalog.Latency = f.latency
	}
	return cfg.Validate()
}

func serveCatalog(ctx context.Context, cfg *Config, f serveFlags) error {
	store := catalog.NewStore()
	app, err := bootstrap.NewApp(cfg, bootstrap.WithHealthChecker(store))
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return err
	}

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return err
	}

	srv := catalog.NewServer(cfg.Catalog.Server, store,
		catalog.WithLatency(cfg.Catalog.Latency),
		catalog.WithServiceMetrics(metrics),
	)
	app.OnStart(srv.Start)
	app.OnStop(bootstrap.Hook(shutdownTelemetry), srv.Stop)
	return app.Run(ctx)
}

func newCatalogListCmd(opts *rootOptions) *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and print the stage types a catalog serves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if url != "" {
				cfg.Catalog.Client.BaseURL = url
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			p := opts.printer()
			types, err := catalog.NewClient(cfg.Catalog.Client).FetchStageTypes(ctx)
			if err != nil {
				p.fail("%v", err)
				return err
			}
			p.stageTypes(types)
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "catalog base URL (default from config, "+catalog.DefaultBaseURL+")")
	return cmd
}
