package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Eman-Sallam/ai-pipeline-editor/bootstrap"
	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	"github.com/Eman-Sallam/ai-pipeline-editor/document"
	"github.com/Eman-Sallam/ai-pipeline-editor/execution"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
	"github.com/Eman-Sallam/ai-pipeline-editor/server"
	"github.com/Eman-Sallam/ai-pipeline-editor/session"
	"github.com/Eman-Sallam/ai-pipeline-editor/sse"
)

// RouteEvents is where run events are streamed when --events-addr is set.
const RouteEvents = "/api/events"

type runFlags struct {
	doc        documentFlags
	delay      time.Duration
	settle     time.Duration
	failAt     string
	eventsAddr string
	linger     time.Duration

	delaySet  bool
	settleSet bool
}

// apply writes explicitly set flags over cfg. It runs after the last
// defaults pass so a zero --delay is kept.
func (f runFlags) apply(cfg *Config) error {
	if f.delaySet {
		cfg.Execution.StageDelay = f.delay
	}
	if f.settleSet {
		cfg.Execution.SettleDelay = f.settle
	}
	if f.eventsAddr != "" {
		cfg.Events.Addr = f.eventsAddr
	}
	return cfg.Validate()
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a pipeline document stage by stage",
		Long: `Execute validates the pipeline, then runs its stages one at a time in
dependency order, printing the execution log as it is written. The command
fails if validation or any stage fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			f.delaySet = cmd.Flags().Changed("delay")
			f.settleSet = cmd.Flags().Changed("settle")
			return runPipeline(cmd.Context(), cfg, opts.printer(), f)
		},
	}
	f.doc.register(cmd)
	cmd.Flags().DurationVar(&f.delay, "delay", execution.DefaultStageDelay, "simulated work per stage")
	cmd.Flags().DurationVar(&f.settle, "settle", 0, "pause after every node status change")
	cmd.Flags().StringVar(&f.failAt, "fail-at", "", "make the stage with this node id fail")
	cmd.Flags().StringVar(&f.eventsAddr, "events-addr", "", "serve run events over SSE on this address")
	cmd.Flags().DurationVar(&f.linger, "linger", 0, "keep the event stream open this long after the run")
	return cmd
}

// errInjected is the failure --fail-at injects.
var errInjected = errors.New("failure injected by --fail-at")

func runPipeline(ctx context.Context, cfg *Config, p *printer, f runFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	pl, err := document.LoadFile(f.doc.file, document.BuildOptions{Raw: f.doc.raw})
	if err != nil {
		p.fail("%v", err)
		return err
	}

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return err
	}
	log := app.Logger.WithComponent("run")

	shutdownTelemetry, err := observability.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	app.OnStop(bootstrap.Hook(shutdownTelemetry))

	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return err
	}

	var runner execution.StageRunner = execution.NewSimulatedRunner(execution.RealClock{}, cfg.Execution.StageDelay)
	if f.failAt != "" {
		runner = failAt(runner, f.failAt)
	}
	runner = execution.Instrument(runner, metrics, log)

	sinks := execution.MultiSink{p}
	if f.eventsAddr != "" {
		hub := sse.NewHub()
		srv := server.New(cfg.Events, log)
		srv.Engine().GET(RouteEvents, sse.Handler(hub))
		sinks = append(sinks, execution.NewBroadcastSink(hub, sse.DefaultTopic))

		hubCtx, stopHub := context.WithCancel(context.Background())
		app.OnStart(func(ctx context.Context) error {
			go hub.Run(hubCtx)
			return srv.Start(ctx)
		})
		// The hub goes first: closing its clients ends the streaming
		// handlers that Shutdown waits for.
		app.OnStop(func(ctx context.Context) error {
			stopHub()
			hub.Stop()
			return srv.Stop(ctx)
		})
	}

	orch := execution.NewOrchestrator(
		execution.WithStageRunner(runner),
		execution.WithSettleDelay(cfg.Execution.SettleDelay),
		execution.WithSink(sinks),
		execution.WithRunMetrics(metrics),
		execution.WithLogger(log),
	)
	sess := session.New(orch)
	if err := sess.Load(pl.Nodes, pl.Edges); err != nil {
		return err
	}

	return app.RunTask(ctx, func(ctx context.Context) error {
		run, err := sess.Execute(ctx)
		if run != nil {
			log.Info("run summary", logger.Fields(
				logger.FieldRunID, run.ID,
				logger.FieldStatus, string(run.Status),
				"completed", len(run.Completed),
				"skipped", len(run.Skipped),
			))
		}
		if f.eventsAddr != "" && f.linger > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(f.linger):
			}
		}
		return err
	})
}

// failAt wraps r so the stage for nodeID fails with errInjected.
func failAt(r execution.StageRunner, nodeID string) execution.StageRunner {
	return execution.StageRunnerFunc(func(ctx context.Context, node dag.Node) error {
		if node.ID == nodeID {
			return errInjected
		}
		return r.RunStage(ctx, node)
	})
}
