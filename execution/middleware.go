package execution

import (
	"context"
	"time"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

// WithTracing wraps a StageRunner so each stage runs in a
// "pipeline.stage" span tagged with the node.
func WithTracing(r StageRunner) StageRunner {
	return StageRunnerFunc(func(ctx context.Context, node dag.Node) error {
		ctx, span := observability.StartSpan(ctx, observability.SpanStage)
		defer span.End()

		observability.SetSpanAttribute(ctx, observability.AttrNodeID, node.ID)
		observability.SetSpanAttribute(ctx, observability.AttrNodeLabel, node.Label)
		observability.SetSpanAttribute(ctx, observability.AttrStageType, node.Type)

		err := r.RunStage(ctx, node)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return err
	})
}

// WithMetrics wraps a StageRunner with stage count, duration and error metrics.
func WithMetrics(r StageRunner, m *observability.Metrics) StageRunner {
	return StageRunnerFunc(func(ctx context.Context, node dag.Node) error {
		start := time.Now()
		err := r.RunStage(ctx, node)

		status := "ok"
		if err != nil {
			status = "error"
			m.RecordError(ctx, "stage", node.Type)
		}
		m.RecordStage(ctx, node.Type, status, time.Since(start))
		return err
	})
}

// WithLogging wraps a StageRunner with a debug line per stage and an error
// line on failure.
func WithLogging(r StageRunner, log *logger.Logger) StageRunner {
	return StageRunnerFunc(func(ctx context.Context, node dag.Node) error {
		start := time.Now()
		err := r.RunStage(ctx, node)

		fields := logger.Fields(
			logger.FieldNodeID, node.ID,
			logger.FieldStageType, node.Type,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		)
		if err != nil {
			fields[logger.FieldError] = err.Error()
			log.Error("stage failed", fields)
		} else {
			log.Debug("stage completed", fields)
		}
		return err
	})
}

// Instrument applies logging, metrics and tracing to r. A nil m skips metrics.
func Instrument(r StageRunner, m *observability.Metrics, log *logger.Logger) StageRunner {
	r = WithLogging(r, log)
	if m != nil {
		r = WithMetrics(r, m)
	}
	return WithTracing(r)
}
