// Package observability wires OpenTelemetry tracing and metrics for pipeline
// runs and the stage catalog.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanStage)
//	defer span.End()
//
// Metrics:
//
//	metrics, err := observability.NewMetrics(observability.Meter())
//	metrics.RecordStage(ctx, "Transformer", "completed", elapsed)
//
// Health:
//
//	health := observability.CheckAll(ctx, "catalog", version.GetShortVersion(), store)
package observability
