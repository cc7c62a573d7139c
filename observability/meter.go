package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
)

// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// The provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.WithComponent("telemetry").Info("meter initialized", logger.Fields(
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns the module meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the instruments for pipeline runs, stages and catalog calls.
type Metrics struct {
	runTotal        metric.Int64Counter
	runDuration     metric.Float64Histogram
	runActive       metric.Int64UpDownCounter
	stageTotal      metric.Int64Counter
	stageDuration   metric.Float64Histogram
	catalogRequests metric.Int64Counter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.runTotal, err = meter.Int64Counter("pipeline.run.total",
		metric.WithDescription("Pipeline runs by outcome")); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.total counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("pipeline.run.duration",
		metric.WithDescription("Duration of pipeline runs in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.duration histogram: %w", err)
	}
	if m.runActive, err = meter.Int64UpDownCounter("pipeline.run.active",
		metric.WithDescription("Pipeline runs currently executing")); err != nil {
		return nil, fmt.Errorf("creating pipeline.run.active gauge: %w", err)
	}
	if m.stageTotal, err = meter.Int64Counter("pipeline.stage.total",
		metric.WithDescription("Stage executions by type and outcome")); err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.total counter: %w", err)
	}
	if m.stageDuration, err = meter.Float64Histogram("pipeline.stage.duration",
		metric.WithDescription("Duration of stage executions in seconds"),
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating pipeline.stage.duration histogram: %w", err)
	}
	if m.catalogRequests, err = meter.Int64Counter("catalog.request.total",
		metric.WithDescription("Stage catalog requests by outcome")); err != nil {
		return nil, fmt.Errorf("creating catalog.request.total counter: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	return &m, nil
}

// RecordRunStart increments the active run gauge.
func (m *Metrics) RecordRunStart(ctx context.Context) {
	m.runActive.Add(ctx, 1)
}

// RecordRunEnd decrements the active run gauge and records the finished run.
func (m *Metrics) RecordRunEnd(ctx context.Context, status string, stages int, duration time.Duration) {
	m.runActive.Add(ctx, -1)
	m.runTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
		attribute.Int("stages", stages),
	))
}

// RecordStage records one stage execution.
func (m *Metrics) RecordStage(ctx context.Context, stageType, status string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("stage_type", stageType),
		attribute.String("status", status),
	)
	m.stageTotal.Add(ctx, 1, attrs)
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("stage_type", stageType),
	))
}

// RecordCatalogRequest records one catalog request.
func (m *Metrics) RecordCatalogRequest(ctx context.Context, route, status string) {
	m.catalogRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", status),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
