package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("pipectl")
	if cfg.Enabled {
		t.Error("export must be disabled by default")
	}
	if cfg.ServiceName != "pipectl" || cfg.Endpoint != "localhost:4318" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Errorf("unexpected sampling defaults: %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled skips checks", Config{SampleRate: 5}, false},
		{"enabled valid", Config{Enabled: true, ServiceName: "x", SampleRate: 0.5}, false},
		{"enabled missing name", Config{Enabled: true, SampleRate: 1}, true},
		{"enabled bad rate", Config{Enabled: true, ServiceName: "x", SampleRate: 2}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if shutdown == nil {
		t.Fatal("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestNewResourceCarriesServiceName(t *testing.T) {
	res, err := newResource(Config{ServiceName: "pipectl", ServiceVersion: "1.2.3", Environment: "test"})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == AttrServiceName && kv.Value.AsString() == "pipectl" {
			found = true
		}
	}
	if !found {
		t.Errorf("service.name missing from %v", res.Attributes())
	}
}

func TestSampler(t *testing.T) {
	if got := sampler(1).Description(); got != sdktrace.AlwaysSample().Description() {
		t.Errorf("rate 1 => %s", got)
	}
	if got := sampler(0).Description(); got != sdktrace.NeverSample().Description() {
		t.Errorf("rate 0 => %s", got)
	}
	if got := sampler(0.5).Description(); got != sdktrace.TraceIDRatioBased(0.5).Description() {
		t.Errorf("rate 0.5 => %s", got)
	}
}

func TestStartSpanAndAttributes(t *testing.T) {
	recorder := installRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanStage)
	SetSpanAttribute(ctx, AttrNodeID, "n1")
	SetSpanAttribute(ctx, AttrStageCount, 3)
	SetSpanAttribute(ctx, "flag", true)
	SetSpanError(ctx, errors.New("stage blew up"))
	span.End()

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	s := spans[0]
	if s.Name() != SpanStage {
		t.Errorf("name = %s", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v", s.Status())
	}
	attrs := map[string]bool{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = true
	}
	for _, k := range []string{AttrNodeID, AttrStageCount, "flag", AttrErrorMessage} {
		if !attrs[k] {
			t.Errorf("missing attribute %s", k)
		}
	}
	if len(s.Events()) == 0 {
		t.Error("expected recorded error event")
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	// must not panic
	SetSpanAttribute(context.Background(), "k", "v")
	SetSpanError(context.Background(), errors.New("x"))
	SetSpanError(context.Background(), nil)
}

func TestNewMetricsNoop(t *testing.T) {
	m, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordRunStart(ctx)
	m.RecordRunEnd(ctx, "completed", 3, time.Second)
	m.RecordStage(ctx, "Model", "completed", time.Second)
	m.RecordCatalogRequest(ctx, "/api/nodes", "200")
	m.RecordError(ctx, "stage_failed", "executor")
}

func TestMetricsCollected(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordStage(ctx, "Sink", "completed", 10*time.Millisecond)
	m.RecordStage(ctx, "Sink", "error", 10*time.Millisecond)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, metric := range sm.Metrics {
			if metric.Name != "pipeline.stage.total" {
				continue
			}
			sum, ok := metric.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("unexpected data type %T", metric.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	if total != 2 {
		t.Errorf("pipeline.stage.total = %d, want 2", total)
	}
}

type staticChecker Health

func (c staticChecker) CheckHealth(context.Context) Health { return Health(c) }

func TestCheckAll(t *testing.T) {
	up := staticChecker{Name: "store", Status: HealthStatusUp}
	degraded := staticChecker{Name: "latency", Status: HealthStatusDegraded}
	down := staticChecker{Name: "upstream", Status: HealthStatusDown}

	tests := []struct {
		name     string
		checkers []HealthChecker
		want     HealthStatus
	}{
		{"no checkers", nil, HealthStatusUp},
		{"all up", []HealthChecker{up}, HealthStatusUp},
		{"degraded", []HealthChecker{up, degraded}, HealthStatusDegraded},
		{"down wins", []HealthChecker{down, degraded}, HealthStatusDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sh := CheckAll(context.Background(), "catalog", "1.0.0", tc.checkers...)
			if sh.Status != tc.want {
				t.Errorf("status = %s, want %s", sh.Status, tc.want)
			}
			if len(sh.Components) != len(tc.checkers) {
				t.Errorf("components = %d", len(sh.Components))
			}
			if sh.Healthy() != (tc.want != HealthStatusDown) {
				t.Errorf("Healthy() = %v", sh.Healthy())
			}
		})
	}
}

func TestInitTracerAndMeter(t *testing.T) {
	cfg := DefaultConfig("pipectl-test")
	cfg.Enabled = true
	ctx := context.Background()

	prevTP := otel.GetTracerProvider()
	prevMP := otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	}()

	shutdown, err := Setup(ctx, cfg)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	// nothing was recorded, so there is nothing to flush to the absent collector
	_ = shutdown(shutdownCtx)
}
