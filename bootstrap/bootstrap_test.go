package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Eman-Sallam/ai-pipeline-editor/config"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

type testConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Workers              int `yaml:"workers" mapstructure:"workers"`
}

func (c *testConfig) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Workers == 0 {
		c.Workers = 2
	}
}

func (c *testConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.New("workers must be non-negative")
	}
	return nil
}

type staticChecker observability.Health

func (s staticChecker) CheckHealth(context.Context) observability.Health {
	return observability.Health(s)
}

func newTestApp(t *testing.T, opts ...Option) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(&testConfig{ServiceConfig: config.ServiceConfig{Name: "pipectl"}},
		append([]Option{WithLogger(logger.NewNop())}, opts...)...)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

func TestNewApp_AppliesDefaults(t *testing.T) {
	app := newTestApp(t)
	if app.Name != "pipectl" {
		t.Errorf("Name = %q", app.Name)
	}
	if app.Cfg.Workers != 2 || app.Cfg.Environment != "development" {
		t.Errorf("defaults not applied: %+v", app.Cfg)
	}
	if app.gracefulTimeout != 15*time.Second {
		t.Errorf("gracefulTimeout = %v", app.gracefulTimeout)
	}
}

func TestNewApp_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *testConfig
	}{
		{"missing name", &testConfig{}},
		{"bad environment", &testConfig{ServiceConfig: config.ServiceConfig{Name: "x", Environment: "qa"}}},
		{"negative workers", &testConfig{ServiceConfig: config.ServiceConfig{Name: "x"}, Workers: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewApp(tt.cfg, WithLogger(logger.NewNop())); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunTask_HookOrder(t *testing.T) {
	app := newTestApp(t)
	var calls []string
	record := func(name string) Hook {
		return func(context.Context) error {
			calls = append(calls, name)
			return nil
		}
	}
	app.OnStart(record("start1"), record("start2"))
	app.OnStop(record("stop1"), record("stop2"))

	taskErr := errors.New("task failed")
	err := app.RunTask(context.Background(), func(context.Context) error {
		calls = append(calls, "task")
		return taskErr
	})
	if !errors.Is(err, taskErr) {
		t.Errorf("RunTask error = %v, want task error", err)
	}
	want := []string{"start1", "start2", "task", "stop2", "stop1"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls = %v, want %v", calls, want)
			break
		}
	}
}

func TestRunTask_StartFailureSkipsTask(t *testing.T) {
	app := newTestApp(t)
	stopped := false
	app.OnStart(func(context.Context) error { return errors.New("bind failed") })
	app.OnStop(func(context.Context) error { stopped = true; return nil })

	ran := false
	err := app.RunTask(context.Background(), func(context.Context) error { ran = true; return nil })
	if err == nil || ran {
		t.Errorf("err = %v, task ran = %v", err, ran)
	}
	if !stopped {
		t.Error("stop hooks did not run after a failed start")
	}
}

func TestRunTask_StopErrorReported(t *testing.T) {
	app := newTestApp(t)
	app.OnStop(func(context.Context) error { return errors.New("flush failed") })
	if err := app.RunTask(context.Background(), func(context.Context) error { return nil }); err == nil {
		t.Error("expected stop hook error")
	}
}

func TestRun_ReturnsOnCancel(t *testing.T) {
	app := newTestApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestHealth(t *testing.T) {
	app := newTestApp(t, WithHealthChecker(staticChecker{Name: "catalog", Status: observability.HealthStatusUp}))
	if h := app.Health(context.Background()); h.Status != observability.HealthStatusUp || h.Service != "pipectl" {
		t.Errorf("health = %+v", h)
	}
	app.AddHealthChecker(staticChecker{Name: "events", Status: observability.HealthStatusDown})
	if h := app.Health(context.Background()); h.Healthy() {
		t.Errorf("health = %+v, want down", h)
	}
}
