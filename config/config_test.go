package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug log level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info log level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Execution     struct {
		StageDelay time.Duration `mapstructure:"stage_delay"`
	} `mapstructure:"execution"`
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	yamlContent := `
name: pipectl
environment: staging
execution:
  stage_delay: 250ms
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := LoadConfig("pipectl-test-yaml", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "pipectl" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("environment = %q", cfg.Environment)
	}
	if cfg.Execution.StageDelay != 250*time.Millisecond {
		t.Errorf("stage_delay = %v", cfg.Execution.StageDelay)
	}
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("execution:\n  stage_delay: 1s\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PIPECTL_ENVTEST_EXECUTION_STAGE_DELAY", "5ms")

	var cfg testConfig
	if err := LoadConfig("pipectl-envtest", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Execution.StageDelay != 5*time.Millisecond {
		t.Errorf("stage_delay = %v, want 5ms", cfg.Execution.StageDelay)
	}
}

func TestLoadConfigMissingFileKeepsValues(t *testing.T) {
	cfg := testConfig{}
	cfg.Name = "preset"
	err := LoadConfig("pipectl-missing", &cfg,
		WithConfigFile(filepath.Join(t.TempDir(), "nope.yml")),
		WithEnvPrefix("PIPECTL_MISSING_UNUSED_"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "preset" {
		t.Errorf("name = %q, want preset", cfg.Name)
	}
}

type fakeFS struct {
	existing map[string]bool
	loaded   []string
}

func (f *fakeFS) Exists(path string) bool { return f.existing[path] }
func (f *fakeFS) LoadEnv(path string) error {
	f.loaded = append(f.loaded, path)
	return nil
}

func TestResolverSearchOrder(t *testing.T) {
	fs := &fakeFS{existing: map[string]bool{
		"./config.yml":         true,
		"./config/pipectl.yml": true,
		".env":                 true,
	}}
	r := &Resolver{FileSystem: fs}
	got := r.ResolveFiles("pipectl", LoaderConfig{})
	if got.ConfigFile != "./config/pipectl.yml" {
		t.Errorf("config file = %q", got.ConfigFile)
	}
	if got.EnvFile != ".env" {
		t.Errorf("env file = %q", got.EnvFile)
	}

	explicit := r.ResolveFiles("pipectl", LoaderConfig{ConfigFile: "x.yml"})
	if explicit.ConfigFile != "x.yml" {
		t.Errorf("explicit config file = %q", explicit.ConfigFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("EXECUTION_STAGE_DELAY")
	want := map[string]bool{
		"execution_stage_delay": false,
		"execution.stage.delay": false,
		"execution.stage_delay": false,
		"execution_stage.delay": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("missing variant %q in %v", k, variants)
		}
	}
	if got := envKeyVariants("NAME"); len(got) != 1 || got[0] != "name" {
		t.Errorf("single-part variants = %v", got)
	}
}
