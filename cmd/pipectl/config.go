package main

import (
	"fmt"
	"time"

	"github.com/Eman-Sallam/ai-pipeline-editor/catalog"
	"github.com/Eman-Sallam/ai-pipeline-editor/config"
	"github.com/Eman-Sallam/ai-pipeline-editor/execution"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
	"github.com/Eman-Sallam/ai-pipeline-editor/server"
	"github.com/Eman-Sallam/ai-pipeline-editor/version"
)

const serviceName = "pipectl"

// Config is the pipectl configuration, loaded from config.yml, .env and
// PIPECTL_* environment variables.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Execution ExecutionConfig      `yaml:"execution" mapstructure:"execution"`
	Catalog   CatalogConfig        `yaml:"catalog" mapstructure:"catalog"`
	Events    server.Config        `yaml:"events" mapstructure:"events"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ExecutionConfig controls how runs pace themselves.
type ExecutionConfig struct {
	StageDelay  time.Duration `yaml:"stage_delay" mapstructure:"stage_delay"`
	SettleDelay time.Duration `yaml:"settle_delay" mapstructure:"settle_delay"`
}

// CatalogConfig configures both ends of the stage catalog.
type CatalogConfig struct {
	Client  catalog.ClientConfig `yaml:"client" mapstructure:"client"`
	Server  server.Config        `yaml:"server" mapstructure:"server"`
	Latency time.Duration        `yaml:"latency" mapstructure:"latency"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.GetShortVersion()
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Execution.StageDelay == 0 {
		c.Execution.StageDelay = execution.DefaultStageDelay
	}
	c.Catalog.Client.ApplyDefaults()
	c.Catalog.Server.ApplyDefaults()
	if c.Catalog.Latency == 0 {
		c.Catalog.Latency = catalog.DefaultLatency
	}
	if c.Events.Addr == "" {
		c.Events.Addr = ":8001"
	}
	c.Events.ApplyDefaults()

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Name
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = c.Version
	}
	if c.Telemetry.Environment == "" {
		c.Telemetry.Environment = c.Environment
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	c.Telemetry.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if c.Execution.StageDelay < 0 || c.Execution.SettleDelay < 0 {
		return fmt.Errorf("execution delays must be non-negative")
	}
	if c.Catalog.Latency < 0 {
		return fmt.Errorf("catalog.latency must be non-negative")
	}
	if err := c.Catalog.Server.Validate(); err != nil {
		return fmt.Errorf("catalog.%w", err)
	}
	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events.%w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	return nil
}

// loadConfig reads configuration and applies defaults and validation.
func loadConfig(opts *rootOptions) (*Config, error) {
	cfg := &Config{}
	var loaderOpts []config.LoaderOption
	if opts.configFile != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(opts.configFile))
	}
	if opts.envFile != "" {
		loaderOpts = append(loaderOpts, config.WithEnvFile(opts.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, loaderOpts...); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.noColor {
		cfg.Logging.NoColor = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
