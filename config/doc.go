// Package config loads service configuration with Viper.
//
// Values come from, in increasing precedence: a YAML config file, a .env
// file, and process environment variables carrying the service prefix
// (PIPECTL_EXECUTION_STAGE_DELAY sets execution.stage_delay).
//
// # Usage
//
//	var cfg MyConfig
//	err := config.LoadConfig("pipectl", &cfg, config.WithConfigFile(path))
package config
