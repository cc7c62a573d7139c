// Package logger provides structured operational logging using zerolog.
//
// It is separate from the user-facing execution log: the orchestrator records
// LogEntry values for display, while this package writes diagnostics for
// operators (stage durations, rejected connections, catalog retries).
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("execution")
//	log.Info("run finished", logger.Fields(logger.FieldRunID, id))
package logger
