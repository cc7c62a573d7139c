// Package errors provides the structured error type shared by the pipeline
// engine, the editing session, the stage catalog and the CLI.
//
// Every error that crosses a package boundary is an *AppError carrying a
// machine-readable code, a human-readable message and an HTTP status hint
// used by the catalog service.
package errors
