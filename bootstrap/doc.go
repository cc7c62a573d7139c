// Package bootstrap gives pipectl commands a uniform lifecycle: typed config
// defaults and validation, logger setup, start and stop hooks, health checks
// and signal handling.
//
// Long-running commands use Run, which blocks until SIGINT/SIGTERM or context
// cancellation. One-shot commands use RunTask, which cancels the task's
// context on a signal and shuts down once it returns.
package bootstrap
