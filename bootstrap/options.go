package bootstrap

import (
	"os"
	"time"

	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	checkers        []observability.HealthChecker
	signals         []os.Signal
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the application logger instead of building one from the
// config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) {
		o.logger = l
	}
}

// WithGracefulTimeout bounds the time stop hooks get during shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) {
		o.gracefulTimeout = &d
	}
}

// WithHealthChecker adds a checker to the ready check.
func WithHealthChecker(c observability.HealthChecker) Option {
	return func(o *appOptions) {
		o.checkers = append(o.checkers, c)
	}
}

// WithSignals replaces the shutdown signals (SIGINT and SIGTERM by default).
func WithSignals(sigs ...os.Signal) Option {
	return func(o *appOptions) {
		o.signals = sigs
	}
}
