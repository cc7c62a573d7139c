package execution

import (
	"context"
	"time"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
)

// DefaultStageDelay is how long a simulated stage takes.
const DefaultStageDelay = time.Second

// StageRunner performs the work of one stage.
type StageRunner interface {
	RunStage(ctx context.Context, node dag.Node) error
}

// StageRunnerFunc adapts a function to StageRunner.
type StageRunnerFunc func(ctx context.Context, node dag.Node) error

func (f StageRunnerFunc) RunStage(ctx context.Context, node dag.Node) error {
	return f(ctx, node)
}

// SimulatedRunner stands in for real work by waiting Delay on Clock.
type SimulatedRunner struct {
	Clock Clock
	Delay time.Duration
}

// NewSimulatedRunner creates a runner that waits delay per stage.
func NewSimulatedRunner(clock Clock, delay time.Duration) *SimulatedRunner {
	if clock == nil {
		clock = RealClock{}
	}
	return &SimulatedRunner{Clock: clock, Delay: delay}
}

func (r *SimulatedRunner) RunStage(ctx context.Context, _ dag.Node) error {
	return r.Clock.Sleep(ctx, r.Delay)
}
