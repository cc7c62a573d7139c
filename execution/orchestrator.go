package execution

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Eman-Sallam/ai-pipeline-editor/catalog"
	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

// Status is the state of the most recent run.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Log messages written by every run.
const (
	MsgStarted   = "Pipeline execution started"
	MsgCompleted = "Pipeline execution completed successfully"
)

// Run summarizes one Execute call.
type Run struct {
	ID         string
	Status     Status
	Order      []string
	Completed  []string
	Skipped    []string
	FailedNode string
	StartedAt  time.Time
	FinishedAt time.Time
	Err        error
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Orchestrator runs pipelines one at a time and keeps the status and log of
// the latest run.
type Orchestrator struct {
	runner  StageRunner
	clock   Clock
	settle  time.Duration
	sink    Sink
	metrics *observability.Metrics
	log     *logger.Logger

	executing atomic.Bool

	mu     sync.RWMutex
	status Status
	logs   LogBook
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStageRunner replaces the simulated stage work.
func WithStageRunner(r StageRunner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithClock sets the clock used for timestamps and waits.
func WithClock(c Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithSettleDelay waits d after every node mutation.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.settle = d }
}

// WithSink sends every run event to s.
func WithSink(s Sink) Option {
	return func(o *Orchestrator) { o.sink = s }
}

// WithRunMetrics records run metrics on m.
func WithRunMetrics(m *observability.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the operational logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator creates an idle orchestrator. Without WithStageRunner each
// stage is simulated with DefaultStageDelay on the orchestrator's clock.
func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{status: StatusIdle}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = RealClock{}
	}
	if o.runner == nil {
		o.runner = NewSimulatedRunner(o.clock, DefaultStageDelay)
	}
	if o.log == nil {
		o.log = logger.WithComponent("execution")
	}
	return o
}

// Status returns the status of the latest run.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// IsExecuting reports whether a run is in flight.
func (o *Orchestrator) IsExecuting() bool {
	return o.executing.Load()
}

// Logs returns the execution log, newest first.
func (o *Orchestrator) Logs() []LogEntry {
	return o.logs.Entries()
}

// ClearLogs empties the execution log. The status is left alone.
func (o *Orchestrator) ClearLogs() {
	o.logs.Clear()
}

// AddLog appends an entry to the execution log outside of a run.
func (o *Orchestrator) AddLog(message string, severity Severity) {
	o.addLog("", message, severity)
}

// Execute validates and runs the pipeline described by nodes and edges, the
// caller's snapshot at call time. Node status changes are applied through m.
//
// The returned error is ErrCodeExecutionInProgress when another run is in
// flight (run is nil), ErrCodeInvalidPipeline when validation fails,
// ErrCodeStageFailed when a stage fails and ErrCodeInternal on a panic.
func (o *Orchestrator) Execute(ctx context.Context, nodes []dag.Node, edges []dag.Edge, m Mutator) (run *Run, err error) {
	if !o.executing.CompareAndSwap(false, true) {
		return nil, apperrors.ExecutionInProgress()
	}
	defer o.executing.Store(false)

	if m == nil {
		m = nopMutator{}
	}
	run = &Run{ID: uuid.NewString(), StartedAt: o.clock.Now()}
	log := o.log.WithFields(logger.Fields(logger.FieldRunID, run.ID))

	ctx, span := observability.StartSpan(ctx, observability.SpanPipelineRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, run.ID)
	observability.SetSpanAttribute(ctx, observability.AttrStageCount, len(nodes))

	if o.metrics != nil {
		o.metrics.RecordRunStart(ctx)
	}

	defer func() {
		if r := recover(); r != nil {
			err = apperrors.Internal(fmt.Errorf("panic: %v", r))
			o.addLog(run.ID, "Execution failed: "+panicMessage(r), SeverityError)
			o.setStatus(run, StatusError)
			log.Error("run panicked", logger.Fields("panic", fmt.Sprint(r)))
		}
		run.Err = err
		run.FinishedAt = o.clock.Now()
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		observability.SetSpanAttribute(ctx, observability.AttrStatus, string(run.Status))
		if o.metrics != nil {
			o.metrics.RecordRunEnd(ctx, string(run.Status), len(run.Completed), run.Duration())
		}
		log.Info("run finished", logger.Fields(
			logger.FieldStatus, string(run.Status),
			"completed", len(run.Completed),
			logger.FieldDuration, run.Duration().Milliseconds(),
		))
	}()

	o.setStatus(run, StatusRunning)

	if verdict := dag.ValidateGraph(nodes, edges); !verdict.Valid {
		o.setStatus(run, StatusError)
		o.addLog(run.ID, verdict.Error, SeverityError)
		return run, verdict.PipelineErr()
	}

	m.Apply(dag.ResetStatus)
	o.settleDown(ctx)
	o.addLog(run.ID, MsgStarted, SeverityInfo)

	run.Order = dag.TopologicalSort(nodes, edges)
	o.addLog(run.ID, fmt.Sprintf("Execution order determined: %d node(s)", len(run.Order)), SeverityInfo)

	index := make(map[string]dag.Node, len(nodes))
	for _, n := range nodes {
		if _, dup := index[n.ID]; !dup {
			index[n.ID] = n
		}
	}

	for _, id := range run.Order {
		node, ok := index[id]
		if !ok {
			run.Skipped = append(run.Skipped, id)
			o.addLog(run.ID, fmt.Sprintf("Warning: Node %s not found, skipping", id), SeverityInfo)
			continue
		}
		if node.Label == "" || node.Type == "" {
			run.Skipped = append(run.Skipped, id)
			o.addLog(run.ID, fmt.Sprintf("Warning: Node %s has missing data (label: %s, type: %s), skipping",
				id, node.Label, node.Type), SeverityInfo)
			continue
		}

		if stageErr := o.runStage(ctx, run, node, m); stageErr != nil {
			run.FailedNode = id
			o.setStatus(run, StatusError)
			return run, apperrors.StageFailed(id, stageErr)
		}
		run.Completed = append(run.Completed, id)
	}

	o.setStatus(run, StatusCompleted)
	o.addLog(run.ID, MsgCompleted, SeveritySuccess)
	return run, nil
}

func (o *Orchestrator) runStage(ctx context.Context, run *Run, node dag.Node, m Mutator) error {
	o.setNodeStatus(ctx, run, m, node.ID, dag.StatusRunning)
	o.addLog(run.ID, catalog.Message(node.Label, node.Type, catalog.PhaseStarted), SeverityInfo)

	if err := o.runner.RunStage(ctx, node); err != nil {
		o.setNodeStatus(ctx, run, m, node.ID, dag.StatusError)
		o.addLog(run.ID, catalog.Message(node.Label, node.Type, catalog.PhaseFailed), SeverityError)
		return err
	}

	o.setNodeStatus(ctx, run, m, node.ID, dag.StatusCompleted)
	o.addLog(run.ID, catalog.Message(node.Label, node.Type, catalog.PhaseCompleted), SeveritySuccess)
	return nil
}

func (o *Orchestrator) setStatus(run *Run, s Status) {
	o.mu.Lock()
	o.status = s
	o.mu.Unlock()
	run.Status = s
	o.emit(Event{RunID: run.ID, Kind: EventStatus, Status: s})
}

func (o *Orchestrator) setNodeStatus(ctx context.Context, run *Run, m Mutator, id string, s dag.NodeStatus) {
	m.Apply(func(nodes []dag.Node) []dag.Node {
		return dag.WithStatus(nodes, id, s)
	})
	o.emit(Event{RunID: run.ID, Kind: EventNode, NodeID: id, NodeStatus: s})
	o.settleDown(ctx)
}

func (o *Orchestrator) addLog(runID, message string, severity Severity) {
	entry := NewLogEntry(o.clock.Now(), message, severity)
	o.logs.Add(entry)
	o.emit(Event{RunID: runID, Kind: EventLog, Entry: &entry})
}

func (o *Orchestrator) emit(e Event) {
	if o.sink != nil {
		o.sink.Emit(e)
	}
}

// settleDown gives observers time to catch up with a mutation. A done ctx
// cuts the wait short; the stage that follows reports the cancellation.
func (o *Orchestrator) settleDown(ctx context.Context) {
	if o.settle > 0 {
		_ = o.clock.Sleep(ctx, o.settle)
	}
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "Unknown error"
	}
}
