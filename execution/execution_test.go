package execution

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Eman-Sallam/ai-pipeline-editor/catalog"
	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/observability"
)

func init() {
	logger.SetGlobalLogger(logger.NewNop())
}

// fakeClock advances only when slept on.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// recordingMutator owns a live node list and remembers every status change.
type recordingMutator struct {
	mu      sync.Mutex
	nodes   []dag.Node
	applies int
	history []string
}

func newRecordingMutator(nodes []dag.Node) *recordingMutator {
	return &recordingMutator{nodes: append([]dag.Node(nil), nodes...)}
}

func (m *recordingMutator) Apply(update func([]dag.Node) []dag.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := make(map[string]dag.NodeStatus, len(m.nodes))
	for _, n := range m.nodes {
		before[n.ID] = n.Status
	}
	m.nodes = update(m.nodes)
	m.applies++
	for _, n := range m.nodes {
		if before[n.ID] != n.Status {
			m.history = append(m.history, n.ID+"="+string(n.Status))
		}
	}
}

func (m *recordingMutator) status(id string) dag.NodeStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n.ID == id {
			return n.Status
		}
	}
	return ""
}

// scriptedRunner fails the listed nodes and records the rest.
type scriptedRunner struct {
	mu    sync.Mutex
	fail  map[string]error
	ran   []string
	panic string
}

func (r *scriptedRunner) RunStage(_ context.Context, node dag.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, node.ID)
	if r.panic == node.ID {
		panic("boom")
	}
	return r.fail[node.ID]
}

func chain() ([]dag.Node, []dag.Edge) {
	nodes := []dag.Node{
		{ID: "A", Label: "Load", Type: catalog.DataSource, Status: dag.StatusCompleted},
		{ID: "B", Label: "Clean", Type: catalog.Transformer, Status: dag.StatusError},
		{ID: "C", Label: "Save", Type: catalog.Sink, Status: dag.StatusIdle},
	}
	edges := []dag.Edge{
		{ID: "e1", Source: "A", Target: "B"},
		{ID: "e2", Source: "B", Target: "C"},
	}
	return nodes, edges
}

// chronological returns log messages oldest first.
func chronological(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e.Message
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExecute_RunsChainInOrder(t *testing.T) {
	clock := newFakeClock()
	o := NewOrchestrator(WithClock(clock))
	nodes, edges := chain()
	m := newRecordingMutator(nodes)

	run, err := o.Execute(context.Background(), nodes, edges, m)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	wantMsgs := []string{
		MsgStarted,
		"Execution order determined: 3 node(s)",
		"Load: Reading input data",
		"Load: Input data loaded",
		"Clean: Transforming data",
		"Clean: Data transformation completed",
		"Save: Writing output",
		"Save: Output saved successfully",
		MsgCompleted,
	}
	if got := chronological(o.Logs()); !equalStrings(got, wantMsgs) {
		t.Errorf("log =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(wantMsgs, "\n"))
	}

	logs := o.Logs()
	if logs[0].Severity != SeveritySuccess || logs[len(logs)-1].Severity != SeverityInfo {
		t.Errorf("unexpected severities: newest %s, oldest %s", logs[0].Severity, logs[len(logs)-1].Severity)
	}
	if logs[1].Message != "Save: Output saved successfully" || logs[1].Severity != SeveritySuccess {
		t.Errorf("stage completion entry = %+v", logs[1])
	}

	wantHistory := []string{"A=idle", "B=idle", "A=running", "A=completed", "B=running", "B=completed", "C=running", "C=completed"}
	if !equalStrings(m.history, wantHistory) {
		t.Errorf("node history = %v, want %v", m.history, wantHistory)
	}
	if o.Status() != StatusCompleted || run.Status != StatusCompleted {
		t.Errorf("status = %s / %s, want completed", o.Status(), run.Status)
	}
	if !equalStrings(run.Order, []string{"A", "B", "C"}) || !equalStrings(run.Completed, []string{"A", "B", "C"}) {
		t.Errorf("run = %+v", run)
	}
	if got := clock.Sleeps(); len(got) != 3 || got[0] != DefaultStageDelay {
		t.Errorf("sleeps = %v, want three of %v", got, DefaultStageDelay)
	}
	if run.Duration() != 3*time.Second {
		t.Errorf("duration = %v, want 3s", run.Duration())
	}
	if o.IsExecuting() {
		t.Error("still executing after return")
	}
}

func TestExecute_ValidationFailure(t *testing.T) {
	tests := []struct {
		name  string
		nodes []dag.Node
		edges []dag.Edge
		want  string
	}{
		{"empty", nil, nil, dag.ReasonEmptyPipeline},
		{
			"no edges",
			[]dag.Node{{ID: "a", Label: "A", Type: "Model"}, {ID: "b", Label: "B", Type: "Sink"}},
			nil,
			dag.ReasonNoConnections,
		},
		{
			"cycle",
			[]dag.Node{{ID: "a", Label: "A", Type: "Model"}, {ID: "b", Label: "B", Type: "Sink"}},
			[]dag.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
			dag.ReasonPipelineHasCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &scriptedRunner{}
			o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner))
			m := newRecordingMutator(tt.nodes)

			run, err := o.Execute(context.Background(), tt.nodes, tt.edges, m)
			if !apperrors.HasCode(err, apperrors.ErrCodeInvalidPipeline) {
				t.Fatalf("error = %v, want INVALID_PIPELINE", err)
			}
			logs := o.Logs()
			if len(logs) != 1 || logs[0].Message != tt.want || logs[0].Severity != SeverityError {
				t.Errorf("logs = %+v, want single error %q", logs, tt.want)
			}
			if o.Status() != StatusError || run.Status != StatusError {
				t.Errorf("status = %s, want error", o.Status())
			}
			if m.applies != 0 || len(runner.ran) != 0 {
				t.Errorf("mutator applied %d times, runner ran %v", m.applies, runner.ran)
			}
			if o.IsExecuting() {
				t.Error("lock not released")
			}
		})
	}
}

func TestExecute_StageFailureStopsRun(t *testing.T) {
	cause := errors.New("disk full")
	runner := &scriptedRunner{fail: map[string]error{"B": cause}}
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner))
	nodes, edges := chain()
	m := newRecordingMutator(nodes)

	run, err := o.Execute(context.Background(), nodes, edges, m)
	if !apperrors.HasCode(err, apperrors.ErrCodeStageFailed) {
		t.Fatalf("error = %v, want STAGE_FAILED", err)
	}
	if !errors.Is(err, cause) {
		t.Error("stage error does not wrap its cause")
	}
	if !equalStrings(runner.ran, []string{"A", "B"}) {
		t.Errorf("ran = %v, want [A B]", runner.ran)
	}
	if m.status("B") != dag.StatusError || m.status("C") != dag.StatusIdle || m.status("A") != dag.StatusCompleted {
		t.Errorf("statuses A=%s B=%s C=%s", m.status("A"), m.status("B"), m.status("C"))
	}
	for _, h := range m.history {
		if h == "C=running" {
			t.Error("C was marked running after B failed")
		}
	}
	logs := o.Logs()
	if logs[0].Message != "Clean: Data transformation failed" || logs[0].Severity != SeverityError {
		t.Errorf("newest entry = %+v", logs[0])
	}
	for _, e := range logs {
		if e.Message == MsgCompleted {
			t.Error("completion logged after a failure")
		}
	}
	if o.Status() != StatusError || run.FailedNode != "B" {
		t.Errorf("status = %s, failed node = %q", o.Status(), run.FailedNode)
	}
	if o.IsExecuting() {
		t.Error("lock not released")
	}
}

func TestExecute_OverlappingCallIsRejected(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	runner := StageRunnerFunc(func(ctx context.Context, _ dag.Node) error {
		once.Do(func() { close(entered) })
		<-release
		return nil
	})
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner))
	nodes, edges := chain()

	done := make(chan error, 1)
	go func() {
		_, err := o.Execute(context.Background(), nodes, edges, newRecordingMutator(nodes))
		done <- err
	}()
	<-entered

	if !o.IsExecuting() || o.Status() != StatusRunning {
		t.Errorf("IsExecuting = %v, status = %s", o.IsExecuting(), o.Status())
	}
	before := len(o.Logs())
	run, err := o.Execute(context.Background(), nodes, edges, newRecordingMutator(nodes))
	if run != nil || !apperrors.HasCode(err, apperrors.ErrCodeExecutionInProgress) {
		t.Errorf("second Execute = %v, %v; want nil, EXECUTION_IN_PROGRESS", run, err)
	}
	if len(o.Logs()) != before || o.Status() != StatusRunning {
		t.Error("overlapping call touched the log or status")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	started := 0
	for _, e := range o.Logs() {
		if e.Message == MsgStarted {
			started++
		}
	}
	if started != 1 {
		t.Errorf("%q logged %d times, want 1", MsgStarted, started)
	}
}

func TestExecute_ConcurrentCallsAdmitOne(t *testing.T) {
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(&scriptedRunner{}))
	nodes, edges := chain()

	const callers = 8
	var wg sync.WaitGroup
	results := make(chan error, callers)
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := o.Execute(context.Background(), nodes, edges, nil)
			results <- err
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		switch {
		case err == nil:
			ok++
		case apperrors.HasCode(err, apperrors.ErrCodeExecutionInProgress):
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if ok < 1 {
		t.Error("no call ran")
	}
	started := 0
	for _, e := range o.Logs() {
		if e.Message == MsgStarted {
			started++
		}
	}
	if started != ok {
		t.Errorf("started logged %d times for %d admitted runs", started, ok)
	}
}

func TestExecute_SkipsNodesWithMissingData(t *testing.T) {
	nodes := []dag.Node{
		{ID: "A", Label: "Load", Type: catalog.DataSource},
		{ID: "B", Label: "", Type: catalog.Model},
		{ID: "C", Label: "Save", Type: ""},
	}
	edges := []dag.Edge{{Source: "A", Target: "B"}, {Source: "B", Target: "C"}}
	runner := &scriptedRunner{}
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner))

	run, err := o.Execute(context.Background(), nodes, edges, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	msgs := chronological(o.Logs())
	want := []string{
		"Warning: Node B has missing data (label: , type: Model), skipping",
		"Warning: Node C has missing data (label: Save, type: ), skipping",
	}
	for _, w := range want {
		found := false
		for _, m := range msgs {
			if m == w {
				found = true
			}
		}
		if !found {
			t.Errorf("missing log %q in %v", w, msgs)
		}
	}
	if !equalStrings(runner.ran, []string{"A"}) || !equalStrings(run.Skipped, []string{"B", "C"}) {
		t.Errorf("ran = %v, skipped = %v", runner.ran, run.Skipped)
	}
	if o.Status() != StatusCompleted {
		t.Errorf("status = %s, want completed", o.Status())
	}
}

func TestExecute_PanicIsContained(t *testing.T) {
	runner := &scriptedRunner{panic: "B"}
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner))
	nodes, edges := chain()

	_, err := o.Execute(context.Background(), nodes, edges, nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeInternal) {
		t.Fatalf("error = %v, want INTERNAL_ERROR", err)
	}
	logs := o.Logs()
	if logs[0].Message != "Execution failed: boom" || logs[0].Severity != SeverityError {
		t.Errorf("newest entry = %+v", logs[0])
	}
	if o.Status() != StatusError || o.IsExecuting() {
		t.Errorf("status = %s, executing = %v", o.Status(), o.IsExecuting())
	}
	if _, err := o.Execute(context.Background(), nodes, edges, nil); err == nil {
		t.Error("second run should hit the panic again")
	}
}

func TestExecute_CanceledContextFailsStage(t *testing.T) {
	o := NewOrchestrator(WithClock(newFakeClock()))
	nodes, edges := chain()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := o.Execute(ctx, nodes, edges, nil)
	if !apperrors.HasCode(err, apperrors.ErrCodeStageFailed) || !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want STAGE_FAILED wrapping context.Canceled", err)
	}
	if run.FailedNode != "A" || o.Status() != StatusError {
		t.Errorf("failed node = %q, status = %s", run.FailedNode, o.Status())
	}
}

func TestExecute_SingleNode(t *testing.T) {
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(&scriptedRunner{}))
	nodes := []dag.Node{{ID: "x", Label: "Solo", Type: "Custom"}}

	if _, err := o.Execute(context.Background(), nodes, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	msgs := chronological(o.Logs())
	if msgs[2] != "Solo: Processing" || msgs[3] != "Solo: Processing completed" {
		t.Errorf("log = %v", msgs)
	}
}

func TestExecute_SettleDelay(t *testing.T) {
	clock := newFakeClock()
	o := NewOrchestrator(WithClock(clock), WithStageRunner(&scriptedRunner{}), WithSettleDelay(50*time.Millisecond))
	nodes := []dag.Node{{ID: "x", Label: "Solo", Type: "Model"}}

	if _, err := o.Execute(context.Background(), nodes, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// reset, running, completed
	if got := clock.Sleeps(); len(got) != 3 {
		t.Errorf("sleeps = %v, want 3 settle waits", got)
	}
}

func TestExecute_Timestamps(t *testing.T) {
	clock := newFakeClock()
	o := NewOrchestrator(WithClock(clock))
	nodes := []dag.Node{{ID: "x", Label: "Solo", Type: "Model"}}

	if _, err := o.Execute(context.Background(), nodes, nil, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	logs := o.Logs()
	if logs[len(logs)-1].Timestamp != "09:30:00" {
		t.Errorf("first timestamp = %q", logs[len(logs)-1].Timestamp)
	}
	if logs[0].Timestamp != "09:30:01" {
		t.Errorf("last timestamp = %q", logs[0].Timestamp)
	}
}

func TestOrchestrator_LogControls(t *testing.T) {
	o := NewOrchestrator(WithClock(newFakeClock()))
	o.AddLog("one", SeverityInfo)
	o.AddLog("two", SeveritySuccess)
	if logs := o.Logs(); len(logs) != 2 || logs[0].Message != "two" {
		t.Fatalf("logs = %+v", logs)
	}
	o.ClearLogs()
	if len(o.Logs()) != 0 {
		t.Error("ClearLogs left entries")
	}
	if o.Status() != StatusIdle {
		t.Errorf("status = %s, want idle", o.Status())
	}
}

func TestLogBook_NewestFirst(t *testing.T) {
	var b LogBook
	for _, m := range []string{"a", "b", "c"} {
		b.Add(LogEntry{Message: m})
	}
	got := b.Entries()
	if got[0].Message != "c" || got[2].Message != "a" || b.Len() != 3 {
		t.Errorf("entries = %+v", got)
	}
	got[0].Message = "mutated"
	if b.Entries()[0].Message != "c" {
		t.Error("Entries exposed internal storage")
	}
}

func TestSink_ReceivesEventsInOrder(t *testing.T) {
	var events []Event
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(&scriptedRunner{}),
		WithSink(SinkFunc(func(e Event) { events = append(events, e) })))
	nodes := []dag.Node{{ID: "x", Label: "Solo", Type: "Model"}}

	run, err := o.Execute(context.Background(), nodes, nil, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	kinds := make([]string, len(events))
	for i, e := range events {
		if e.RunID != run.ID {
			t.Errorf("event %d has run id %q, want %q", i, e.RunID, run.ID)
		}
		kinds[i] = string(e.Kind)
		if e.Kind == EventNode {
			kinds[i] += ":" + string(e.NodeStatus)
		}
	}
	want := []string{"status", "log", "log", "node:running", "log", "node:completed", "log", "status", "log"}
	if !equalStrings(kinds, want) {
		t.Errorf("events = %v, want %v", kinds, want)
	}
	if events[len(events)-2].Status != StatusCompleted {
		t.Errorf("final status event = %+v", events[len(events)-2])
	}
}

type recordingBroadcaster struct {
	patterns, events []string
	payloads         [][]byte
}

func (b *recordingBroadcaster) Publish(pattern, event string, data []byte) {
	b.patterns = append(b.patterns, pattern)
	b.events = append(b.events, event)
	b.payloads = append(b.payloads, data)
}

func TestBroadcastSink(t *testing.T) {
	b := &recordingBroadcaster{}
	sink := NewBroadcastSink(b, "")
	entry := LogEntry{Timestamp: "10:00:00", Message: "hi", Severity: SeverityInfo}
	sink.Emit(Event{RunID: "r1", Kind: EventLog, Entry: &entry})
	sink.Emit(Event{RunID: "r1", Kind: EventNode, NodeID: "n1", NodeStatus: dag.StatusRunning})

	if !equalStrings(b.patterns, []string{"pipeline:*", "pipeline:*"}) {
		t.Errorf("patterns = %v", b.patterns)
	}
	if !equalStrings(b.events, []string{"log", "node"}) {
		t.Errorf("events = %v", b.events)
	}
	var got Event
	if err := json.Unmarshal(b.payloads[0], &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Entry == nil || got.Entry.Message != "hi" || got.Entry.Severity != SeverityInfo {
		t.Errorf("decoded = %+v", got)
	}
}

func TestWithTracing_RecordsRunAndStageSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	runner := WithTracing(&scriptedRunner{fail: map[string]error{"B": errors.New("bad rows")}})
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner))
	nodes, edges := chain()
	_, _ = o.Execute(context.Background(), nodes, edges, nil)

	var stages, runs int
	for _, s := range recorder.Ended() {
		switch s.Name() {
		case observability.SpanStage:
			stages++
			for _, kv := range s.Attributes() {
				if string(kv.Key) == observability.AttrNodeID && kv.Value.AsString() == "B" && s.Status().Code != codes.Error {
					t.Error("failed stage span not marked as error")
				}
			}
		case observability.SpanPipelineRun:
			runs++
			if s.Status().Code != codes.Error {
				t.Error("failed run span not marked as error")
			}
		}
	}
	if stages != 2 || runs != 1 {
		t.Errorf("spans: %d stage, %d run; want 2, 1", stages, runs)
	}
}

func TestWithMetrics_CountsStages(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observability.NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	runner := Instrument(&scriptedRunner{}, metrics, logger.NewNop())
	o := NewOrchestrator(WithClock(newFakeClock()), WithStageRunner(runner), WithRunMetrics(metrics))
	nodes, edges := chain()
	if _, err := o.Execute(context.Background(), nodes, edges, nil); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	if totals["pipeline.stage.total"] != 3 {
		t.Errorf("pipeline.stage.total = %d, want 3", totals["pipeline.stage.total"])
	}
	if totals["pipeline.run.total"] != 1 {
		t.Errorf("pipeline.run.total = %d, want 1", totals["pipeline.run.total"])
	}
	if totals["pipeline.run.active"] != 0 {
		t.Errorf("pipeline.run.active = %d, want 0", totals["pipeline.run.active"])
	}
}
