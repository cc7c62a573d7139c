// Package session holds the state of one pipeline being edited: its nodes,
// its edges and the orchestrator that runs it. Edits are refused while a run
// is in flight.
package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	apperrors "github.com/Eman-Sallam/ai-pipeline-editor/errors"
	"github.com/Eman-Sallam/ai-pipeline-editor/execution"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
)

// Session is one editable pipeline. It is safe for concurrent use.
type Session struct {
	ID string

	orch *execution.Orchestrator
	log  *logger.Logger

	mu    sync.RWMutex
	nodes []dag.Node
	edges []dag.Edge
}

// New creates an empty session that runs pipelines on orch. A nil orch gets
// a default orchestrator.
func New(orch *execution.Orchestrator) *Session {
	if orch == nil {
		orch = execution.NewOrchestrator()
	}
	id := uuid.NewString()
	return &Session{
		ID:   id,
		orch: orch,
		log:  logger.WithComponent("session").WithFields(logger.Fields(logger.FieldSessionID, id)),
	}
}

// Load replaces the whole pipeline. Edges are taken as given.
func (s *Session) Load(nodes []dag.Node, edges []dag.Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("load"); err != nil {
		return err
	}
	s.nodes = dag.ResetStatus(nodes)
	s.edges = append([]dag.Edge(nil), edges...)
	return nil
}

// AddNode appends an idle node and returns it.
func (s *Session) AddNode(label, stageType string) (dag.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("add node"); err != nil {
		return dag.Node{}, err
	}
	n := dag.Node{ID: uuid.NewString(), Label: label, Type: stageType, Status: dag.StatusIdle}
	s.nodes = append(s.nodes, n)
	s.log.Debug("node added", logger.Fields(logger.FieldNodeID, n.ID, logger.FieldStageType, stageType))
	return n, nil
}

// RemoveNode deletes a node and every edge touching it.
func (s *Session) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("remove node"); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("node", id)
	}
	s.nodes = append(s.nodes[:i:i], s.nodes[i+1:]...)

	kept := s.edges[:0:0]
	for _, e := range s.edges {
		if e.Source != id && e.Target != id {
			kept = append(kept, e)
		}
	}
	s.edges = kept
	return nil
}

// UpdateNode changes a node's label and stage type.
func (s *Session) UpdateNode(id, label, stageType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("update node"); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return apperrors.NotFound("node", id)
	}
	nodes := append([]dag.Node(nil), s.nodes...)
	nodes[i].Label = label
	nodes[i].Type = stageType
	s.nodes = nodes
	return nil
}

// Connect adds an edge for c if the connection rules admit it. A rejected
// connection returns an INVALID_CONNECTION error whose message is the reason.
func (s *Session) Connect(c dag.Connection) (dag.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("connect"); err != nil {
		return dag.Edge{}, err
	}
	if err := dag.ValidateConnection(c, s.edges).ConnectionErr(); err != nil {
		s.log.Debug("connection rejected", logger.Fields("source", c.Source, "target", c.Target, logger.FieldError, err.Error()))
		return dag.Edge{}, err
	}
	for _, id := range []string{c.Source, c.Target} {
		if s.indexOf(id) < 0 {
			return dag.Edge{}, apperrors.NotFound("node", id)
		}
	}
	e := dag.Edge{ID: uuid.NewString(), Source: c.Source, Target: c.Target}
	s.edges = append(s.edges, e)
	return e, nil
}

// Disconnect removes an edge.
func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable("disconnect"); err != nil {
		return err
	}
	for i, e := range s.edges {
		if e.ID == edgeID {
			s.edges = append(s.edges[:i:i], s.edges[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("edge", edgeID)
}

// Nodes returns a copy of the nodes.
func (s *Session) Nodes() []dag.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dag.Node(nil), s.nodes...)
}

// Edges returns a copy of the edges.
func (s *Session) Edges() []dag.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]dag.Edge(nil), s.edges...)
}

// Apply replaces the nodes with update's result. It lets the orchestrator
// report node status changes and is not subject to the edit lock.
func (s *Session) Apply(update func([]dag.Node) []dag.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = update(append([]dag.Node(nil), s.nodes...))
}

// Execute runs the pipeline as it is now. The snapshot is taken before the
// run claims the orchestrator, so an edit that lands in between is kept in
// the session but not run; edits are refused only once IsExecuting is true.
func (s *Session) Execute(ctx context.Context) (*execution.Run, error) {
	nodes, edges := s.Nodes(), s.Edges()
	return s.orch.Execute(ctx, nodes, edges, s)
}

// Status returns the status of the latest run.
func (s *Session) Status() execution.Status { return s.orch.Status() }

// Logs returns the execution log, newest first.
func (s *Session) Logs() []execution.LogEntry { return s.orch.Logs() }

// ClearLogs empties the execution log.
func (s *Session) ClearLogs() { s.orch.ClearLogs() }

// IsExecuting reports whether a run is in flight.
func (s *Session) IsExecuting() bool { return s.orch.IsExecuting() }

func (s *Session) editable(op string) error {
	if s.orch.IsExecuting() {
		return apperrors.PipelineLocked(op)
	}
	return nil
}

func (s *Session) indexOf(id string) int {
	for i, n := range s.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
