package dag

// NodeStatus is the execution state of a single stage.
type NodeStatus string

const (
	StatusIdle      NodeStatus = "idle"
	StatusRunning   NodeStatus = "running"
	StatusCompleted NodeStatus = "completed"
	StatusError     NodeStatus = "error"
)

// Node is one stage of a pipeline.
type Node struct {
	ID     string     `json:"id" yaml:"id"`
	Label  string     `json:"label" yaml:"label"`
	Type   string     `json:"type" yaml:"type"`
	Status NodeStatus `json:"status" yaml:"status,omitempty"`
}

// DisplayName returns the label, or the stage type when the label is empty.
func (n Node) DisplayName() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Type
}

// Edge connects the output of Source to the input of Target.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Connection is a proposed edge. Handles name the connector the gesture
// started and ended on and may be empty.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// WithStatus returns a copy of nodes with the node whose id matches set to
// status. Unknown ids leave the copy unchanged.
func WithStatus(nodes []Node, id string, status NodeStatus) []Node {
	out := make([]Node, len(nodes))
	copy(out, nodes)
	for i := range out {
		if out[i].ID == id {
			out[i].Status = status
		}
	}
	return out
}

// ResetStatus returns a copy of nodes with every status set to idle.
func ResetStatus(nodes []Node) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		n.Status = StatusIdle
		out[i] = n
	}
	return out
}
