package execution

import (
	"encoding/json"

	"github.com/Eman-Sallam/ai-pipeline-editor/dag"
	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
	"github.com/Eman-Sallam/ai-pipeline-editor/sse"
)

// EventKind names what an Event reports.
type EventKind string

const (
	EventLog    EventKind = "log"
	EventStatus EventKind = "status"
	EventNode   EventKind = "node"
)

// Event is a single observable step of a run.
type Event struct {
	RunID      string         `json:"run_id"`
	Kind       EventKind      `json:"kind"`
	Entry      *LogEntry      `json:"entry,omitempty"`
	Status     Status         `json:"status,omitempty"`
	NodeID     string         `json:"node_id,omitempty"`
	NodeStatus dag.NodeStatus `json:"node_status,omitempty"`
}

// Sink receives run events in the order they happen.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink emits to every sink in order.
type MultiSink []Sink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// BroadcastSink publishes events as JSON to every subscriber of a topic.
type BroadcastSink struct {
	b     sse.Broadcaster
	topic string
}

// NewBroadcastSink publishes to clients subscribed to topic. An empty topic
// uses sse.DefaultTopic.
func NewBroadcastSink(b sse.Broadcaster, topic string) *BroadcastSink {
	if topic == "" {
		topic = sse.DefaultTopic
	}
	return &BroadcastSink{b: b, topic: topic}
}

// Pattern returns the client id pattern events are published to.
func (s *BroadcastSink) Pattern() string { return s.topic + ":*" }

func (s *BroadcastSink) Emit(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		logger.Error("encoding run event", logger.ErrorFields("broadcast", err))
		return
	}
	s.b.Publish(s.Pattern(), eventName(e.Kind), data)
}

func eventName(k EventKind) string {
	switch k {
	case EventLog:
		return sse.EventTypeLog
	case EventStatus:
		return sse.EventTypeStatus
	case EventNode:
		return sse.EventTypeNode
	default:
		return sse.EventTypeMessage
	}
}
