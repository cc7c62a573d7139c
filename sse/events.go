package sse

// Event names written on the "event:" line.
const (
	// EventTypeConnected is sent once when a client connects.
	EventTypeConnected = "connected"
	// EventTypeLog carries a new execution log entry.
	EventTypeLog = "log"
	// EventTypeStatus carries a run status change.
	EventTypeStatus = "status"
	// EventTypeNode carries a node status change.
	EventTypeNode = "node"
	// EventTypeMessage is the default event name.
	EventTypeMessage = "message"
)

// Frame is one event queued for a client.
type Frame struct {
	Event string
	Data  []byte
}

// ConnectedEvent is the payload of the connected event.
type ConnectedEvent struct {
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
}
