package sse

// Broadcaster publishes events to every client whose ID matches pattern.
// Patterns use filepath.Match syntax, e.g. "pipeline:*".
type Broadcaster interface {
	Publish(pattern, event string, data []byte)
}
