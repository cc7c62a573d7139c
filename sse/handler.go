package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Eman-Sallam/ai-pipeline-editor/logger"
)

// DefaultTopic is used when a subscriber does not name one.
const DefaultTopic = "pipeline"

// KeepAliveInterval is how often an idle stream receives a comment line.
var KeepAliveInterval = 30 * time.Second

// Handler returns a gin handler that subscribes the caller to the topic in
// the "topic" query parameter and streams events until it disconnects.
func Handler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := strings.TrimSpace(c.Query("topic"))
		if topic == "" {
			topic = DefaultTopic
		}
		ServeSSE(hub, c.Writer, c.Request, NewClient(topic, uuid.NewString()))
	}
}

// ServeSSE streams events for client over w until the request ends or the
// hub closes the client.
func ServeSSE(hub *Hub, w http.ResponseWriter, r *http.Request, client *Client) {
	log := logger.WithComponent("sse")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE connections outlive the server WriteTimeout
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug("could not clear write deadline", logger.Fields("client_id", client.ID(), "error", err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("X-Accel-Buffering", "no")

	if !hub.Register(client) {
		http.Error(w, "event hub stopped", http.StatusServiceUnavailable)
		return
	}
	defer hub.Unregister(client)

	connected, _ := json.Marshal(ConnectedEvent{ClientID: client.ID(), Topic: client.Topic()})
	writeFrame(w, Frame{Event: EventTypeConnected, Data: connected})
	flusher.Flush()

	log.Debug("client connected", logger.Fields("client_id", client.ID(), "remote_addr", r.RemoteAddr))

	keepAlive := time.NewTicker(KeepAliveInterval)
	defer keepAlive.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-client.Frames():
			if !ok {
				return
			}
			writeFrame(w, f)
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = fmt.Fprintf(w, ": keepalive %d\n\n", time.Now().Unix())
			flusher.Flush()
		}
	}
}

func writeFrame(w http.ResponseWriter, f Frame) {
	event := f.Event
	if event == "" {
		event = EventTypeMessage
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, f.Data)
}
