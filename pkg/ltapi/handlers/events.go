package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/txn2/linkterm/pkg/ltapi/types"
	"github.com/txn2/linkterm/pkg/ltevents"
)

// EventsHandler handles event streaming endpoints
type EventsHandler struct {
	streamer  types.EventStreamer
	keepalive time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(streamer types.EventStreamer) *EventsHandler {
	return &EventsHandler{
		streamer:  streamer,
		keepalive: 30 * time.Second,
	}
}

// Stream provides Server-Sent Events for real-time console events. The
// optional type query restricts the stream to one event type.
func (h *EventsHandler) Stream(c *gin.Context) {
	if h.streamer == nil {
		fail(c, http.StatusServiceUnavailable, "NOT_READY", "Event streamer not available")
		return
	}

	var (
		eventCh <-chan ltevents.Event
		cancel  func()
	)
	if filter := c.Query("type"); filter != "" {
		eventType, ok := parseEventType(filter)
		if !ok {
			fail(c, http.StatusBadRequest, "UNKNOWN_EVENT_TYPE", "unknown event type "+filter)
			return
		}
		eventCh, cancel = h.streamer.SubscribeType(eventType)
	} else {
		eventCh, cancel = h.streamer.Subscribe()
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	_, _ = c.Writer.WriteString(": connected\n\n")
	c.Writer.Flush()

	keepalive := time.NewTicker(h.keepalive)
	defer keepalive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return false
			}
			data, err := json.Marshal(event)
			if err != nil {
				return true
			}
			_, _ = fmt.Fprintf(w, "event: %s\n", event.Type)
			_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
			return true

		case <-keepalive.C:
			_, _ = fmt.Fprintf(w, ": keepalive\n\n")
			return true

		case <-c.Request.Context().Done():
			return false
		}
	})
}

func parseEventType(name string) (ltevents.EventType, bool) {
	for t := ltevents.ReaderStarted; t <= ltevents.SessionEnded; t++ {
		if t.String() == name {
			return t, true
		}
	}
	return 0, false
}
