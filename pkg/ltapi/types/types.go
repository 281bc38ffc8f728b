// Package types holds the API response shapes and the interfaces handlers
// read console state through.
package types

import (
	"time"

	"github.com/txn2/linkterm/pkg/ltevents"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// Response is the standard API response wrapper
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo provides error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo provides response metadata
type MetaInfo struct {
	Count     int       `json:"count,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse is returned by /api/health
type HealthResponse struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// InfoResponse provides detailed runtime information
type InfoResponse struct {
	Version    string            `json:"version"`
	GoVersion  string            `json:"goVersion"`
	Platform   string            `json:"platform"`
	StartTime  time.Time         `json:"startTime"`
	Uptime     string            `json:"uptime"`
	Nodes      map[string]string `json:"nodes,omitempty"`
	Sink       string            `json:"sink,omitempty"`
	TUIEnabled bool              `json:"tuiEnabled"`
}

// LogsResponse holds the most recent lines of one node, oldest first
type LogsResponse struct {
	Node     string       `json:"node"`
	Capacity int          `json:"capacity"`
	Lines    []ltlog.Line `json:"lines"`
}

// HistoryResponse holds delivered messages, most recent first
type HistoryResponse struct {
	Entries []ltsession.Entry `json:"entries"`
}

// LogReader provides the node log channels
type LogReader interface {
	Channel(n ltlog.Node) *ltlog.Channel
}

// HistoryReader provides the delivery history
type HistoryReader interface {
	List(count int) []ltsession.Entry
}

// EventStreamer provides access to real-time events via channels
type EventStreamer interface {
	// Subscribe returns a channel that receives all events
	Subscribe() (<-chan ltevents.Event, func())

	// SubscribeType returns a channel that receives events of a specific type
	SubscribeType(eventType ltevents.EventType) (<-chan ltevents.Event, func())
}

// ManagerInfo describes the running console
type ManagerInfo interface {
	Nodes() map[string]string
	Sink() string
	TUIEnabled() bool
}
