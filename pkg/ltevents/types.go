// Package ltevents carries console activity (reader lifecycle, message
// delivery, parse failures) to observers such as metrics and the API.
package ltevents

import (
	"time"
)

// EventType represents the type of console event
type EventType int

const (
	// Reader lifecycle events
	ReaderStarted EventType = iota
	ReaderStopped
	ReaderRestarting

	// Log events
	LineReceived

	// Message delivery events
	MessageQueued
	MessageSent
	SendFailed
	ResponseReceived

	// Operator input events
	ParseFailed

	// Session lifecycle events
	SessionEnded
)

var typeNames = map[EventType]string{
	ReaderStarted:    "ReaderStarted",
	ReaderStopped:    "ReaderStopped",
	ReaderRestarting: "ReaderRestarting",
	LineReceived:     "LineReceived",
	MessageQueued:    "MessageQueued",
	MessageSent:      "MessageSent",
	SendFailed:       "SendFailed",
	ResponseReceived: "ResponseReceived",
	ParseFailed:      "ParseFailed",
	SessionEnded:     "SessionEnded",
}

// String returns a string representation of the event type
func (e EventType) String() string {
	if name, ok := typeNames[e]; ok {
		return name
	}
	return "Unknown"
}

// MarshalText lets event types appear by name in JSON
func (e EventType) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// Event represents a console event with all relevant data
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Node is the node name for reader and line events
	Node string `json:"node,omitempty"`

	// Message delivery
	HistoryID string `json:"historyId,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message,omitempty"`

	// Text carries a log line, response text or parse error description
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewReaderEvent creates a reader lifecycle event for node
func NewReaderEvent(eventType EventType, node string, err error) Event {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Node:      node,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// NewMessageEvent creates a delivery event for a history entry
func NewMessageEvent(eventType EventType, historyID, kind, message string, err error) Event {
	e := Event{
		Type:      eventType,
		Timestamp: time.Now(),
		HistoryID: historyID,
		Kind:      kind,
		Message:   message,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// NewLineEvent creates an event for a line appended to node's channel
func NewLineEvent(node, text string) Event {
	return Event{
		Type:      LineReceived,
		Timestamp: time.Now(),
		Node:      node,
		Text:      text,
	}
}

// NewParseFailedEvent records rejected operator input
func NewParseFailedEvent(input string, err error) Event {
	return Event{
		Type:      ParseFailed,
		Timestamp: time.Now(),
		Text:      input,
		Error:     err.Error(),
	}
}
