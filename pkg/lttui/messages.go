package lttui

import (
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// LogChangedMsg reports new lines on a node's channel
type LogChangedMsg struct {
	Node ltlog.Node
}

// DeliveredMsg carries the result of handing a message to the sink
type DeliveredMsg struct {
	Delivery *ltsession.Delivery
	Err      error
}

// ShutdownMsg signals the TUI to shut down
type ShutdownMsg struct{}
