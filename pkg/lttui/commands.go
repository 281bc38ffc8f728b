package lttui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltsession"
)

// ListenChanges creates a command that waits for the next change on one
// node's channel. It must be re-issued after every LogChangedMsg.
func ListenChanges(node ltlog.Node, changed <-chan struct{}, stopCh <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case _, ok := <-changed:
			if !ok {
				return nil
			}
			return LogChangedMsg{Node: node}
		case <-stopCh:
			return nil
		}
	}
}

// ListenShutdown creates a command that listens for shutdown signal
func ListenShutdown(stopCh <-chan struct{}) tea.Cmd {
	if stopCh == nil {
		return nil
	}
	return func() tea.Msg {
		<-stopCh
		return ShutdownMsg{}
	}
}

// Deliver creates a command that sends d off the UI loop
func Deliver(ctx context.Context, session *ltsession.Session, d *ltsession.Delivery) tea.Cmd {
	return func() tea.Msg {
		return DeliveredMsg{Delivery: d, Err: session.Deliver(ctx, d)}
	}
}
