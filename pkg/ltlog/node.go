// Package ltlog holds the per-node log channels: bounded ring buffers of
// received lines with change notification for the console loop.
package ltlog

import (
	"fmt"
	"strings"
)

// Node identifies one member of the control link
type Node int

const (
	Remote Node = iota
	Relay
	Drone
)

// Nodes lists every node in tab order
var Nodes = []Node{Remote, Relay, Drone}

func (n Node) String() string {
	switch n {
	case Remote:
		return "remote"
	case Relay:
		return "relay"
	case Drone:
		return "drone"
	default:
		return fmt.Sprintf("node(%d)", int(n))
	}
}

// Title is the display name used for tabs
func (n Node) Title() string {
	switch n {
	case Remote:
		return "Remote"
	case Relay:
		return "Relay"
	case Drone:
		return "Drone"
	default:
		return n.String()
	}
}

// Next returns the following node, wrapping after Drone
func (n Node) Next() Node {
	return Node((int(n) + 1) % len(Nodes))
}

// Valid reports whether n is one of Remote, Relay or Drone
func (n Node) Valid() bool {
	return n >= Remote && n <= Drone
}

// ParseNode accepts a node name (any case) or its tab number 1-3
func ParseNode(s string) (Node, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remote", "1":
		return Remote, nil
	case "relay", "2":
		return Relay, nil
	case "drone", "3":
		return Drone, nil
	}
	return 0, fmt.Errorf("unknown node %q", s)
}
