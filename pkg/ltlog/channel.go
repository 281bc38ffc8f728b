package ltlog

import (
	"sync"
	"time"
)

const (
	// DefaultCapacity is the number of lines a channel keeps per node
	DefaultCapacity = 1000

	// maxCapacity bounds the ring allocation
	maxCapacity = 100000
)

// boundedSize returns size bounded to [1, limit]; non-positive sizes get the
// default.
func boundedSize(size, limit int) int {
	if size <= 0 {
		return DefaultCapacity
	}
	if size > limit {
		return limit
	}
	return size
}

// Channel is a bounded FIFO of log lines for one node. When full, appending
// evicts the oldest line. Safe for concurrent writers and readers.
type Channel struct {
	node    Node
	lines   []Line
	size    int
	head    int
	count   int
	nextSeq uint64
	mu      sync.RWMutex
	changed chan struct{}
	now     func() time.Time
}

// NewChannel creates a channel holding at most capacity lines
func NewChannel(node Node, capacity int) *Channel {
	size := boundedSize(capacity, maxCapacity)
	return &Channel{
		node:    node,
		lines:   make([]Line, size),
		size:    size,
		changed: make(chan struct{}, 1),
		now:     time.Now,
	}
}

// Node returns the node this channel records
func (c *Channel) Node() Node { return c.node }

// Append records raw decoder output as a new line
func (c *Channel) Append(raw string) Line {
	return c.AppendLine(ParseLine(raw))
}

// AppendLine records line, assigning its sequence number and, if unset, its
// receive time. It never fails and never blocks.
func (c *Channel) AppendLine(line Line) Line {
	c.mu.Lock()
	c.nextSeq++
	line.Seq = c.nextSeq
	if line.Time.IsZero() {
		line.Time = c.now()
	}
	c.lines[c.head] = line
	c.head = (c.head + 1) % c.size
	if c.count < c.size {
		c.count++
	}
	c.mu.Unlock()

	select {
	case c.changed <- struct{}{}:
	default:
	}
	return line
}

// Snapshot returns the current lines, oldest first. The result is a copy.
func (c *Channel) Snapshot() []Line {
	return c.Last(c.Len())
}

// Last returns up to n of the most recent lines, oldest first
func (c *Channel) Last(n int) []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || c.count == 0 {
		return nil
	}
	if n > c.count {
		n = c.count
	}

	result := make([]Line, n)
	start := (c.head - n + c.size) % c.size
	for i := 0; i < n; i++ {
		result[i] = c.lines[(start+i)%c.size]
	}
	return result
}

// Len returns the number of lines held
func (c *Channel) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Cap returns the channel capacity
func (c *Channel) Cap() int { return c.size }

// Seq returns the sequence number of the newest line, 0 when empty
func (c *Channel) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.nextSeq
}

// Changed is signalled after appends. Signals coalesce: one receive may
// stand for many appends.
func (c *Channel) Changed() <-chan struct{} { return c.changed }

// Set groups the channels of all three nodes
type Set struct {
	channels [3]*Channel
}

// NewSet creates one channel per node, each with the given capacity
func NewSet(capacity int) *Set {
	s := &Set{}
	for _, n := range Nodes {
		s.channels[n] = NewChannel(n, capacity)
	}
	return s
}

// Channel returns the channel for node n, nil for an unknown node
func (s *Set) Channel(n Node) *Channel {
	if !n.Valid() {
		return nil
	}
	return s.channels[n]
}
