package ltsession

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

// Status is the delivery state of a history entry
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// DefaultHistorySize is the number of sent messages kept per session
const DefaultHistorySize = 200

// maxHistorySize bounds the history allocation
const maxHistorySize = 10000

// Entry is one message handed to the drone link
type Entry struct {
	ID        string        `json:"id"`
	Queued    time.Time     `json:"queued"`
	Completed time.Time     `json:"completed,omitempty"`
	Kind      string        `json:"kind"`
	Text      string        `json:"text"`
	Status    Status        `json:"status"`
	Error     string        `json:"error,omitempty"`
	Message   ltmsg.Message `json:"-"`
}

// Duration returns how long delivery took, zero while pending
func (e Entry) Duration() time.Duration {
	if e.Completed.IsZero() {
		return 0
	}
	return e.Completed.Sub(e.Queued)
}

// History is a bounded, in-memory record of delivered messages. Safe for
// concurrent use; the API reads it while the console writes.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	index   int
	count   int
	size    int
}

// NewHistory creates a history holding at most size entries
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	if size > maxHistorySize {
		size = maxHistorySize
	}
	return &History{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Add records msg as pending and returns the new entry
func (h *History) Add(msg ltmsg.Message) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry := Entry{
		ID:      ulid.Make().String(),
		Queued:  time.Now(),
		Kind:    msg.Kind().String(),
		Text:    msg.String(),
		Status:  StatusPending,
		Message: msg,
	}

	h.entries[h.index] = entry
	h.index = (h.index + 1) % h.size
	if h.count < h.size {
		h.count++
	}
	return entry
}

// Resolve marks entry id as sent, or failed when err is non-nil. It reports
// false if the entry has already been evicted.
func (h *History) Resolve(id string, err error) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := 0; i < h.count; i++ {
		idx := (h.index - 1 - i + h.size) % h.size
		if h.entries[idx].ID != id {
			continue
		}
		e := &h.entries[idx]
		e.Completed = time.Now()
		if err != nil {
			e.Status = StatusFailed
			e.Error = err.Error()
		} else {
			e.Status = StatusSent
		}
		return *e, true
	}
	return Entry{}, false
}

// List returns up to count entries, most recent first. A count of zero or
// less returns everything.
func (h *History) List(count int) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if count <= 0 || count > h.count {
		count = h.count
	}
	if count == 0 {
		return nil
	}

	result := make([]Entry, count)
	for i := 0; i < count; i++ {
		result[i] = h.entries[(h.index-1-i+h.size)%h.size]
	}
	return result
}

// Len returns the number of entries held
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
