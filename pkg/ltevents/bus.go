package ltevents

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Handler is a function that handles events
type Handler func(Event)

// UnsubscribeFunc is returned by Subscribe and can be called to remove the handler
type UnsubscribeFunc func()

type handlerEntry struct {
	id      uint64
	handler Handler
}

// Bus is a thread-safe event bus. Publishing never blocks; handlers run on
// the bus goroutine.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]handlerEntry
	allHandle []handlerEntry
	nextID    uint64
	eventChan chan Event
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

// NewBus creates a new event bus with the specified buffer size
func NewBus(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	return &Bus{
		handlers:  make(map[EventType][]handlerEntry),
		eventChan: make(chan Event, bufferSize),
		stopChan:  make(chan struct{}),
	}
}

// Subscribe adds a handler for a specific event type and returns an unsubscribe function
func (b *Bus) Subscribe(eventType EventType, handler Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.handlers[eventType] = removeEntry(b.handlers[eventType], id)
	}
}

// SubscribeAll adds a handler for all event types and returns an unsubscribe function
func (b *Bus) SubscribeAll(handler Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.allHandle = append(b.allHandle, handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.allHandle = removeEntry(b.allHandle, id)
	}
}

func removeEntry(entries []handlerEntry, id uint64) []handlerEntry {
	for i, entry := range entries {
		if entry.id == id {
			entries[i] = entries[len(entries)-1]
			return entries[:len(entries)-1]
		}
	}
	return entries
}

// Publish queues an event for delivery. If the buffer is full the event is
// dropped.
func (b *Bus) Publish(event Event) {
	select {
	case b.eventChan <- event:
	default:
		// Buffer full, drop event to prevent blocking
	}
}

// Start begins processing events in a background goroutine
func (b *Bus) Start() {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case event := <-b.eventChan:
				b.dispatch(event)
			case <-b.stopChan:
				for {
					select {
					case event := <-b.eventChan:
						b.dispatch(event)
					default:
						return
					}
				}
			}
		}
	}()
}

func (b *Bus) dispatch(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, entry := range b.handlers[event.Type] {
		b.safeCall(entry.handler, event)
	}
	for _, entry := range b.allHandle {
		b.safeCall(entry.handler, event)
	}
}

// safeCall invokes a handler with panic recovery so one bad handler cannot
// stop the bus.
func (b *Bus) safeCall(handler Handler, event Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Event handler panic for %s: %v", event.Type, r)
		}
	}()
	handler(event)
}

// Stop stops the bus after delivering queued events. Safe to call more than
// once.
func (b *Bus) Stop() {
	b.stopOnce.Do(func() { close(b.stopChan) })
	b.wg.Wait()
}
