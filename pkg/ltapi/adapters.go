package ltapi

import (
	"sync"

	"github.com/txn2/linkterm/pkg/ltevents"
)

// subscriberBuffer is the per-subscriber channel depth. Events that do not
// fit are dropped for that subscriber only.
const subscriberBuffer = 100

// EventStreamerAdapter adapts ltevents.Bus to the EventStreamer interface
type EventStreamerAdapter struct {
	bus         *ltevents.Bus
	subscribers map[<-chan ltevents.Event]func()
	mu          sync.Mutex
}

// NewEventStreamerAdapter creates a new EventStreamerAdapter
func NewEventStreamerAdapter(bus *ltevents.Bus) *EventStreamerAdapter {
	return &EventStreamerAdapter{
		bus:         bus,
		subscribers: make(map[<-chan ltevents.Event]func()),
	}
}

// Subscribe returns a channel receiving every event and a cancel func
func (a *EventStreamerAdapter) Subscribe() (<-chan ltevents.Event, func()) {
	return a.subscribe(func(h ltevents.Handler) ltevents.UnsubscribeFunc {
		return a.bus.SubscribeAll(h)
	})
}

// SubscribeType returns a channel receiving events of one type and a cancel func
func (a *EventStreamerAdapter) SubscribeType(eventType ltevents.EventType) (<-chan ltevents.Event, func()) {
	return a.subscribe(func(h ltevents.Handler) ltevents.UnsubscribeFunc {
		return a.bus.Subscribe(eventType, h)
	})
}

// Count returns the number of open subscriptions
func (a *EventStreamerAdapter) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.subscribers)
}

func (a *EventStreamerAdapter) subscribe(attach func(ltevents.Handler) ltevents.UnsubscribeFunc) (<-chan ltevents.Event, func()) {
	if a.bus == nil {
		ch := make(chan ltevents.Event)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan ltevents.Event, subscriberBuffer)
	unsubscribe := attach(func(e ltevents.Event) {
		select {
		case ch <- e:
		default:
		}
	})

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			// detach before close; the bus never calls a removed handler
			unsubscribe()
			a.mu.Lock()
			delete(a.subscribers, ch)
			a.mu.Unlock()
			close(ch)
		})
	}

	a.mu.Lock()
	a.subscribers[ch] = cancel
	a.mu.Unlock()

	return ch, cancel
}
