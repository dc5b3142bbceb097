package manager

import "sync"

// MemoryObserver records every event it is notified of. It is used by tests
// and by callers that poll for changes instead of reacting to them.
type MemoryObserver struct {
	mu     sync.Mutex
	events []Event
	kinds  map[EventKind]int
}

func NewMemoryObserver() *MemoryObserver {
	return &MemoryObserver{kinds: make(map[EventKind]int)}
}

func (o *MemoryObserver) Notify(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
	o.kinds[e.Kind]++
}

// Events returns a copy of the recorded events in arrival order.
func (o *MemoryObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

// Count returns how many events of kind were received.
func (o *MemoryObserver) Count(kind EventKind) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.kinds[kind]
}

// Last returns the most recent event of kind.
func (o *MemoryObserver) Last(kind EventKind) (Event, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.events) - 1; i >= 0; i-- {
		if o.events[i].Kind == kind {
			return o.events[i], true
		}
	}
	return Event{}, false
}
