package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ganot/taskdeck/internal/dataservice"
)

// Event is a process-wide "resource changed" notification. Topic is the
// resource table.
type Event struct {
	Seq     uint64             `json:"seq"`
	Topic   string             `json:"topic"`
	Session string             `json:"session"`
	Change  dataservice.Change `json:"change"`
	At      time.Time          `json:"at"`
}

// Bus fans events out to in-process listeners by topic.
//
// Publish never blocks: when a listener's buffer is full the event is dropped
// for that listener. Listeners treat events as "refetch" signals, so an event
// already waiting in the buffer covers the dropped one.
type Bus struct {
	mu        sync.RWMutex
	listeners map[<-chan Event]*listener
	sequence  atomic.Uint64
}

type listener struct {
	ch     chan Event
	topics map[string]bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[<-chan Event]*listener)}
}

// Subscribe returns a channel receiving events for any of topics. buffer is
// clamped to at least 1.
func (b *Bus) Subscribe(buffer int, topics ...string) <-chan Event {
	if buffer < 1 {
		buffer = 1
	}
	l := &listener{
		ch:     make(chan Event, buffer),
		topics: make(map[string]bool, len(topics)),
	}
	for _, t := range topics {
		l.topics[t] = true
	}

	b.mu.Lock()
	b.listeners[l.ch] = l
	b.mu.Unlock()
	return l.ch
}

// Unsubscribe removes the listener and closes its channel.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	if ch == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if l, ok := b.listeners[ch]; ok {
		delete(b.listeners, ch)
		close(l.ch)
	}
}

// Publish stamps ev with the next sequence number and delivers it. It returns
// the stamped event.
func (b *Bus) Publish(ev Event) Event {
	ev.Seq = b.sequence.Add(1)
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, l := range b.listeners {
		if !l.topics[ev.Topic] {
			continue
		}
		select {
		case l.ch <- ev:
		default:
		}
	}
	return ev
}

// Listeners returns the number of registered listeners.
func (b *Bus) Listeners() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
