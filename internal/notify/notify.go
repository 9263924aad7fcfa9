// Package notify fans out "store changed" events to subscribers.
// It is transport-agnostic: gRPC Watch streams and HTTP event streams
// subscribe, and anything that mutates the store publishes.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reason says what kind of change happened. Consumers should only rely on
// the fact that something changed.
type Reason string

const (
	ReasonCaptured Reason = "captured"
	ReasonUpdated  Reason = "updated"
	ReasonDeleted  Reason = "deleted"
	ReasonCleanup  Reason = "cleanup"
)

// Event is one store change.
type Event struct {
	Reason Reason    `json:"reason"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
}

const subscriberBuffer = 16

// Broker routes events to every current subscriber.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]chan Event
}

// New returns an empty Broker.
func New() *Broker {
	return &Broker{subs: make(map[string]chan Event)}
}

// Subscribe registers a new subscriber and returns its id, its event channel
// and a cancel func that unregisters it and closes the channel.
func (b *Broker) Subscribe() (id string, events <-chan Event, cancel func()) {
	id = uuid.NewString()
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[id] = ch
	total := len(b.subs)
	b.mu.Unlock()

	slog.Debug("subscriber registered", "subscriber", id, "total", total)

	var once sync.Once
	return id, ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			total := len(b.subs)
			b.mu.Unlock()
			close(ch)
			slog.Debug("subscriber unregistered", "subscriber", id, "total", total)
		})
	}
}

// Publish delivers ev to every subscriber without blocking. Subscribers whose
// buffer is full miss the event.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("subscriber channel full, dropping", "subscriber", id)
		}
	}
}

// Changed is shorthand for publishing an event with reason and item id.
func (b *Broker) Changed(reason Reason, id string) {
	b.Publish(Event{Reason: reason, ID: id})
}

// Subscribers returns the number of registered subscribers.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
