// Package bus carries state-change notifications from background task
// runners to whoever is driving the screen. Publishing never blocks; a
// subscriber that falls behind loses events, which is acceptable because
// every event only means "re-read the shared state".
package bus

import "sync"

// Level classifies a user-facing notification
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Kind discriminates bus events
type Kind int

const (
	// KindRedraw signals that some task's status or log changed
	KindRedraw Kind = iota
	// KindNotify carries a user-visible message for the footer lane
	KindNotify
)

// Event is one notification on the bus
type Event struct {
	Kind  Kind
	Level Level
	Text  string
}

// Bus fans events out to all subscribers
type Bus struct {
	mu   sync.RWMutex
	subs []chan Event
}

// New creates an empty bus
func New() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber channel. The channel is buffered;
// events published while it is full are dropped for that subscriber.
// Callers with a shorter lifetime than the bus must Unsubscribe when done.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel returned by Subscribe and closes it.
// Unknown channels are ignored.
func (b *Bus) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if (<-chan Event)(sub) == ch {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Subscribers reports how many channels are currently registered
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Publish delivers an event to every subscriber without blocking
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Redraw publishes a plain state-changed signal
func (b *Bus) Redraw() {
	b.Publish(Event{Kind: KindRedraw})
}

// Notify publishes a user-visible message
func (b *Bus) Notify(level Level, text string) {
	b.Publish(Event{Kind: KindNotify, Level: level, Text: text})
}
