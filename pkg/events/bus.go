package events

import (
	"sync"
	"time"

	"github.com/jscyril/dmx_media_trigger/api"
)

// EventBus handles event distribution using channels
type EventBus struct {
	subscribers map[api.EventType][]chan api.Event
	mu          sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[api.EventType][]chan api.Event),
	}
}

// Subscribe returns a channel for receiving events of the specified types
func (b *EventBus) Subscribe(eventTypes ...api.EventType) <-chan api.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan api.Event, 32)
	for _, eventType := range eventTypes {
		b.subscribers[eventType] = append(b.subscribers[eventType], ch)
	}
	return ch
}

// SubscribeAll returns a channel for receiving all event types
func (b *EventBus) SubscribeAll() <-chan api.Event {
	return b.Subscribe(
		api.EventChannelChange,
		api.EventResolve,
		api.EventStateChange,
		api.EventMediaStarted,
		api.EventMediaEnded,
		api.EventError,
	)
}

// Publish broadcasts an event to all subscribers of that event type.
// A nil bus is a valid no-op publisher.
func (b *EventBus) Publish(eventType api.EventType, payload interface{}) {
	if b == nil {
		return
	}
	event := api.Event{Type: eventType, Payload: payload, Time: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[eventType] {
		select {
		case ch <- event:
		default:
			// Channel full, skip to prevent blocking the frame callback
		}
	}
}

// Unsubscribe removes a subscriber channel
func (b *EventBus) Unsubscribe(ch <-chan api.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.subscribers {
		for i, sub := range subs {
			if sub == ch {
				b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close closes all subscriber channels
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Track closed channels to avoid closing the same channel twice
	closed := make(map[chan api.Event]bool)

	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !closed[ch] {
				close(ch)
				closed[ch] = true
			}
		}
	}
	b.subscribers = make(map[api.EventType][]chan api.Event)
}
