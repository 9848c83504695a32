// Package event provides the process-local publish/subscribe bus used to
// fan out data and settings notifications to in-process consumers.
// Cross-process propagation is the transport's job, not the bus's.
package event

import (
	"sync"
)

// Well-known event names.
const (
	DataUpdated       = "dataUpdated"
	SettingsChanged   = "settingsChanged"
	ConnectionChanged = "connectionChanged"
	CacheCleared      = "cacheCleared"
)

// Handler receives the payload passed to Emit.
type Handler func(data any)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is an in-process event bus with synchronous fan-out.
// Emit invokes every handler registered for the event name, in registration
// order, before returning. Handlers are not isolated: a panicking handler
// propagates to the emitter.
type Bus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[string][]subscription
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: make(map[string][]subscription),
	}
}

// On registers a handler for the named event and returns a disposer that
// removes exactly this registration. Disposing twice is a no-op.
func (b *Bus) On(name string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.subs[name]
		for i, s := range subs {
			if s.id == id {
				b.subs[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers data to all handlers currently registered for name.
// Handlers registered while Emit runs are not invoked for this emission;
// the handler set is snapshotted before the first call.
func (b *Bus) Emit(name string, data any) {
	b.mu.Lock()
	subs := b.subs[name]
	snapshot := make([]subscription, len(subs))
	copy(snapshot, subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		s.handler(data)
	}
}

// HandlerCount returns the number of handlers registered for name.
func (b *Bus) HandlerCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}
