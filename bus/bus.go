// Package bus fans every action that passes through the engine out to its
// subscribers.
package bus

import (
	"sync"

	formflow "github.com/goliatone/go-formflow"
)

// Listener observes one action. Listeners run synchronously on the
// dispatching goroutine and must not dispatch back into the engine.
type Listener func(formflow.Action)

type Subscription interface {
	Unsubscribe()
}

type entry struct {
	id    uint64
	fn    Listener
	kinds map[formflow.Kind]struct{}
}

func (e *entry) accepts(kind formflow.Kind) bool {
	if len(e.kinds) == 0 {
		return true
	}
	_, ok := e.kinds[kind]
	return ok
}

// Bus is a registry of listeners. The zero value is not usable; call New.
type Bus struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []*entry
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn for the given kinds, or for every action when
// kinds is empty.
func (b *Bus) Subscribe(fn Listener, kinds ...formflow.Kind) Subscription {
	if fn == nil {
		return &subs{}
	}
	e := &entry{fn: fn}
	if len(kinds) > 0 {
		e.kinds = make(map[formflow.Kind]struct{}, len(kinds))
		for _, k := range kinds {
			e.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	e.id = b.nextID
	b.entries = append(b.entries, e)
	b.mu.Unlock()

	return &subs{bus: b, id: e.id}
}

// Publish delivers action to every matching listener in subscription order.
func (b *Bus) Publish(action formflow.Action) {
	if action == nil {
		return
	}
	b.mu.RLock()
	entries := make([]*entry, len(b.entries))
	copy(entries, b.entries)
	b.mu.RUnlock()

	kind := action.Kind()
	for _, e := range entries {
		if e.accepts(kind) {
			e.fn(action)
		}
	}
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := make([]*entry, 0, len(b.entries))
	for _, e := range b.entries {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	b.entries = kept
}
