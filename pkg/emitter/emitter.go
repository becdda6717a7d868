// Package emitter implements the runtime's synchronous named event bus.
// One bus instance is shared by every component mounted on a runtime; it
// carries both application events and the runtime's own lifecycle
// signals (component:mount, component:update, component:unmount).
package emitter

import "sync"

// Handler receives the arguments passed to Emit.
type Handler func(args ...any)

type registration struct {
	id uint64
	fn Handler
}

// Emitter is a synchronous pub/sub bus. Handlers for one Emit call run
// on the caller's goroutine, in registration order, with no error
// isolation: a panicking handler aborts the remaining handlers and
// propagates to the caller of Emit.
type Emitter struct {
	mu     sync.Mutex
	events map[string][]registration
	nextID uint64
}

// New creates an empty bus.
func New() *Emitter {
	return &Emitter{events: make(map[string][]registration)}
}

// On registers fn for the named event and returns an idempotent stop
// function that removes this registration.
func (e *Emitter) On(name string, fn Handler) (stop func()) {
	if fn == nil {
		return func() {}
	}
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.events[name] = append(e.events[name], registration{id: id, fn: fn})
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(name, id) })
	}
}

// Off removes every handler registered for the named event. Removing a
// single handler is done through the stop function returned by On.
func (e *Emitter) Off(name string) {
	e.mu.Lock()
	delete(e.events, name)
	e.mu.Unlock()
}

// Emit invokes every handler currently registered for name, in
// registration order, passing args. Emitting an unregistered name is a
// no-op.
func (e *Emitter) Emit(name string, args ...any) {
	e.mu.Lock()
	regs := e.events[name]
	snapshot := make([]registration, len(regs))
	copy(snapshot, regs)
	e.mu.Unlock()

	for _, r := range snapshot {
		r.fn(args...)
	}
}

// Listeners reports the number of handlers registered for name.
func (e *Emitter) Listeners(name string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events[name])
}

// Names returns the event names that currently have handlers. Entries are
// deleted as soon as their last handler is removed, so this is also a
// leak check.
func (e *Emitter) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.events))
	for name := range e.events {
		names = append(names, name)
	}
	return names
}

func (e *Emitter) remove(name string, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	regs := e.events[name]
	for i, r := range regs {
		if r.id == id {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(e.events, name)
	} else {
		e.events[name] = regs
	}
}
