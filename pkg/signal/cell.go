// Package signal provides the reactive value primitive of the runtime:
// a mutable cell that notifies watchers when its value changes, with all
// writes in one synchronous burst coalesced into a single delivery.
package signal

import (
	"reflect"
	"sync"
)

// Source is the type-erased subscription surface of a Cell. The mount
// orchestrator discovers cells in a component's state through this
// interface without knowing their value type.
type Source interface {
	// Observe registers fn to run after every flushed change.
	// The returned stop function is idempotent.
	Observe(fn func()) (stop func())
}

// Valuer exposes a cell's current value without its type parameter.
// The interpolation evaluator resolves ".value" through it.
type Valuer interface {
	ValueAny() any
}

type watcher[T any] struct {
	id uint64
	fn func(T)
}

// Cell is a reactive value container. Watchers are notified on a
// scheduler turn after the value changes; multiple Set calls between
// two turns collapse into one notification carrying the final value.
type Cell[T any] struct {
	mu       sync.Mutex
	value    T
	watchers []watcher[T]
	nextID   uint64
	pending  bool
	sched    *Scheduler
	equal    func(T, T) bool
}

// New creates a cell bound to the default scheduler.
func New[T any](initial T) *Cell[T] {
	return NewOn[T](Default(), initial)
}

// NewOn creates a cell whose flushes run on the given scheduler.
func NewOn[T any](s *Scheduler, initial T) *Cell[T] {
	if s == nil {
		s = Default()
	}
	return &Cell[T]{value: initial, sched: s}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores v and arms a flush. Setting a value equal to the current one
// is a no-op: no flush is scheduled and no watcher runs.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	if c.equals(c.value, v) {
		c.mu.Unlock()
		return
	}
	c.value = v
	arm := !c.pending
	if arm {
		c.pending = true
	}
	c.mu.Unlock()
	if arm {
		c.sched.Enqueue(c.flush)
	}
}

// Update applies fn to the current value and stores the result, with the
// same equality and flush semantics as Set.
func (c *Cell[T]) Update(fn func(T) T) {
	c.mu.Lock()
	next := fn(c.value)
	if c.equals(c.value, next) {
		c.mu.Unlock()
		return
	}
	c.value = next
	arm := !c.pending
	if arm {
		c.pending = true
	}
	c.mu.Unlock()
	if arm {
		c.sched.Enqueue(c.flush)
	}
}

// Watch registers fn to receive the cell's value after each flush.
// The returned stop function removes the registration and is safe to
// call more than once.
func (c *Cell[T]) Watch(fn func(T)) (stop func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.watchers = append(c.watchers, watcher[T]{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			for i, w := range c.watchers {
				if w.id == id {
					c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
					break
				}
			}
			c.mu.Unlock()
		})
	}
}

// Observe implements Source.
func (c *Cell[T]) Observe(fn func()) (stop func()) {
	return c.Watch(func(T) { fn() })
}

// ValueAny implements Valuer.
func (c *Cell[T]) ValueAny() any {
	return c.Get()
}

// WithEquals configures a custom equality function and returns the cell.
// Useful where reflect.DeepEqual is too expensive or has the wrong
// semantics for the value type.
func (c *Cell[T]) WithEquals(fn func(a, b T) bool) *Cell[T] {
	c.mu.Lock()
	c.equal = fn
	c.mu.Unlock()
	return c
}

// flush delivers the latest value to every watcher registered at flush
// time. Watchers run outside the cell lock; a panic in a watcher
// propagates to the scheduler's runner.
func (c *Cell[T]) flush() {
	c.mu.Lock()
	c.pending = false
	v := c.value
	ws := make([]watcher[T], len(c.watchers))
	copy(ws, c.watchers)
	c.mu.Unlock()

	for _, w := range ws {
		w.fn(v)
	}
}

func (c *Cell[T]) equals(a, b T) bool {
	if c.equal != nil {
		return c.equal(a, b)
	}
	return defaultEquals(a, b)
}

// defaultEquals provides type-appropriate equality: == for the common
// comparable kinds, reflect.DeepEqual for everything else.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	case nil:
		return any(b) == nil
	default:
		return reflect.DeepEqual(a, b)
	}
}
