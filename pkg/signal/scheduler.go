package signal

import "sync"

// Scheduler serializes deferred work onto a single runner goroutine.
// It stands in for the microtask queue of a single-threaded event loop:
// jobs run in FIFO order, one at a time, and jobs enqueued while the
// runner is draining join the same drain.
type Scheduler struct {
	mu      sync.Mutex
	idle    *sync.Cond
	queue   []func()
	running bool
}

// NewScheduler creates an idle scheduler. The runner goroutine is started
// lazily on the first Enqueue and exits whenever the queue empties.
func NewScheduler() *Scheduler {
	s := &Scheduler{}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Enqueue appends fn to the queue. There is always at least one scheduling
// boundary between Enqueue and fn running: fn is never invoked on the
// caller's goroutine.
func (s *Scheduler) Enqueue(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if !s.running {
		s.running = true
		go s.run()
	}
	s.mu.Unlock()
}

func (s *Scheduler) run() {
	s.mu.Lock()
	for len(s.queue) > 0 {
		fn := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		fn()
		s.mu.Lock()
	}
	s.running = false
	s.idle.Broadcast()
	s.mu.Unlock()
}

// Wait blocks until the queue is empty and the runner is idle, including
// any work enqueued by jobs that ran during the wait. Tests and callers
// that need "after one microtask turn" semantics use this.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	for s.running || len(s.queue) > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
}

var (
	defaultScheduler     *Scheduler
	defaultSchedulerOnce sync.Once
)

// Default returns the process-wide scheduler used by cells created with New.
func Default() *Scheduler {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler = NewScheduler()
	})
	return defaultScheduler
}
