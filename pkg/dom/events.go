package dom

import "sync"

// Event is a synthetic event dispatched through the tree.
type Event struct {
	Type    string
	Target  *Node
	Detail  any
	stopped bool
}

// StopPropagation prevents the event from bubbling past the current node.
func (e *Event) StopPropagation() { e.stopped = true }

type listener struct {
	id uint64
	fn func(*Event)
}

// AddEventListener registers fn for events of the given type on n and
// returns an idempotent removal function.
func (n *Node) AddEventListener(typ string, fn func(*Event)) (remove func()) {
	if fn == nil {
		return func() {}
	}
	if n.listeners == nil {
		n.listeners = make(map[string][]listener)
	}
	n.nextLID++
	id := n.nextLID
	n.listeners[typ] = append(n.listeners[typ], listener{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { n.removeListener(typ, id) })
	}
}

// RemoveAllListeners drops every listener on this node.
func (n *Node) RemoveAllListeners() { n.listeners = nil }

// ListenerCount reports how many listeners are registered for typ on n.
func (n *Node) ListenerCount(typ string) int {
	return len(n.listeners[typ])
}

// Dispatch delivers a synthetic event of the given type at n and bubbles
// it through n's ancestors until stopped. Listeners run synchronously in
// registration order.
func (n *Node) Dispatch(typ string, detail any) *Event {
	ev := &Event{Type: typ, Target: n, Detail: detail}
	for cur := n; cur != nil && !ev.stopped; cur = cur.parent {
		regs := cur.listeners[typ]
		snapshot := make([]listener, len(regs))
		copy(snapshot, regs)
		for _, l := range snapshot {
			l.fn(ev)
			if ev.stopped {
				break
			}
		}
	}
	return ev
}

func (n *Node) removeListener(typ string, id uint64) {
	regs := n.listeners[typ]
	for i, l := range regs {
		if l.id == id {
			regs = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(regs) == 0 {
		delete(n.listeners, typ)
	} else {
		n.listeners[typ] = regs
	}
}
