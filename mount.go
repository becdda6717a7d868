package eleva

import (
	"fmt"
	"strings"
	"sync"

	"github.com/TarekRaafat/eleva/pkg/dom"
	"github.com/TarekRaafat/eleva/pkg/patch"
	"github.com/TarekRaafat/eleva/pkg/signal"
	"github.com/TarekRaafat/eleva/pkg/tmpl"
)

// MountResult is a live component instance bound to a container node.
type MountResult struct {
	// Container is the node the component renders into. The node
	// carries this instance as its marker while mounted.
	Container *dom.Node

	// Data is the component's state map as returned by its setup.
	Data map[string]any

	app  *Eleva
	def  *ComponentDefinition
	name string
	ctx  *Context

	mu            sync.Mutex
	generation    uint64
	renderQueued  bool
	unmounted     bool
	hooks         map[string]func()
	watcherStops  []func()
	listenerStops []func()
	children      []*MountResult
}

// Mount renders a component into container and returns the live
// instance. Mounting the same definition onto an already-claimed
// container returns the existing instance; mounting a different
// definition unmounts the occupant first. The container is claimed
// before setup runs so a concurrent mount cannot race into it, and the
// claim is rolled back when setup fails.
func (a *Eleva) Mount(container *dom.Node, component any, props map[string]any) (*MountResult, error) {
	if container == nil {
		return nil, ErrNilContainer
	}
	def, name, err := a.resolve(component)
	if err != nil {
		return nil, err
	}
	if def.Template == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoTemplate, name)
	}

	if inst, ok := container.Instance().(*MountResult); ok {
		if inst.def == def {
			return inst, nil
		}
		if err := inst.Unmount(); err != nil {
			return nil, err
		}
	}

	ctx := a.newContext(props)
	m := &MountResult{
		Container: container,
		app:       a,
		def:       def,
		name:      name,
		ctx:       ctx,
		hooks:     make(map[string]func()),
	}
	container.SetInstance(m)

	data := make(map[string]any)
	if def.Setup != nil {
		data, err = def.Setup(ctx)
		if err != nil {
			container.SetInstance(nil)
			return nil, fmt.Errorf("eleva: setup of %q: %w", name, err)
		}
		if data == nil {
			data = make(map[string]any)
		}
	}
	for _, hn := range hookNames {
		if fn, ok := data[hn].(func()); ok {
			m.hooks[hn] = fn
			delete(data, hn)
		}
	}
	m.Data = data

	m.hook(HookBeforeMount)
	m.render(true)
	for _, v := range data {
		if src, ok := v.(signal.Source); ok {
			m.watcherStops = append(m.watcherStops, src.Observe(m.scheduleRender))
		}
	}
	m.hook(HookMount)
	a.emitter.Emit("component:mount", name, m)
	return m, nil
}

// Name returns the component name this instance was mounted as.
func (m *MountResult) Name() string { return m.name }

func (m *MountResult) hook(name string) {
	if fn := m.hooks[name]; fn != nil {
		fn()
	}
}

// scheduleRender queues one render pass on the application scheduler.
// Multiple state flushes before the pass runs coalesce into a single
// render, and a render queued before an unmount is dropped.
func (m *MountResult) scheduleRender() {
	m.mu.Lock()
	if m.unmounted || m.renderQueued {
		m.mu.Unlock()
		return
	}
	m.renderQueued = true
	gen := m.generation
	m.mu.Unlock()

	m.app.scheduler.Enqueue(func() {
		m.mu.Lock()
		m.renderQueued = false
		stale := m.unmounted || m.generation != gen
		m.mu.Unlock()
		if stale {
			return
		}
		m.render(false)
	})
}

// scope is the template evaluation environment: the state map plus the
// mount props under "props".
func (m *MountResult) scope() map[string]any {
	s := make(map[string]any, len(m.Data)+1)
	for k, v := range m.Data {
		s[k] = v
	}
	if _, taken := s["props"]; !taken {
		s["props"] = m.ctx.Props
	}
	return s
}

// render runs one full pass: interpolate, patch the live tree, rebind
// event attributes, refresh the scoped style, and mount children.
func (m *MountResult) render(first bool) {
	if !first {
		m.hook(HookBeforeUpdate)
	}
	s := m.scope()
	markup := tmpl.Parse(m.def.Template(m.ctx), s)
	if err := patch.Apply(m.Container, markup); err != nil {
		m.app.renderErr(m.name, err)
		return
	}
	m.bindEvents(s)
	m.injectStyle(s)
	m.mountChildren(s)
	if !first {
		m.hook(HookUpdate)
		m.app.emitter.Emit("component:update", m.name, m)
	}
}

// bindEvents scans the rendered tree for "@event" attributes, binds
// the referenced handlers, and strips the attributes. The previous
// pass's bindings are removed first so re-renders never stack
// duplicate listeners. Subtrees owned by child components are skipped.
func (m *MountResult) bindEvents(scope map[string]any) {
	m.mu.Lock()
	stops := m.listenerStops
	m.listenerStops = nil
	m.mu.Unlock()
	for _, stop := range stops {
		stop()
	}

	var fresh []func()
	var visit func(n *dom.Node)
	visit = func(n *dom.Node) {
		for _, c := range n.Children() {
			if c.Protected() {
				continue
			}
			if c.Kind() == dom.KindElement {
				fresh = append(fresh, m.bindNode(c, scope)...)
			}
			visit(c)
		}
	}
	visit(m.Container)

	m.mu.Lock()
	m.listenerStops = append(m.listenerStops, fresh...)
	m.mu.Unlock()
}

func (m *MountResult) bindNode(n *dom.Node, scope map[string]any) []func() {
	var stops []func()
	attrs := append([]dom.Attr(nil), n.Attrs()...)
	for _, a := range attrs {
		if !strings.HasPrefix(a.Key, "@") {
			continue
		}
		event := a.Key[1:]
		n.RemoveAttribute(a.Key)
		handler := scope[a.Value]
		if handler == nil {
			v, err := tmpl.Evaluate(a.Value, scope)
			if err != nil {
				m.app.logger.Debug("event handler expression failed",
					"component", m.name, "event", event, "expr", a.Value, "error", err)
				continue
			}
			handler = v
		}
		call := handlerFunc(handler)
		if call == nil {
			m.app.logger.Debug("event handler is not callable",
				"component", m.name, "event", event, "expr", a.Value)
			continue
		}
		stops = append(stops, n.AddEventListener(event, call))
	}
	return stops
}

// handlerFunc adapts the common handler shapes to the listener
// signature. Unknown shapes return nil.
func handlerFunc(h any) func(*dom.Event) {
	switch fn := h.(type) {
	case func(*dom.Event):
		return fn
	case func():
		return func(*dom.Event) { fn() }
	case func(any):
		return func(e *dom.Event) { fn(e.Detail) }
	}
	return nil
}

// injectStyle keeps the component's scoped style element as the last
// child of the container, creating it on first use and rewriting its
// text only when the produced CSS changes.
func (m *MountResult) injectStyle(scope map[string]any) {
	if m.def.Style == nil {
		return
	}
	css := tmpl.Parse(m.def.Style(m.ctx), scope)

	var style *dom.Node
	for _, c := range m.Container.Children() {
		if c.IsScopedStyle() {
			style = c
			break
		}
	}
	if style == nil {
		style = dom.NewElement("style")
		style.MarkScopedStyle()
	}
	if style.Text() != css {
		style.SetText(css)
	}
	// AppendChild moves an attached node, keeping the style last.
	m.Container.AppendChild(style)
}

// mountChildren prunes instances whose container fell out of the tree
// and mounts the definition's child selectors into fresh matches.
// Prop-binding attributes (":name") are evaluated against the parent
// scope and stripped before the child mounts.
func (m *MountResult) mountChildren(scope map[string]any) {
	m.mu.Lock()
	kept := m.children[:0]
	var gone []*MountResult
	for _, c := range m.children {
		if attached(c.Container, m.Container) {
			kept = append(kept, c)
		} else {
			gone = append(gone, c)
		}
	}
	m.children = kept
	m.mu.Unlock()
	for _, c := range gone {
		if err := c.Unmount(); err != nil {
			m.app.renderErr(c.name, err)
		}
	}

	for selector, ref := range m.def.Children {
		for _, el := range m.Container.QuerySelectorAll(selector) {
			if el.Protected() {
				continue
			}
			props := extractProps(el, scope)
			child, err := m.app.Mount(el, ref, props)
			if err != nil {
				m.app.renderErr(m.name, fmt.Errorf("mounting child %q: %w", selector, err))
				continue
			}
			m.mu.Lock()
			m.children = append(m.children, child)
			m.mu.Unlock()
		}
	}
}

func attached(n, root *dom.Node) bool {
	for p := n; p != nil; p = p.Parent() {
		if p == root {
			return true
		}
	}
	return false
}

// extractProps evaluates and strips ":name" attributes. Hyphenated
// names are exposed lowerCamel, so :user-id becomes props["userId"].
func extractProps(el *dom.Node, scope map[string]any) map[string]any {
	props := make(map[string]any)
	attrs := append([]dom.Attr(nil), el.Attrs()...)
	for _, a := range attrs {
		if !strings.HasPrefix(a.Key, ":") {
			continue
		}
		el.RemoveAttribute(a.Key)
		name := propName(a.Key[1:])
		v, err := tmpl.Evaluate(a.Value, scope)
		if err != nil || v == nil {
			// A value that is not a scope expression passes through
			// as a plain string.
			props[name] = a.Value
			continue
		}
		props[name] = v
	}
	return props
}

func propName(name string) string {
	if !strings.Contains(name, "-") {
		return name
	}
	parts := strings.Split(name, "-")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// Unmount tears the instance down: the unmount hook runs first, then
// state watchers stop, event listeners detach, children unmount depth
// first, and the container is emptied and released.
func (m *MountResult) Unmount() error {
	m.mu.Lock()
	if m.unmounted {
		m.mu.Unlock()
		return nil
	}
	m.unmounted = true
	m.generation++
	watchers := m.watcherStops
	listeners := m.listenerStops
	children := m.children
	m.watcherStops = nil
	m.listenerStops = nil
	m.children = nil
	m.mu.Unlock()

	m.hook(HookUnmount)
	for _, stop := range watchers {
		stop()
	}
	for _, stop := range listeners {
		stop()
	}
	for _, c := range children {
		if err := c.Unmount(); err != nil {
			return err
		}
	}
	m.Container.ClearChildren()
	m.Container.SetInstance(nil)
	m.app.emitter.Emit("component:unmount", m.name, m)
	return nil
}
