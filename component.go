package eleva

import (
	"github.com/TarekRaafat/eleva/pkg/emitter"
	"github.com/TarekRaafat/eleva/pkg/signal"
)

// StringSource produces a string for a component, typically its
// template markup or scoped CSS. Taking the context lets a source
// switch on props or injected collaborators.
type StringSource func(ctx *Context) string

// Static wraps a fixed string as a StringSource.
func Static(s string) StringSource {
	return func(*Context) string { return s }
}

// SetupFunc builds a component's reactive state. The returned map is
// the template's evaluation scope: cells, plain values, and handler
// functions all live here. Entries under the lifecycle hook names are
// treated as hooks, not scope values.
type SetupFunc func(ctx *Context) (map[string]any, error)

// ComponentDefinition describes a mountable component.
type ComponentDefinition struct {
	// Setup builds the component's state map. Nil means stateless.
	Setup SetupFunc

	// Template produces the markup rendered into the container.
	// Required.
	Template StringSource

	// Style produces scoped CSS injected alongside the rendered
	// markup. Nil means no scoped style.
	Style StringSource

	// Children maps CSS selectors to child components mounted into
	// matching elements after each render. Values are either a
	// registered component name or a *ComponentDefinition.
	Children map[string]any
}

// Lifecycle hook names recognized in a setup result. Each value must
// be a func().
const (
	HookBeforeMount  = "onBeforeMount"
	HookMount        = "onMount"
	HookBeforeUpdate = "onBeforeUpdate"
	HookUpdate       = "onUpdate"
	HookUnmount      = "onUnmount"
)

var hookNames = []string{HookBeforeMount, HookMount, HookBeforeUpdate, HookUpdate, HookUnmount}

// Context is what a component's setup and string sources see: the
// props it was mounted with, the application event bus, and whatever
// collaborators installed plugins have injected.
type Context struct {
	// Props carries the values the parent mounted this component with.
	Props map[string]any

	// Emitter is the application-wide event bus.
	Emitter *emitter.Emitter

	app   *Eleva
	extra map[string]any
}

// App returns the application this context belongs to.
func (c *Context) App() *Eleva { return c.app }

// NewCell creates a reactive cell on the application's scheduler so
// its flushes serialize with render passes.
func (c *Context) NewCell(initial any) *signal.Cell[any] {
	return signal.NewOn(c.app.scheduler, initial)
}

// Get returns a collaborator injected by a plugin, nil when absent.
func (c *Context) Get(name string) any {
	if c.extra == nil {
		return nil
	}
	return c.extra[name]
}

// Set injects a named collaborator into the context. Plugins call this
// from an OnContext hook.
func (c *Context) Set(name string, v any) {
	if c.extra == nil {
		c.extra = make(map[string]any)
	}
	c.extra[name] = v
}
