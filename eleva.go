// Package eleva is a minimal reactive component runtime. Components
// declare markup with {{ expression }} interpolation, reactive state
// as cells, and lifecycle hooks; the runtime renders them into a live
// node tree and patches that tree in place as state changes.
package eleva

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/TarekRaafat/eleva/pkg/emitter"
	"github.com/TarekRaafat/eleva/pkg/signal"
)

// Plugin extends an application. Install runs once per Use call.
type Plugin interface {
	Name() string
	Install(app *Eleva, opts map[string]any) error
}

// Option configures an application at construction time.
type Option func(*Eleva)

// WithScheduler replaces the application's render scheduler.
func WithScheduler(s *signal.Scheduler) Option {
	return func(a *Eleva) { a.scheduler = s }
}

// WithLogger replaces the application's logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Eleva) { a.logger = l }
}

// WithRenderErrorHandler replaces the handler invoked when a render
// pass fails. The default logs and keeps the previous tree.
func WithRenderErrorHandler(fn func(component string, err error)) Option {
	return func(a *Eleva) { a.renderErr = fn }
}

// Eleva is the component runtime: a registry of definitions, an event
// bus, and a scheduler that serializes state flushes and render passes.
type Eleva struct {
	name      string
	emitter   *emitter.Emitter
	scheduler *signal.Scheduler
	logger    *slog.Logger
	renderErr func(component string, err error)

	mu       sync.RWMutex
	registry map[string]*ComponentDefinition
	plugins  map[string]Plugin
	ctxHooks []func(*Context)
}

// New creates an application runtime.
func New(name string, opts ...Option) *Eleva {
	a := &Eleva{
		name:      name,
		emitter:   emitter.New(),
		scheduler: signal.NewScheduler(),
		logger:    slog.Default(),
		registry:  make(map[string]*ComponentDefinition),
		plugins:   make(map[string]Plugin),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.renderErr == nil {
		a.renderErr = func(component string, err error) {
			a.logger.Error("render failed", "app", a.name, "component", component, "error", err)
		}
	}
	return a
}

// Name returns the application name.
func (a *Eleva) Name() string { return a.name }

// Emitter returns the application event bus.
func (a *Eleva) Emitter() *emitter.Emitter { return a.emitter }

// Scheduler returns the render scheduler. Cells created on it flush in
// series with render passes.
func (a *Eleva) Scheduler() *signal.Scheduler { return a.scheduler }

// Register adds a component definition under a name. Re-registering a
// name replaces the previous definition for future mounts.
func (a *Eleva) Register(name string, def *ComponentDefinition) error {
	if name == "" {
		return ErrInvalidName
	}
	if def == nil || def.Template == nil {
		return ErrNoTemplate
	}
	a.mu.Lock()
	a.registry[name] = def
	a.mu.Unlock()
	return nil
}

// Component looks up a registered definition.
func (a *Eleva) Component(name string) (*ComponentDefinition, bool) {
	a.mu.RLock()
	def, ok := a.registry[name]
	a.mu.RUnlock()
	return def, ok
}

// Use installs a plugin. Installing a plugin under a name that is
// already installed is an error.
func (a *Eleva) Use(p Plugin, opts map[string]any) error {
	if p == nil {
		return fmt.Errorf("eleva: nil plugin")
	}
	a.mu.Lock()
	if _, dup := a.plugins[p.Name()]; dup {
		a.mu.Unlock()
		return fmt.Errorf("eleva: plugin %q already installed", p.Name())
	}
	a.plugins[p.Name()] = p
	a.mu.Unlock()
	if err := p.Install(a, opts); err != nil {
		a.mu.Lock()
		delete(a.plugins, p.Name())
		a.mu.Unlock()
		return fmt.Errorf("eleva: installing plugin %q: %w", p.Name(), err)
	}
	a.logger.Debug("plugin installed", "app", a.name, "plugin", p.Name())
	return nil
}

// OnContext registers a hook that runs against every component context
// before setup. Plugins use it to inject collaborators.
func (a *Eleva) OnContext(fn func(*Context)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.ctxHooks = append(a.ctxHooks, fn)
	a.mu.Unlock()
}

// newContext builds a component context and runs the injection hooks.
func (a *Eleva) newContext(props map[string]any) *Context {
	if props == nil {
		props = make(map[string]any)
	}
	ctx := &Context{Props: props, Emitter: a.emitter, app: a}
	a.mu.RLock()
	hooks := append([]func(*Context){}, a.ctxHooks...)
	a.mu.RUnlock()
	for _, h := range hooks {
		h(ctx)
	}
	return ctx
}

// resolve turns a mount reference into a definition. Accepted forms
// are a registered name or a *ComponentDefinition.
func (a *Eleva) resolve(component any) (*ComponentDefinition, string, error) {
	switch c := component.(type) {
	case string:
		def, ok := a.Component(c)
		if !ok {
			return nil, c, fmt.Errorf("%w: %q", ErrNotRegistered, c)
		}
		return def, c, nil
	case *ComponentDefinition:
		if c == nil {
			return nil, "", ErrInvalidComponent
		}
		return c, "inline", nil
	}
	return nil, "", fmt.Errorf("%w: %T", ErrInvalidComponent, component)
}
