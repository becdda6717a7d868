// Package store is a namespaced state container plugin. Each module
// contributes reactive cells under "namespace.key" and named actions
// dispatched as "namespace/action". Components receive the store as
// the "store" context collaborator, so templates bind straight onto
// store cells.
package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/TarekRaafat/eleva"
	"github.com/TarekRaafat/eleva/pkg/signal"
)

var (
	// ErrUnknownAction reports a dispatch of an unregistered action.
	ErrUnknownAction = errors.New("store: unknown action")

	// ErrUnknownKey reports access to a state key no module declared.
	ErrUnknownKey = errors.New("store: unknown key")

	// ErrBadActionName reports a dispatch name without a "ns/action" shape.
	ErrBadActionName = errors.New("store: action name must be namespace/action")
)

// Action mutates store state in response to a dispatch.
type Action func(s *Store, payload any) error

// Module declares a namespace's initial state and its actions.
type Module struct {
	State   map[string]any
	Actions map[string]Action
}

// Persister loads and saves store snapshots. Snapshots are flat maps
// keyed "namespace.key".
type Persister interface {
	Load() (map[string]any, error)
	Save(snapshot map[string]any) error
}

// Store holds reactive state cells by namespaced key.
type Store struct {
	mu        sync.RWMutex
	app       *eleva.Eleva
	cells     map[string]*signal.Cell[any]
	actions   map[string]Action
	persister Persister
	restored  map[string]any
}

// New builds an empty store. A nil persister keeps state in memory
// only.
func New(p Persister) *Store {
	return &Store{
		cells:     make(map[string]*signal.Cell[any]),
		actions:   make(map[string]Action),
		persister: p,
	}
}

// Name implements eleva.Plugin.
func (s *Store) Name() string { return "store" }

// Install implements eleva.Plugin: a persisted snapshot is loaded
// first so modules registered afterwards pick their restored values
// up, and the store injects itself as the "store" collaborator.
func (s *Store) Install(app *eleva.Eleva, _ map[string]any) error {
	s.mu.Lock()
	s.app = app
	s.mu.Unlock()
	if s.persister != nil {
		snap, err := s.persister.Load()
		if err != nil {
			return fmt.Errorf("store: loading snapshot: %w", err)
		}
		s.mu.Lock()
		s.restored = snap
		s.mu.Unlock()
	}
	app.OnContext(func(ctx *eleva.Context) { ctx.Set("store", s) })
	return nil
}

// RegisterModule adds a namespace. Keys present in a restored snapshot
// override the module's initial state.
func (s *Store) RegisterModule(ns string, m Module) error {
	if ns == "" || strings.ContainsAny(ns, "./") {
		return fmt.Errorf("store: invalid namespace %q", ns)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, initial := range m.State {
		full := ns + "." + key
		if restored, ok := s.restored[full]; ok {
			initial = restored
		}
		if s.app != nil {
			s.cells[full] = signal.NewOn(s.app.Scheduler(), initial)
		} else {
			s.cells[full] = signal.New(initial)
		}
	}
	for name, action := range m.Actions {
		s.actions[ns+"/"+name] = action
	}
	return nil
}

// Cell returns the reactive cell behind a namespaced key, so
// components can watch it or hand it to templates.
func (s *Store) Cell(ns, key string) (*signal.Cell[any], error) {
	s.mu.RLock()
	c, ok := s.cells[ns+"."+key]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownKey, ns, key)
	}
	return c, nil
}

// Get returns the current value of a namespaced key.
func (s *Store) Get(ns, key string) (any, error) {
	c, err := s.Cell(ns, key)
	if err != nil {
		return nil, err
	}
	return c.Get(), nil
}

// Set writes a namespaced key and saves a snapshot when a persister is
// configured.
func (s *Store) Set(ns, key string, v any) error {
	c, err := s.Cell(ns, key)
	if err != nil {
		return err
	}
	c.Set(v)
	return s.save()
}

// Dispatch runs a registered "namespace/action" with a payload.
func (s *Store) Dispatch(name string, payload any) error {
	if !strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrBadActionName, name)
	}
	s.mu.RLock()
	action, ok := s.actions[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	if err := action(s, payload); err != nil {
		return fmt.Errorf("store: action %q: %w", name, err)
	}
	return nil
}

// Snapshot returns the current state as a flat "namespace.key" map.
func (s *Store) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[string]any, len(s.cells))
	for k, c := range s.cells {
		snap[k] = c.Get()
	}
	return snap
}

// Keys returns the declared keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.cells))
	for k := range s.cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) save() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(s.Snapshot()); err != nil {
		return fmt.Errorf("store: saving snapshot: %w", err)
	}
	return nil
}
