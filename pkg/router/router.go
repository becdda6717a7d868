// Package router maps paths onto components and swaps them in and out
// of a single outlet node. It installs as an application plugin and is
// handed to components as the "router" context collaborator.
package router

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/TarekRaafat/eleva"
	"github.com/TarekRaafat/eleva/pkg/dom"
)

var (
	// ErrNoRoute reports a path no route pattern matches.
	ErrNoRoute = errors.New("router: no matching route")

	// ErrRedirectLoop reports a guard redirect chain that never settles.
	ErrRedirectLoop = errors.New("router: too many redirects")

	// ErrNoOutlet reports a router built without a mount target.
	ErrNoOutlet = errors.New("router: nil outlet")
)

// maxRedirects bounds a BeforeEach redirect chain.
const maxRedirects = 10

// Route binds a path pattern to a component. Patterns are segment
// based: ":name" captures one segment, a trailing "*rest" captures the
// remainder, and the bare pattern "*" is the fallback route.
type Route struct {
	Path      string
	Component any
}

// Match describes a resolved navigation.
type Match struct {
	// Path is the matched path without the query string.
	Path string

	// Params holds ":name" and "*rest" captures by name.
	Params map[string]string

	// Query holds the parsed query string.
	Query url.Values
}

// Guard runs before every navigation. Returning a non-empty redirect
// restarts the navigation at that path; returning false cancels it.
type Guard func(to, from *Match) (redirect string, allow bool)

// Router swaps route components through a single outlet container.
type Router struct {
	// BeforeEach, when set, guards every navigation.
	BeforeEach Guard

	outlet *dom.Node
	routes []Route

	mu      sync.Mutex
	app     *eleva.Eleva
	current *eleva.MountResult
	match   *Match
}

// New builds a router over an outlet node.
func New(outlet *dom.Node, routes []Route) *Router {
	return &Router{outlet: outlet, routes: routes}
}

// Name implements eleva.Plugin.
func (r *Router) Name() string { return "router" }

// Install implements eleva.Plugin: the router registers itself as the
// "router" collaborator on every component context. When opts carries
// a "start" path the router navigates there immediately.
func (r *Router) Install(app *eleva.Eleva, opts map[string]any) error {
	if r.outlet == nil {
		return ErrNoOutlet
	}
	r.mu.Lock()
	r.app = app
	r.mu.Unlock()
	app.OnContext(func(ctx *eleva.Context) { ctx.Set("router", r) })
	if start, ok := opts["start"].(string); ok {
		return r.Navigate(start)
	}
	return nil
}

// Current returns the active match, nil before the first navigation.
func (r *Router) Current() *Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match
}

// Navigate resolves the path against the route table, runs the guard,
// unmounts the current component, and mounts the target with the
// match exposed as props "path", "params", and "query". The previous
// component stays mounted when the navigation fails or is cancelled.
func (r *Router) Navigate(path string) error {
	return r.navigate(path, 0)
}

func (r *Router) navigate(path string, depth int) error {
	if depth > maxRedirects {
		return fmt.Errorf("%w: %q", ErrRedirectLoop, path)
	}
	r.mu.Lock()
	app := r.app
	from := r.match
	r.mu.Unlock()
	if app == nil {
		return fmt.Errorf("router: not installed")
	}

	to, route, err := r.resolve(path)
	if err != nil {
		return err
	}
	if r.BeforeEach != nil {
		redirect, allow := r.BeforeEach(to, from)
		if redirect != "" && redirect != path {
			return r.navigate(redirect, depth+1)
		}
		if !allow {
			return nil
		}
	}

	r.mu.Lock()
	prev := r.current
	r.mu.Unlock()
	if prev != nil {
		if err := prev.Unmount(); err != nil {
			return err
		}
	}

	m, err := app.Mount(r.outlet, route.Component, map[string]any{
		"path":   to.Path,
		"params": to.Params,
		"query":  to.Query,
	})
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.current = m
	r.match = to
	r.mu.Unlock()
	app.Emitter().Emit("router:navigate", to)
	return nil
}

// resolve splits the query off and finds the first matching route,
// falling back to the "*" route when present.
func (r *Router) resolve(path string) (*Match, *Route, error) {
	raw := path
	query := url.Values{}
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		q, err := url.ParseQuery(raw[i+1:])
		if err != nil {
			return nil, nil, fmt.Errorf("router: bad query in %q: %w", path, err)
		}
		query = q
		raw = raw[:i]
	}

	var fallback *Route
	for i := range r.routes {
		rt := &r.routes[i]
		if rt.Path == "*" {
			if fallback == nil {
				fallback = rt
			}
			continue
		}
		if params, ok := matchPattern(rt.Path, raw); ok {
			return &Match{Path: raw, Params: params, Query: query}, rt, nil
		}
	}
	if fallback != nil {
		return &Match{Path: raw, Params: map[string]string{}, Query: query}, fallback, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", ErrNoRoute, raw)
}

func matchPattern(pattern, path string) (map[string]string, bool) {
	pp := splitPath(pattern)
	sp := splitPath(path)
	params := make(map[string]string)
	for i, seg := range pp {
		if strings.HasPrefix(seg, "*") {
			name := seg[1:]
			if name == "" {
				name = "rest"
			}
			params[name] = strings.Join(sp[i:], "/")
			return params, true
		}
		if i >= len(sp) {
			return nil, false
		}
		if strings.HasPrefix(seg, ":") {
			if sp[i] == "" {
				return nil, false
			}
			params[seg[1:]] = sp[i]
			continue
		}
		if seg != sp[i] {
			return nil, false
		}
	}
	if len(sp) != len(pp) {
		return nil, false
	}
	return params, true
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
