// Package patch reconciles a live node tree against freshly rendered
// markup. The differ works directly on the live tree: matching nodes
// are updated in place so their listeners, props, and instance markers
// survive across renders, and keyed children are moved rather than
// rebuilt.
package patch

import (
	"errors"

	"github.com/TarekRaafat/eleva/pkg/dom"
)

var (
	// ErrNilContainer reports a reconcile target that does not exist.
	ErrNilContainer = errors.New("patch: nil container")
)

// Apply parses markup in the container's tag context and reconciles
// the container's children against the parsed fragment. Nodes that
// carry a component instance are left untouched, and elements marked
// as scoped style carriers are never removed.
func Apply(container *dom.Node, markup string) error {
	if container == nil {
		return ErrNilContainer
	}
	ctx := container.Tag()
	if ctx == "" {
		ctx = "div"
	}
	fresh, err := dom.ParseFragment(markup, ctx)
	if err != nil {
		return err
	}
	reconcileChildren(container, fresh)
	return nil
}

// key returns the diff identity of a node: the key attribute for
// elements that carry one, otherwise the empty string.
func key(n *dom.Node) string {
	if n.Kind() != dom.KindElement {
		return ""
	}
	return n.Key()
}

// sameIdentity reports whether old can be patched into new in place.
func sameIdentity(a, b *dom.Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	if a.Kind() == dom.KindElement && a.Tag() != b.Tag() {
		return false
	}
	return key(a) == key(b)
}

// reconcileChildren walks both child lists with a start and an end
// pointer per side, shrinking the windows from whichever edge matches.
// When neither edge matches, a key map over the remaining old window
// resolves moves; unkeyed or unknown new nodes are inserted. Old nodes
// left over are removed unless protected or scoped-style carriers.
func reconcileChildren(parent *dom.Node, fresh []*dom.Node) {
	old := append([]*dom.Node(nil), parent.Children()...)
	oldStart, oldEnd := 0, len(old)-1
	newStart, newEnd := 0, len(fresh)-1
	var keyMap map[string]int

	nextLive := func(from int) *dom.Node {
		for i := from; i < len(old); i++ {
			if old[i] != nil {
				return old[i]
			}
		}
		return nil
	}

	for oldStart <= oldEnd && newStart <= newEnd {
		if old[oldStart] == nil {
			oldStart++
			continue
		}
		if old[oldEnd] == nil {
			oldEnd--
			continue
		}
		// A mounted child component owns its subtree. It consumes a
		// position on both sides and the renderer does not look inside.
		if old[oldStart].Protected() {
			oldStart++
			newStart++
			continue
		}
		switch {
		case sameIdentity(old[oldStart], fresh[newStart]):
			patchNode(old[oldStart], fresh[newStart])
			oldStart++
			newStart++
		case sameIdentity(old[oldEnd], fresh[newEnd]):
			patchNode(old[oldEnd], fresh[newEnd])
			oldEnd--
			newEnd--
		default:
			if keyMap == nil {
				keyMap = make(map[string]int)
				for i := oldStart; i <= oldEnd; i++ {
					if old[i] == nil || old[i].Protected() {
						continue
					}
					if k := key(old[i]); k != "" {
						keyMap[k] = i
					}
				}
			}
			k := key(fresh[newStart])
			if idx, ok := keyMap[k]; ok && k != "" && old[idx] != nil && sameIdentity(old[idx], fresh[newStart]) {
				moved := old[idx]
				old[idx] = nil
				parent.InsertBefore(moved, old[oldStart])
				patchNode(moved, fresh[newStart])
			} else {
				parent.InsertBefore(fresh[newStart], old[oldStart])
			}
			newStart++
		}
	}

	// New nodes remaining are appended before the first live node past
	// the old window, or at the end when the window reached the tail.
	if newStart <= newEnd {
		anchor := nextLive(oldEnd + 1)
		for i := newStart; i <= newEnd; i++ {
			parent.InsertBefore(fresh[i], anchor)
		}
	}

	// Old nodes remaining are gone from the new render.
	for i := oldStart; i <= oldEnd; i++ {
		n := old[i]
		if n == nil || n.Protected() || n.IsScopedStyle() {
			continue
		}
		parent.RemoveChild(n)
	}
}

// patchNode updates a live node in place to match its fresh
// counterpart, replacing it outright when the two cannot be the same
// element.
func patchNode(live, fresh *dom.Node) {
	if live.Protected() {
		return
	}
	if live.Kind() != fresh.Kind() || (live.Kind() == dom.KindElement && live.Tag() != fresh.Tag()) {
		live.ReplaceWith(fresh)
		return
	}
	switch live.Kind() {
	case dom.KindText, dom.KindComment:
		if live.Data() != fresh.Data() {
			live.SetData(fresh.Data())
		}
	case dom.KindElement:
		reconcileAttrs(live, fresh)
		reconcileChildren(live, fresh.Children())
	}
}

// reconcileAttrs syncs live's attributes to fresh's. Event-binding
// attributes (the "@" prefix) flow through like any other attribute;
// the mount layer binds and strips them after the patch.
func reconcileAttrs(live, fresh *dom.Node) {
	want := make(map[string]string, len(fresh.Attrs()))
	for _, a := range fresh.Attrs() {
		want[a.Key] = a.Value
	}
	stale := make([]string, 0, 2)
	for _, a := range live.Attrs() {
		if _, ok := want[a.Key]; !ok {
			stale = append(stale, a.Key)
		}
	}
	for _, k := range stale {
		live.RemoveAttribute(k)
	}
	for _, a := range fresh.Attrs() {
		if !live.HasAttribute(a.Key) || live.GetAttribute(a.Key) != a.Value {
			live.SetAttribute(a.Key, a.Value)
		}
	}
}
