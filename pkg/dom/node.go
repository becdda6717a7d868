// Package dom provides the in-process document tree the runtime renders
// into: parented element/text/comment nodes with ordered attributes, a
// mirrored property bag, per-element event listeners, and the markers
// the differ honors (mounted-instance ownership, scoped-style carriers).
//
// Trees are parsed from and serialized to HTML through golang.org/x/net/html.
// Nodes are not safe for concurrent mutation; the runtime serializes all
// tree work through its scheduler.
package dom

// Kind discriminates the node variants.
type Kind uint8

const (
	KindElement Kind = iota
	KindText
	KindComment
	KindDocument
)

// Attr is a single attribute. Order is preserved for serialization.
type Attr struct {
	Key   string
	Value string
}

// Node is one node of a live document tree.
type Node struct {
	kind Kind
	tag  string // element tag, lowercase
	data string // text or comment payload

	parent   *Node
	children []*Node

	attrs     []Attr
	props     map[string]any
	listeners map[string][]listener
	nextLID   uint64

	instance    any  // mounted component instance owning this subtree
	scopedStyle bool // style element managed by style injection, not diffing
}

// NewElement creates a detached element node.
func NewElement(tag string, attrs ...Attr) *Node {
	n := &Node{kind: KindElement, tag: lower(tag)}
	for _, a := range attrs {
		n.SetAttribute(a.Key, a.Value)
	}
	return n
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{kind: KindText, data: text}
}

// NewComment creates a detached comment node.
func NewComment(text string) *Node {
	return &Node{kind: KindComment, data: text}
}

// NewDocument creates an empty document node.
func NewDocument() *Node {
	return &Node{kind: KindDocument}
}

// Kind returns the node variant.
func (n *Node) Kind() Kind { return n.kind }

// Tag returns the element tag name (empty for non-elements).
func (n *Node) Tag() string { return n.tag }

// Data returns the text or comment payload.
func (n *Node) Data() string { return n.data }

// SetData overwrites a text or comment node's payload.
func (n *Node) SetData(s string) {
	if n.kind == KindText || n.kind == KindComment {
		n.data = s
	}
}

// Parent returns the parent node, nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child list. The slice is the node's own backing
// store: callers must treat it as read-only and use the mutation methods.
func (n *Node) Children() []*Node { return n.children }

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// NextSibling returns the node following n under its parent, or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.Index()
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// Index returns n's position under its parent, -1 when detached.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// AppendChild detaches c from its current parent and appends it to n.
func (n *Node) AppendChild(c *Node) {
	if c == nil || c == n {
		return
	}
	c.Detach()
	c.parent = n
	n.children = append(n.children, c)
}

// InsertBefore detaches c and inserts it immediately before ref. A nil
// ref appends; a ref that is not a child of n appends as well.
func (n *Node) InsertBefore(c, ref *Node) {
	if c == nil || c == n || c == ref {
		return
	}
	if ref == nil || ref.parent != n {
		n.AppendChild(c)
		return
	}
	c.Detach()
	i := ref.Index()
	c.parent = n
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
}

// RemoveChild detaches c from n. No-op when c is not a child of n.
func (n *Node) RemoveChild(c *Node) {
	if c == nil || c.parent != n {
		return
	}
	c.Detach()
}

// Detach removes n from its parent, leaving it a detached subtree root.
func (n *Node) Detach() {
	if n.parent == nil {
		return
	}
	p := n.parent
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// ReplaceWith substitutes repl for n in n's parent, detaching n.
func (n *Node) ReplaceWith(repl *Node) {
	if repl == nil || repl == n || n.parent == nil {
		return
	}
	p := n.parent
	p.InsertBefore(repl, n)
	n.Detach()
}

// ClearChildren detaches every child of n.
func (n *Node) ClearChildren() {
	kids := make([]*Node, len(n.children))
	copy(kids, n.children)
	for _, c := range kids {
		c.Detach()
	}
}

// Clone returns a deep copy of n's structure: kind, tag, data, attributes
// and children. Listeners, mirrored properties beyond those implied by
// attributes, and runtime markers are not copied.
func (n *Node) Clone() *Node {
	var c *Node
	switch n.kind {
	case KindElement:
		c = NewElement(n.tag)
		for _, a := range n.attrs {
			c.SetAttribute(a.Key, a.Value)
		}
	case KindText:
		c = NewText(n.data)
	case KindComment:
		c = NewComment(n.data)
	default:
		c = NewDocument()
	}
	for _, child := range n.children {
		c.AppendChild(child.Clone())
	}
	return c
}

// Text returns the concatenated text content of n's subtree.
func (n *Node) Text() string {
	if n.kind == KindText {
		return n.data
	}
	var out string
	for _, c := range n.children {
		out += c.Text()
	}
	return out
}

// SetText replaces n's children with a single text node.
func (n *Node) SetText(s string) {
	n.ClearChildren()
	n.AppendChild(NewText(s))
}

// SetInstance marks n as the container of a mounted component instance.
// A nil value clears the mark.
func (n *Node) SetInstance(v any) { n.instance = v }

// Instance returns the mounted component instance claiming n, or nil.
func (n *Node) Instance() any { return n.instance }

// Protected reports whether n is owned by a mounted component instance
// and must be skipped by an ancestor's diff pass.
func (n *Node) Protected() bool { return n.instance != nil }

// MarkScopedStyle flags n as a component-scoped style carrier, exempt
// from removal during diffing.
func (n *Node) MarkScopedStyle() { n.scopedStyle = true }

// IsScopedStyle reports whether n is a scoped style carrier.
func (n *Node) IsScopedStyle() bool { return n.scopedStyle }

func lower(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
