package dom

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseFragment parses markup the way it would be parsed inside an
// element with the given tag, and returns the resulting top-level nodes.
// An empty contextTag parses in body context. Whitespace-only text nodes
// are preserved; they are ordinary slots to the differ.
func ParseFragment(markup, contextTag string) ([]*Node, error) {
	if contextTag == "" {
		contextTag = "body"
	}
	ctx := &html.Node{
		Type:     html.ElementNode,
		Data:     contextTag,
		DataAtom: atom.Lookup([]byte(contextTag)),
	}
	parsed, err := html.ParseFragment(strings.NewReader(markup), ctx)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(parsed))
	for _, h := range parsed {
		if n := fromHTML(h); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

// fromHTML converts an x/net/html node tree into a dom tree. Doctype and
// other non-content nodes are dropped.
func fromHTML(h *html.Node) *Node {
	switch h.Type {
	case html.ElementNode:
		n := NewElement(h.Data)
		for _, a := range h.Attr {
			key := a.Key
			if a.Namespace != "" {
				key = a.Namespace + ":" + a.Key
			}
			n.SetAttribute(key, a.Val)
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if child := fromHTML(c); child != nil {
				n.AppendChild(child)
			}
		}
		return n
	case html.TextNode:
		return NewText(h.Data)
	case html.CommentNode:
		return NewComment(h.Data)
	default:
		return nil
	}
}

// toHTML converts a dom subtree back into x/net/html form for rendering.
func toHTML(n *Node) *html.Node {
	var h *html.Node
	switch n.kind {
	case KindElement:
		h = &html.Node{
			Type:     html.ElementNode,
			Data:     n.tag,
			DataAtom: atom.Lookup([]byte(n.tag)),
		}
		for _, a := range n.attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Key, Val: a.Value})
		}
	case KindText:
		h = &html.Node{Type: html.TextNode, Data: n.data}
	case KindComment:
		h = &html.Node{Type: html.CommentNode, Data: n.data}
	default:
		h = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	}
	for _, c := range n.children {
		h.AppendChild(toHTML(c))
	}
	return h
}

// Render serializes n as HTML to w.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

// OuterHTML serializes n including the node itself.
func (n *Node) OuterHTML() string {
	var b strings.Builder
	if err := Render(&b, n); err != nil {
		return ""
	}
	return b.String()
}

// InnerHTML serializes n's children.
func (n *Node) InnerHTML() string {
	var b strings.Builder
	for _, c := range n.children {
		if err := Render(&b, c); err != nil {
			return ""
		}
	}
	return b.String()
}
