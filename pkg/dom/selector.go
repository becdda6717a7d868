package dom

import (
	"fmt"
	"strings"
)

// The selector engine supports the subset component children maps use:
// tag, #id, .class, [attr] and [attr=val] compounds, the descendant
// combinator, and comma-separated groups.

type attrTest struct {
	key    string
	val    string
	hasVal bool
}

// simpleSelector is one compound like "li.item[draggable]".
type simpleSelector struct {
	tag     string
	id      string
	classes []string
	attrs   []attrTest
}

// Selector is a parsed selector: groups of descendant chains.
type Selector struct {
	groups [][]simpleSelector
}

// ParseSelector parses a selector string.
func ParseSelector(s string) (*Selector, error) {
	sel := &Selector{}
	for _, group := range strings.Split(s, ",") {
		group = strings.TrimSpace(group)
		if group == "" {
			return nil, fmt.Errorf("dom: empty selector group in %q", s)
		}
		var chain []simpleSelector
		for _, part := range strings.Fields(group) {
			simple, err := parseSimple(part)
			if err != nil {
				return nil, err
			}
			chain = append(chain, simple)
		}
		if len(chain) == 0 {
			return nil, fmt.Errorf("dom: empty selector group in %q", s)
		}
		sel.groups = append(sel.groups, chain)
	}
	return sel, nil
}

func parseSimple(s string) (simpleSelector, error) {
	var out simpleSelector
	i := 0
	readName := func() string {
		start := i
		for i < len(s) && isNameByte(s[i]) {
			i++
		}
		return s[start:i]
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			i++
			out.id = readName()
			if out.id == "" {
				return out, fmt.Errorf("dom: bad id selector in %q", s)
			}
		case '.':
			i++
			cls := readName()
			if cls == "" {
				return out, fmt.Errorf("dom: bad class selector in %q", s)
			}
			out.classes = append(out.classes, cls)
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return out, fmt.Errorf("dom: unterminated attribute selector in %q", s)
			}
			body := s[i+1 : i+end]
			i += end + 1
			var test attrTest
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				test.key = strings.TrimSpace(body[:eq])
				test.val = strings.Trim(strings.TrimSpace(body[eq+1:]), `"'`)
				test.hasVal = true
			} else {
				test.key = strings.TrimSpace(body)
			}
			if test.key == "" {
				return out, fmt.Errorf("dom: empty attribute selector in %q", s)
			}
			out.attrs = append(out.attrs, test)
		case '*':
			i++
		default:
			tag := readName()
			if tag == "" {
				return out, fmt.Errorf("dom: unexpected %q in selector %q", s[i], s)
			}
			out.tag = lower(tag)
		}
	}
	return out, nil
}

func isNameByte(c byte) bool {
	return c == '-' || c == '_' ||
		(c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z')
}

func (s simpleSelector) matches(n *Node) bool {
	if n.kind != KindElement {
		return false
	}
	if s.tag != "" && n.tag != s.tag {
		return false
	}
	if s.id != "" && n.GetAttribute("id") != s.id {
		return false
	}
	if len(s.classes) > 0 {
		have := strings.Fields(n.GetAttribute("class"))
		for _, want := range s.classes {
			found := false
			for _, c := range have {
				if c == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	for _, a := range s.attrs {
		if !n.HasAttribute(a.key) {
			return false
		}
		if a.hasVal && n.GetAttribute(a.key) != a.val {
			return false
		}
	}
	return true
}

// Matches reports whether n satisfies the selector. Descendant
// combinators walk n's ancestor chain right to left.
func (sel *Selector) Matches(n *Node) bool {
	for _, chain := range sel.groups {
		if matchChain(chain, n) {
			return true
		}
	}
	return false
}

func matchChain(chain []simpleSelector, n *Node) bool {
	if !chain[len(chain)-1].matches(n) {
		return false
	}
	cur := n.parent
	for i := len(chain) - 2; i >= 0; i-- {
		for cur != nil && !chain[i].matches(cur) {
			cur = cur.parent
		}
		if cur == nil {
			return false
		}
		cur = cur.parent
	}
	return true
}

// QuerySelectorAll returns every descendant of n (excluding n itself)
// matching the selector, in document order. An unparseable selector
// yields nil.
func (n *Node) QuerySelectorAll(selector string) []*Node {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil
	}
	var out []*Node
	var walk func(cur *Node)
	walk = func(cur *Node) {
		for _, c := range cur.children {
			if c.kind == KindElement {
				if sel.Matches(c) {
					out = append(out, c)
				}
				walk(c)
			}
		}
	}
	walk(n)
	return out
}

// QuerySelector returns the first match of QuerySelectorAll, or nil.
func (n *Node) QuerySelector(selector string) *Node {
	matches := n.QuerySelectorAll(selector)
	if len(matches) == 0 {
		return nil
	}
	return matches[0]
}
