package dom

import "strings"

// Attribute to property mirroring is table-driven: three special families
// (ARIA, dataset, boolean) plus a case-insensitive known-property
// passthrough. No reflection over host types is involved.

// booleanAttrs maps a lowercase attribute name to its property name.
var booleanAttrs = map[string]string{
	"allowfullscreen": "allowFullscreen",
	"async":           "async",
	"autofocus":       "autofocus",
	"autoplay":        "autoplay",
	"checked":         "checked",
	"controls":        "controls",
	"default":         "default",
	"defer":           "defer",
	"disabled":        "disabled",
	"formnovalidate":  "formNoValidate",
	"hidden":          "hidden",
	"inert":           "inert",
	"ismap":           "isMap",
	"loop":            "loop",
	"multiple":        "multiple",
	"muted":           "muted",
	"novalidate":      "noValidate",
	"open":            "open",
	"playsinline":     "playsInline",
	"readonly":        "readOnly",
	"required":        "required",
	"reversed":        "reversed",
	"selected":        "selected",
}

// knownProps maps a lowercase attribute name to the property it mirrors.
var knownProps = map[string]string{
	"accesskey":       "accessKey",
	"alt":             "alt",
	"autocomplete":    "autocomplete",
	"class":           "className",
	"cols":            "cols",
	"colspan":         "colSpan",
	"contenteditable": "contentEditable",
	"dir":             "dir",
	"draggable":       "draggable",
	"enctype":         "enctype",
	"for":             "htmlFor",
	"href":            "href",
	"id":              "id",
	"lang":            "lang",
	"max":             "max",
	"maxlength":       "maxLength",
	"method":          "method",
	"min":             "min",
	"minlength":       "minLength",
	"name":            "name",
	"pattern":         "pattern",
	"placeholder":     "placeholder",
	"rel":             "rel",
	"rows":            "rows",
	"rowspan":         "rowSpan",
	"spellcheck":      "spellcheck",
	"src":             "src",
	"step":            "step",
	"tabindex":        "tabIndex",
	"target":          "target",
	"title":           "title",
	"type":            "type",
	"value":           "value",
	"wrap":            "wrap",
}

// GetAttribute returns the attribute's literal value, "" when absent.
func (n *Node) GetAttribute(key string) string {
	for _, a := range n.attrs {
		if a.Key == key {
			return a.Value
		}
	}
	return ""
}

// HasAttribute reports whether the attribute is present.
func (n *Node) HasAttribute(key string) bool {
	for _, a := range n.attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// Attrs returns the attribute list in document order. Read-only.
func (n *Node) Attrs() []Attr { return n.attrs }

// Key returns the diff identity hint ("key" attribute), "" when unkeyed.
func (n *Node) Key() string { return n.GetAttribute("key") }

// SetAttribute sets the attribute and mirrors it onto the matching
// property family. For boolean-valued properties an empty value, the
// attribute's own name, or "true" count as true and "false" counts as
// false; a false value removes the attribute entirely.
func (n *Node) SetAttribute(key, value string) {
	if n.kind != KindElement {
		return
	}
	lk := strings.ToLower(key)

	if prop, ok := booleanAttrs[lk]; ok {
		if !boolValue(lk, value) {
			n.RemoveAttribute(key)
			return
		}
		n.setAttrLiteral(key, value)
		n.SetProp(prop, true)
		return
	}

	n.setAttrLiteral(key, value)

	switch {
	case strings.HasPrefix(lk, "aria-"):
		n.SetProp("aria"+pascalCase(lk[len("aria-"):]), value)
	case strings.HasPrefix(lk, "data-"):
		n.dataset()[camelCase(lk[len("data-"):])] = value
	default:
		if prop, ok := knownProps[lk]; ok {
			n.SetProp(prop, value)
		}
	}
}

// RemoveAttribute removes the attribute and clears its mirrored property.
func (n *Node) RemoveAttribute(key string) {
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs = append(n.attrs[:i], n.attrs[i+1:]...)
			break
		}
	}

	lk := strings.ToLower(key)
	switch {
	case strings.HasPrefix(lk, "aria-"):
		n.deleteProp("aria" + pascalCase(lk[len("aria-"):]))
	case strings.HasPrefix(lk, "data-"):
		delete(n.dataset(), camelCase(lk[len("data-"):]))
	default:
		if prop, ok := booleanAttrs[lk]; ok {
			n.SetProp(prop, false)
		} else if prop, ok := knownProps[lk]; ok {
			n.deleteProp(prop)
		}
	}
}

// Prop looks up a mirrored or explicitly set property.
func (n *Node) Prop(name string) (any, bool) {
	if n.props == nil {
		return nil, false
	}
	if v, ok := n.props[name]; ok {
		return v, true
	}
	// Deterministic case-insensitive fallback over the known property
	// names, replacing prototype-chain reflection.
	ln := strings.ToLower(name)
	for _, prop := range knownProps {
		if strings.ToLower(prop) == ln {
			v, ok := n.props[prop]
			return v, ok
		}
	}
	for _, prop := range booleanAttrs {
		if strings.ToLower(prop) == ln {
			v, ok := n.props[prop]
			return v, ok
		}
	}
	return nil, false
}

// SetProp sets a property without touching attributes.
func (n *Node) SetProp(name string, v any) {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[name] = v
}

// Dataset returns the element's data-* map (camelCased keys).
func (n *Node) Dataset() map[string]string { return n.dataset() }

func (n *Node) dataset() map[string]string {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	ds, ok := n.props["dataset"].(map[string]string)
	if !ok {
		ds = make(map[string]string)
		n.props["dataset"] = ds
	}
	return ds
}

func (n *Node) deleteProp(name string) {
	if n.props != nil {
		delete(n.props, name)
	}
}

func (n *Node) setAttrLiteral(key, value string) {
	for i, a := range n.attrs {
		if a.Key == key {
			n.attrs[i].Value = value
			return
		}
	}
	n.attrs = append(n.attrs, Attr{Key: key, Value: value})
}

// boolValue implements the boolean attribute coercion contract.
func boolValue(lowerKey, value string) bool {
	switch strings.ToLower(value) {
	case "", lowerKey, "true":
		return true
	case "false":
		return false
	default:
		// Presence with any other value keeps HTML semantics: true.
		return true
	}
}

// camelCase turns "user-id" into "userId".
func camelCase(s string) string {
	var b strings.Builder
	upper := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '-' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(c)
	}
	return b.String()
}

// pascalCase turns "valuenow" into "Valuenow" and "label" into "Label".
func pascalCase(s string) string {
	s = camelCase(s)
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-('a'-'A')) + s[1:]
	}
	return s
}
