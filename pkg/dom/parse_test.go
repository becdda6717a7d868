package dom

import (
	"strings"
	"testing"
)

func TestParseFragmentBasic(t *testing.T) {
	nodes, err := ParseFragment(`<div class="card">Hello <b>world</b></div>`, "body")
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 top-level node, got %d", len(nodes))
	}
	div := nodes[0]
	if div.Kind() != KindElement || div.Tag() != "div" {
		t.Fatalf("wrong root node: %v %q", div.Kind(), div.Tag())
	}
	if div.GetAttribute("class") != "card" {
		t.Errorf("attribute lost in parse")
	}
	if div.Text() != "Hello world" {
		t.Errorf("text content = %q", div.Text())
	}
}

func TestParseFragmentContextTag(t *testing.T) {
	// <li> only parses as a list item in list context.
	nodes, err := ParseFragment(`<li>a</li><li>b</li>`, "ul")
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if len(nodes) != 2 || nodes[0].Tag() != "li" || nodes[1].Tag() != "li" {
		t.Fatalf("li parsing in ul context failed: %d nodes", len(nodes))
	}
}

func TestParseFragmentKeepsWhitespaceAndComments(t *testing.T) {
	nodes, err := ParseFragment("<span>a</span> <!-- note --><span>b</span>", "")
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("expected span/text/comment/span, got %d nodes", len(nodes))
	}
	if nodes[1].Kind() != KindText || nodes[1].Data() != " " {
		t.Errorf("whitespace text node dropped")
	}
	if nodes[2].Kind() != KindComment {
		t.Errorf("comment node dropped")
	}
}

func TestParseUnescapesEntities(t *testing.T) {
	nodes, err := ParseFragment(`<p>a &amp; b</p>`, "")
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if nodes[0].Text() != "a & b" {
		t.Errorf("entities not decoded: %q", nodes[0].Text())
	}
}

func TestOuterHTMLRoundTrip(t *testing.T) {
	src := `<div class="card" id="x"><span>hi</span>there</div>`
	nodes, err := ParseFragment(src, "")
	if err != nil {
		t.Fatalf("ParseFragment: %v", err)
	}
	if got := nodes[0].OuterHTML(); got != src {
		t.Errorf("round trip changed markup:\n in: %s\nout: %s", src, got)
	}
}

func TestInnerHTML(t *testing.T) {
	div := NewElement("div")
	div.AppendChild(NewText("a"))
	span := NewElement("span")
	span.AppendChild(NewText("b"))
	div.AppendChild(span)

	if got := div.InnerHTML(); got != "a<span>b</span>" {
		t.Errorf("InnerHTML = %q", got)
	}
}

func TestRenderEscapes(t *testing.T) {
	div := NewElement("div")
	div.AppendChild(NewText("<script>"))
	if out := div.OuterHTML(); !strings.Contains(out, "&lt;script&gt;") {
		t.Errorf("text not escaped on render: %s", out)
	}
}
