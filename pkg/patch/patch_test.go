package patch

import (
	"testing"

	"github.com/TarekRaafat/eleva/pkg/dom"
)

func mount(t *testing.T, markup string) *dom.Node {
	t.Helper()
	container := dom.NewElement("div")
	if err := Apply(container, markup); err != nil {
		t.Fatalf("initial apply failed: %v", err)
	}
	return container
}

func elems(n *dom.Node) []*dom.Node {
	var out []*dom.Node
	for _, c := range n.Children() {
		if c.Kind() == dom.KindElement {
			out = append(out, c)
		}
	}
	return out
}

func TestApplyNilContainer(t *testing.T) {
	if err := Apply(nil, "<p>x</p>"); err != ErrNilContainer {
		t.Errorf("expected ErrNilContainer, got %v", err)
	}
}

func TestApplyInitialRender(t *testing.T) {
	c := mount(t, `<h1>Title</h1><p class="lead">Body</p>`)
	kids := elems(c)
	if len(kids) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(kids))
	}
	if kids[0].Tag() != "h1" || kids[0].Text() != "Title" {
		t.Errorf("unexpected first child: %s %q", kids[0].Tag(), kids[0].Text())
	}
	if kids[1].GetAttribute("class") != "lead" {
		t.Errorf("expected class lead, got %q", kids[1].GetAttribute("class"))
	}
}

func TestApplyPatchesTextInPlace(t *testing.T) {
	c := mount(t, `<p>one</p>`)
	first := elems(c)[0]
	if err := Apply(c, `<p>two</p>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if got := elems(c)[0]; got != first {
		t.Error("expected the same element to survive the patch")
	}
	if first.Text() != "two" {
		t.Errorf("expected text %q, got %q", "two", first.Text())
	}
}

func TestApplyIdempotent(t *testing.T) {
	markup := `<ul><li key="a">A</li><li key="b">B</li></ul>`
	c := mount(t, markup)
	ul := elems(c)[0]
	before := elems(ul)
	if err := Apply(c, markup); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	after := elems(elems(c)[0])
	if len(before) != len(after) {
		t.Fatalf("child count changed: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("child %d was replaced by an identical render", i)
		}
	}
}

func TestApplyKeyedReorderMovesNodes(t *testing.T) {
	c := mount(t, `<ul><li key="a">A</li><li key="b">B</li><li key="c">C</li></ul>`)
	ul := elems(c)[0]
	byKey := map[string]*dom.Node{}
	for _, li := range elems(ul) {
		byKey[li.Key()] = li
	}
	if err := Apply(c, `<ul><li key="c">C</li><li key="a">A</li><li key="b">B</li></ul>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	got := elems(elems(c)[0])
	wantOrder := []string{"c", "a", "b"}
	for i, k := range wantOrder {
		if got[i].Key() != k {
			t.Errorf("position %d: expected key %q, got %q", i, k, got[i].Key())
		}
		if got[i] != byKey[k] {
			t.Errorf("position %d: key %q is a new node, expected the moved original", i, k)
		}
	}
}

func TestApplyKeyedInsertAndRemove(t *testing.T) {
	c := mount(t, `<ul><li key="a">A</li><li key="c">C</li></ul>`)
	ul := elems(c)[0]
	a := elems(ul)[0]
	if err := Apply(c, `<ul><li key="a">A</li><li key="b">B</li><li key="c">C</li></ul>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	lis := elems(elems(c)[0])
	if len(lis) != 3 {
		t.Fatalf("expected 3 items, got %d", len(lis))
	}
	if lis[0] != a {
		t.Error("expected key a to survive the insert")
	}
	if lis[1].Key() != "b" || lis[1].Text() != "B" {
		t.Errorf("unexpected inserted item %q %q", lis[1].Key(), lis[1].Text())
	}

	if err := Apply(c, `<ul><li key="c">C</li></ul>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	lis = elems(elems(c)[0])
	if len(lis) != 1 || lis[0].Key() != "c" {
		t.Fatalf("expected only key c to remain, got %d items", len(lis))
	}
}

func TestApplyReplacesOnTagMismatch(t *testing.T) {
	c := mount(t, `<span>x</span>`)
	old := elems(c)[0]
	if err := Apply(c, `<em>x</em>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	got := elems(c)[0]
	if got == old {
		t.Error("expected a replacement node on tag mismatch")
	}
	if got.Tag() != "em" {
		t.Errorf("expected em, got %s", got.Tag())
	}
}

func TestApplyAttributeSync(t *testing.T) {
	c := mount(t, `<input type="text" disabled value="a">`)
	in := elems(c)[0]
	if v, _ := in.Prop("disabled"); v != true {
		t.Error("expected disabled prop true after initial render")
	}
	if err := Apply(c, `<input type="text" value="b" placeholder="name">`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if elems(c)[0] != in {
		t.Fatal("input was replaced instead of patched")
	}
	if in.HasAttribute("disabled") {
		t.Error("expected disabled attribute removed")
	}
	if v, _ := in.Prop("disabled"); v != false {
		t.Error("expected disabled prop false after removal")
	}
	if in.GetAttribute("value") != "b" {
		t.Errorf("expected value b, got %q", in.GetAttribute("value"))
	}
	if in.GetAttribute("placeholder") != "name" {
		t.Errorf("expected placeholder set, got %q", in.GetAttribute("placeholder"))
	}
}

func TestApplyListenersSurvivePatch(t *testing.T) {
	c := mount(t, `<button>hit</button>`)
	btn := elems(c)[0]
	fired := 0
	btn.AddEventListener("click", func(*dom.Event) { fired++ })
	if err := Apply(c, `<button>hit again</button>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	btn.Dispatch("click", nil)
	if fired != 1 {
		t.Errorf("expected listener to survive, fired %d times", fired)
	}
}

func TestApplyProtectedSubtreeUntouched(t *testing.T) {
	c := mount(t, `<div class="child">inner</div><p>after</p>`)
	child := elems(c)[0]
	child.SetInstance(struct{}{})
	inner := child.Text()
	if err := Apply(c, `<div class="child">changed</div><p>after2</p>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	kids := elems(c)
	if kids[0] != child {
		t.Fatal("protected node was replaced")
	}
	if child.Text() != inner {
		t.Errorf("protected subtree was modified: %q", child.Text())
	}
	if kids[1].Text() != "after2" {
		t.Errorf("sibling was not patched: %q", kids[1].Text())
	}
}

func TestApplyProtectedNotRemoved(t *testing.T) {
	c := mount(t, `<div class="child">inner</div>`)
	child := elems(c)[0]
	child.SetInstance(struct{}{})
	if err := Apply(c, ``); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(elems(c)) != 1 || elems(c)[0] != child {
		t.Error("protected node should survive an empty render")
	}
}

func TestApplyProtectedNotMovedByKey(t *testing.T) {
	c := mount(t, `<p key="x">a</p><div key="k">owned</div><p key="y">b</p>`)
	child := elems(c)[1]
	child.SetInstance(struct{}{})
	if err := Apply(c, `<div key="k">other</div><p key="x">a</p><p key="y">b</p>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	kids := elems(c)
	if kids[0] == child {
		t.Fatal("a matching key must not relocate a node owned by a child component")
	}
	if kids[2] != child || child.Text() != "owned" {
		t.Errorf("owned node must stay in place untouched, got %v", kids)
	}
}

func TestApplyScopedStyleNotRemoved(t *testing.T) {
	c := mount(t, `<p>body</p>`)
	style := dom.NewElement("style")
	style.MarkScopedStyle()
	c.AppendChild(style)
	if err := Apply(c, `<p>body2</p>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	found := false
	for _, k := range c.Children() {
		if k == style {
			found = true
		}
	}
	if !found {
		t.Error("scoped style element was removed by the patch")
	}
}

func TestApplyNestedReconciliation(t *testing.T) {
	c := mount(t, `<div><span>a</span><span>b</span></div>`)
	outer := elems(c)[0]
	spans := elems(outer)
	if err := Apply(c, `<div><span>a</span><span>b2</span><span>c</span></div>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	got := elems(elems(c)[0])
	if len(got) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(got))
	}
	if got[0] != spans[0] || got[1] != spans[1] {
		t.Error("expected the first two spans to be patched in place")
	}
	if got[1].Text() != "b2" {
		t.Errorf("expected b2, got %q", got[1].Text())
	}
}

func TestApplyEventAttrsFlowThrough(t *testing.T) {
	c := mount(t, `<button @click="inc">+</button>`)
	btn := elems(c)[0]
	if btn.GetAttribute("@click") != "inc" {
		t.Errorf("expected @click attribute preserved, got %q", btn.GetAttribute("@click"))
	}
	// The mount layer strips the attribute after binding; the next
	// patch writes it back from the fresh markup.
	btn.RemoveAttribute("@click")
	if err := Apply(c, `<button @click="inc">+</button>`); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if btn.GetAttribute("@click") != "inc" {
		t.Error("expected @click restored by the patch")
	}
}
