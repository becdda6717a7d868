package eleva

import (
	"strings"
	"testing"

	"github.com/TarekRaafat/eleva/pkg/dom"
)

func counterDef(app *Eleva) *ComponentDefinition {
	return &ComponentDefinition{
		Setup: func(ctx *Context) (map[string]any, error) {
			count := ctx.NewCell(float64(0))
			return map[string]any{
				"count": count,
				"inc": func() {
					count.Set(count.Get().(float64) + 1)
				},
			}, nil
		},
		Template: Static(`<button @click="inc">count: {{ count.value }}</button>`),
	}
}

func TestMountRendersTemplate(t *testing.T) {
	app := New("test")
	c := dom.NewElement("div")
	m, err := app.Mount(c, counterDef(app), nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	btn := c.QuerySelector("button")
	if btn == nil {
		t.Fatal("expected a button in the rendered tree")
	}
	if got := btn.Text(); got != "count: 0" {
		t.Errorf("expected %q, got %q", "count: 0", got)
	}
	if c.Instance() != m {
		t.Error("expected the container to carry the instance")
	}
}

func TestMountIdempotent(t *testing.T) {
	app := New("test")
	def := counterDef(app)
	c := dom.NewElement("div")
	m1, err := app.Mount(c, def, nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	m2, err := app.Mount(c, def, nil)
	if err != nil {
		t.Fatalf("second mount failed: %v", err)
	}
	if m1 != m2 {
		t.Error("expected the same instance from a repeated mount")
	}
}

func TestMountReplacesDifferentComponent(t *testing.T) {
	app := New("test")
	c := dom.NewElement("div")
	if _, err := app.Mount(c, &ComponentDefinition{Template: Static("<p>a</p>")}, nil); err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	m2, err := app.Mount(c, &ComponentDefinition{Template: Static("<em>b</em>")}, nil)
	if err != nil {
		t.Fatalf("remount failed: %v", err)
	}
	if c.Instance() != m2 {
		t.Error("expected the new instance to own the container")
	}
	if c.QuerySelector("em") == nil || c.QuerySelector("p") != nil {
		t.Errorf("expected replacement render, got %q", c.InnerHTML())
	}
}

func TestStateChangeRerenders(t *testing.T) {
	app := New("test")
	c := dom.NewElement("div")
	m, err := app.Mount(c, counterDef(app), nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	btn := c.QuerySelector("button")

	m.Data["count"].(interface{ Set(any) }).Set(float64(3))
	app.Scheduler().Wait()

	if got := c.QuerySelector("button"); got != btn {
		t.Error("expected the button to be patched in place")
	}
	if got := btn.Text(); got != "count: 3" {
		t.Errorf("expected %q, got %q", "count: 3", got)
	}
}

func TestEventBindingRoundTrip(t *testing.T) {
	app := New("test")
	c := dom.NewElement("div")
	if _, err := app.Mount(c, counterDef(app), nil); err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	btn := c.QuerySelector("button")
	if btn.HasAttribute("@click") {
		t.Error("expected the event attribute stripped after binding")
	}

	btn.Dispatch("click", nil)
	app.Scheduler().Wait()
	if got := btn.Text(); got != "count: 1" {
		t.Errorf("expected %q after click, got %q", "count: 1", got)
	}

	// Two more renders must not stack duplicate listeners.
	btn.Dispatch("click", nil)
	app.Scheduler().Wait()
	btn.Dispatch("click", nil)
	app.Scheduler().Wait()
	if got := btn.Text(); got != "count: 3" {
		t.Errorf("expected %q, got %q", "count: 3", got)
	}
	if n := btn.ListenerCount("click"); n != 1 {
		t.Errorf("expected a single click listener, got %d", n)
	}
}

func TestBatchedWritesSingleRender(t *testing.T) {
	app := New("test")
	renders := 0
	def := &ComponentDefinition{
		Setup: func(ctx *Context) (map[string]any, error) {
			n := ctx.NewCell(float64(0))
			return map[string]any{
				"n":        n,
				"onUpdate": func() { renders++ },
			}, nil
		},
		Template: Static(`<p>{{ n.value }}</p>`),
	}
	c := dom.NewElement("div")
	m, err := app.Mount(c, def, nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	// Hold the scheduler so the three writes coalesce into one flush.
	gate := make(chan struct{})
	app.Scheduler().Enqueue(func() { <-gate })
	cell := m.Data["n"].(interface{ Set(any) })
	cell.Set(float64(1))
	cell.Set(float64(2))
	cell.Set(float64(3))
	close(gate)
	app.Scheduler().Wait()

	if got := c.QuerySelector("p").Text(); got != "3" {
		t.Errorf("expected final value 3, got %q", got)
	}
	if renders != 1 {
		t.Errorf("expected one coalesced render, got %d", renders)
	}
}

func TestLifecycleOrdering(t *testing.T) {
	app := New("test")
	var order []string
	var container *dom.Node
	def := &ComponentDefinition{
		Setup: func(ctx *Context) (map[string]any, error) {
			n := ctx.NewCell(float64(0))
			return map[string]any{
				"n": n,
				"onBeforeMount": func() {
					order = append(order, "beforeMount")
					if len(container.Children()) != 0 {
						t.Error("expected no render before onBeforeMount")
					}
				},
				"onMount": func() {
					order = append(order, "mount")
					if container.QuerySelector("p") == nil {
						t.Error("expected rendered content by onMount")
					}
				},
				"onBeforeUpdate": func() { order = append(order, "beforeUpdate") },
				"onUpdate":       func() { order = append(order, "update") },
				"onUnmount":      func() { order = append(order, "unmount") },
			}, nil
		},
		Template: Static(`<p>{{ n.value }}</p>`),
	}
	container = dom.NewElement("div")
	m, err := app.Mount(container, def, nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	m.Data["n"].(interface{ Set(any) }).Set(float64(1))
	app.Scheduler().Wait()
	if err := m.Unmount(); err != nil {
		t.Fatalf("unmount failed: %v", err)
	}

	want := []string{"beforeMount", "mount", "beforeUpdate", "update", "unmount"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestUnmountCascade(t *testing.T) {
	app := New("test")
	c := dom.NewElement("div")
	m, err := app.Mount(c, counterDef(app), nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	var unmounted []any
	app.Emitter().On("component:unmount", func(args ...any) {
		unmounted = append(unmounted, args[0])
	})

	cell := m.Data["count"].(interface{ Set(any) })
	if err := m.Unmount(); err != nil {
		t.Fatalf("unmount failed: %v", err)
	}
	if len(c.Children()) != 0 {
		t.Error("expected container emptied on unmount")
	}
	if c.Instance() != nil {
		t.Error("expected container released on unmount")
	}
	if len(unmounted) != 1 {
		t.Errorf("expected one unmount event, got %d", len(unmounted))
	}

	// A write after unmount must not render into the released container.
	cell.Set(float64(9))
	app.Scheduler().Wait()
	if len(c.Children()) != 0 {
		t.Error("expected no render after unmount")
	}

	if err := m.Unmount(); err != nil {
		t.Errorf("expected repeated unmount to be a no-op, got %v", err)
	}
	if len(unmounted) != 1 {
		t.Error("expected no second unmount event")
	}
}

func TestPropsInTemplate(t *testing.T) {
	app := New("test")
	def := &ComponentDefinition{
		Template: Static(`<p>{{ props.title }}</p>`),
	}
	c := dom.NewElement("div")
	if _, err := app.Mount(c, def, map[string]any{"title": "hello"}); err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if got := c.QuerySelector("p").Text(); got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

func TestChildComponents(t *testing.T) {
	app := New("test")
	child := &ComponentDefinition{
		Setup: func(ctx *Context) (map[string]any, error) {
			return map[string]any{"props": ctx.Props}, nil
		},
		Template: Static(`<span>item {{ props.label }}</span>`),
	}
	if err := app.Register("item", child); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	parent := &ComponentDefinition{
		Setup: func(ctx *Context) (map[string]any, error) {
			title := ctx.NewCell("list")
			return map[string]any{"title": title, "label": "one"}, nil
		},
		Template: Static(`<h1>{{ title.value }}</h1><div class="slot" :label="label"></div>`),
		Children: map[string]any{".slot": "item"},
	}
	c := dom.NewElement("div")
	m, err := app.Mount(c, parent, nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}

	slot := c.QuerySelector(".slot")
	if slot == nil {
		t.Fatal("expected the child slot in the tree")
	}
	if !slot.Protected() {
		t.Error("expected the slot to be claimed by the child instance")
	}
	if slot.HasAttribute(":label") {
		t.Error("expected the prop attribute stripped")
	}
	span := slot.QuerySelector("span")
	if span == nil || span.Text() != "item one" {
		t.Fatalf("expected child render with props, got %q", slot.InnerHTML())
	}

	// A parent re-render patches around the child without touching it.
	m.Data["title"].(interface{ Set(any) }).Set("list2")
	app.Scheduler().Wait()
	if got := c.QuerySelector(".slot"); got != slot {
		t.Error("expected the child container to survive the parent render")
	}
	if span.Text() != "item one" {
		t.Errorf("expected child content untouched, got %q", span.Text())
	}

	// Unmounting the parent cascades into the child.
	if err := m.Unmount(); err != nil {
		t.Fatalf("unmount failed: %v", err)
	}
	if slot.Instance() != nil {
		t.Error("expected the child released by the cascade")
	}
}

func TestScopedStyleInjection(t *testing.T) {
	app := New("test")
	def := &ComponentDefinition{
		Setup: func(ctx *Context) (map[string]any, error) {
			n := ctx.NewCell(float64(0))
			return map[string]any{"n": n}, nil
		},
		Template: Static(`<p>{{ n.value }}</p>`),
		Style:    Static(`p { color: red; }`),
	}
	c := dom.NewElement("div")
	m, err := app.Mount(c, def, nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	kids := c.Children()
	last := kids[len(kids)-1]
	if last.Tag() != "style" || !last.IsScopedStyle() {
		t.Fatalf("expected a scoped style element last, got %q", last.Tag())
	}
	if !strings.Contains(last.Text(), "color: red") {
		t.Errorf("unexpected style text %q", last.Text())
	}

	m.Data["n"].(interface{ Set(any) }).Set(float64(1))
	app.Scheduler().Wait()
	kids = c.Children()
	if got := kids[len(kids)-1]; got != last {
		t.Error("expected the style element to survive re-renders")
	}
	styles := 0
	for _, k := range c.Children() {
		if k.IsScopedStyle() {
			styles++
		}
	}
	if styles != 1 {
		t.Errorf("expected exactly one scoped style element, got %d", styles)
	}
}

func TestMountAndUpdateEvents(t *testing.T) {
	app := New("test")
	var events []string
	app.Emitter().On("component:mount", func(...any) { events = append(events, "mount") })
	app.Emitter().On("component:update", func(...any) { events = append(events, "update") })

	c := dom.NewElement("div")
	m, err := app.Mount(c, counterDef(app), nil)
	if err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	m.Data["count"].(interface{ Set(any) }).Set(float64(1))
	app.Scheduler().Wait()

	if len(events) != 2 || events[0] != "mount" || events[1] != "update" {
		t.Errorf("expected [mount update], got %v", events)
	}
}
