package emitter

import "testing"

func TestEmitInRegistrationOrder(t *testing.T) {
	e := New()

	var order []string
	e.On("tick", func(...any) { order = append(order, "first") })
	e.On("tick", func(...any) { order = append(order, "second") })
	e.On("tick", func(...any) { order = append(order, "third") })

	e.Emit("tick")

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("expected %d handlers, ran %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("handler %d ran as %q, want %q", i, order[i], want[i])
		}
	}
}

func TestEmitPassesArgs(t *testing.T) {
	e := New()

	var got []any
	e.On("msg", func(args ...any) { got = args })
	e.Emit("msg", "hello", 42)

	if len(got) != 2 || got[0] != "hello" || got[1] != 42 {
		t.Errorf("handler received %v, want [hello 42]", got)
	}
}

func TestEmitUnregisteredIsNoOp(t *testing.T) {
	e := New()
	e.Emit("nobody-listens", 1, 2, 3) // must not panic
}

func TestStopRemovesHandler(t *testing.T) {
	e := New()

	calls := 0
	stop := e.On("x", func(...any) { calls++ })

	e.Emit("x")
	stop()
	stop() // idempotent
	e.Emit("x")

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestOffClearsAllHandlers(t *testing.T) {
	e := New()

	calls := 0
	e.On("x", func(...any) { calls++ })
	e.On("x", func(...any) { calls++ })

	e.Off("x")
	e.Emit("x")

	if calls != 0 {
		t.Errorf("Off should remove every handler, got %d calls", calls)
	}
}

func TestLastHandlerRemovalDeletesEntry(t *testing.T) {
	e := New()

	stop1 := e.On("x", func(...any) {})
	stop2 := e.On("x", func(...any) {})

	stop1()
	if len(e.Names()) != 1 {
		t.Fatalf("entry should survive while a handler remains")
	}

	stop2()
	if len(e.Names()) != 0 {
		t.Errorf("removing the last handler must delete the event entry, still have %v", e.Names())
	}
}

func TestListeners(t *testing.T) {
	e := New()
	if e.Listeners("x") != 0 {
		t.Fatalf("expected 0 listeners initially")
	}
	e.On("x", func(...any) {})
	e.On("x", func(...any) {})
	if e.Listeners("x") != 2 {
		t.Errorf("expected 2 listeners, got %d", e.Listeners("x"))
	}
}

func TestHandlersRegisteredDuringEmitDoNotRun(t *testing.T) {
	e := New()

	lateRan := false
	e.On("x", func(...any) {
		e.On("x", func(...any) { lateRan = true })
	})
	e.Emit("x")

	if lateRan {
		t.Errorf("handler registered during emit must not run in the same emit")
	}
}
