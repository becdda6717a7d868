package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/TarekRaafat/eleva"
	"github.com/TarekRaafat/eleva/pkg/dom"
)

func counterModule() Module {
	return Module{
		State: map[string]any{"count": float64(0)},
		Actions: map[string]Action{
			"increment": func(s *Store, payload any) error {
				cur, err := s.Get("counter", "count")
				if err != nil {
					return err
				}
				step := float64(1)
				if f, ok := payload.(float64); ok {
					step = f
				}
				return s.Set("counter", "count", cur.(float64)+step)
			},
		},
	}
}

func installed(t *testing.T, p Persister) (*eleva.Eleva, *Store) {
	t.Helper()
	app := eleva.New("test")
	s := New(p)
	if err := app.Use(s, nil); err != nil {
		t.Fatalf("install failed: %v", err)
	}
	return app, s
}

func TestRegisterAndGetSet(t *testing.T) {
	_, s := installed(t, nil)
	if err := s.RegisterModule("counter", counterModule()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	v, err := s.Get("counter", "count")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v != float64(0) {
		t.Errorf("expected 0, got %v", v)
	}
	if err := s.Set("counter", "count", float64(5)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	v, _ = s.Get("counter", "count")
	if v != float64(5) {
		t.Errorf("expected 5, got %v", v)
	}
	if _, err := s.Get("counter", "missing"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey, got %v", err)
	}
}

func TestRegisterInvalidNamespace(t *testing.T) {
	_, s := installed(t, nil)
	for _, ns := range []string{"", "a.b", "a/b"} {
		if err := s.RegisterModule(ns, Module{}); err == nil {
			t.Errorf("expected error for namespace %q", ns)
		}
	}
}

func TestDispatch(t *testing.T) {
	_, s := installed(t, nil)
	if err := s.RegisterModule("counter", counterModule()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Dispatch("counter/increment", nil); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if err := s.Dispatch("counter/increment", float64(10)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	v, _ := s.Get("counter", "count")
	if v != float64(11) {
		t.Errorf("expected 11, got %v", v)
	}

	if err := s.Dispatch("counter/missing", nil); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
	if err := s.Dispatch("increment", nil); !errors.Is(err, ErrBadActionName) {
		t.Errorf("expected ErrBadActionName, got %v", err)
	}
}

func TestDispatchActionError(t *testing.T) {
	_, s := installed(t, nil)
	err := s.RegisterModule("m", Module{
		Actions: map[string]Action{
			"fail": func(*Store, any) error { return fmt.Errorf("boom") },
		},
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Dispatch("m/fail", nil); err == nil {
		t.Error("expected the action error surfaced")
	}
}

func TestCellDrivesComponent(t *testing.T) {
	app, s := installed(t, nil)
	if err := s.RegisterModule("counter", counterModule()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	def := &eleva.ComponentDefinition{
		Setup: func(ctx *eleva.Context) (map[string]any, error) {
			st := ctx.Get("store").(*Store)
			cell, err := st.Cell("counter", "count")
			if err != nil {
				return nil, err
			}
			return map[string]any{"count": cell}, nil
		},
		Template: eleva.Static(`<p>{{ count.value }}</p>`),
	}
	c := dom.NewElement("div")
	if _, err := app.Mount(c, def, nil); err != nil {
		t.Fatalf("mount failed: %v", err)
	}
	if got := c.QuerySelector("p").Text(); got != "0" {
		t.Errorf("expected 0, got %q", got)
	}

	if err := s.Dispatch("counter/increment", float64(3)); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	app.Scheduler().Wait()
	if got := c.QuerySelector("p").Text(); got != "3" {
		t.Errorf("expected dispatch to re-render, got %q", got)
	}
}

func TestFilePersisterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	p := NewFilePersister(path)

	snap, err := p.Load()
	if err != nil {
		t.Fatalf("load of missing file failed: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("expected empty snapshot, got %v", snap)
	}

	if err := p.Save(map[string]any{"counter.count": float64(7)}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	snap, err = p.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap["counter.count"] != float64(7) {
		t.Errorf("expected 7, got %v", snap["counter.count"])
	}
}

func TestPersistedStateRestored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	_, s := installed(t, NewFilePersister(path))
	if err := s.RegisterModule("counter", counterModule()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := s.Set("counter", "count", float64(9)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	// A second application restores the persisted value over the
	// module's initial state.
	_, s2 := installed(t, NewFilePersister(path))
	if err := s2.RegisterModule("counter", counterModule()); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	v, err := s2.Get("counter", "count")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if v != float64(9) {
		t.Errorf("expected restored value 9, got %v", v)
	}
}
