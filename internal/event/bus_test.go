package event

import (
	"testing"
)

func TestBus_EmitInRegistrationOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	bus.On("dataUpdated", func(any) { order = append(order, 1) })
	bus.On("dataUpdated", func(any) { order = append(order, 2) })
	bus.On("dataUpdated", func(any) { order = append(order, 3) })

	bus.Emit("dataUpdated", nil)

	if len(order) != 3 {
		t.Fatalf("expected 3 invocations, got %d", len(order))
	}
	for i, got := range order {
		if got != i+1 {
			t.Errorf("position %d: expected handler %d, got %d", i, i+1, got)
		}
	}
}

func TestBus_EmitPassesData(t *testing.T) {
	bus := NewBus()

	var got any
	bus.On("settingsChanged", func(data any) { got = data })

	bus.Emit("settingsChanged", 42)

	if got != 42 {
		t.Errorf("expected 42, got %v", got)
	}
}

func TestBus_EmitOnlyMatchingName(t *testing.T) {
	bus := NewBus()

	calls := 0
	bus.On("a", func(any) { calls++ })

	bus.Emit("b", nil)

	if calls != 0 {
		t.Errorf("handler for 'a' invoked on emit of 'b'")
	}
}

func TestBus_DisposerRemovesHandler(t *testing.T) {
	bus := NewBus()

	calls := 0
	off := bus.On("x", func(any) { calls++ })

	bus.Emit("x", nil)
	off()
	bus.Emit("x", nil)

	if calls != 1 {
		t.Errorf("expected 1 call after dispose, got %d", calls)
	}
}

func TestBus_DisposerIdempotent(t *testing.T) {
	bus := NewBus()

	bus.On("x", func(any) {})
	off := bus.On("x", func(any) {})
	off()
	off()

	if n := bus.HandlerCount("x"); n != 1 {
		t.Errorf("expected 1 remaining handler, got %d", n)
	}
}

func TestBus_DisposerRemovesOnlyItsRegistration(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.On("x", func(any) { order = append(order, "first") })
	off := bus.On("x", func(any) { order = append(order, "second") })
	bus.On("x", func(any) { order = append(order, "third") })

	off()
	bus.Emit("x", nil)

	if len(order) != 2 || order[0] != "first" || order[1] != "third" {
		t.Errorf("unexpected invocations after dispose: %v", order)
	}
}

func TestBus_HandlerRegisteredDuringEmitNotInvoked(t *testing.T) {
	bus := NewBus()

	lateCalls := 0
	bus.On("x", func(any) {
		bus.On("x", func(any) { lateCalls++ })
	})

	bus.Emit("x", nil)

	if lateCalls != 0 {
		t.Errorf("handler registered mid-emit was invoked for that emission")
	}

	bus.Emit("x", nil)
	if lateCalls != 1 {
		t.Errorf("late handler should run on the next emission, got %d calls", lateCalls)
	}
}

func TestBus_SameHandlerRegisteredTwiceRunsTwice(t *testing.T) {
	bus := NewBus()

	calls := 0
	h := func(any) { calls++ }
	bus.On("x", h)
	bus.On("x", h)

	bus.Emit("x", nil)

	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}
