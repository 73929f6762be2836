package arbor

import (
	"errors"
	"testing"
)

func TestSignalEmitOrder(t *testing.T) {
	n := NewNode("n")
	n.AddSignal("fired")

	var order []int
	for i := 0; i < 3; i++ {
		idx := i
		if _, err := n.Connect("fired", func(...any) { order = append(order, idx) }); err != nil {
			t.Fatalf("Connect: %v", err)
		}
	}
	n.Emit("fired")
	for i := range order {
		if order[i] != i {
			t.Fatalf("order = %v, want subscription order", order)
		}
	}
}

func TestSignalArgs(t *testing.T) {
	n := NewNode("n")
	n.AddSignal("scored")
	var got []any
	_, _ = n.Connect("scored", func(args ...any) { got = args })
	n.Emit("scored", 42, "bonus")
	if len(got) != 2 || got[0] != 42 || got[1] != "bonus" {
		t.Errorf("args = %v, want [42 bonus]", got)
	}
}

func TestSignalDisconnect(t *testing.T) {
	n := NewNode("n")
	n.AddSignal("fired")
	calls := 0
	id, _ := n.Connect("fired", func(...any) { calls++ })
	n.Emit("fired")
	n.Disconnect("fired", id)
	n.Emit("fired")
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n.ConnectionCount("fired") != 0 {
		t.Error("connection should be gone")
	}
}

func TestSignalDisconnectDuringEmit(t *testing.T) {
	n := NewNode("n")
	n.AddSignal("fired")

	var calls []string
	var firstID int
	firstID, _ = n.Connect("fired", func(...any) {
		calls = append(calls, "first")
		n.Disconnect("fired", firstID)
	})
	_, _ = n.Connect("fired", func(...any) { calls = append(calls, "second") })
	_, _ = n.Connect("fired", func(...any) { calls = append(calls, "third") })

	n.Emit("fired")
	want := []string{"first", "second", "third"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}

	calls = nil
	n.Emit("fired")
	if len(calls) != 2 {
		t.Errorf("after self-disconnect, calls = %v, want the two remaining handlers", calls)
	}
}

func TestSignalConnectUndeclared(t *testing.T) {
	n := NewNode("n")
	_, err := n.Connect("nope", func(...any) {})
	var lerr *LifecycleError
	if !errors.As(err, &lerr) {
		t.Fatalf("expected LifecycleError, got %v", err)
	}
}

func TestSignalEmitUndeclaredIsNoop(t *testing.T) {
	n := NewNode("n")
	n.Emit("nope") // must not panic
}

func TestSignalAddTwiceKeepsConnections(t *testing.T) {
	n := NewNode("n")
	n.AddSignal("fired")
	_, _ = n.Connect("fired", func(...any) {})
	n.AddSignal("fired")
	if n.ConnectionCount("fired") != 1 {
		t.Error("re-declaring a signal must not drop connections")
	}
}

func TestSignalPanicIsolation(t *testing.T) {
	n := NewNode("n")
	n.AddSignal("fired")
	var after bool
	_, _ = n.Connect("fired", func(...any) { panic("boom") })
	_, _ = n.Connect("fired", func(...any) { after = true })
	n.Emit("fired")
	if !after {
		t.Error("a panicking handler must not block later handlers")
	}
}

func TestBuiltinChildSignals(t *testing.T) {
	parent := NewNode("parent")
	child := NewNode("child")

	var added *Node
	var parentChanges int
	_, _ = parent.Connect(SignalChildAdded, func(args ...any) {
		added, _ = args[0].(*Node)
	})
	_, _ = child.Connect(SignalParentChanged, func(...any) { parentChanges++ })

	_ = parent.AddChild(child)
	if added != child {
		t.Error("child_added should carry the new child")
	}
	if parentChanges != 1 {
		t.Errorf("parent_changed fired %d times, want 1", parentChanges)
	}
	_ = parent.RemoveChild(child)
	if parentChanges != 2 {
		t.Errorf("parent_changed fired %d times after removal, want 2", parentChanges)
	}
}
