package ebitenbackend

import (
	"testing"

	"github.com/arborengine/arbor"
)

func TestSupports(t *testing.T) {
	b := New()
	if !b.Supports(arbor.Layer2D) || !b.Supports(arbor.LayerUI) {
		t.Error("2D and UI layers should be supported")
	}
	if b.Supports(arbor.Layer3D) || b.Supports(arbor.LayerNone) {
		t.Error("3D and none should be declined")
	}
}

func TestLayerBookkeeping(t *testing.T) {
	b := New()
	a := arbor.NewNode2D("a")
	c := arbor.NewNode2D("c")
	ha := b.CreateHandle(a)
	hc := b.CreateHandle(c)

	b.AddToLayer(ha, arbor.Layer2D)
	b.AddToLayer(hc, arbor.Layer2D)
	if got := b.LayerCount(arbor.Layer2D); got != 2 {
		t.Fatalf("LayerCount = %d, want 2", got)
	}

	b.RemoveFromLayer(ha, arbor.Layer2D)
	if got := b.LayerCount(arbor.Layer2D); got != 1 {
		t.Fatalf("LayerCount = %d, want 1", got)
	}
	// Removing an unknown handle is a no-op.
	b.RemoveFromLayer(ha, arbor.Layer2D)
	if got := b.LayerCount(arbor.Layer2D); got != 1 {
		t.Fatalf("LayerCount = %d, want 1", got)
	}

	b.DestroyHandle(hc)
	if hc.(*Handle).Node != nil {
		t.Error("DestroyHandle should clear the node reference")
	}
}

func TestForeignHandleIgnored(t *testing.T) {
	b := New()
	b.AddToLayer("not a handle", arbor.Layer2D)
	if got := b.LayerCount(arbor.Layer2D); got != 0 {
		t.Fatalf("LayerCount = %d, want 0", got)
	}
	b.RemoveFromLayer(42, arbor.Layer2D)
	b.DestroyHandle(nil)
}
