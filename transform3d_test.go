package arbor

import (
	"math"
	"testing"
)

func approxVec3(t *testing.T, got, want Vec3, tol float64, what string) {
	t.Helper()
	approxEq(t, got.X, want.X, tol, what+".X")
	approxEq(t, got.Y, want.Y, tol, what+".Y")
	approxEq(t, got.Z, want.Z, tol, what+".Z")
}

func TestMat3DIdentity(t *testing.T) {
	p := identity3D.Apply(Vec3{1, 2, 3})
	approxVec3(t, p, Vec3{1, 2, 3}, epsilon, "identity apply")
}

func TestMat3DInvertRoundTrip(t *testing.T) {
	tf := Transform3D{
		Position: Vec3{4, -2, 9},
		Rotation: Vec3{0.3, -0.6, 1.2},
		Scale:    Vec3{2, 0.5, 3},
	}
	m := tf.Matrix()
	inv := m.Invert()
	p := Vec3{1, 2, 3}
	approxVec3(t, inv.Apply(m.Apply(p)), p, 1e-8, "invert round trip")
}

func TestGlobalTransform3DTranslationComposes(t *testing.T) {
	parent := NewNode3D("parent")
	child := NewNode3D("child")
	_ = parent.AddChild(child)
	parent.SetPosition3D(Vec3{10, 20, 30})
	child.SetPosition3D(Vec3{1, 2, 3})
	approxVec3(t, child.GlobalPosition3D(), Vec3{11, 22, 33}, epsilon, "child global")
}

func TestGlobalTransform3DRotationAboutZ(t *testing.T) {
	parent := NewNode3D("parent")
	child := NewNode3D("child")
	_ = parent.AddChild(child)
	parent.SetRotation3D(Vec3{0, 0, math.Pi / 2})
	child.SetPosition3D(Vec3{1, 0, 0})
	approxVec3(t, child.GlobalPosition3D(), Vec3{0, 1, 0}, 1e-9, "rotated child global")
}

func TestGlobalTransform3DInvalidation(t *testing.T) {
	parent := NewNode3D("parent")
	child := NewNode3D("child")
	_ = parent.AddChild(child)
	child.SetPosition3D(Vec3{1, 1, 1})
	approxVec3(t, child.GlobalPosition3D(), Vec3{1, 1, 1}, epsilon, "before move")
	parent.SetPosition3D(Vec3{5, 5, 5})
	approxVec3(t, child.GlobalPosition3D(), Vec3{6, 6, 6}, epsilon, "after move")
}

func TestSetGlobalPosition3D(t *testing.T) {
	parent := NewNode3D("parent")
	child := NewNode3D("child")
	_ = parent.AddChild(child)
	parent.SetPosition3D(Vec3{10, 0, 0})
	child.SetGlobalPosition3D(Vec3{15, 5, -5})
	approxVec3(t, child.GlobalPosition3D(), Vec3{15, 5, -5}, 1e-9, "global after set")
	approxVec3(t, child.Position3D(), Vec3{5, 5, -5}, 1e-9, "local after set")
}

func TestToLocalToGlobal3DRoundTrip(t *testing.T) {
	n := NewNode3D("n")
	n.SetPosition3D(Vec3{3, 4, 5})
	n.SetRotation3D(Vec3{0.2, 0.4, 0.6})
	n.SetScale3D(Vec3{2, 2, 2})

	world := Vec3{-1, 7, 2}
	approxVec3(t, n.ToGlobal3D(n.ToLocal3D(world)), world, 1e-8, "round trip")
}
