package arbor

import "math"

// Mat2D is a 2D affine matrix in [a, b, c, d, tx, ty] layout:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Mat2D [6]float64

// identity2D is the identity affine matrix.
var identity2D = Mat2D{1, 0, 0, 1, 0, 0}

// Mul returns m * o (o applied first).
func (m Mat2D) Mul(o Mat2D) Mat2D {
	return Mat2D{
		m[0]*o[0] + m[2]*o[1],
		m[1]*o[0] + m[3]*o[1],
		m[0]*o[2] + m[2]*o[3],
		m[1]*o[2] + m[3]*o[3],
		m[0]*o[4] + m[2]*o[5] + m[4],
		m[1]*o[4] + m[3]*o[5] + m[5],
	}
}

// Invert computes the inverse of the matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func (m Mat2D) Invert() Mat2D {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identity2D
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Mat2D{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// Apply transforms the point p by the matrix.
func (m Mat2D) Apply(p Vec2) Vec2 {
	return Vec2{
		m[0]*p.X + m[2]*p.Y + m[4],
		m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Transform2D is the local 2D transform value type: position, rotation
// (radians), and scale. The local transform is authoritative; global
// transforms are always derived from the ancestor chain.
type Transform2D struct {
	Position Vec2
	Rotation float64
	Scale    Vec2
}

// Matrix composes the transform into an affine matrix: rotate, then scale,
// then translate.
func (t Transform2D) Matrix() Mat2D {
	sin, cos := math.Sincos(t.Rotation)
	return Mat2D{
		cos * t.Scale.X,
		sin * t.Scale.X,
		-sin * t.Scale.Y,
		cos * t.Scale.Y,
		t.Position.X,
		t.Position.Y,
	}
}

// --- Node 2D transform accessors ---

// Local2D returns the node's local 2D transform.
func (n *Node) Local2D() Transform2D { return n.local2 }

// SetLocal2D replaces the node's local 2D transform and invalidates the
// cached global transforms of this node and all descendants.
func (n *Node) SetLocal2D(t Transform2D) {
	n.local2 = t
	markSubtreeDirty(n)
}

// Position2D returns the local 2D position.
func (n *Node) Position2D() Vec2 { return n.local2.Position }

// SetPosition2D sets the local 2D position.
func (n *Node) SetPosition2D(p Vec2) {
	n.local2.Position = p
	markSubtreeDirty(n)
}

// Rotation2D returns the local rotation in radians.
func (n *Node) Rotation2D() float64 { return n.local2.Rotation }

// SetRotation2D sets the local rotation in radians.
func (n *Node) SetRotation2D(r float64) {
	n.local2.Rotation = r
	markSubtreeDirty(n)
}

// Scale2D returns the local 2D scale.
func (n *Node) Scale2D() Vec2 { return n.local2.Scale }

// SetScale2D sets the local 2D scale.
func (n *Node) SetScale2D(s Vec2) {
	n.local2.Scale = s
	markSubtreeDirty(n)
}

// GlobalTransform2D returns the node's global affine matrix, composing the
// local transforms of the nearest 2D ancestor chain. The result is cached;
// reads recompute lazily after any invalidation, so a descendant never
// observes a stale ancestor result.
func (n *Node) GlobalTransform2D() Mat2D {
	if !n.global2Dirty {
		return n.global2
	}
	parentMat := identity2D
	if p := n.parent2D(); p != nil {
		parentMat = p.GlobalTransform2D()
	}
	n.global2 = parentMat.Mul(n.local2.Matrix())
	n.global2Dirty = false
	return n.global2
}

// GlobalPosition2D returns the node's origin in global space.
func (n *Node) GlobalPosition2D() Vec2 {
	m := n.GlobalTransform2D()
	return Vec2{m[4], m[5]}
}

// SetGlobalPosition2D sets the local position so that the node's global
// origin lands on p: local = parentGlobal⁻¹ applied to p.
func (n *Node) SetGlobalPosition2D(p Vec2) {
	parentMat := identity2D
	if pa := n.parent2D(); pa != nil {
		parentMat = pa.GlobalTransform2D()
	}
	n.SetPosition2D(parentMat.Invert().Apply(p))
}

// ToLocal2D converts a global-space point into this node's local space.
// Pure: never mutates state beyond the lazy cache refresh.
func (n *Node) ToLocal2D(global Vec2) Vec2 {
	return n.GlobalTransform2D().Invert().Apply(global)
}

// ToGlobal2D converts a local-space point into global space.
func (n *Node) ToGlobal2D(local Vec2) Vec2 {
	return n.GlobalTransform2D().Apply(local)
}

// ScreenToWorld2D converts a screen point to this node's local space using
// the supplied camera projection.
func (n *Node) ScreenToWorld2D(cam CameraProjection, screen Vec2) Vec2 {
	return n.ToLocal2D(cam.Unproject(screen))
}

// WorldToScreen2D converts a point in this node's local space to screen
// space using the supplied camera projection.
func (n *Node) WorldToScreen2D(cam CameraProjection, local Vec2) Vec2 {
	return cam.Project(n.ToGlobal2D(local))
}

// parent2D returns the nearest ancestor carrying a 2D transform. Plain and
// 3D ancestors are transparent to 2D composition.
func (n *Node) parent2D() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindNode2D || p.Kind == KindControl {
			return p
		}
	}
	return nil
}
