package arbor

import "math"

// Mat3D is a row-major 4x4 affine matrix; the bottom row is implied to stay
// (0, 0, 0, 1) by every constructor and operation here.
type Mat3D [16]float64

// identity3D is the identity matrix.
var identity3D = Mat3D{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Mul returns m * o (o applied first).
func (m Mat3D) Mul(o Mat3D) Mat3D {
	var r Mat3D
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += m[row*4+k] * o[k*4+col]
			}
			r[row*4+col] = sum
		}
	}
	return r
}

// Apply transforms the point p by the matrix.
func (m Mat3D) Apply(p Vec3) Vec3 {
	return Vec3{
		m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// Invert computes the affine inverse: the upper 3x3 is inverted and the
// translation column solved against it. Returns the identity matrix if the
// upper 3x3 is singular.
func (m Mat3D) Invert() Mat3D {
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[4], m[5], m[6]
	g, h, i := m[8], m[9], m[10]

	det := a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
	if det > -1e-12 && det < 1e-12 {
		return identity3D
	}
	inv := 1.0 / det

	r0 := (e*i - f*h) * inv
	r1 := (c*h - b*i) * inv
	r2 := (b*f - c*e) * inv
	r3 := (f*g - d*i) * inv
	r4 := (a*i - c*g) * inv
	r5 := (c*d - a*f) * inv
	r6 := (d*h - e*g) * inv
	r7 := (b*g - a*h) * inv
	r8 := (a*e - b*d) * inv

	tx, ty, tz := m[3], m[7], m[11]
	return Mat3D{
		r0, r1, r2, -(r0*tx + r1*ty + r2*tz),
		r3, r4, r5, -(r3*tx + r4*ty + r5*tz),
		r6, r7, r8, -(r6*tx + r7*ty + r8*tz),
		0, 0, 0, 1,
	}
}

// Transform3D is the local 3D transform value type: position, Euler rotation
// (radians, applied X then Y then Z), and scale.
type Transform3D struct {
	Position Vec3
	Rotation Vec3
	Scale    Vec3
}

// Matrix composes the transform: rotate, then scale, then translate.
func (t Transform3D) Matrix() Mat3D {
	sx, cx := math.Sincos(t.Rotation.X)
	sy, cy := math.Sincos(t.Rotation.Y)
	sz, cz := math.Sincos(t.Rotation.Z)

	// R = Rz * Ry * Rx
	r00 := cz * cy
	r01 := cz*sy*sx - sz*cx
	r02 := cz*sy*cx + sz*sx
	r10 := sz * cy
	r11 := sz*sy*sx + cz*cx
	r12 := sz*sy*cx - cz*sx
	r20 := -sy
	r21 := cy * sx
	r22 := cy * cx

	return Mat3D{
		r00 * t.Scale.X, r01 * t.Scale.Y, r02 * t.Scale.Z, t.Position.X,
		r10 * t.Scale.X, r11 * t.Scale.Y, r12 * t.Scale.Z, t.Position.Y,
		r20 * t.Scale.X, r21 * t.Scale.Y, r22 * t.Scale.Z, t.Position.Z,
		0, 0, 0, 1,
	}
}

// --- Node 3D transform accessors ---

// Local3D returns the node's local 3D transform.
func (n *Node) Local3D() Transform3D { return n.local3 }

// SetLocal3D replaces the node's local 3D transform and invalidates the
// cached global transforms of this node and all descendants.
func (n *Node) SetLocal3D(t Transform3D) {
	n.local3 = t
	markSubtreeDirty(n)
}

// Position3D returns the local 3D position.
func (n *Node) Position3D() Vec3 { return n.local3.Position }

// SetPosition3D sets the local 3D position.
func (n *Node) SetPosition3D(p Vec3) {
	n.local3.Position = p
	markSubtreeDirty(n)
}

// Rotation3D returns the local Euler rotation in radians.
func (n *Node) Rotation3D() Vec3 { return n.local3.Rotation }

// SetRotation3D sets the local Euler rotation in radians.
func (n *Node) SetRotation3D(r Vec3) {
	n.local3.Rotation = r
	markSubtreeDirty(n)
}

// Scale3D returns the local 3D scale.
func (n *Node) Scale3D() Vec3 { return n.local3.Scale }

// SetScale3D sets the local 3D scale.
func (n *Node) SetScale3D(s Vec3) {
	n.local3.Scale = s
	markSubtreeDirty(n)
}

// GlobalTransform3D returns the node's global 4x4 matrix, composing the
// local transforms of the nearest 3D ancestor chain. Cached, recomputed
// lazily after invalidation.
func (n *Node) GlobalTransform3D() Mat3D {
	if !n.global3Dirty {
		return n.global3
	}
	parentMat := identity3D
	if p := n.parent3D(); p != nil {
		parentMat = p.GlobalTransform3D()
	}
	n.global3 = parentMat.Mul(n.local3.Matrix())
	n.global3Dirty = false
	return n.global3
}

// GlobalPosition3D returns the node's origin in global space.
func (n *Node) GlobalPosition3D() Vec3 {
	m := n.GlobalTransform3D()
	return Vec3{m[3], m[7], m[11]}
}

// SetGlobalPosition3D sets the local position so that the node's global
// origin lands on p.
func (n *Node) SetGlobalPosition3D(p Vec3) {
	parentMat := identity3D
	if pa := n.parent3D(); pa != nil {
		parentMat = pa.GlobalTransform3D()
	}
	n.SetPosition3D(parentMat.Invert().Apply(p))
}

// ToLocal3D converts a global-space point into this node's local space.
func (n *Node) ToLocal3D(global Vec3) Vec3 {
	return n.GlobalTransform3D().Invert().Apply(global)
}

// ToGlobal3D converts a local-space point into global space.
func (n *Node) ToGlobal3D(local Vec3) Vec3 {
	return n.GlobalTransform3D().Apply(local)
}

// parent3D returns the nearest ancestor carrying a 3D transform.
func (n *Node) parent3D() *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindNode3D {
			return p
		}
	}
	return nil
}
