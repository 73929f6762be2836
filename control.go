package arbor

// AnchorPreset is a shorthand for common anchor configurations.
type AnchorPreset uint8

const (
	PresetTopLeft  AnchorPreset = iota // anchors at the parent's top-left
	PresetCenter                       // anchors at the parent's center
	PresetFullRect                     // anchors spanning the whole parent
)

// SetAnchors sets the four anchor fractions (0 = parent's left/top edge,
// 1 = right/bottom edge).
func (n *Node) SetAnchors(left, top, right, bottom float64) {
	n.AnchorLeft, n.AnchorTop = left, top
	n.AnchorRight, n.AnchorBottom = right, bottom
	markSubtreeDirty(n)
}

// SetOffsets sets the four pixel offsets added to the anchor points.
func (n *Node) SetOffsets(left, top, right, bottom float64) {
	n.OffsetLeft, n.OffsetTop = left, top
	n.OffsetRight, n.OffsetBottom = right, bottom
	markSubtreeDirty(n)
}

// SetAnchorsPreset applies a common anchor layout, leaving offsets alone.
func (n *Node) SetAnchorsPreset(preset AnchorPreset) {
	switch preset {
	case PresetCenter:
		n.SetAnchors(0.5, 0.5, 0.5, 0.5)
	case PresetFullRect:
		n.SetAnchors(0, 0, 1, 1)
	default:
		n.SetAnchors(0, 0, 0, 0)
	}
}

// LayoutRect computes the control's rectangle in its parent's coordinate
// space from anchors and offsets. The reference size is the parent
// control's rectangle, or the configured viewport for controls without a
// control ancestor. Valid for KindControl nodes.
func (n *Node) LayoutRect() Rect {
	pw, ph := n.layoutParentSize()
	left := n.AnchorLeft*pw + n.OffsetLeft
	top := n.AnchorTop*ph + n.OffsetTop
	right := n.AnchorRight*pw + n.OffsetRight
	bottom := n.AnchorBottom*ph + n.OffsetBottom
	if right < left {
		right = left
	}
	if bottom < top {
		bottom = top
	}
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// SetLayoutRect adjusts the offsets so that LayoutRect returns r under the
// current anchors.
func (n *Node) SetLayoutRect(r Rect) {
	pw, ph := n.layoutParentSize()
	n.OffsetLeft = r.X - n.AnchorLeft*pw
	n.OffsetTop = r.Y - n.AnchorTop*ph
	n.OffsetRight = r.X + r.Width - n.AnchorRight*pw
	n.OffsetBottom = r.Y + r.Height - n.AnchorBottom*ph
	markSubtreeDirty(n)
}

// layoutParentSize returns the reference size anchors are resolved against.
func (n *Node) layoutParentSize() (w, h float64) {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == KindControl {
			r := p.LayoutRect()
			return r.Width, r.Height
		}
	}
	if n.tree != nil && n.tree.ctx != nil {
		cfg := n.tree.ctx.Config()
		return cfg.ViewportWidth, cfg.ViewportHeight
	}
	cfg := DefaultConfig()
	return cfg.ViewportWidth, cfg.ViewportHeight
}
