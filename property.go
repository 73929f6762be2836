package arbor

import (
	"fmt"
	"sort"
)

// PropertyDesc describes one serializable property of a node: a stable name,
// an accessor, and a setter that coerces a decoded JSON value. Descriptor
// tables are registered per NodeKind at package init; there is no runtime
// reflection.
type PropertyDesc struct {
	Name string
	Get  func(n *Node) any
	Set  func(n *Node, v any) error
}

// propertyTables maps each node kind to its full descriptor list (common
// properties first, kind-specific after).
var propertyTables map[NodeKind][]PropertyDesc

func init() {
	common := []PropertyDesc{
		{
			Name: "mode",
			Get:  func(n *Node) any { return n.Mode.String() },
			Set: func(n *Node, v any) error {
				m, err := parseProcessMode(v)
				if err != nil {
					return err
				}
				n.Mode = m
				return nil
			},
		},
		{
			Name: "priority",
			Get:  func(n *Node) any { return n.Priority },
			Set: func(n *Node, v any) error {
				f, err := asFloat(v)
				if err != nil {
					return err
				}
				n.Priority = int(f)
				return nil
			},
		},
		{
			Name: "layer",
			Get:  func(n *Node) any { return n.Layer.String() },
			Set: func(n *Node, v any) error {
				l, err := parseRenderLayer(v)
				if err != nil {
					return err
				}
				n.Layer = l
				return nil
			},
		},
		{
			Name: "visible",
			Get:  func(n *Node) any { return n.Visible },
			Set: func(n *Node, v any) error {
				b, ok := v.(bool)
				if !ok {
					return fmt.Errorf("expected bool, got %T", v)
				}
				n.Visible = b
				return nil
			},
		},
		{
			Name: "alpha",
			Get:  func(n *Node) any { return n.Alpha },
			Set: func(n *Node, v any) error {
				f, err := asFloat(v)
				if err != nil {
					return err
				}
				n.Alpha = f
				return nil
			},
		},
		{
			Name: "groups",
			Get: func(n *Node) any {
				if len(n.groups) == 0 {
					return nil
				}
				out := make([]string, 0, len(n.groups))
				for g := range n.groups {
					out = append(out, g)
				}
				sort.Strings(out)
				return out
			},
			Set: func(n *Node, v any) error {
				if v == nil {
					return nil
				}
				list, ok := v.([]any)
				if !ok {
					return fmt.Errorf("expected array, got %T", v)
				}
				for _, item := range list {
					s, ok := item.(string)
					if !ok {
						return fmt.Errorf("expected string group, got %T", item)
					}
					n.AddToGroup(s)
				}
				return nil
			},
		},
	}

	transform2D := []PropertyDesc{
		{
			Name: "position",
			Get:  func(n *Node) any { return n.local2.Position },
			Set: func(n *Node, v any) error {
				p, err := asVec2(v)
				if err != nil {
					return err
				}
				n.SetPosition2D(p)
				return nil
			},
		},
		{
			Name: "rotation",
			Get:  func(n *Node) any { return n.local2.Rotation },
			Set: func(n *Node, v any) error {
				f, err := asFloat(v)
				if err != nil {
					return err
				}
				n.SetRotation2D(f)
				return nil
			},
		},
		{
			Name: "scale",
			Get:  func(n *Node) any { return n.local2.Scale },
			Set: func(n *Node, v any) error {
				s, err := asVec2(v)
				if err != nil {
					return err
				}
				n.SetScale2D(s)
				return nil
			},
		},
	}

	transform3D := []PropertyDesc{
		{
			Name: "position",
			Get:  func(n *Node) any { return n.local3.Position },
			Set: func(n *Node, v any) error {
				p, err := asVec3(v)
				if err != nil {
					return err
				}
				n.SetPosition3D(p)
				return nil
			},
		},
		{
			Name: "rotation",
			Get:  func(n *Node) any { return n.local3.Rotation },
			Set: func(n *Node, v any) error {
				r, err := asVec3(v)
				if err != nil {
					return err
				}
				n.SetRotation3D(r)
				return nil
			},
		},
		{
			Name: "scale",
			Get:  func(n *Node) any { return n.local3.Scale },
			Set: func(n *Node, v any) error {
				s, err := asVec3(v)
				if err != nil {
					return err
				}
				n.SetScale3D(s)
				return nil
			},
		},
	}

	anchorProps := []PropertyDesc{
		{
			Name: "anchors",
			Get: func(n *Node) any {
				return []float64{n.AnchorLeft, n.AnchorTop, n.AnchorRight, n.AnchorBottom}
			},
			Set: func(n *Node, v any) error {
				vals, err := asFloats(v, 4)
				if err != nil {
					return err
				}
				n.SetAnchors(vals[0], vals[1], vals[2], vals[3])
				return nil
			},
		},
		{
			Name: "offsets",
			Get: func(n *Node) any {
				return []float64{n.OffsetLeft, n.OffsetTop, n.OffsetRight, n.OffsetBottom}
			},
			Set: func(n *Node, v any) error {
				vals, err := asFloats(v, 4)
				if err != nil {
					return err
				}
				n.SetOffsets(vals[0], vals[1], vals[2], vals[3])
				return nil
			},
		},
	}

	propertyTables = map[NodeKind][]PropertyDesc{
		KindPlain:   common,
		KindNode2D:  append(append([]PropertyDesc{}, common...), transform2D...),
		KindNode3D:  append(append([]PropertyDesc{}, common...), transform3D...),
		KindControl: append(append(append([]PropertyDesc{}, common...), transform2D...), anchorProps...),
	}
}

// properties returns the descriptor table for this node's kind.
func (n *Node) properties() []PropertyDesc {
	return propertyTables[n.Kind]
}

// --- value coercion helpers ---

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asFloats(v any, count int) ([]float64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", v)
	}
	if len(list) != count {
		return nil, fmt.Errorf("expected %d elements, got %d", count, len(list))
	}
	out := make([]float64, count)
	for i, item := range list {
		f, err := asFloat(item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

func asVec2(v any) (Vec2, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Vec2{}, fmt.Errorf("expected object, got %T", v)
	}
	x, err := asFloat(m["x"])
	if err != nil {
		return Vec2{}, err
	}
	y, err := asFloat(m["y"])
	if err != nil {
		return Vec2{}, err
	}
	return Vec2{x, y}, nil
}

func asVec3(v any) (Vec3, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Vec3{}, fmt.Errorf("expected object, got %T", v)
	}
	x, err := asFloat(m["x"])
	if err != nil {
		return Vec3{}, err
	}
	y, err := asFloat(m["y"])
	if err != nil {
		return Vec3{}, err
	}
	z, err := asFloat(m["z"])
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{x, y, z}, nil
}

func parseProcessMode(v any) (ProcessMode, error) {
	s, ok := v.(string)
	if !ok {
		return ProcessInherit, fmt.Errorf("expected string, got %T", v)
	}
	switch s {
	case "inherit":
		return ProcessInherit, nil
	case "pausable":
		return ProcessPausable, nil
	case "when_paused":
		return ProcessWhenPaused, nil
	case "always":
		return ProcessAlways, nil
	case "disabled":
		return ProcessDisabled, nil
	default:
		return ProcessInherit, fmt.Errorf("unknown process mode %q", s)
	}
}

func parseRenderLayer(v any) (RenderLayer, error) {
	s, ok := v.(string)
	if !ok {
		return LayerNone, fmt.Errorf("expected string, got %T", v)
	}
	switch s {
	case "none":
		return LayerNone, nil
	case "2D":
		return Layer2D, nil
	case "3D":
		return Layer3D, nil
	case "UI":
		return LayerUI, nil
	default:
		return LayerNone, fmt.Errorf("unknown render layer %q", s)
	}
}

func parseNodeKind(s string) (NodeKind, error) {
	switch s {
	case "Node":
		return KindPlain, nil
	case "Node2D":
		return KindNode2D, nil
	case "Node3D":
		return KindNode3D, nil
	case "Control":
		return KindControl, nil
	default:
		return KindPlain, fmt.Errorf("unknown node type %q", s)
	}
}
