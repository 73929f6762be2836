package arbor

// Vec2 is a 2D vector used for positions, offsets, sizes, and directions
// throughout the API.
type Vec2 struct {
	X, Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Vec3 is a 3D vector used by the 3D transform subsystem.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// NodeKind distinguishes the transform subsystem a Node participates in.
// A single flat Node struct is used for all kinds to avoid interface
// dispatch on the hot path; kind-specific fields are valid only for the
// matching kind.
type NodeKind uint8

const (
	KindPlain   NodeKind = iota // no transform, grouping and logic only
	KindNode2D                  // 2D affine transform (position/rotation/scale)
	KindNode3D                  // 3D transform (position/euler rotation/scale)
	KindControl                 // 2D transform plus anchor/offset layout
)

func (k NodeKind) String() string {
	switch k {
	case KindPlain:
		return "Node"
	case KindNode2D:
		return "Node2D"
	case KindNode3D:
		return "Node3D"
	case KindControl:
		return "Control"
	default:
		return "unknown"
	}
}

// RenderLayer tags a node with the backend draw group its handle belongs to.
// Only the top-most node of a subtree attached directly under the tree root
// is registered with the renderer; children are grouped under it.
type RenderLayer uint8

const (
	LayerNone RenderLayer = iota // never registered with the renderer
	Layer2D                      // 2D sprite/canvas layer
	Layer3D                      // 3D spatial layer
	LayerUI                      // UI overlay layer
)

func (l RenderLayer) String() string {
	switch l {
	case LayerNone:
		return "none"
	case Layer2D:
		return "2D"
	case Layer3D:
		return "3D"
	case LayerUI:
		return "UI"
	default:
		return "unknown"
	}
}

// ProcessMode controls whether a node is ticked each frame. The effective
// value is resolved by walking up the tree every frame; it is never cached.
type ProcessMode uint8

const (
	ProcessInherit    ProcessMode = iota // delegate to the parent's resolution
	ProcessPausable                      // ticked unless the tree is paused
	ProcessWhenPaused                    // ticked only while the tree is paused
	ProcessAlways                        // ticked regardless of pause state
	ProcessDisabled                      // never ticked
)

func (m ProcessMode) String() string {
	switch m {
	case ProcessInherit:
		return "inherit"
	case ProcessPausable:
		return "pausable"
	case ProcessWhenPaused:
		return "when_paused"
	case ProcessAlways:
		return "always"
	case ProcessDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// SceneState is the lifecycle state of a Scene.
//
// Unloaded -> Loading -> Ready -> Running <-> Paused -> Exiting -> Unloaded
type SceneState uint8

const (
	SceneUnloaded SceneState = iota // no node content
	SceneLoading                    // backing resource being read and built
	SceneReady                      // fully built, not attached to a tree
	SceneRunning                    // attached and processing
	ScenePaused                     // attached, tree pause active
	SceneExiting                    // detaching from the tree
)

func (s SceneState) String() string {
	switch s {
	case SceneUnloaded:
		return "unloaded"
	case SceneLoading:
		return "loading"
	case SceneReady:
		return "ready"
	case SceneRunning:
		return "running"
	case ScenePaused:
		return "paused"
	case SceneExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// SceneType marks a scene's role in the tree.
type SceneType uint8

const (
	SceneTypeMain SceneType = iota // the application's root scene
	SceneTypeSub                   // any other scene
)

// TransitionMode selects how a scene swap is presented. The logical swap of
// the current scene is always atomic; the mode only affects the visual
// interpolation driven by Tick.
type TransitionMode uint8

const (
	TransitionImmediate TransitionMode = iota // no interpolation
	TransitionFade                            // alpha ramp on the incoming root
	TransitionSlide                           // position ramp on the incoming root
)
