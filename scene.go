package arbor

// Scene is a loadable, stateful unit of the tree: a root node plus a
// lifecycle state machine. The root node carries the scene's render layer
// registration when the scene is attached.
type Scene struct {
	Name       string
	Type       SceneType
	Persistent bool

	// Path is the source path this scene was loaded from, empty for scenes
	// built in code. Used as the preload cache key.
	Path string

	root  *Node
	ctx   *Context
	state SceneState

	// approxSize is the serialized byte size charged to the preload cache.
	approxSize int64
}

// sceneTransitions lists the legal state machine edges.
var sceneTransitions = map[SceneState][]SceneState{
	SceneUnloaded: {SceneLoading, SceneReady},
	SceneLoading:  {SceneReady, SceneUnloaded},
	SceneReady:    {SceneRunning, SceneExiting, SceneUnloaded},
	SceneRunning:  {ScenePaused, SceneExiting},
	ScenePaused:   {SceneRunning, SceneExiting},
	SceneExiting:  {SceneReady, SceneUnloaded},
}

// NewScene creates a ready scene with an empty 2D root node. Scenes built
// in code start at Ready; only loader-built scenes pass through Loading.
func NewScene(ctx *Context, name string) *Scene {
	s := &Scene{
		Name:  name,
		Type:  SceneTypeSub,
		ctx:   ctx,
		root:  NewNode2D(name),
		state: SceneReady,
	}
	return s
}

// newLoadingScene creates the shell the loader fills in.
func newLoadingScene(ctx *Context, path string) *Scene {
	return &Scene{
		Name:  path,
		Type:  SceneTypeSub,
		Path:  path,
		ctx:   ctx,
		state: SceneUnloaded,
	}
}

// Root returns the scene's root node.
func (s *Scene) Root() *Node { return s.root }

// State returns the scene's lifecycle state.
func (s *Scene) State() SceneState { return s.state }

// NodeCount returns the number of nodes in the scene, including the root.
func (s *Scene) NodeCount() int {
	if s.root == nil {
		return 0
	}
	return s.root.CountNodes()
}

// Serialize encodes the scene's node tree in the persisted scene format.
func (s *Scene) Serialize() ([]byte, error) {
	if s.root == nil {
		return nil, &LifecycleError{Op: "Serialize", Msg: "scene has no content"}
	}
	return s.root.Serialize()
}

// transitionTo moves the state machine along a legal edge. Illegal edges
// are rejected with a LifecycleError and leave the state unchanged.
func (s *Scene) transitionTo(to SceneState) error {
	if s.state == to {
		return nil
	}
	for _, allowed := range sceneTransitions[s.state] {
		if allowed == to {
			if s.ctx != nil {
				s.ctx.Logger().Debug().
					Str("scene", s.Name).
					Str("from", s.state.String()).
					Str("to", to.String()).
					Msg("scene state")
			}
			s.state = to
			return nil
		}
	}
	return &LifecycleError{
		Op:  "transitionTo",
		Msg: "illegal scene state transition " + s.state.String() + " -> " + to.String(),
	}
}

// Unload tears down the scene's node tree and returns the state machine to
// Unloaded. Attached scenes must be detached by their tree first.
func (s *Scene) Unload() error {
	if s.root != nil && s.root.IsInsideTree() {
		return &LifecycleError{Op: "Unload", Msg: "scene is still attached to a tree"}
	}
	if s.root != nil {
		s.root.Destroy()
		s.root = nil
	}
	return s.transitionTo(SceneUnloaded)
}

// SceneStats is a point-in-time summary of one scene.
type SceneStats struct {
	Name      string
	Path      string
	State     SceneState
	NodeCount int
}

// Stats returns the scene's runtime statistics.
func (s *Scene) Stats() SceneStats {
	return SceneStats{
		Name:      s.Name,
		Path:      s.Path,
		State:     s.state,
		NodeCount: s.NodeCount(),
	}
}
