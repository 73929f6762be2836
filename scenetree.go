package arbor

import (
	"time"
)

// stackEntry is one record of the scene navigation stack.
type stackEntry struct {
	scene *Scene
	path  string
}

// ChangeOptions controls how a scene swap is presented. The zero value is
// an immediate swap.
type ChangeOptions struct {
	Mode TransitionMode
	// Duration of the visual transition; the context's configured default
	// applies when zero.
	Duration time.Duration
	// KeepCurrent leaves the outgoing scene attached instead of detaching it.
	KeepCurrent bool
	// SlideOffset is the starting offset for Slide transitions. Defaults to
	// one viewport width to the right.
	SlideOffset Vec2
}

// TreeStats is a point-in-time summary of the tree for observability.
type TreeStats struct {
	Frame        uint64
	PhysicsFrame uint64
	Paused       bool
	NodeCount    int
	StackDepth   int
	CurrentScene string
	Cache        CacheStats
}

// SceneTree owns the current scene, the navigation stack, and the preload
// cache, and drives one logical tick per frame. All methods except
// preloading are meant to be called from the single frame-loop goroutine.
type SceneTree struct {
	ctx      *Context
	root     *Node
	loader   *Loader
	renderer RendererBackend

	current *Scene
	main    *Scene
	stack   []stackEntry

	paused       bool
	frame        uint64
	physicsFrame uint64

	transit  *transition
	shutdown bool
}

// NewSceneTree creates a tree bound to an initialized context.
func NewSceneTree(ctx *Context) (*SceneTree, error) {
	if ctx == nil || !ctx.ready() {
		return nil, &LifecycleError{Op: "NewSceneTree", Msg: "context not initialized"}
	}
	t := &SceneTree{
		ctx:    ctx,
		loader: NewLoader(ctx),
	}
	t.root = NewNode("root")
	t.root.tree = t
	t.root.insideTree = true
	t.root.ready = true
	return t, nil
}

// Root returns the tree's hidden root node. Scenes attach under it.
func (t *SceneTree) Root() *Node { return t.root }

// Loader returns the tree's scene loader.
func (t *SceneTree) Loader() *Loader { return t.loader }

// SetRenderer attaches the renderer backend notified about root-level
// nodes. May be nil; layer registration is then skipped.
func (t *SceneTree) SetRenderer(r RendererBackend) { t.renderer = r }

// CurrentScene returns the scene currently presented, or nil.
func (t *SceneTree) CurrentScene() *Scene { return t.current }

// MainScene returns the main scene, or nil.
func (t *SceneTree) MainScene() *Scene { return t.main }

// --- Pause ---

// SetPaused toggles the tree's pause state, which feeds process-mode
// resolution and the current scene's Running/Paused state.
func (t *SceneTree) SetPaused(paused bool) {
	if t.paused == paused {
		return
	}
	t.paused = paused
	if t.current != nil {
		if paused {
			_ = t.current.transitionTo(ScenePaused)
		} else {
			_ = t.current.transitionTo(SceneRunning)
		}
	}
}

// IsPaused reports the tree's pause state.
func (t *SceneTree) IsPaused() bool { return t.paused }

// --- Scene management ---

// SetMainScene makes scene both the main and the current scene. Setting a
// main scene while one exists is an explicit overwrite: the previous
// current scene is detached first.
func (t *SceneTree) SetMainScene(scene *Scene) error {
	if err := t.guard("SetMainScene"); err != nil {
		return err
	}
	if scene == nil {
		return &LifecycleError{Op: "SetMainScene", Msg: "scene is nil"}
	}
	if t.current != nil && t.current != scene {
		t.detachScene(t.current)
	}
	if err := t.attachScene(scene); err != nil {
		return err
	}
	scene.Type = SceneTypeMain
	t.main = scene
	t.current = scene
	t.ctx.Logger().Info().Str("scene", scene.Name).Msg("main scene set")
	return nil
}

// ChangeScene swaps the current scene for the given one. The logical swap
// is atomic: CurrentScene returns the new scene and the old scene has left
// its render layer before this call returns, regardless of transition mode.
// The Fade/Slide presentation then runs under Tick for the configured
// duration. A ChangeScene call issued while a previous transition is still
// animating cancels it and starts the new one from the cancelled
// transition's current visual state.
//
// ChangeScene never touches the navigation stack; callers push the
// outgoing scene themselves if they intend to come back.
func (t *SceneTree) ChangeScene(scene *Scene, opts *ChangeOptions) (*Scene, error) {
	if err := t.guard("ChangeScene"); err != nil {
		return nil, err
	}
	if scene == nil {
		return nil, &LifecycleError{Op: "ChangeScene", Msg: "scene is nil"}
	}
	o := t.resolveOptions(opts)
	if scene == t.current {
		return scene, nil
	}

	// Cancel any in-flight transition, keeping its partial progress so the
	// new presentation starts from the current visual state.
	startProgress := float32(0)
	if t.transit != nil {
		startProgress = t.transit.progress
		t.transit = nil
	}

	if t.current != nil && !o.KeepCurrent {
		t.detachScene(t.current)
	}
	if err := t.attachScene(scene); err != nil {
		return nil, err
	}
	t.current = scene

	if o.Mode != TransitionImmediate {
		t.transit = newTransition(o.Mode, o.Duration, scene.root, o.SlideOffset, startProgress)
	}
	t.ctx.Logger().Info().
		Str("scene", scene.Name).
		Str("mode", transitionName(o.Mode)).
		Msg("scene changed")
	return scene, nil
}

// ChangeSceneToPath resolves path through the preload cache (or a fresh
// load) and changes to the result.
func (t *SceneTree) ChangeSceneToPath(path string, opts *ChangeOptions) (*Scene, error) {
	if err := t.guard("ChangeSceneToPath"); err != nil {
		return nil, err
	}
	scene, err := t.loader.PreloadScene(path)
	if err != nil {
		return nil, err
	}
	return t.ChangeScene(scene, opts)
}

// PushScene records (scene, path) on the navigation stack. The stack and
// the current-scene pointer are caller-synchronized: pushing does not
// change the current scene. The entry's path is pinned in the preload cache
// so cache pressure cannot unload a scene the stack still references.
func (t *SceneTree) PushScene(scene *Scene, path string) {
	if path == "" && scene != nil {
		path = scene.Path
	}
	if path != "" {
		t.loader.Pin(path)
	}
	t.stack = append(t.stack, stackEntry{scene: scene, path: path})
}

// GoBack pops the top stack entry and changes to it. Popping an empty stack
// fails with a LifecycleError and a nil scene rather than panicking. On
// failure the entry is put back so the stack is unchanged.
func (t *SceneTree) GoBack(opts *ChangeOptions) (*Scene, error) {
	if err := t.guard("GoBack"); err != nil {
		return nil, err
	}
	if len(t.stack) == 0 {
		return nil, &LifecycleError{Op: "GoBack", Msg: "scene stack is empty"}
	}
	entry := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	scene, err := t.resumeEntry(entry, opts)
	if err != nil {
		t.stack = append(t.stack, entry)
		return nil, err
	}
	if entry.path != "" {
		t.loader.Unpin(entry.path)
	}
	return scene, nil
}

// resumeEntry changes to a popped stack entry. A pushed instance that was
// unloaded out from under the stack is reloaded from its path when one is
// known.
func (t *SceneTree) resumeEntry(entry stackEntry, opts *ChangeOptions) (*Scene, error) {
	if entry.scene != nil && entry.scene.State() != SceneUnloaded {
		return t.ChangeScene(entry.scene, opts)
	}
	if entry.path != "" {
		return t.ChangeSceneToPath(entry.path, opts)
	}
	if entry.scene != nil {
		return t.ChangeScene(entry.scene, opts)
	}
	return nil, &LifecycleError{Op: "GoBack", Msg: "stack entry has no scene or path"}
}

// StackDepth returns the number of entries on the navigation stack.
func (t *SceneTree) StackDepth() int { return len(t.stack) }

// --- Preloading ---

// PreloadScene loads and caches the scene at path. Concurrent calls for
// the same path share one load and resolve to the same instance.
func (t *SceneTree) PreloadScene(path string) (*Scene, error) {
	return t.loader.PreloadScene(path)
}

// PreloadScenes loads each path in order, reporting progress per scene.
func (t *SceneTree) PreloadScenes(paths []string, onProgress func(done, total int, path string)) ([]*Scene, error) {
	return t.loader.PreloadScenes(paths, onProgress)
}

// GetCacheStats returns the preload cache counters.
func (t *SceneTree) GetCacheStats() CacheStats {
	return t.loader.CacheStats()
}

// --- Ticking ---

// Tick advances one logical frame: the active transition, then _process
// down the tree. A parent is processed before its children; siblings in
// insertion order unless Priority reorders them.
func (t *SceneTree) Tick(delta float64) error {
	if err := t.guard("Tick"); err != nil {
		return err
	}
	t.frame++
	if t.transit != nil {
		if done := t.transit.update(delta); done {
			t.transit = nil
		}
	}
	t.root.processSubtree(delta, t.paused, false)
	return nil
}

// PhysicsTick advances one physics step through the tree.
func (t *SceneTree) PhysicsTick(delta float64) error {
	if err := t.guard("PhysicsTick"); err != nil {
		return err
	}
	t.physicsFrame++
	t.root.processSubtree(delta, t.paused, true)
	return nil
}

// InTransition reports whether a scene transition is still animating.
func (t *SceneTree) InTransition() bool { return t.transit != nil }

// --- Stats & shutdown ---

// GetStats returns a point-in-time summary of the tree.
func (t *SceneTree) GetStats() TreeStats {
	stats := TreeStats{
		Frame:        t.frame,
		PhysicsFrame: t.physicsFrame,
		Paused:       t.paused,
		NodeCount:    t.root.CountNodes(),
		StackDepth:   len(t.stack),
		Cache:        t.loader.CacheStats(),
	}
	if t.current != nil {
		stats.CurrentScene = t.current.Name
	}
	return stats
}

// Shutdown detaches and unloads the current scene, clears the stack, and
// marks the tree unusable.
func (t *SceneTree) Shutdown() {
	if t.shutdown {
		return
	}
	if t.current != nil {
		t.detachScene(t.current)
		t.current = nil
	}
	t.main = nil
	for _, entry := range t.stack {
		if entry.path != "" {
			t.loader.Unpin(entry.path)
		}
	}
	t.stack = nil
	t.transit = nil
	t.shutdown = true
	t.ctx.Logger().Debug().Msg("scene tree shut down")
}

// --- internal ---

func (t *SceneTree) guard(op string) error {
	if t.shutdown {
		return &LifecycleError{Op: op, Msg: "scene tree is shut down"}
	}
	if t.ctx == nil || !t.ctx.ready() {
		return &LifecycleError{Op: op, Msg: "context not initialized"}
	}
	return nil
}

// attachScene puts the scene's root under the tree root and runs the state
// machine to Running (or Paused under a paused tree).
func (t *SceneTree) attachScene(s *Scene) error {
	if s.root == nil || s.state == SceneUnloaded {
		return &LifecycleError{Op: "attachScene", Msg: "scene " + s.Name + " is not loaded"}
	}
	if s.root.IsInsideTree() {
		return nil
	}
	if err := t.root.AddChild(s.root); err != nil {
		return err
	}
	if err := s.transitionTo(SceneRunning); err != nil {
		return err
	}
	if t.paused {
		_ = s.transitionTo(ScenePaused)
	}
	return nil
}

// detachScene removes the scene from the tree. Persistent scenes, scenes
// still referenced by the cache or the navigation stack, and the main scene
// stay Ready for reuse; everything else is unloaded.
func (t *SceneTree) detachScene(s *Scene) {
	_ = s.transitionTo(SceneExiting)
	if s.root != nil && s.root.Parent == t.root {
		_ = t.root.RemoveChild(s.root)
	}
	if s.Persistent || s == t.main || t.onStack(s) ||
		(s.Path != "" && t.loader.Contains(s.Path)) {
		_ = s.transitionTo(SceneReady)
		return
	}
	_ = s.transitionTo(SceneUnloaded)
	if s.root != nil {
		s.root.Destroy()
		s.root = nil
	}
}

// onStack reports whether the scene instance is referenced by the
// navigation stack.
func (t *SceneTree) onStack(s *Scene) bool {
	for _, entry := range t.stack {
		if entry.scene == s {
			return true
		}
	}
	return false
}

// registerRootNode notifies the renderer that a node directly under the
// tree root entered the tree.
func (t *SceneTree) registerRootNode(n *Node) {
	if t.renderer == nil || n.Layer == LayerNone || n.handle != nil {
		return
	}
	if !t.renderer.Supports(n.Layer) {
		t.ctx.Logger().Warn().
			Str("node", n.Name).
			Str("layer", n.Layer.String()).
			Msg("renderer does not support layer")
		return
	}
	h := t.renderer.CreateHandle(n)
	n.handle = h
	n.handleLayer = n.Layer
	t.renderer.AddToLayer(h, n.Layer)
}

// unregisterRootNode notifies the renderer that a root-level node left the
// tree. Removal uses the layer recorded at registration, since n.Layer may
// have been reassigned since.
func (t *SceneTree) unregisterRootNode(n *Node) {
	if t.renderer == nil || n.handle == nil {
		return
	}
	t.renderer.RemoveFromLayer(n.handle, n.handleLayer)
	t.renderer.DestroyHandle(n.handle)
	n.handle = nil
	n.handleLayer = LayerNone
}

func (t *SceneTree) resolveOptions(opts *ChangeOptions) ChangeOptions {
	cfg := t.ctx.Config()
	o := ChangeOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Duration <= 0 {
		o.Duration = cfg.TransitionDuration
	}
	if o.Mode == TransitionSlide && o.SlideOffset == (Vec2{}) {
		o.SlideOffset = Vec2{X: cfg.ViewportWidth}
	}
	return o
}

func transitionName(m TransitionMode) string {
	switch m {
	case TransitionFade:
		return "fade"
	case TransitionSlide:
		return "slide"
	default:
		return "immediate"
	}
}
