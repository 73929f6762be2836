// Package arbor is a retained-mode scene-graph runtime: a tree of
// addressable nodes with hierarchical transforms, lifecycle management, a
// signal system, and a scene-level state machine driven once per frame by
// the host application.
//
// # Nodes
//
// Every addressable object is a [Node], created with a typed constructor:
// [NewNode], [NewNode2D], [NewNode3D], or [NewControl]. Nodes form a tree;
// children are owned by their parent and a node has at most one parent at
// a time.
//
//	world := arbor.NewNode2D("world")
//	player := arbor.NewNode2D("player")
//	if err := world.AddChild(player); err != nil { ... }
//
// Local transforms are authoritative; global transforms are composed from
// the ancestor chain, cached, and recomputed lazily after invalidation.
//
// # Scenes and the tree
//
// A [Scene] is a loadable unit with a lifecycle state machine. The
// [SceneTree] owns the current scene, a navigation stack, and a bounded
// preload cache, and drives processing:
//
//	ctx := arbor.NewContext(arbor.DefaultConfig())
//	ctx.Init()
//	tree, _ := arbor.NewSceneTree(ctx)
//	tree.SetMainScene(menu)
//	for { // host frame loop
//		tree.Tick(1.0 / 60)
//	}
//
// Scene swaps are logically atomic; Fade and Slide transitions only affect
// presentation and are advanced by Tick. Preloading is the runtime's only
// asynchronous path: concurrent loads of the same path are coalesced into
// one.
//
// # Rendering
//
// The runtime does not render. It notifies a [RendererBackend] about
// root-level nodes entering and leaving render layers; the ebitenbackend
// subpackage provides an Ebitengine implementation of that contract.
package arbor
