package arbor

// BackendHandle is an opaque renderer-owned token for a registered node.
type BackendHandle any

// RendererBackend is the contract the scene graph needs from a renderer.
// Whenever a node is attached directly under the tree root, the tree
// creates a handle and adds it to the node's layer; child nodes are never
// registered directly. The scene graph never reaches past this interface.
type RendererBackend interface {
	// Supports reports whether the backend can draw the given layer.
	// Nodes tagged with unsupported layers are not registered.
	Supports(layer RenderLayer) bool
	CreateHandle(n *Node) BackendHandle
	AddToLayer(h BackendHandle, layer RenderLayer)
	RemoveFromLayer(h BackendHandle, layer RenderLayer)
	DestroyHandle(h BackendHandle)
}
