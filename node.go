package arbor

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Script is a behavior object attached to a node. Attach is called once when
// the script is added. Scripts that also implement the optional capability
// interfaces below receive the corresponding lifecycle and tick calls.
type Script interface {
	Attach(n *Node)
}

// EnterTreeScript receives a call when the owning node enters the tree.
type EnterTreeScript interface {
	EnterTree(n *Node)
}

// ExitTreeScript receives a call when the owning node exits the tree.
type ExitTreeScript interface {
	ExitTree(n *Node)
}

// ReadyScript receives a call the first time the owning node enters a tree.
type ReadyScript interface {
	Ready(n *Node)
}

// ProcessScript is ticked once per frame while the owning node is processable.
type ProcessScript interface {
	Process(n *Node, delta float64)
}

// PhysicsProcessScript is ticked once per physics step while the owning node
// is processable.
type PhysicsProcessScript interface {
	PhysicsProcess(n *Node, delta float64)
}

// Built-in signals declared on every node.
const (
	SignalChildAdded    = "child_added"
	SignalParentChanged = "parent_changed"
	SignalTreeEntered   = "tree_entered"
	SignalTreeExiting   = "tree_exiting"
	SignalTreeExited    = "tree_exited"
	SignalReady         = "ready"
)

// --- Node ---

// Node is the fundamental scene graph element. A single flat struct is used
// for all node kinds to avoid interface dispatch on the hot path;
// kind-specific fields (transforms, anchors) are valid for the matching
// NodeKind only.
type Node struct {
	// Identity
	ID   uuid.UUID
	Name string
	Kind NodeKind

	// Hierarchy. Parent is a non-owning back-reference; children is the sole
	// ownership edge.
	Parent   *Node
	children []*Node

	owner    *Node
	ownerSet bool

	// Processing
	Mode     ProcessMode
	Priority int

	// Presentation
	Layer   RenderLayer
	Visible bool
	Alpha   float64

	// 2D transform (KindNode2D, KindControl). Local is authoritative; the
	// global matrix is cached and recomputed lazily.
	local2       Transform2D
	global2      Mat2D
	global2Dirty bool

	// 3D transform (KindNode3D)
	local3       Transform3D
	global3      Mat3D
	global3Dirty bool

	// Control layout (KindControl)
	AnchorLeft, AnchorTop     float64
	AnchorRight, AnchorBottom float64
	OffsetLeft, OffsetTop     float64
	OffsetRight, OffsetBottom float64

	// Metadata. Values must be serializable (scalars, strings, Vec2/Vec3,
	// *Node references); anything else is skipped with a warning during
	// serialization.
	Meta map[string]any

	// Lifecycle callbacks (nil by default; zero cost when unused)
	OnReady          func(n *Node)
	OnEnterTree      func(n *Node)
	OnExitTree       func(n *Node)
	OnProcess        func(n *Node, delta float64)
	OnPhysicsProcess func(n *Node, delta float64)

	scripts []Script
	signals map[string]*signal
	groups  map[string]struct{}

	// Internal
	tree        *SceneTree
	insideTree  bool
	ready       bool
	destroyed   bool
	handle      BackendHandle // renderer handle while registered, nil otherwise
	handleLayer RenderLayer   // layer the handle was registered on
	orderBuf    []*Node       // reused buffer for priority-ordered traversal
}

// nodeDefaults sets the common default field values shared by all constructors.
func nodeDefaults(n *Node) {
	n.ID = uuid.New()
	n.Visible = true
	n.Alpha = 1
	n.local2.Scale = Vec2{1, 1}
	n.local3.Scale = Vec3{1, 1, 1}
	n.global2Dirty = true
	n.global3Dirty = true
	n.signals = map[string]*signal{}
	for _, name := range []string{
		SignalChildAdded, SignalParentChanged,
		SignalTreeEntered, SignalTreeExiting, SignalTreeExited, SignalReady,
	} {
		n.signals[name] = &signal{}
	}
}

// NewNode creates a plain node with no transform.
func NewNode(name string) *Node {
	n := &Node{Name: name, Kind: KindPlain}
	nodeDefaults(n)
	return n
}

// NewNode2D creates a node with a 2D transform, tagged for the 2D layer.
func NewNode2D(name string) *Node {
	n := &Node{Name: name, Kind: KindNode2D, Layer: Layer2D}
	nodeDefaults(n)
	return n
}

// NewNode3D creates a node with a 3D transform, tagged for the 3D layer.
func NewNode3D(name string) *Node {
	n := &Node{Name: name, Kind: KindNode3D, Layer: Layer3D}
	nodeDefaults(n)
	return n
}

// NewControl creates a node with a 2D transform and anchor/offset layout,
// tagged for the UI layer. Anchors default to the parent's top-left.
func NewControl(name string) *Node {
	n := &Node{Name: name, Kind: KindControl, Layer: LayerUI}
	nodeDefaults(n)
	return n
}

// newNodeOfKind builds a detached node for deserialization.
func newNodeOfKind(kind NodeKind, name string) *Node {
	switch kind {
	case KindNode2D:
		return NewNode2D(name)
	case KindNode3D:
		return NewNode3D(name)
	case KindControl:
		return NewControl(name)
	default:
		return NewNode(name)
	}
}

// --- Tree manipulation ---

// AddChild appends child to this node's children. Ownership transfers to
// this node. Fails with a StructuralError if child is nil, already has a
// parent, or is an ancestor of this node. If this node is inside a tree,
// the child subtree enters the tree depth-first and each node fires ready
// on its first entry.
func (n *Node) AddChild(child *Node) error {
	return n.addChildAt(child, len(n.children), false)
}

// AddChildUniqueName is AddChild, renaming child first if a sibling already
// uses its name ("hud" becomes "hud2", "hud3", ...).
func (n *Node) AddChildUniqueName(child *Node) error {
	return n.addChildAt(child, len(n.children), true)
}

// AddChildAt inserts child at the given sibling index.
func (n *Node) AddChildAt(child *Node, index int) error {
	return n.addChildAt(child, index, false)
}

func (n *Node) addChildAt(child *Node, index int, uniquify bool) error {
	if child == nil {
		return structuralErr("AddChild", n, "child is nil")
	}
	if child.destroyed || n.destroyed {
		return structuralErr("AddChild", n, "node is destroyed")
	}
	if child.Parent != nil {
		return structuralErr("AddChild", child, "child already has a parent")
	}
	if isAncestor(child, n) {
		return structuralErr("AddChild", child, "adding child would create a cycle")
	}
	if index < 0 || index > len(n.children) {
		return structuralErr("AddChild", n, fmt.Sprintf("index %d out of range", index))
	}
	if uniquify {
		child.Name = uniqueChildName(n, child.Name)
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	markSubtreeDirty(child)
	if n.insideTree {
		propagateEnter(child, n.tree)
	}
	n.Emit(SignalChildAdded, child)
	child.Emit(SignalParentChanged, n)
	return nil
}

// RemoveChild detaches child from this node. Fails with a StructuralError if
// child is not a direct child. If the subtree is inside the tree it exits
// first: parents before children, tree_exiting before tree_exited.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.Parent != n {
		return structuralErr("RemoveChild", n, "node is not a child")
	}
	if child.insideTree {
		propagateExit(child)
	}
	n.removeChildByPtr(child)
	child.Parent = nil
	markSubtreeDirty(child)
	child.Emit(SignalParentChanged, nil)
	return nil
}

// RemoveChildAt removes and returns the child at the given sibling index.
func (n *Node) RemoveChildAt(index int) (*Node, error) {
	if index < 0 || index >= len(n.children) {
		return nil, structuralErr("RemoveChildAt", n, fmt.Sprintf("index %d out of range", index))
	}
	child := n.children[index]
	if err := n.RemoveChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	_ = n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node.
// Children are NOT destroyed.
func (n *Node) RemoveChildren() {
	for len(n.children) > 0 {
		_ = n.RemoveChild(n.children[len(n.children)-1])
	}
}

// Children returns the child list in traversal order. The returned slice
// MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node { return n.children }

// NumChildren returns the number of children.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at the given index, or nil if out of range.
func (n *Node) ChildAt(index int) *Node {
	if index < 0 || index >= len(n.children) {
		return nil
	}
	return n.children[index]
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) error {
	if child.Parent != n {
		return structuralErr("SetChildIndex", n, "node is not a child")
	}
	if index < 0 || index >= len(n.children) {
		return structuralErr("SetChildIndex", n, fmt.Sprintf("index %d out of range", index))
	}
	oldIndex := -1
	for i, c := range n.children {
		if c == child {
			oldIndex = i
			break
		}
	}
	if oldIndex == index {
		return nil
	}
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
	return nil
}

// --- Owner ---

// SetOwner explicitly sets this node's owner. Pass nil to clear the explicit
// owner and fall back to ancestor inheritance.
func (n *Node) SetOwner(owner *Node) {
	n.owner = owner
	n.ownerSet = owner != nil
}

// Owner returns the explicitly set owner, or the nearest ancestor's explicit
// owner, or nil.
func (n *Node) Owner() *Node {
	if n.ownerSet {
		return n.owner
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.ownerSet {
			return p.owner
		}
	}
	return nil
}

// --- Lifecycle ---

// IsInsideTree reports whether this node is attached under a tree root.
func (n *Node) IsInsideTree() bool { return n.insideTree }

// IsReady reports whether this node's ready callbacks have fired.
func (n *Node) IsReady() bool { return n.ready }

// Tree returns the SceneTree this node is attached to, or nil.
func (n *Node) Tree() *SceneTree { return n.tree }

// IsDestroyed reports whether Destroy has been called on this node.
func (n *Node) IsDestroyed() bool { return n.destroyed }

// Destroy detaches this node from its parent (exiting the tree first if
// attached) and destroys it together with all descendants, children before
// parents. Destroyed nodes reject further tree operations.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	n.RemoveFromParent()
	n.destroy()
}

func (n *Node) destroy() {
	for i := len(n.children) - 1; i >= 0; i-- {
		child := n.children[i]
		child.Parent = nil
		child.destroy()
	}
	n.destroyed = true
	n.children = nil
	n.orderBuf = nil
	n.Parent = nil
	n.owner = nil
	n.scripts = nil
	n.signals = nil
	n.groups = nil
	n.Meta = nil
	n.handle = nil
	n.handleLayer = LayerNone
	n.OnReady = nil
	n.OnEnterTree = nil
	n.OnExitTree = nil
	n.OnProcess = nil
	n.OnPhysicsProcess = nil
}

// propagateEnter attaches node and its descendants to tree, top-down. Ready
// fires once per node, immediately after that node's own enter processing;
// re-entering never re-fires it.
func propagateEnter(node *Node, tree *SceneTree) {
	node.tree = tree
	node.insideTree = true
	if node.OnEnterTree != nil {
		node.OnEnterTree(node)
	}
	for _, s := range node.scripts {
		if es, ok := s.(EnterTreeScript); ok {
			es.EnterTree(node)
		}
	}
	node.Emit(SignalTreeEntered)
	if tree != nil && node.Parent == tree.root {
		tree.registerRootNode(node)
	}
	if !node.ready {
		node.ready = true
		if node.OnReady != nil {
			node.OnReady(node)
		}
		for _, s := range node.scripts {
			if rs, ok := s.(ReadyScript); ok {
				rs.Ready(node)
			}
		}
		node.Emit(SignalReady)
	}
	for _, child := range node.children {
		propagateEnter(child, tree)
	}
}

// propagateExit detaches node and its descendants from the tree, parents
// exiting before children.
func propagateExit(node *Node) {
	node.Emit(SignalTreeExiting)
	if node.OnExitTree != nil {
		node.OnExitTree(node)
	}
	for _, s := range node.scripts {
		if es, ok := s.(ExitTreeScript); ok {
			es.ExitTree(node)
		}
	}
	if node.tree != nil && node.Parent == node.tree.root {
		node.tree.unregisterRootNode(node)
	}
	for _, child := range node.children {
		propagateExit(child)
	}
	node.insideTree = false
	node.tree = nil
	node.Emit(SignalTreeExited)
}

// --- Process mode ---

// CanProcess resolves whether this node should be ticked this frame under
// its tree's pause state. Detached nodes resolve against an unpaused state.
// The resolution walks up the tree on every call; it is never cached, since
// ancestor modes can change between frames.
func (n *Node) CanProcess() bool {
	paused := false
	if n.tree != nil {
		paused = n.tree.paused
	}
	return n.canProcess(paused)
}

func (n *Node) canProcess(paused bool) bool {
	switch n.Mode {
	case ProcessDisabled:
		return false
	case ProcessAlways:
		return true
	case ProcessPausable:
		return !paused
	case ProcessWhenPaused:
		return paused
	default: // ProcessInherit
		if n.Parent == nil {
			return !paused
		}
		return n.Parent.canProcess(paused)
	}
}

// processSubtree ticks this node, then its children. A parent's tick
// precedes its children's within the same frame; siblings run in insertion
// order unless Priority reorders them (stable, ascending).
func (n *Node) processSubtree(delta float64, paused bool, physics bool) {
	if n.destroyed {
		return
	}
	if n.canProcess(paused) {
		if physics {
			if n.OnPhysicsProcess != nil {
				n.OnPhysicsProcess(n, delta)
			}
			for _, s := range n.scripts {
				if ps, ok := s.(PhysicsProcessScript); ok {
					ps.PhysicsProcess(n, delta)
				}
			}
		} else {
			if n.OnProcess != nil {
				n.OnProcess(n, delta)
			}
			for _, s := range n.scripts {
				if ps, ok := s.(ProcessScript); ok {
					ps.Process(n, delta)
				}
			}
		}
	}
	for _, child := range n.orderedChildren() {
		child.processSubtree(delta, paused, physics)
	}
}

// orderedChildren returns children sorted by Priority (stable). The default
// zero priority preserves insertion order. The buffer is reused per node.
func (n *Node) orderedChildren() []*Node {
	reorder := false
	for _, c := range n.children {
		if c.Priority != 0 {
			reorder = true
			break
		}
	}
	if !reorder {
		return n.children
	}
	n.orderBuf = append(n.orderBuf[:0], n.children...)
	sort.SliceStable(n.orderBuf, func(i, j int) bool {
		return n.orderBuf[i].Priority < n.orderBuf[j].Priority
	})
	return n.orderBuf
}

// --- Scripts ---

// AttachScript adds a behavior object to this node and calls its Attach
// hook. If the node is already inside the tree, the script's EnterTree and
// Ready capabilities are invoked immediately to catch it up.
func (n *Node) AttachScript(s Script) {
	if s == nil || n.destroyed {
		return
	}
	n.scripts = append(n.scripts, s)
	s.Attach(n)
	if n.insideTree {
		if es, ok := s.(EnterTreeScript); ok {
			es.EnterTree(n)
		}
		if n.ready {
			if rs, ok := s.(ReadyScript); ok {
				rs.Ready(n)
			}
		}
	}
}

// Scripts returns the attached behavior objects. The returned slice MUST
// NOT be mutated by the caller.
func (n *Node) Scripts() []Script { return n.scripts }

// --- Groups ---

// AddToGroup tags this node with a group name.
func (n *Node) AddToGroup(group string) {
	if n.groups == nil {
		n.groups = map[string]struct{}{}
	}
	n.groups[group] = struct{}{}
}

// RemoveFromGroup removes this node's group tag.
func (n *Node) RemoveFromGroup(group string) {
	delete(n.groups, group)
}

// IsInGroup reports whether this node carries the group tag.
func (n *Node) IsInGroup(group string) bool {
	_, ok := n.groups[group]
	return ok
}

// NodesInGroup collects every node in this subtree tagged with group, in
// traversal order.
func (n *Node) NodesInGroup(group string) []*Node {
	var out []*Node
	n.walk(func(node *Node) {
		if node.IsInGroup(group) {
			out = append(out, node)
		}
	})
	return out
}

// --- Queries ---

// FindChild returns the first child with the given name, searching
// depth-first through descendants when recursive is true. Returns nil if
// not found.
func (n *Node) FindChild(name string, recursive bool) *Node {
	for _, c := range n.children {
		if c.Name == name {
			return c
		}
	}
	if recursive {
		for _, c := range n.children {
			if found := c.FindChild(name, true); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindByID returns the node with the given ID in this subtree, or nil.
func (n *Node) FindByID(id uuid.UUID) *Node {
	var found *Node
	n.walk(func(node *Node) {
		if found == nil && node.ID == id {
			found = node
		}
	})
	return found
}

// CountNodes returns the number of nodes in this subtree, including itself.
func (n *Node) CountNodes() int {
	count := 0
	n.walk(func(*Node) { count++ })
	return count
}

// walk visits this node and all descendants depth-first in traversal order.
func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, child := range n.children {
		child.walk(fn)
	}
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node (or node itself).
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
// Uses copy+nil to avoid retaining a dangling pointer in the backing array.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// uniqueChildName returns name, or name with the smallest numeric suffix
// that no existing child of parent uses.
func uniqueChildName(parent *Node, name string) string {
	taken := func(candidate string) bool {
		for _, c := range parent.children {
			if c.Name == candidate {
				return true
			}
		}
		return false
	}
	if !taken(name) {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// markSubtreeDirty invalidates the cached global transforms of node and all
// its descendants.
func markSubtreeDirty(node *Node) {
	node.global2Dirty = true
	node.global3Dirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}

// logger returns the logger of the attached tree's context, or a disabled
// logger for detached nodes.
func (n *Node) logger() *zerolog.Logger {
	if n.tree != nil && n.tree.ctx != nil {
		return n.tree.ctx.Logger()
	}
	return &nopLogger
}
