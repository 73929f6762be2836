package arbor

import "fmt"

// StructuralError reports an invalid tree mutation: adding a child that
// already has a parent, removing a non-child, or an out-of-range sibling
// index. Structural errors are always synchronous and the tree is left
// exactly as it was before the call.
type StructuralError struct {
	Op   string // the failing operation, e.g. "AddChild"
	Node string // name of the node the operation targeted
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("arbor: %s %q: %s", e.Op, e.Node, e.Msg)
}

// LifecycleError reports an operation issued at the wrong time: using a
// context before Init, ticking a shut-down tree, or popping an empty scene
// stack.
type LifecycleError struct {
	Op  string
	Msg string
}

func (e *LifecycleError) Error() string {
	return fmt.Sprintf("arbor: %s: %s", e.Op, e.Msg)
}

// SerializationError reports a property or child that could not be encoded
// or decoded. Serialization never aborts the whole tree on one of these;
// the offending entry is skipped and the error logged.
type SerializationError struct {
	Node     string
	Property string
	Msg      string
}

func (e *SerializationError) Error() string {
	if e.Property == "" {
		return fmt.Sprintf("arbor: serialize %q: %s", e.Node, e.Msg)
	}
	return fmt.Sprintf("arbor: serialize %q property %q: %s", e.Node, e.Property, e.Msg)
}

// SceneLoadError reports a missing or corrupt scene resource. By the time a
// caller sees one, the scene's state machine has been rolled back to
// Unloaded and any partially built nodes destroyed.
type SceneLoadError struct {
	Path string
	Err  error
}

func (e *SceneLoadError) Error() string {
	return fmt.Sprintf("arbor: load scene %q: %v", e.Path, e.Err)
}

func (e *SceneLoadError) Unwrap() error { return e.Err }

func structuralErr(op string, n *Node, msg string) error {
	name := ""
	if n != nil {
		name = n.Name
	}
	return &StructuralError{Op: op, Node: name, Msg: msg}
}
