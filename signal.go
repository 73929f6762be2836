package arbor

import (
	"github.com/rs/zerolog"
)

// nopLogger is used by nodes that are not attached to any tree.
var nopLogger = zerolog.Nop()

// SignalHandler is invoked synchronously when a signal is emitted, with the
// arguments passed to Emit.
type SignalHandler func(args ...any)

// connection is one subscription on a signal.
type connection struct {
	id      int
	handler SignalHandler
}

// signal is a named event channel owned by a node. Handlers run in
// subscription order.
type signal struct {
	nextID int
	conns  []connection
}

// AddSignal declares a new signal on this node. Declaring a signal that
// already exists is a no-op, so built-in signals cannot be clobbered.
func (n *Node) AddSignal(name string) {
	if n.destroyed {
		return
	}
	if _, ok := n.signals[name]; ok {
		return
	}
	n.signals[name] = &signal{}
}

// HasSignal reports whether the signal is declared on this node.
func (n *Node) HasSignal(name string) bool {
	_, ok := n.signals[name]
	return ok
}

// Connect subscribes handler to the named signal and returns a connection
// id for Disconnect. Fails with a LifecycleError if the signal has not been
// declared.
func (n *Node) Connect(name string, handler SignalHandler) (int, error) {
	if n.destroyed {
		return 0, &LifecycleError{Op: "Connect", Msg: "node is destroyed"}
	}
	sig, ok := n.signals[name]
	if !ok {
		return 0, &LifecycleError{Op: "Connect", Msg: "signal " + name + " not declared"}
	}
	sig.nextID++
	sig.conns = append(sig.conns, connection{id: sig.nextID, handler: handler})
	return sig.nextID, nil
}

// Disconnect removes the subscription with the given connection id.
func (n *Node) Disconnect(name string, id int) {
	sig, ok := n.signals[name]
	if !ok {
		return
	}
	for i, c := range sig.conns {
		if c.id == id {
			sig.conns = append(sig.conns[:i], sig.conns[i+1:]...)
			return
		}
	}
}

// Emit invokes all handlers of the named signal synchronously, in
// subscription order. A panic in one handler is recovered and logged so it
// cannot block the remaining handlers. Emitting an undeclared signal is a
// no-op.
func (n *Node) Emit(name string, args ...any) {
	if n.destroyed {
		return
	}
	sig, ok := n.signals[name]
	if !ok {
		return
	}
	// Handlers may disconnect themselves (or each other) mid-emit, which
	// edits conns in place. Iterate a snapshot so the dispatch order taken
	// at emit time is honored.
	snapshot := make([]connection, len(sig.conns))
	copy(snapshot, sig.conns)
	for _, c := range snapshot {
		n.invoke(name, c, args)
	}
}

func (n *Node) invoke(name string, c connection, args []any) {
	defer func() {
		if r := recover(); r != nil {
			n.logger().Error().
				Str("node", n.Name).
				Str("signal", name).
				Int("connection", c.id).
				Any("panic", r).
				Msg("signal handler panicked")
		}
	}()
	c.handler(args...)
}

// ConnectionCount returns the number of handlers subscribed to the signal.
func (n *Node) ConnectionCount(name string) int {
	sig, ok := n.signals[name]
	if !ok {
		return 0
	}
	return len(sig.conns)
}
