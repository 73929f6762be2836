package arbor

import "fmt"

// Warning thresholds for tree shape checks.
const (
	maxTreeDepth  = 32
	maxChildCount = 1000
)

// ValidateSubtree checks the structural invariants of this node's subtree:
// every child's Parent back-reference points at its owner, no node appears
// twice, no destroyed node is still attached, and the subtree is acyclic.
// Returns the first violation found as a StructuralError, or nil. Intended
// for debug builds and tests; the mutation API maintains these invariants
// on its own.
func (n *Node) ValidateSubtree() error {
	seen := map[*Node]bool{}
	return validateNode(n, seen, 1)
}

func validateNode(n *Node, seen map[*Node]bool, depth int) error {
	if seen[n] {
		return structuralErr("ValidateSubtree", n, "node appears twice in the tree")
	}
	seen[n] = true
	if n.destroyed {
		return structuralErr("ValidateSubtree", n, "destroyed node is still attached")
	}
	if depth > maxTreeDepth {
		n.logger().Warn().
			Str("node", n.Name).
			Int("depth", depth).
			Msgf("tree depth exceeds %d", maxTreeDepth)
	}
	if len(n.children) > maxChildCount {
		n.logger().Warn().
			Str("node", n.Name).
			Int("children", len(n.children)).
			Msgf("child count exceeds %d", maxChildCount)
	}
	for i, child := range n.children {
		if child == nil {
			return structuralErr("ValidateSubtree", n, fmt.Sprintf("nil child at index %d", i))
		}
		if child.Parent != n {
			return structuralErr("ValidateSubtree", child, "parent back-reference does not match")
		}
		if child.insideTree != n.insideTree && !n.insideTree {
			return structuralErr("ValidateSubtree", child, "child inside tree under detached parent")
		}
		if err := validateNode(child, seen, depth+1); err != nil {
			return err
		}
	}
	return nil
}
