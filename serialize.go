package arbor

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// sNode is the persisted scene format: {type, name, id, properties,
// children}. A node reference inside properties or children is instead
// {isReference: true, id}.
type sNode struct {
	Type        string         `json:"type,omitempty"`
	Name        string         `json:"name,omitempty"`
	ID          string         `json:"id"`
	IsReference bool           `json:"isReference,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Children    []*sNode       `json:"children,omitempty"`
}

// flatNode mirrors sNode with children already encoded, so the encoder
// never sees a struct type that contains itself.
type flatNode struct {
	Type        string            `json:"type,omitempty"`
	Name        string            `json:"name,omitempty"`
	ID          string            `json:"id"`
	IsReference bool              `json:"isReference,omitempty"`
	Properties  map[string]any    `json:"properties,omitempty"`
	Children    []json.RawMessage `json:"children,omitempty"`
}

// MarshalJSON encodes each child itself before handing the encoder a flat
// shape. The tree edge is walked here rather than by the encoder.
func (sn *sNode) MarshalJSON() ([]byte, error) {
	flat := flatNode{
		Type:        sn.Type,
		Name:        sn.Name,
		ID:          sn.ID,
		IsReference: sn.IsReference,
		Properties:  sn.Properties,
	}
	for _, child := range sn.Children {
		raw, err := child.MarshalJSON()
		if err != nil {
			return nil, err
		}
		flat.Children = append(flat.Children, json.RawMessage(raw))
	}
	return json.Marshal(flat)
}

// Registry tracks reconstructed nodes by ID during deserialization so that
// forward and back references resolve to the same instance.
type Registry struct {
	nodes map[uuid.UUID]*Node
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{nodes: map[uuid.UUID]*Node{}}
}

// Register records a reconstructed node.
func (r *Registry) Register(n *Node) { r.nodes[n.ID] = n }

// Get returns the node registered under id, or nil.
func (r *Registry) Get(id uuid.UUID) *Node { return r.nodes[id] }

// Len returns the number of registered nodes.
func (r *Registry) Len() int { return len(r.nodes) }

// Nodes returns all registered nodes, in no particular order.
func (r *Registry) Nodes() []*Node {
	out := make([]*Node, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}

// --- Serialize ---

// Serialize encodes the node and its subtree into the persisted JSON scene
// format. Properties that cannot be encoded are skipped with a warning
// rather than aborting the whole tree.
func (n *Node) Serialize() ([]byte, error) {
	visited := map[uuid.UUID]bool{}
	sn := buildSerial(n, visited, n.logger())
	return json.Marshal(sn)
}

// SerializeIndent is Serialize with indented output for scene files meant
// to be read or diffed by humans.
func (n *Node) SerializeIndent() ([]byte, error) {
	visited := map[uuid.UUID]bool{}
	sn := buildSerial(n, visited, n.logger())
	return json.MarshalIndent(sn, "", "  ")
}

// buildSerial walks the subtree. A node seen twice emits a reference stub
// instead of re-embedding its state.
func buildSerial(n *Node, visited map[uuid.UUID]bool, logger *zerolog.Logger) *sNode {
	if visited[n.ID] {
		return &sNode{IsReference: true, ID: n.ID.String()}
	}
	visited[n.ID] = true

	sn := &sNode{
		Type: n.Kind.String(),
		Name: n.Name,
		ID:   n.ID.String(),
	}

	props := map[string]any{}
	for _, desc := range n.properties() {
		raw := desc.Get(n)
		if raw == nil {
			continue
		}
		encoded, err := encodeValue(raw)
		if err != nil {
			serr := &SerializationError{Node: n.Name, Property: desc.Name, Msg: err.Error()}
			logger.Warn().Err(serr).Msg("skipping property")
			continue
		}
		props[desc.Name] = encoded
	}
	if len(n.Meta) > 0 {
		meta := map[string]any{}
		for key, v := range n.Meta {
			encoded, err := encodeValue(v)
			if err != nil {
				serr := &SerializationError{Node: n.Name, Property: "meta." + key, Msg: err.Error()}
				logger.Warn().Err(serr).Msg("skipping property")
				continue
			}
			meta[key] = encoded
		}
		if len(meta) > 0 {
			props["meta"] = meta
		}
	}
	if len(props) > 0 {
		sn.Properties = props
	}

	for _, child := range n.children {
		sn.Children = append(sn.Children, buildSerial(child, visited, logger))
	}
	return sn
}

// encodeValue converts a property value into its JSON shape. Node pointers
// always encode as reference stubs; full node state is only embedded
// through the children edge.
func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, float64, float32, int, int32, int64:
		return x, nil
	case Vec2:
		return map[string]any{"x": x.X, "y": x.Y}, nil
	case Vec3:
		return map[string]any{"x": x.X, "y": x.Y, "z": x.Z}, nil
	case []float64:
		out := make([]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	case *Node:
		if x == nil {
			return nil, nil
		}
		return &sNode{IsReference: true, ID: x.ID.String()}, nil
	case map[string]any:
		out := map[string]any{}
		for k, item := range x {
			encoded, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = encoded
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			encoded, err := encodeValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, encoded)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

// --- Deserialize ---

// deferredProps pairs a reconstructed node with its raw properties; values
// are applied only after the whole tree is built and registered so node
// references resolve in both directions.
type deferredProps struct {
	node  *Node
	props map[string]any
}

// Deserialize reconstructs a node tree from the persisted JSON scene
// format. Each node is registered in reg before its children are resolved.
// Pass nil to use a fresh registry.
func Deserialize(data []byte, reg *Registry) (*Node, error) {
	return deserialize(data, reg, &nopLogger)
}

func deserialize(data []byte, reg *Registry, logger *zerolog.Logger) (*Node, error) {
	if reg == nil {
		reg = NewRegistry()
	}
	var sn sNode
	if err := json.Unmarshal(data, &sn); err != nil {
		return nil, &SerializationError{Msg: "invalid scene document: " + err.Error()}
	}
	if sn.IsReference {
		return nil, &SerializationError{Msg: "root node cannot be a reference stub"}
	}
	var deferred []deferredProps
	root, err := buildFromSerial(&sn, reg, logger, &deferred)
	if err != nil {
		return nil, err
	}
	for _, d := range deferred {
		applyProperties(d.node, d.props, reg, logger)
	}
	return root, nil
}

func buildFromSerial(sn *sNode, reg *Registry, logger *zerolog.Logger, deferred *[]deferredProps) (*Node, error) {
	kind, err := parseNodeKind(sn.Type)
	if err != nil {
		return nil, &SerializationError{Node: sn.Name, Msg: err.Error()}
	}
	n := newNodeOfKind(kind, sn.Name)
	if id, err := uuid.Parse(sn.ID); err == nil {
		n.ID = id
	} else {
		logger.Warn().Str("node", sn.Name).Str("id", sn.ID).
			Msg("invalid node id, generated a fresh one")
	}
	reg.Register(n)
	if len(sn.Properties) > 0 {
		*deferred = append(*deferred, deferredProps{node: n, props: sn.Properties})
	}
	for _, childSN := range sn.Children {
		if childSN.IsReference {
			child, ok := resolveReference(childSN.ID, reg)
			if !ok {
				serr := &SerializationError{Node: sn.Name, Msg: "unresolvable child reference " + childSN.ID}
				logger.Warn().Err(serr).Msg("skipping child")
				continue
			}
			if err := n.AddChild(child); err != nil {
				logger.Warn().Err(err).Str("node", sn.Name).Msg("skipping child reference")
			}
			continue
		}
		child, err := buildFromSerial(childSN, reg, logger, deferred)
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// applyProperties feeds decoded values through the node's descriptor table.
// A failing property is skipped with a warning, never aborting the rest.
func applyProperties(n *Node, props map[string]any, reg *Registry, logger *zerolog.Logger) {
	for _, desc := range n.properties() {
		raw, ok := props[desc.Name]
		if !ok {
			continue
		}
		if err := desc.Set(n, decodeValue(raw, reg, logger)); err != nil {
			serr := &SerializationError{Node: n.Name, Property: desc.Name, Msg: err.Error()}
			logger.Warn().Err(serr).Msg("skipping property")
		}
	}
	if rawMeta, ok := props["meta"]; ok {
		if metaMap, ok := rawMeta.(map[string]any); ok {
			for key, v := range metaMap {
				decoded := decodeValue(v, reg, logger)
				if decoded == nil && v != nil {
					serr := &SerializationError{Node: n.Name, Property: "meta." + key, Msg: "unresolvable reference"}
					logger.Warn().Err(serr).Msg("skipping property")
					continue
				}
				if n.Meta == nil {
					n.Meta = map[string]any{}
				}
				n.Meta[key] = decoded
			}
		}
	}
}

// decodeValue turns reference stubs back into node pointers via the
// registry; other values pass through (nested containers recursively).
func decodeValue(v any, reg *Registry, logger *zerolog.Logger) any {
	switch x := v.(type) {
	case map[string]any:
		if isRef, ok := x["isReference"].(bool); ok && isRef {
			id, _ := x["id"].(string)
			node, ok := resolveReference(id, reg)
			if !ok {
				return nil
			}
			return node
		}
		out := map[string]any{}
		for k, item := range x {
			out[k] = decodeValue(item, reg, logger)
		}
		return out
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			out = append(out, decodeValue(item, reg, logger))
		}
		return out
	default:
		return v
	}
}

func resolveReference(rawID string, reg *Registry) (*Node, bool) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, false
	}
	node := reg.Get(id)
	if node == nil {
		return nil, false
	}
	return node, true
}
