package arbor

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSampleScene() *Node {
	root := NewNode2D("world")
	root.SetPosition2D(Vec2{10, 20})
	root.SetRotation2D(math.Pi / 4)

	player := NewNode2D("player")
	player.SetPosition2D(Vec2{5, 5})
	player.SetScale2D(Vec2{2, 2})
	player.Priority = 3
	player.AddToGroup("actors")
	_ = root.AddChild(player)

	hud := NewControl("hud")
	hud.SetAnchorsPreset(PresetFullRect)
	hud.SetOffsets(8, 8, -8, -8)
	hud.Alpha = 0.75
	_ = root.AddChild(hud)

	ship := NewNode3D("ship")
	ship.SetPosition3D(Vec3{1, 2, 3})
	ship.Mode = ProcessAlways
	_ = player.AddChild(ship)

	return root
}

func TestSerializeRoundTrip(t *testing.T) {
	root := buildSampleScene()
	data, err := root.Serialize()
	require.NoError(t, err)

	reg := NewRegistry()
	got, err := Deserialize(data, reg)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, root.CountNodes(), got.CountNodes())
	assert.Equal(t, reg.Len(), root.CountNodes())
	assert.Equal(t, "world", got.Name)
	assert.Equal(t, KindNode2D, got.Kind)
	assert.Equal(t, root.ID, got.ID)
	assert.InDelta(t, math.Pi/4, got.Rotation2D(), 1e-9)

	player := got.FindChild("player", false)
	require.NotNil(t, player)
	assert.Equal(t, Vec2{5, 5}, player.Position2D())
	assert.Equal(t, Vec2{2, 2}, player.Scale2D())
	assert.Equal(t, 3, player.Priority)
	assert.True(t, player.IsInGroup("actors"))

	hud := got.FindChild("hud", false)
	require.NotNil(t, hud)
	assert.Equal(t, KindControl, hud.Kind)
	assert.InDelta(t, 0.75, hud.Alpha, 1e-9)
	assert.InDelta(t, 1.0, hud.AnchorRight, 1e-9)
	assert.InDelta(t, -8.0, hud.OffsetRight, 1e-9)

	ship := got.FindChild("ship", true)
	require.NotNil(t, ship)
	assert.Equal(t, KindNode3D, ship.Kind)
	assert.Equal(t, Vec3{1, 2, 3}, ship.Position3D())
	assert.Equal(t, ProcessAlways, ship.Mode)
}

func TestSerializeDeepTree(t *testing.T) {
	// Nested children exercise the encoder on every depth, with siblings at
	// each level so the child slices are non-trivial.
	root := NewNode2D("level0")
	parent := root
	for depth := 1; depth <= 6; depth++ {
		next := NewNode2D(fmt.Sprintf("level%d", depth))
		next.SetPosition2D(Vec2{float64(depth), float64(depth * 2)})
		require.NoError(t, parent.AddChild(next))
		require.NoError(t, parent.AddChild(NewNode(fmt.Sprintf("sibling%d", depth))))
		parent = next
	}

	data, err := root.Serialize()
	require.NoError(t, err)

	indented, err := root.SerializeIndent()
	require.NoError(t, err)
	assert.NotEmpty(t, indented)

	got, err := Deserialize(data, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, root.CountNodes(), got.CountNodes())

	leaf := got.FindChild("level6", true)
	require.NotNil(t, leaf)
	assert.Equal(t, Vec2{6, 12}, leaf.Position2D())
}

func TestSerializeMetaRoundTrip(t *testing.T) {
	root := NewNode("root")
	root.Meta = map[string]any{
		"hp":    100.0,
		"title": "boss",
		"flags": []any{"a", "b"},
	}
	data, err := root.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(data, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Meta["hp"])
	assert.Equal(t, "boss", got.Meta["title"])
	assert.Equal(t, []any{"a", "b"}, got.Meta["flags"])
}

func TestSerializeNodeReferenceResolves(t *testing.T) {
	root := NewNode2D("root")
	turret := NewNode2D("turret")
	target := NewNode2D("target")
	_ = root.AddChild(turret)
	_ = root.AddChild(target)
	// A cross-tree reference must survive as a reference, not a copy.
	turret.Meta = map[string]any{"target": target}

	data, err := root.Serialize()
	require.NoError(t, err)

	reg := NewRegistry()
	got, err := Deserialize(data, reg)
	require.NoError(t, err)

	gotTurret := got.FindChild("turret", false)
	gotTarget := got.FindChild("target", false)
	require.NotNil(t, gotTurret)
	require.NotNil(t, gotTarget)
	assert.Same(t, gotTarget, gotTurret.Meta["target"], "reference should resolve to the deserialized instance")
	assert.Equal(t, 3, got.CountNodes(), "reference must not duplicate the node")
}

func TestSerializeUnsupportedMetaSkipped(t *testing.T) {
	root := NewNode("root")
	root.Meta = map[string]any{
		"ok":  1.5,
		"bad": func() {},
	}
	data, err := root.Serialize()
	require.NoError(t, err, "unsupported values are skipped, not fatal")

	got, err := Deserialize(data, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 1.5, got.Meta["ok"])
	_, present := got.Meta["bad"]
	assert.False(t, present)
}

func TestDeserializeMalformed(t *testing.T) {
	_, err := Deserialize([]byte("{not json"), NewRegistry())
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
}

func TestDeserializeUnknownType(t *testing.T) {
	_, err := Deserialize([]byte(`{"type":"Widget","name":"x"}`), NewRegistry())
	var serr *SerializationError
	require.ErrorAs(t, err, &serr)
}

func TestDeserializeGeneratesMissingIDs(t *testing.T) {
	got, err := Deserialize([]byte(`{"type":"Node","name":"anon"}`), NewRegistry())
	require.NoError(t, err)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", got.ID.String())
}

func TestRegistryTracksAllNodes(t *testing.T) {
	root := buildSampleScene()
	data, err := root.Serialize()
	require.NoError(t, err)

	reg := NewRegistry()
	got, err := Deserialize(data, reg)
	require.NoError(t, err)

	got.walk(func(n *Node) {
		assert.Same(t, n, reg.Get(n.ID))
	})
	assert.Len(t, reg.Nodes(), got.CountNodes())
}
