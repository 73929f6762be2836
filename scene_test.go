package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	ctx := NewContext(Config{LogLevel: "disabled"})
	require.NoError(t, ctx.Init())
	return ctx
}

func TestNewSceneStartsReady(t *testing.T) {
	ctx := newTestContext(t)
	s := NewScene(ctx, "menu")
	assert.Equal(t, SceneReady, s.State())
	assert.Equal(t, SceneTypeSub, s.Type)
	require.NotNil(t, s.Root())
	assert.Equal(t, "menu", s.Root().Name)
	assert.Equal(t, 1, s.NodeCount())
}

func TestSceneTransitionLegalPath(t *testing.T) {
	ctx := newTestContext(t)
	s := NewScene(ctx, "level")
	require.NoError(t, s.transitionTo(SceneRunning))
	require.NoError(t, s.transitionTo(ScenePaused))
	require.NoError(t, s.transitionTo(SceneRunning))
	require.NoError(t, s.transitionTo(SceneExiting))
	require.NoError(t, s.transitionTo(SceneReady))
}

func TestSceneTransitionIllegalEdges(t *testing.T) {
	ctx := newTestContext(t)
	cases := []struct {
		from, to SceneState
	}{
		{SceneReady, ScenePaused},
		{SceneRunning, SceneUnloaded},
		{SceneUnloaded, SceneRunning},
		{ScenePaused, SceneReady},
	}
	for _, tc := range cases {
		s := NewScene(ctx, "s")
		s.state = tc.from
		err := s.transitionTo(tc.to)
		var lerr *LifecycleError
		require.ErrorAs(t, err, &lerr, "%v -> %v should be illegal", tc.from, tc.to)
		assert.Equal(t, tc.from, s.State(), "failed transition must not change state")
	}
}

func TestSceneTransitionSameStateIsNoop(t *testing.T) {
	ctx := newTestContext(t)
	s := NewScene(ctx, "s")
	require.NoError(t, s.transitionTo(SceneReady))
	assert.Equal(t, SceneReady, s.State())
}

func TestSceneUnload(t *testing.T) {
	ctx := newTestContext(t)
	s := NewScene(ctx, "level")
	_ = s.Root().AddChild(NewNode2D("prop"))
	root := s.Root()

	require.NoError(t, s.Unload())
	assert.Equal(t, SceneUnloaded, s.State())
	assert.Nil(t, s.Root())
	assert.True(t, root.IsDestroyed())
}

func TestSceneUnloadWhileAttached(t *testing.T) {
	ctx := newTestContext(t)
	tree, err := NewSceneTree(ctx)
	require.NoError(t, err)
	s := NewScene(ctx, "level")
	require.NoError(t, tree.SetMainScene(s))

	var lerr *LifecycleError
	require.ErrorAs(t, s.Unload(), &lerr)
	assert.NotNil(t, s.Root(), "failed unload must not tear down the tree")
}

func TestSceneStats(t *testing.T) {
	ctx := newTestContext(t)
	s := NewScene(ctx, "hud")
	_ = s.Root().AddChild(NewControl("bar"))
	_ = s.Root().AddChild(NewControl("minimap"))

	stats := s.Stats()
	assert.Equal(t, "hud", stats.Name)
	assert.Equal(t, SceneReady, stats.State)
	assert.Equal(t, 3, stats.NodeCount)
}

func TestSceneSerialize(t *testing.T) {
	ctx := newTestContext(t)
	s := NewScene(ctx, "level")
	_ = s.Root().AddChild(NewNode2D("prop"))

	data, err := s.Serialize()
	require.NoError(t, err)

	got, err := Deserialize(data, NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 2, got.CountNodes())
}
