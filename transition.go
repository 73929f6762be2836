package arbor

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// transition interpolates the presentation of an incoming scene root. The
// logical scene swap has already happened by the time a transition starts;
// this only drives alpha (Fade) or position (Slide) until the root reaches
// its resting state.
type transition struct {
	mode   TransitionMode
	tween  *gween.Tween
	target *Node

	// Slide fields: the root rests at base and starts offset away from it.
	base   Vec2
	offset Vec2

	progress float32
}

// newTransition starts a transition at startProgress, which is nonzero when
// a cancelled in-flight transition hands over its current visual state.
func newTransition(mode TransitionMode, duration time.Duration, target *Node, offset Vec2, startProgress float32) *transition {
	t := &transition{
		mode:     mode,
		target:   target,
		base:     target.Position2D(),
		offset:   offset,
		progress: startProgress,
	}
	t.tween = gween.New(startProgress, 1, float32(duration.Seconds()), ease.Linear)
	t.apply(startProgress)
	return t
}

// update advances the transition by dt seconds; reports whether it finished.
func (t *transition) update(dt float64) bool {
	p, done := t.tween.Update(float32(dt))
	t.apply(p)
	if done {
		t.finish()
	}
	return done
}

func (t *transition) apply(p float32) {
	t.progress = p
	if t.target.IsDestroyed() {
		return
	}
	switch t.mode {
	case TransitionFade:
		t.target.Alpha = float64(p)
	case TransitionSlide:
		remain := float64(1 - p)
		t.target.SetPosition2D(Vec2{
			X: t.base.X + t.offset.X*remain,
			Y: t.base.Y + t.offset.Y*remain,
		})
	}
}

// finish snaps the target to its resting state.
func (t *transition) finish() {
	if t.target.IsDestroyed() {
		return
	}
	switch t.mode {
	case TransitionFade:
		t.target.Alpha = 1
	case TransitionSlide:
		t.target.SetPosition2D(t.base)
	}
}
