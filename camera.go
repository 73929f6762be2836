package arbor

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// CameraProjection converts between world space and screen space. The scene
// graph only consumes this contract; rendering owns the real projection.
type CameraProjection interface {
	Project(world Vec2) (screen Vec2)
	Unproject(screen Vec2) (world Vec2)
}

// scrollAnim holds active scroll-to tweens for camera X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
}

// Camera2D is a 2D view: position, zoom, rotation, and viewport. It
// implements CameraProjection for the transform conversion helpers.
type Camera2D struct {
	// X and Y are the world-space position the camera centers on.
	X, Y float64
	// Zoom is the scale factor (1.0 = no zoom, >1 = zoom in, <1 = zoom out).
	Zoom float64
	// Rotation is the camera rotation in radians (clockwise).
	Rotation float64
	// Viewport is the screen-space rectangle this camera projects into.
	Viewport Rect

	followTarget  *Node
	followOffsetX float64
	followOffsetY float64
	followLerp    float64

	viewMatrix    Mat2D
	invViewMatrix Mat2D
	dirty         bool

	scrollTween *scrollAnim
}

// NewCamera2D creates a camera with default values and the given viewport.
func NewCamera2D(viewport Rect) *Camera2D {
	return &Camera2D{
		Zoom:     1.0,
		Viewport: viewport,
		dirty:    true,
	}
}

// Follow makes the camera track a target node with the given offset and lerp
// factor. A lerp of 1.0 snaps immediately; lower values give smoother
// following.
func (c *Camera2D) Follow(node *Node, offsetX, offsetY, lerp float64) {
	c.followTarget = node
	c.followOffsetX = offsetX
	c.followOffsetY = offsetY
	c.followLerp = lerp
}

// Unfollow stops tracking the current target node.
func (c *Camera2D) Unfollow() {
	c.followTarget = nil
}

// ScrollTo animates the camera to the given world position over duration
// seconds.
func (c *Camera2D) ScrollTo(x, y float64, duration float32, easeFn ease.TweenFunc) {
	c.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(c.X), float32(x), duration, easeFn),
		tweenY: gween.New(float32(c.Y), float32(y), duration, easeFn),
	}
}

// Update advances follow and scroll animation by dt seconds. Call once per
// frame.
func (c *Camera2D) Update(dt float64) {
	if c.scrollTween != nil {
		x, doneX := c.scrollTween.tweenX.Update(float32(dt))
		y, doneY := c.scrollTween.tweenY.Update(float32(dt))
		c.SetPosition(float64(x), float64(y))
		if doneX && doneY {
			c.scrollTween = nil
		}
	}
	if c.followTarget != nil && !c.followTarget.IsDestroyed() {
		target := c.followTarget.GlobalPosition2D()
		tx := target.X + c.followOffsetX
		ty := target.Y + c.followOffsetY
		lerp := c.followLerp
		if lerp <= 0 || lerp > 1 {
			lerp = 1
		}
		c.SetPosition(c.X+(tx-c.X)*lerp, c.Y+(ty-c.Y)*lerp)
	}
}

// SetPosition moves the camera center and invalidates the view matrix.
func (c *Camera2D) SetPosition(x, y float64) {
	c.X = x
	c.Y = y
	c.dirty = true
}

// SetZoom sets the zoom factor and invalidates the view matrix.
func (c *Camera2D) SetZoom(zoom float64) {
	c.Zoom = zoom
	c.dirty = true
}

// SetRotation sets the camera rotation and invalidates the view matrix.
func (c *Camera2D) SetRotation(r float64) {
	c.Rotation = r
	c.dirty = true
}

// ViewMatrix returns the world-to-screen matrix: translate the camera
// center to the origin, rotate and zoom, then recenter on the viewport.
func (c *Camera2D) ViewMatrix() Mat2D {
	if c.dirty {
		sin, cos := math.Sincos(-c.Rotation)
		z := c.Zoom
		if z == 0 {
			z = 1
		}
		cx := c.Viewport.X + c.Viewport.Width/2
		cy := c.Viewport.Y + c.Viewport.Height/2
		a := cos * z
		b := sin * z
		cm := -sin * z
		d := cos * z
		c.viewMatrix = Mat2D{
			a, b, cm, d,
			cx - (a*c.X + cm*c.Y),
			cy - (b*c.X + d*c.Y),
		}
		c.invViewMatrix = c.viewMatrix.Invert()
		c.dirty = false
	}
	return c.viewMatrix
}

// Project converts a world-space point to screen space.
func (c *Camera2D) Project(world Vec2) Vec2 {
	return c.ViewMatrix().Apply(world)
}

// Unproject converts a screen-space point to world space.
func (c *Camera2D) Unproject(screen Vec2) Vec2 {
	c.ViewMatrix()
	return c.invViewMatrix.Apply(screen)
}
