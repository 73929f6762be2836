// Package ebitenbackend implements arbor's renderer backend contract on
// [Ebitengine]. It keeps one draw list per render layer; the scene tree
// registers the root node of each attached subtree and the backend draws
// the subtree's 2D content in tree order.
//
// [Ebitengine]: https://ebitengine.org
package ebitenbackend

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/arborengine/arbor"
)

// whitePixel is a 1x1 white image used for nodes without an assigned image.
var whitePixel *ebiten.Image

func init() {
	whitePixel = ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)
}

// Handle is the backend token for one registered root node.
type Handle struct {
	Node  *arbor.Node
	layer arbor.RenderLayer
}

// Backend maintains per-layer draw lists of registered handles. It supports
// the 2D and UI layers; 3D registration is declined via Supports.
type Backend struct {
	layers map[arbor.RenderLayer][]*Handle
	images map[*arbor.Node]*ebiten.Image
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{
		layers: map[arbor.RenderLayer][]*Handle{},
		images: map[*arbor.Node]*ebiten.Image{},
	}
}

// Supports reports whether the backend draws the given layer.
func (b *Backend) Supports(layer arbor.RenderLayer) bool {
	return layer == arbor.Layer2D || layer == arbor.LayerUI
}

// CreateHandle creates a backend handle for a root-level node.
func (b *Backend) CreateHandle(n *arbor.Node) arbor.BackendHandle {
	return &Handle{Node: n}
}

// AddToLayer appends the handle to the layer's draw list.
func (b *Backend) AddToLayer(h arbor.BackendHandle, layer arbor.RenderLayer) {
	handle, ok := h.(*Handle)
	if !ok {
		return
	}
	handle.layer = layer
	b.layers[layer] = append(b.layers[layer], handle)
}

// RemoveFromLayer removes the handle from the layer's draw list.
func (b *Backend) RemoveFromLayer(h arbor.BackendHandle, layer arbor.RenderLayer) {
	handle, ok := h.(*Handle)
	if !ok {
		return
	}
	list := b.layers[layer]
	for i, entry := range list {
		if entry == handle {
			copy(list[i:], list[i+1:])
			list[len(list)-1] = nil
			b.layers[layer] = list[:len(list)-1]
			return
		}
	}
}

// DestroyHandle releases the handle.
func (b *Backend) DestroyHandle(h arbor.BackendHandle) {
	if handle, ok := h.(*Handle); ok {
		handle.Node = nil
	}
}

// SetImage assigns the image drawn for a node. Nodes without an image draw
// a white pixel scaled by their transform.
func (b *Backend) SetImage(n *arbor.Node, img *ebiten.Image) {
	b.images[n] = img
}

// LayerCount returns the number of registered handles on a layer.
func (b *Backend) LayerCount(layer arbor.RenderLayer) int {
	return len(b.layers[layer])
}

// Draw renders the 2D layer and then the UI layer onto screen, walking each
// registered subtree in tree order.
func (b *Backend) Draw(screen *ebiten.Image) {
	for _, layer := range []arbor.RenderLayer{arbor.Layer2D, arbor.LayerUI} {
		for _, handle := range b.layers[layer] {
			if handle.Node == nil || handle.Node.IsDestroyed() {
				continue
			}
			b.drawSubtree(screen, handle.Node)
		}
	}
}

func (b *Backend) drawSubtree(screen *ebiten.Image, n *arbor.Node) {
	if !n.Visible {
		return
	}
	if (n.Kind == arbor.KindNode2D || n.Kind == arbor.KindControl) && n.Alpha > 0 {
		img := b.images[n]
		if img == nil {
			img = whitePixel
		}
		m := n.GlobalTransform2D()
		op := &ebiten.DrawImageOptions{}
		op.GeoM.SetElement(0, 0, m[0])
		op.GeoM.SetElement(1, 0, m[1])
		op.GeoM.SetElement(0, 1, m[2])
		op.GeoM.SetElement(1, 1, m[3])
		op.GeoM.SetElement(0, 2, m[4])
		op.GeoM.SetElement(1, 2, m[5])
		op.ColorScale.ScaleAlpha(float32(n.Alpha))
		screen.DrawImage(img, op)
	}
	for _, child := range n.Children() {
		b.drawSubtree(screen, child)
	}
}
