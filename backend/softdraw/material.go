package softdraw

import (
	"image"

	"github.com/gogpu/outline"
)

// material is a label-and-pass-count shell. The software executor
// selects its code path from the draw itself, so materials carry no
// shader state.
type material struct {
	label  string
	passes int
}

var _ outline.Material = (*material)(nil)

func (m *material) Label() string  { return m.label }
func (m *material) PassCount() int { return m.passes }

// NewMaskMaterial returns the material used for coverage draws.
func NewMaskMaterial() outline.Material {
	return &material{label: "softdraw/mask", passes: 1}
}

// NewOutlineMaterial returns the two-pass blur-and-composite material.
func NewOutlineMaterial() outline.Material {
	return &material{label: "softdraw/outline", passes: 2}
}

// fullscreenMesh is the blit fallback geometry. It deliberately does not
// implement Shape: the executor treats non-Shape draws as fullscreen
// passes.
type fullscreenMesh struct{}

var _ outline.Geometry = fullscreenMesh{}

func (fullscreenMesh) Label() string { return "softdraw/fullscreen" }

// NewFullscreenMesh returns the geometry used when the recorder reports
// no procedural draw support.
func NewFullscreenMesh() outline.Geometry {
	return fullscreenMesh{}
}

// NewResources assembles an outline resource bundle for the software
// executor.
func NewResources() (*outline.Resources, error) {
	return outline.NewResources(NewMaskMaterial(), NewOutlineMaterial(), NewFullscreenMesh())
}

// RectShape is a drawable axis-aligned rectangle. Each submesh covers
// the same rectangle; it exists mostly for tests and simple hosts.
type RectShape struct {
	Name     string
	Rect     image.Rectangle
	Submesh  int // number of submeshes, minimum 1
	Disabled bool
	Hidden   bool
	Inactive bool

	// Depth is the rect's distance for depth-tested draws, where larger
	// is farther. The zero value sits in front of everything.
	Depth uint16
}

var _ DepthShape = (*RectShape)(nil)
var _ outline.Drawable = (*RectShape)(nil)

// Label implements outline.Geometry.
func (s *RectShape) Label() string { return s.Name }

// Enabled implements outline.Drawable.
func (s *RectShape) Enabled() bool { return !s.Disabled }

// Visible implements outline.Drawable.
func (s *RectShape) Visible() bool { return !s.Hidden }

// Active implements outline.Drawable.
func (s *RectShape) Active() bool { return !s.Inactive }

// AppendMaterials implements outline.Drawable. Rectangles have one
// surface material per submesh; the shared mask material replaces them
// at draw time, so only the count matters here.
func (s *RectShape) AppendMaterials(dst []outline.Material) []outline.Material {
	n := s.Submesh
	if n < 1 {
		n = 1
	}
	for range n {
		dst = append(dst, NewMaskMaterial())
	}
	return dst
}

// Coverage implements Shape.
func (s *RectShape) Coverage(dst *image.Alpha, _ int) {
	r := s.Rect.Intersect(dst.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := dst.Pix[dst.PixOffset(r.Min.X, y) : dst.PixOffset(r.Max.X-1, y)+1]
		for i := range row {
			row[i] = 0xff
		}
	}
}

// DepthCoverage implements DepthShape. A pixel is covered only where
// the rect sits at or in front of the stored scene depth.
func (s *RectShape) DepthCoverage(dst *image.Alpha, depth *image.Gray16, _ int) {
	r := s.Rect.Intersect(dst.Bounds()).Intersect(depth.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if depth.Gray16At(x, y).Y >= s.Depth {
				dst.Pix[dst.PixOffset(x, y)] = 0xff
			}
		}
	}
}
