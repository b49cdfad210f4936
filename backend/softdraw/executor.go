// Package softdraw executes outline recordings on the CPU.
//
// The executor resolves render targets to in-memory images: transient
// single-channel targets become *image.Alpha, and externally bound
// destinations are *image.RGBA frames supplied by the host. Mask
// coverage, the separable blur and the final composite are computed in
// plain Go, which makes the backend suitable for tests and headless
// rendering in addition to serving as the reference implementation for
// GPU backends.
package softdraw

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/recording"
)

// Backend errors.
var (
	ErrNoFrame       = errors.New("softdraw: no frame bound for target")
	ErrTargetInUse   = errors.New("softdraw: target identifier already acquired")
	ErrNoTarget      = errors.New("softdraw: no render target bound")
	ErrShapeTarget   = errors.New("softdraw: shape draw outside a coverage target")
	ErrNoSource      = errors.New("softdraw: no source texture bound")
	ErrBadAttachment = errors.New("softdraw: attachment target unknown")
)

// Shape is the geometry contract of the software executor. Drawables
// rasterize their own coverage; the executor supplies the destination
// and the submesh index and accumulates the result into the mask.
type Shape interface {
	outline.Geometry

	// Coverage writes the submesh's coverage into dst, where 255 is
	// fully covered. Pixels outside the submesh must be left untouched.
	Coverage(dst *image.Alpha, submesh int)
}

// DepthShape is implemented by shapes that honor a read-only depth
// attachment. When a depth map is bound to the pass, the executor calls
// DepthCoverage instead of Coverage so the shape can reject occluded
// pixels.
type DepthShape interface {
	Shape

	// DepthCoverage writes the submesh's coverage into dst, testing each
	// pixel against the depth map. Larger depth values are farther away.
	DepthCoverage(dst *image.Alpha, depth *image.Gray16, submesh int)
}

// target is one resolved render target: exactly one of alpha or frame
// is set.
type target struct {
	alpha *image.Alpha
	frame *image.RGBA
}

// Executor replays recordings against in-memory images.
// It implements recording.Backend. Not safe for concurrent use.
type Executor struct {
	frames  map[outline.TargetID]*image.RGBA
	depths  map[outline.TargetID]*image.Gray16
	targets map[outline.TargetID]*target

	bound      *target
	boundDepth *image.Gray16

	textures map[outline.PropID]outline.TargetID
	colors   map[outline.PropID]gputypes.Color
	floats   map[outline.PropID]float32
	arrays   map[outline.PropID][]float32
}

var _ recording.Backend = (*Executor)(nil)

// NewExecutor creates an executor. External targets (the composite
// destination, typically) must be bound with BindFrame before playback.
func NewExecutor() *Executor {
	return &Executor{
		frames:   make(map[outline.TargetID]*image.RGBA),
		depths:   make(map[outline.TargetID]*image.Gray16),
		targets:  make(map[outline.TargetID]*target),
		textures: make(map[outline.PropID]outline.TargetID),
		colors:   make(map[outline.PropID]gputypes.Color),
		floats:   make(map[outline.PropID]float32),
		arrays:   make(map[outline.PropID][]float32),
	}
}

// BindFrame associates an externally owned frame with a target
// identifier. Recordings composite onto it in place.
func (e *Executor) BindFrame(id outline.TargetID, frame *image.RGBA) {
	e.frames[id] = frame
	e.targets[id] = &target{frame: frame}
}

// BindDepthMap associates an externally populated depth map with a
// target identifier. Passes that bind it as their depth attachment test
// DepthShape coverage against it; the map is never written.
func (e *Executor) BindDepthMap(id outline.TargetID, depth *image.Gray16) {
	e.depths[id] = depth
}

// viewport returns the bounds transient targets default to when the
// recording requests "match viewport" sizing.
func (e *Executor) viewport() image.Rectangle {
	for _, f := range e.frames {
		return f.Bounds()
	}
	return image.Rect(0, 0, 1, 1)
}

// Begin implements recording.Backend.
func (e *Executor) Begin() error {
	if len(e.frames) == 0 {
		return ErrNoFrame
	}
	return nil
}

// End implements recording.Backend.
func (e *Executor) End() error {
	e.bound = nil
	e.boundDepth = nil
	clear(e.textures)
	clear(e.colors)
	clear(e.floats)
	clear(e.arrays)
	return nil
}

// BeginSample implements recording.Backend. The software executor does
// not profile.
func (e *Executor) BeginSample(string) {}

// EndSample implements recording.Backend.
func (e *Executor) EndSample() {}

// AcquireTarget implements recording.Backend. Single-channel formats
// become alpha images; non-positive dimensions match the viewport.
func (e *Executor) AcquireTarget(id outline.TargetID, desc outline.TargetDesc) error {
	if _, ok := e.targets[id]; ok {
		return fmt.Errorf("%w: %d", ErrTargetInUse, id)
	}
	r := image.Rect(0, 0, desc.Width, desc.Height)
	if desc.Width <= 0 || desc.Height <= 0 {
		r = e.viewport()
	}
	e.targets[id] = &target{alpha: image.NewAlpha(r)}
	return nil
}

// ReleaseTarget implements recording.Backend.
func (e *Executor) ReleaseTarget(id outline.TargetID) {
	if _, ok := e.frames[id]; ok {
		return
	}
	delete(e.targets, id)
}

// SetRenderTarget implements recording.Backend. A depth attachment
// resolves to a bound depth map when one exists; DepthShape draws then
// test against it. The map itself is never modified.
func (e *Executor) SetRenderTarget(color outline.ColorAttachment, depth *outline.DepthAttachment) error {
	t, ok := e.targets[color.Target]
	if !ok {
		return fmt.Errorf("%w: %d", ErrBadAttachment, color.Target)
	}
	e.bound = t
	e.boundDepth = nil
	if depth != nil {
		e.boundDepth = e.depths[depth.Target]
	}
	if color.Load == gputypes.LoadOpClear {
		clearTarget(t, color.Clear)
	}
	return nil
}

// DrawGeometry implements recording.Backend. Geometries implementing
// Shape rasterize coverage into the bound alpha target; anything else is
// treated as a fullscreen blit of the material pass.
func (e *Executor) DrawGeometry(g outline.Geometry, submesh int, _ outline.Material, pass int) error {
	if e.bound == nil {
		return ErrNoTarget
	}
	shape, ok := g.(Shape)
	if !ok {
		return e.blit(pass)
	}
	if e.bound.alpha == nil {
		return fmt.Errorf("%w: %s", ErrShapeTarget, g.Label())
	}
	if ds, ok := shape.(DepthShape); ok && e.boundDepth != nil {
		ds.DepthCoverage(e.bound.alpha, e.boundDepth, submesh)
		return nil
	}
	shape.Coverage(e.bound.alpha, submesh)
	return nil
}

// DrawProcedural implements recording.Backend. Procedural draws are
// always fullscreen blits on the CPU path.
func (e *Executor) DrawProcedural(_ int, _ outline.Material, pass int) error {
	if e.bound == nil {
		return ErrNoTarget
	}
	return e.blit(pass)
}

// SetTexture implements recording.Backend.
func (e *Executor) SetTexture(slot outline.PropID, id outline.TargetID) {
	e.textures[slot] = id
}

// SetColor implements recording.Backend.
func (e *Executor) SetColor(slot outline.PropID, c gputypes.Color) {
	e.colors[slot] = c
}

// SetFloat implements recording.Backend.
func (e *Executor) SetFloat(slot outline.PropID, v float32) {
	e.floats[slot] = v
}

// SetFloatArray implements recording.Backend.
func (e *Executor) SetFloatArray(slot outline.PropID, v []float32) {
	e.arrays[slot] = v
}

// source resolves the texture bound at PropMainTex to its alpha image.
func (e *Executor) source() (*image.Alpha, error) {
	id, ok := e.textures[outline.PropMainTex]
	if !ok {
		return nil, ErrNoSource
	}
	t, ok := e.targets[id]
	if !ok || t.alpha == nil {
		return nil, fmt.Errorf("%w: %d", ErrNoSource, id)
	}
	return t.alpha, nil
}

// blit runs one fullscreen pass against the bound target: horizontal
// blur into an alpha target, or vertical blur composited over a frame.
func (e *Executor) blit(pass int) error {
	src, err := e.source()
	if err != nil {
		return err
	}
	weights := e.arrays[outline.PropKernel]

	switch pass {
	case outline.HorizontalPass:
		if e.bound.alpha == nil {
			return ErrNoTarget
		}
		blurAlpha(e.bound.alpha, src, weights, true)
		return nil
	case outline.VerticalPass:
		if e.bound.frame == nil {
			return ErrNoTarget
		}
		blurred := image.NewAlpha(src.Bounds())
		blurAlpha(blurred, src, weights, false)
		e.composite(e.bound.frame, blurred)
		return nil
	default:
		return fmt.Errorf("softdraw: unknown blit pass %d", pass)
	}
}

// composite source-over blends the outline color through the blurred
// coverage mask onto the frame.
func (e *Executor) composite(dst *image.RGBA, mask *image.Alpha) {
	c := e.colors[outline.PropColor]
	intensity := e.floats[outline.PropIntensity]

	scaled := mask
	if intensity != 1 {
		scaled = scaleAlpha(mask, intensity)
	}
	src := image.NewUniform(toRGBA(c))
	draw.DrawMask(dst, dst.Bounds(), src, image.Point{}, scaled, scaled.Bounds().Min, draw.Over)
}

// clearTarget fills a target with the attachment clear value.
func clearTarget(t *target, c gputypes.Color) {
	if t.alpha != nil {
		v := clamp8(c.R)
		pix := t.alpha.Pix
		for i := range pix {
			pix[i] = v
		}
		return
	}
	draw.Draw(t.frame, t.frame.Bounds(), image.NewUniform(toRGBA(c)), image.Point{}, draw.Src)
}
