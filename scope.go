// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// scopeActive is the process-wide guard against overlapping scopes. The
// mask and intermediate buffers use fixed shared identifiers, so a second
// open scope would silently corrupt both; the guard turns that structural
// misuse into ErrScopeActive instead.
var scopeActive atomic.Bool

// defaultSampleName labels the scope's profiling block when ScopeConfig
// does not name one.
const defaultSampleName = "Outline"

// TargetSize requests a size for the scope's offscreen buffers.
// Non-positive dimensions (including the zero value) request "match
// current viewport", resolved by the executor.
type TargetSize struct {
	Width  int
	Height int
}

// ScopeConfig holds configuration for creating a Scope.
type ScopeConfig struct {
	// Destination is the buffer outlines are composited onto.
	Destination TargetID

	// DepthSource is an externally populated depth buffer, consumed
	// read-only by depth-tested mask passes. Leave as InvalidTarget when
	// no depth testing is wanted; Render calls requesting FlagDepthTest
	// then draw the mask without a depth attachment.
	DepthSource TargetID

	// Size is the size of the two offscreen buffers. The zero value
	// matches the current viewport.
	Size TargetSize

	// Name labels the scope's profiling block. Defaults to "Outline".
	Name string
}

// Scope is the transient owner of the two offscreen buffers for one
// recording session. Construction acquires the buffers and opens the
// profiling block; Release frees the buffers in reverse order and must be
// called exactly once. Scope is not safe for concurrent use.
type Scope struct {
	rec      Recorder
	dst      TargetID
	depth    TargetID
	released bool
}

// NewScope acquires the mask and intermediate buffers on the recorder and
// returns the scope bound to the destination. Returns ErrNilRecorder if
// rec is nil and ErrScopeActive if another scope is still open.
func NewScope(rec Recorder, cfg ScopeConfig) (*Scope, error) {
	if rec == nil {
		return nil, ErrNilRecorder
	}
	if !scopeActive.CompareAndSwap(false, true) {
		return nil, ErrScopeActive
	}

	name := cfg.Name
	if name == "" {
		name = defaultSampleName
	}
	rec.BeginSample(name)

	desc := TargetDesc{
		Width:  cfg.Size.Width,
		Height: cfg.Size.Height,
		Format: gputypes.TextureFormatR8Unorm,
		Filter: gputypes.FilterModeLinear,
	}
	rec.AcquireTarget(MaskTargetID, desc)
	rec.AcquireTarget(TempTargetID, desc)

	return &Scope{
		rec:   rec,
		dst:   cfg.Destination,
		depth: cfg.DepthSource,
	}, nil
}

// Render records one object's outline: the mask pass over the drawable
// set, then the two-pass blur composited onto the destination. It may be
// called once per logical object before Release; each call clears and
// redraws the mask, so successive objects blend onto the destination in
// call order.
//
// An empty set, or a set where every drawable fails a visibility
// predicate, records no visual effect and returns nil.
func (s *Scope) Render(set *DrawableSet, res *Resources, settings *Settings) error {
	if err := s.check(res, settings); err != nil {
		return err
	}
	if set == nil {
		return ErrNilDrawableSet
	}
	if set.Len() == 0 {
		return nil
	}
	return s.render(set.items, res, settings)
}

// RenderDrawable records the outline of a single drawable. See Render.
func (s *Scope) RenderDrawable(d Drawable, res *Resources, settings *Settings) error {
	if err := s.check(res, settings); err != nil {
		return err
	}
	if d == nil {
		return ErrNilDrawable
	}
	return s.render([]Drawable{d}, res, settings)
}

// RenderObject records the outline of a pre-grouped object using the
// object's own settings. See Render.
func (s *Scope) RenderObject(obj *Object, res *Resources) error {
	if obj == nil {
		return ErrNilObject
	}
	return s.Render(obj.Drawables, res, obj.Settings)
}

// Release frees the two offscreen buffers in reverse order of acquisition
// and closes the profiling block. It must be called exactly once; a second
// call returns ErrScopeReleased.
func (s *Scope) Release() error {
	if s.released {
		return ErrScopeReleased
	}
	s.released = true

	s.rec.ReleaseTarget(TempTargetID)
	s.rec.ReleaseTarget(MaskTargetID)
	s.rec.EndSample()

	scopeActive.Store(false)
	return nil
}

// check validates the per-call arguments shared by the Render variants.
func (s *Scope) check(res *Resources, settings *Settings) error {
	if s.released {
		return ErrScopeReleased
	}
	if res == nil {
		return ErrNilResources
	}
	if settings == nil {
		return ErrNilSettings
	}
	return nil
}

// render runs the mask pass and, if anything was drawn, the blur
// composite. Arguments are validated by the callers.
func (s *Scope) render(items []Drawable, res *Resources, settings *Settings) error {
	if s.maskPass(items, res, settings) == 0 {
		return nil
	}
	s.blurComposite(res, settings)
	return nil
}

// maskPass clears the mask buffer and draws every passing drawable's
// submeshes into it with the shared mask material. Returns the number of
// submesh draws recorded.
func (s *Scope) maskPass(items []Drawable, res *Resources, settings *Settings) int {
	color := ColorAttachment{
		Target: MaskTargetID,
		Load:   gputypes.LoadOpClear,
		Store:  gputypes.StoreOpStore,
	}
	var depth *DepthAttachment
	if settings.DepthTestEnabled() && s.depth != InvalidTarget {
		depth = &DepthAttachment{
			Target:   s.depth,
			Load:     gputypes.LoadOpLoad,
			Store:    gputypes.StoreOpDiscard,
			ReadOnly: true,
		}
	}
	s.rec.SetRenderTarget(color, depth)

	drawn := 0
	for _, d := range items {
		if d == nil || !d.Enabled() || !d.Visible() || !d.Active() {
			continue
		}
		mats := res.submeshMaterials(d)
		for submesh := range mats {
			s.rec.DrawGeometry(d, submesh, res.MaskMaterial, 0)
			drawn++
		}
	}
	return drawn
}

// blurComposite publishes the kernel and appearance globals, then records
// the horizontal blit into the intermediate buffer and the vertical
// blit-and-blend onto the destination.
func (s *Scope) blurComposite(res *Resources, settings *Settings) {
	k := res.Kernels.Get(settings.clampedWidth())
	s.rec.SetGlobalFloatArray(PropKernel, k.Weights)
	s.rec.SetGlobalFloat(PropWidth, float32(k.Width))
	s.rec.SetGlobalColor(PropColor, settings.Color)
	s.rec.SetGlobalFloat(PropIntensity, settings.Intensity)
	s.rec.SetGlobalTexture(PropMaskTex, MaskTargetID)

	// Horizontal pass: mask -> intermediate.
	s.rec.SetRenderTarget(ColorAttachment{
		Target: TempTargetID,
		Load:   gputypes.LoadOpClear,
		Store:  gputypes.StoreOpStore,
	}, nil)
	s.rec.SetGlobalTexture(PropMainTex, MaskTargetID)
	s.fullscreen(res, HorizontalPass)

	// Vertical pass: intermediate -> destination, blended.
	s.rec.SetGlobalTexture(PropTempTex, TempTargetID)
	s.rec.SetRenderTarget(ColorAttachment{
		Target: s.dst,
		Load:   gputypes.LoadOpLoad,
		Store:  gputypes.StoreOpStore,
	}, nil)
	s.rec.SetGlobalTexture(PropMainTex, TempTargetID)
	s.fullscreen(res, VerticalPass)
}

// fullscreen records one fullscreen triangle draw of the outline
// material's pass, procedurally when the device supports it.
func (s *Scope) fullscreen(res *Resources, pass int) {
	if s.rec.Caps().ProceduralDraw {
		s.rec.DrawProcedural(fullscreenVertexCount, res.OutlineMaterial, pass)
		return
	}
	s.rec.DrawGeometry(res.FullscreenMesh, 0, res.OutlineMaterial, pass)
}
