// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import "github.com/gogpu/gputypes"

// TargetID is an opaque handle to an offscreen render target. IDs are
// assigned by the host application, except for the reserved identifiers
// below which belong to the outline pipeline.
type TargetID uint64

// InvalidTarget is the zero value, representing no target.
const InvalidTarget TargetID = 0

// Reserved target identifiers. These are process-wide constants shared by
// every Scope, which is why two scopes must never be open against the same
// recording context at once.
const (
	// MaskTargetID identifies the offscreen silhouette mask buffer.
	MaskTargetID TargetID = ^TargetID(0) - 1

	// TempTargetID identifies the intermediate buffer holding the result
	// of the horizontal blur pass.
	TempTargetID TargetID = ^TargetID(0) - 2
)

// PropID identifies a global shader slot. The values are stable
// process-wide: materials reference them by slot, executors resolve them
// per draw.
type PropID uint32

// Global shader slots used by the outline pipeline.
const (
	// PropMainTex is the generic input texture slot, set before each blur
	// blit to whichever buffer that pass reads.
	PropMainTex PropID = iota + 1

	// PropMaskTex is the silhouette mask texture slot.
	PropMaskTex

	// PropTempTex is the horizontal-pass result texture slot.
	PropTempTex

	// PropKernel is the Gaussian kernel weights array slot.
	PropKernel

	// PropColor is the outline color slot.
	PropColor

	// PropIntensity is the outline intensity slot.
	PropIntensity

	// PropWidth is the outline width slot, published as a float.
	PropWidth
)

// Material is an opaque handle to a shader program with one or more
// passes. The outline material contract is fixed: pass 0 performs the
// horizontal blur, pass 1 performs the vertical blur and blends the
// colorized result onto the destination.
type Material interface {
	// Label returns the debug name of the material.
	Label() string

	// PassCount returns the number of passes the material exposes.
	PassCount() int
}

// Composite material pass indices (fixed contract).
const (
	// HorizontalPass reads the mask texture and writes the unblended
	// horizontally blurred result.
	HorizontalPass = 0

	// VerticalPass reads the horizontal-pass result, blurs vertically,
	// and blends the colorized outline onto the destination.
	VerticalPass = 1
)

// fullscreenVertexCount is the vertex count of a procedural fullscreen
// triangle draw.
const fullscreenVertexCount = 3

// Geometry is an opaque handle to renderable geometry. Executors assert
// it to their own concrete types; the core only passes it through.
type Geometry interface {
	// Label returns the debug name of the geometry.
	Label() string
}

// TargetDesc describes an offscreen render target to acquire.
type TargetDesc struct {
	// Width and Height are the target size in pixels. Non-positive values
	// request "match current viewport", resolved by the executor.
	Width, Height int

	// Format is the pixel format of the target.
	Format gputypes.TextureFormat

	// Filter is the sampling filter used when the target is read back as
	// a texture.
	Filter gputypes.FilterMode
}

// ColorAttachment binds a target as the color output of subsequent draws.
type ColorAttachment struct {
	// Target is the buffer to render into.
	Target TargetID

	// Load specifies what happens to existing contents at pass start.
	Load gputypes.LoadOp

	// Store specifies what happens to the contents at pass end.
	Store gputypes.StoreOp

	// Clear is the clear color, used when Load is LoadOpClear.
	Clear gputypes.Color
}

// DepthAttachment binds an externally populated depth buffer for
// depth-tested drawing. The outline pipeline never writes depth.
type DepthAttachment struct {
	// Target is the depth buffer to test against.
	Target TargetID

	// Load specifies what happens to existing depth at pass start.
	// The mask pass always loads.
	Load gputypes.LoadOp

	// Store specifies what happens to depth at pass end. The mask pass
	// always discards.
	Store gputypes.StoreOp

	// ReadOnly marks the attachment as read-only.
	ReadOnly bool
}

// Caps describes capabilities of the device behind a recorder.
type Caps struct {
	// ProceduralDraw reports whether the device supports vertex-less
	// draws. When false, fullscreen blits fall back to the shared
	// fullscreen triangle mesh; both paths render the same triangle.
	ProceduralDraw bool
}

// Recorder is the ordered GPU command stream the outline pipeline appends
// to. Commands are recorded synchronously and executed asynchronously by
// the GPU; ordering within the stream is strictly sequential. Recorder
// implementations are not safe for concurrent use.
//
// The recording subpackage provides the canonical implementation; the
// backend packages execute finished recordings.
type Recorder interface {
	// BeginSample opens a named profiling block.
	BeginSample(name string)

	// EndSample closes the innermost profiling block.
	EndSample()

	// AcquireTarget allocates an offscreen target under the given id.
	AcquireTarget(id TargetID, desc TargetDesc)

	// ReleaseTarget frees a previously acquired target.
	ReleaseTarget(id TargetID)

	// SetRenderTarget directs subsequent draws to the color attachment,
	// optionally depth-testing against the depth attachment.
	SetRenderTarget(color ColorAttachment, depth *DepthAttachment)

	// DrawGeometry records one indexed draw of a geometry submesh bound
	// to the given material pass.
	DrawGeometry(g Geometry, submesh int, m Material, pass int)

	// DrawProcedural records a vertex-less draw of vertexCount vertices
	// bound to the given material pass.
	DrawProcedural(vertexCount int, m Material, pass int)

	// SetGlobalTexture binds a target's texture to a global shader slot.
	SetGlobalTexture(slot PropID, id TargetID)

	// SetGlobalColor sets a global color value.
	SetGlobalColor(slot PropID, c gputypes.Color)

	// SetGlobalFloat sets a global scalar value.
	SetGlobalFloat(slot PropID, v float32)

	// SetGlobalFloatArray sets a global float array. The slice is
	// retained, not copied; callers must not mutate it afterwards.
	SetGlobalFloatArray(slot PropID, v []float32)

	// Caps returns the capabilities of the device behind the recorder.
	Caps() Caps
}
