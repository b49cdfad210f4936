package recording

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/outline"
)

// Backend is the interface that all playback backends must implement.
// Backends receive the recorded render commands and translate them to
// their execution model (GPU passes, CPU raster, logging).
//
// A Backend manages its own target registry for Acquire/Release and its
// own global constant table for the Set* methods.
//
// # Implementation Contract
//
// Each backend must:
//  1. Handle all Backend methods (even if no-op for some)
//  2. Resolve outline.TargetID values to its own target storage
//  3. Apply global constants at draw time, not at Set* time
type Backend interface {
	// Lifecycle methods

	// Begin initializes the backend for playback.
	// This is called before any other method.
	Begin() error

	// End finalizes playback. It is called exactly once per Playback,
	// including after a command error.
	End() error

	// Profiling methods

	// BeginSample opens a named profiling block.
	BeginSample(name string)

	// EndSample closes the innermost profiling block.
	EndSample()

	// Target methods

	// AcquireTarget allocates a target for the identifier.
	AcquireTarget(id outline.TargetID, desc outline.TargetDesc) error

	// ReleaseTarget frees the target for the identifier.
	// Unknown identifiers are ignored.
	ReleaseTarget(id outline.TargetID)

	// SetRenderTarget binds attachments for subsequent draws.
	// A nil depth means no depth buffer is bound.
	SetRenderTarget(color outline.ColorAttachment, depth *outline.DepthAttachment) error

	// Draw methods

	// DrawGeometry draws one submesh of a geometry with a material pass
	// into the bound attachments.
	DrawGeometry(g outline.Geometry, submesh int, m outline.Material, pass int) error

	// DrawProcedural draws vertices without a bound geometry.
	DrawProcedural(vertexCount int, m outline.Material, pass int) error

	// Global constant methods

	// SetTexture binds a target to a global texture slot.
	SetTexture(slot outline.PropID, id outline.TargetID)

	// SetColor sets a global color constant.
	SetColor(slot outline.PropID, c gputypes.Color)

	// SetFloat sets a global scalar constant.
	SetFloat(slot outline.PropID, v float32)

	// SetFloatArray sets a global scalar array constant.
	SetFloatArray(slot outline.PropID, v []float32)
}
