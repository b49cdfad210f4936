// Package recording captures outline render operations as typed commands.
//
// The recording system decouples outline recording from execution: the
// outline package records its passes against a Recorder, and the resulting
// Recording can be replayed to any backend (GPU submission, CPU raster,
// command-stream inspection in tests).
//
// Commands are typed structs for inspectability and debuggability rather
// than a binary serialization format.
//
// # Example
//
//	rec := recording.NewRecorder()
//	scope, _ := outline.NewScope(rec, cfg)
//	scope.Render(set, res, settings)
//	scope.Release()
//	r := rec.Finish()
//
//	// Replay to a backend
//	r.Playback(executor)
package recording

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/outline"
)

// CommandType identifies the type of a command.
// Each command type corresponds to a specific render operation.
type CommandType uint8

const (
	// Profiling commands
	CmdBeginSample CommandType = iota // Open a named profiling block
	CmdEndSample                      // Close the innermost profiling block

	// Target commands
	CmdAcquireTarget   // Acquire a transient render target
	CmdReleaseTarget   // Release a transient render target
	CmdSetRenderTarget // Bind attachments for subsequent draws

	// Draw commands
	CmdDrawGeometry   // Draw one submesh of a geometry
	CmdDrawProcedural // Draw vertices without a bound geometry

	// Global state commands
	CmdSetTexture    // Bind a target to a global texture slot
	CmdSetColor      // Set a global color constant
	CmdSetFloat      // Set a global scalar constant
	CmdSetFloatArray // Set a global scalar array constant
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdBeginSample:     "BeginSample",
	CmdEndSample:       "EndSample",
	CmdAcquireTarget:   "AcquireTarget",
	CmdReleaseTarget:   "ReleaseTarget",
	CmdSetRenderTarget: "SetRenderTarget",
	CmdDrawGeometry:    "DrawGeometry",
	CmdDrawProcedural:  "DrawProcedural",
	CmdSetTexture:      "SetTexture",
	CmdSetColor:        "SetColor",
	CmdSetFloat:        "SetFloat",
	CmdSetFloatArray:   "SetFloatArray",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Profiling Commands
// --------------------------------------------------------------------------

// BeginSampleCommand opens a named profiling block.
type BeginSampleCommand struct {
	// Name labels the block in profiler output.
	Name string
}

// Type implements Command.
func (BeginSampleCommand) Type() CommandType { return CmdBeginSample }

// EndSampleCommand closes the innermost open profiling block.
type EndSampleCommand struct{}

// Type implements Command.
func (EndSampleCommand) Type() CommandType { return CmdEndSample }

// --------------------------------------------------------------------------
// Target Commands
// --------------------------------------------------------------------------

// AcquireTargetCommand acquires a transient render target under an
// identifier, valid until the matching ReleaseTargetCommand.
type AcquireTargetCommand struct {
	// ID is the identifier subsequent commands refer to the target by.
	ID outline.TargetID
	// Desc describes the requested target.
	Desc outline.TargetDesc
}

// Type implements Command.
func (AcquireTargetCommand) Type() CommandType { return CmdAcquireTarget }

// ReleaseTargetCommand releases a previously acquired target.
type ReleaseTargetCommand struct {
	// ID identifies the target to release.
	ID outline.TargetID
}

// Type implements Command.
func (ReleaseTargetCommand) Type() CommandType { return CmdReleaseTarget }

// SetRenderTargetCommand binds the attachments used by subsequent draws.
type SetRenderTargetCommand struct {
	// Color is the color attachment.
	Color outline.ColorAttachment
	// Depth is the optional depth attachment. Nil means no depth buffer
	// is bound.
	Depth *outline.DepthAttachment
}

// Type implements Command.
func (SetRenderTargetCommand) Type() CommandType { return CmdSetRenderTarget }

// --------------------------------------------------------------------------
// Draw Commands
// --------------------------------------------------------------------------

// DrawGeometryCommand draws one submesh of a geometry with a material pass.
type DrawGeometryCommand struct {
	// Geometry is the geometry to draw.
	Geometry outline.Geometry
	// Submesh is the zero-based submesh index.
	Submesh int
	// Material is the material to draw with.
	Material outline.Material
	// Pass is the zero-based pass index within the material.
	Pass int
}

// Type implements Command.
func (DrawGeometryCommand) Type() CommandType { return CmdDrawGeometry }

// DrawProceduralCommand draws vertices without a bound geometry; the
// vertex stage derives positions from the vertex index.
type DrawProceduralCommand struct {
	// VertexCount is the number of vertices to draw.
	VertexCount int
	// Material is the material to draw with.
	Material outline.Material
	// Pass is the zero-based pass index within the material.
	Pass int
}

// Type implements Command.
func (DrawProceduralCommand) Type() CommandType { return CmdDrawProcedural }

// --------------------------------------------------------------------------
// Global State Commands
// --------------------------------------------------------------------------

// SetTextureCommand binds a target to a global texture slot.
type SetTextureCommand struct {
	// Slot is the global property slot.
	Slot outline.PropID
	// Target identifies the bound target.
	Target outline.TargetID
}

// Type implements Command.
func (SetTextureCommand) Type() CommandType { return CmdSetTexture }

// SetColorCommand sets a global color constant.
type SetColorCommand struct {
	// Slot is the global property slot.
	Slot outline.PropID
	// Color is the value to set.
	Color gputypes.Color
}

// Type implements Command.
func (SetColorCommand) Type() CommandType { return CmdSetColor }

// SetFloatCommand sets a global scalar constant.
type SetFloatCommand struct {
	// Slot is the global property slot.
	Slot outline.PropID
	// Value is the value to set.
	Value float32
}

// Type implements Command.
func (SetFloatCommand) Type() CommandType { return CmdSetFloat }

// SetFloatArrayCommand sets a global scalar array constant.
type SetFloatArrayCommand struct {
	// Slot is the global property slot.
	Slot outline.PropID
	// Values is the array to set. The recorder stores the caller's
	// slice; it must not be mutated after recording.
	Values []float32
}

// Type implements Command.
func (SetFloatArrayCommand) Type() CommandType { return CmdSetFloatArray }
