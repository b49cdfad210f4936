package recording

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/outline"
)

// Recorder captures outline render operations as commands.
// It implements outline.Recorder but generates commands instead of
// issuing GPU work. Use Finish to obtain an immutable Recording that
// can be replayed to different backends.
//
// The Recorder is not safe for concurrent use.
type Recorder struct {
	commands   []Command
	caps       outline.Caps
	sampleOpen int
}

var _ outline.Recorder = (*Recorder)(nil)

// NewRecorder creates a new Recorder. The recorder reports procedural
// draw support by default; use NewRecorderWithCaps to record for a
// device without it.
func NewRecorder() *Recorder {
	return NewRecorderWithCaps(outline.Caps{ProceduralDraw: true})
}

// NewRecorderWithCaps creates a Recorder reporting the given device
// capabilities to the code recording against it.
func NewRecorderWithCaps(caps outline.Caps) *Recorder {
	return &Recorder{
		commands: make([]Command, 0, 64),
		caps:     caps,
	}
}

// Finish returns an immutable Recording containing all recorded commands.
// After calling Finish, the Recorder should not be used again.
func (r *Recorder) Finish() *Recording {
	return &Recording{commands: r.commands}
}

// Len returns the number of commands recorded so far.
func (r *Recorder) Len() int {
	return len(r.commands)
}

// BeginSample implements outline.Recorder.
func (r *Recorder) BeginSample(name string) {
	r.sampleOpen++
	r.commands = append(r.commands, BeginSampleCommand{Name: name})
}

// EndSample implements outline.Recorder. Without a matching BeginSample
// it records nothing.
func (r *Recorder) EndSample() {
	if r.sampleOpen == 0 {
		return
	}
	r.sampleOpen--
	r.commands = append(r.commands, EndSampleCommand{})
}

// AcquireTarget implements outline.Recorder.
func (r *Recorder) AcquireTarget(id outline.TargetID, desc outline.TargetDesc) {
	r.commands = append(r.commands, AcquireTargetCommand{ID: id, Desc: desc})
}

// ReleaseTarget implements outline.Recorder.
func (r *Recorder) ReleaseTarget(id outline.TargetID) {
	r.commands = append(r.commands, ReleaseTargetCommand{ID: id})
}

// SetRenderTarget implements outline.Recorder. The depth attachment is
// copied, so the caller's pointer may be reused.
func (r *Recorder) SetRenderTarget(color outline.ColorAttachment, depth *outline.DepthAttachment) {
	cmd := SetRenderTargetCommand{Color: color}
	if depth != nil {
		d := *depth
		cmd.Depth = &d
	}
	r.commands = append(r.commands, cmd)
}

// DrawGeometry implements outline.Recorder.
func (r *Recorder) DrawGeometry(g outline.Geometry, submesh int, m outline.Material, pass int) {
	r.commands = append(r.commands, DrawGeometryCommand{
		Geometry: g,
		Submesh:  submesh,
		Material: m,
		Pass:     pass,
	})
}

// DrawProcedural implements outline.Recorder.
func (r *Recorder) DrawProcedural(vertexCount int, m outline.Material, pass int) {
	r.commands = append(r.commands, DrawProceduralCommand{
		VertexCount: vertexCount,
		Material:    m,
		Pass:        pass,
	})
}

// SetGlobalTexture implements outline.Recorder.
func (r *Recorder) SetGlobalTexture(slot outline.PropID, id outline.TargetID) {
	r.commands = append(r.commands, SetTextureCommand{Slot: slot, Target: id})
}

// SetGlobalColor implements outline.Recorder.
func (r *Recorder) SetGlobalColor(slot outline.PropID, c gputypes.Color) {
	r.commands = append(r.commands, SetColorCommand{Slot: slot, Color: c})
}

// SetGlobalFloat implements outline.Recorder.
func (r *Recorder) SetGlobalFloat(slot outline.PropID, v float32) {
	r.commands = append(r.commands, SetFloatCommand{Slot: slot, Value: v})
}

// SetGlobalFloatArray implements outline.Recorder.
func (r *Recorder) SetGlobalFloatArray(slot outline.PropID, v []float32) {
	r.commands = append(r.commands, SetFloatArrayCommand{Slot: slot, Values: v})
}

// Caps implements outline.Recorder.
func (r *Recorder) Caps() outline.Caps {
	return r.caps
}

// Recording is an immutable container for recorded render commands.
// It can be replayed to any Backend implementation.
type Recording struct {
	commands []Command
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Playback replays the recording to the given backend. It stops at the
// first backend error and returns it; Backend.End is always called.
func (r *Recording) Playback(backend Backend) error {
	if err := backend.Begin(); err != nil {
		return err
	}

	for _, cmd := range r.commands {
		var err error
		switch c := cmd.(type) {
		case BeginSampleCommand:
			backend.BeginSample(c.Name)
		case EndSampleCommand:
			backend.EndSample()
		case AcquireTargetCommand:
			err = backend.AcquireTarget(c.ID, c.Desc)
		case ReleaseTargetCommand:
			backend.ReleaseTarget(c.ID)
		case SetRenderTargetCommand:
			err = backend.SetRenderTarget(c.Color, c.Depth)
		case DrawGeometryCommand:
			err = backend.DrawGeometry(c.Geometry, c.Submesh, c.Material, c.Pass)
		case DrawProceduralCommand:
			err = backend.DrawProcedural(c.VertexCount, c.Material, c.Pass)
		case SetTextureCommand:
			backend.SetTexture(c.Slot, c.Target)
		case SetColorCommand:
			backend.SetColor(c.Slot, c.Color)
		case SetFloatCommand:
			backend.SetFloat(c.Slot, c.Value)
		case SetFloatArrayCommand:
			backend.SetFloatArray(c.Slot, c.Values)
		}
		if err != nil {
			backend.End()
			return err
		}
	}

	return backend.End()
}
