package wgpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/recording"
)

// Backend errors.
var (
	ErrNoDestination = errors.New("wgpu: no destination bound for target")
	ErrTargetInUse   = errors.New("wgpu: target identifier already acquired")
	ErrNoTarget      = errors.New("wgpu: no render target bound")
	ErrNoSource      = errors.New("wgpu: no source texture bound")
	ErrBadGeometry   = errors.New("wgpu: geometry has no mesh")
	ErrBadMaterial   = errors.New("wgpu: material not built for this executor")
	ErrBadSubmesh    = errors.New("wgpu: submesh index out of range")
)

const submitTimeout = 5 * time.Second

// gpuTarget is one transient texture owned by the executor.
type gpuTarget struct {
	tex    hal.Texture
	view   hal.TextureView
	width  uint32
	height uint32
}

// externalTarget is a caller-owned attachment view, typically the
// swapchain image and the scene depth buffer.
type externalTarget struct {
	view   hal.TextureView
	width  uint32
	height uint32
}

// Executor replays outline recordings as hal render passes.
// It implements recording.Backend. One command buffer is encoded per
// playback: Begin opens the encoder, each SetRenderTarget starts a new
// render pass, and End submits and waits for the GPU.
//
// Not safe for concurrent use.
type Executor struct {
	device hal.Device
	queue  hal.Queue

	targets  map[outline.TargetID]*gpuTarget
	external map[outline.TargetID]externalTarget

	encoder    hal.CommandEncoder
	rp         hal.RenderPassEncoder
	depthBound bool

	textures map[outline.PropID]outline.TargetID
	colors   map[outline.PropID]gputypes.Color
	floats   map[outline.PropID]float32
	arrays   map[outline.PropID][]float32

	// Per-frame resources destroyed after the fence signals.
	frameBufs   []hal.Buffer
	frameGroups []hal.BindGroup
	released    []*gpuTarget
}

var _ recording.Backend = (*Executor)(nil)

// NewExecutor creates an executor for the device and queue. External
// attachments (destination, scene depth) must be bound with BindTarget
// and BindDepth before playback.
func NewExecutor(device hal.Device, queue hal.Queue) *Executor {
	return &Executor{
		device:   device,
		queue:    queue,
		targets:  make(map[outline.TargetID]*gpuTarget),
		external: make(map[outline.TargetID]externalTarget),
		textures: make(map[outline.PropID]outline.TargetID),
		colors:   make(map[outline.PropID]gputypes.Color),
		floats:   make(map[outline.PropID]float32),
		arrays:   make(map[outline.PropID][]float32),
	}
}

// BindTarget associates a caller-owned color attachment view with a
// target identifier. The executor does not destroy the view.
func (e *Executor) BindTarget(id outline.TargetID, view hal.TextureView, width, height uint32) {
	e.external[id] = externalTarget{view: view, width: width, height: height}
}

// BindDepth associates a caller-owned depth attachment view with a
// target identifier. The executor does not destroy the view.
func (e *Executor) BindDepth(id outline.TargetID, view hal.TextureView, width, height uint32) {
	e.external[id] = externalTarget{view: view, width: width, height: height}
}

// Destroy releases all transient targets. External views are untouched.
func (e *Executor) Destroy() {
	for id, t := range e.targets {
		e.destroyTarget(t)
		delete(e.targets, id)
	}
}

// viewport returns the size transient targets default to, taken from the
// first bound external attachment.
func (e *Executor) viewport() (uint32, uint32) {
	for _, t := range e.external {
		return t.width, t.height
	}
	return 1, 1
}

// Begin implements recording.Backend.
func (e *Executor) Begin() error {
	if len(e.external) == 0 {
		return ErrNoDestination
	}
	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "outline_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("outline_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	e.encoder = encoder
	return nil
}

// End implements recording.Backend. It ends the open pass, submits the
// command buffer and blocks until the GPU signals the fence, then frees
// per-frame resources.
func (e *Executor) End() error {
	defer e.cleanupFrame()

	if e.encoder == nil {
		return nil
	}
	e.endPass()

	cmdBuf, err := e.encoder.EndEncoding()
	e.encoder = nil
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := e.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !fenceOK {
		return fmt.Errorf("wait for GPU: fence not signaled after %v", submitTimeout)
	}
	return nil
}

func (e *Executor) cleanupFrame() {
	for _, g := range e.frameGroups {
		e.device.DestroyBindGroup(g)
	}
	e.frameGroups = e.frameGroups[:0]
	for _, b := range e.frameBufs {
		e.device.DestroyBuffer(b)
	}
	e.frameBufs = e.frameBufs[:0]
	for _, t := range e.released {
		e.destroyTarget(t)
	}
	e.released = e.released[:0]

	clear(e.textures)
	clear(e.colors)
	clear(e.floats)
	clear(e.arrays)
}

// BeginSample implements recording.Backend. Sample names become debug
// labels on the next render pass; hal has no explicit profiling scopes.
func (e *Executor) BeginSample(string) {}

// EndSample implements recording.Backend.
func (e *Executor) EndSample() {}

// AcquireTarget implements recording.Backend. Non-positive dimensions
// match the first bound external attachment.
func (e *Executor) AcquireTarget(id outline.TargetID, desc outline.TargetDesc) error {
	if _, ok := e.targets[id]; ok {
		return fmt.Errorf("%w: %d", ErrTargetInUse, id)
	}
	w, h := uint32(desc.Width), uint32(desc.Height)
	if desc.Width <= 0 || desc.Height <= 0 {
		w, h = e.viewport()
	}

	tex, err := e.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("outline_target_%d", id),
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("create target %d: %w", id, err)
	}
	view, err := e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: fmt.Sprintf("outline_target_%d_view", id),
	})
	if err != nil {
		e.device.DestroyTexture(tex)
		return fmt.Errorf("create target %d view: %w", id, err)
	}

	e.targets[id] = &gpuTarget{tex: tex, view: view, width: w, height: h}
	return nil
}

// ReleaseTarget implements recording.Backend. The texture is destroyed
// after the frame's command buffer has finished executing, since encoded
// passes may still reference it.
func (e *Executor) ReleaseTarget(id outline.TargetID) {
	t, ok := e.targets[id]
	if !ok {
		return
	}
	e.endPass()
	e.released = append(e.released, t)
	delete(e.targets, id)
}

func (e *Executor) destroyTarget(t *gpuTarget) {
	if t.view != nil {
		e.device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		e.device.DestroyTexture(t.tex)
	}
}

// resolveView returns the attachment view for a target identifier,
// transient targets first.
func (e *Executor) resolveView(id outline.TargetID) (hal.TextureView, bool) {
	if t, ok := e.targets[id]; ok {
		return t.view, true
	}
	if t, ok := e.external[id]; ok {
		return t.view, true
	}
	return nil, false
}

// SetRenderTarget implements recording.Backend. It ends any open render
// pass and begins a new one with the requested attachments.
func (e *Executor) SetRenderTarget(color outline.ColorAttachment, depth *outline.DepthAttachment) error {
	view, ok := e.resolveView(color.Target)
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoDestination, color.Target)
	}

	desc := &hal.RenderPassDescriptor{
		Label: "outline_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     color.Load,
			StoreOp:    color.Store,
			ClearValue: color.Clear,
		}},
	}
	e.depthBound = false
	if depth != nil {
		depthView, ok := e.resolveView(depth.Target)
		if !ok {
			return fmt.Errorf("%w: depth %d", ErrNoDestination, depth.Target)
		}
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              depthView,
			DepthLoadOp:       depth.Load,
			DepthStoreOp:      depth.Store,
			DepthClearValue:   1.0,
			StencilLoadOp:     depth.Load,
			StencilStoreOp:    depth.Store,
			StencilClearValue: 0,
		}
		e.depthBound = true
	}

	e.endPass()
	e.rp = e.encoder.BeginRenderPass(desc)
	return nil
}

func (e *Executor) endPass() {
	if e.rp != nil {
		e.rp.End()
		e.rp = nil
	}
}

// DrawGeometry implements recording.Backend. Mask materials draw mesh
// submeshes; outline materials run as fullscreen passes regardless of
// the supplied geometry.
func (e *Executor) DrawGeometry(g outline.Geometry, submesh int, m outline.Material, pass int) error {
	if e.rp == nil {
		return ErrNoTarget
	}
	switch mat := m.(type) {
	case *MaskMaterial:
		mesh := meshOf(g)
		if mesh == nil {
			return fmt.Errorf("%w: %s", ErrBadGeometry, g.Label())
		}
		if submesh < 0 || submesh >= len(mesh.submeshes) {
			return fmt.Errorf("%w: %d of %s", ErrBadSubmesh, submesh, mesh.label)
		}
		pipeline := mat.pipeline
		if e.depthBound {
			pipeline = mat.depthPipeline
		}
		sub := mesh.submeshes[submesh]
		e.rp.SetPipeline(pipeline)
		e.rp.SetVertexBuffer(0, mesh.buf, 0)
		e.rp.Draw(sub.Count, 1, sub.First, 0)
		return nil
	case *OutlineMaterial:
		return e.fullscreen(mat, pass)
	default:
		return fmt.Errorf("%w: %s", ErrBadMaterial, m.Label())
	}
}

// DrawProcedural implements recording.Backend.
func (e *Executor) DrawProcedural(_ int, m outline.Material, pass int) error {
	if e.rp == nil {
		return ErrNoTarget
	}
	mat, ok := m.(*OutlineMaterial)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBadMaterial, m.Label())
	}
	return e.fullscreen(mat, pass)
}

// fullscreen draws one blur pass as a fullscreen triangle sampling the
// texture bound at PropMainTex.
func (e *Executor) fullscreen(mat *OutlineMaterial, pass int) error {
	srcID, ok := e.textures[outline.PropMainTex]
	if !ok {
		return ErrNoSource
	}
	src, ok := e.targets[srcID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoSource, srcID)
	}

	var pipeline hal.RenderPipeline
	var dirX, dirY float32
	switch pass {
	case outline.HorizontalPass:
		pipeline = mat.blurPipeline
		dirX = 1 / float32(src.width)
	case outline.VerticalPass:
		pipeline = mat.compositePipeline
		dirY = 1 / float32(src.height)
	default:
		return fmt.Errorf("wgpu: unknown blur pass %d", pass)
	}

	group, err := e.buildBlurBindGroup(mat, src, dirX, dirY)
	if err != nil {
		return err
	}

	e.rp.SetPipeline(pipeline)
	e.rp.SetBindGroup(0, group, nil)
	e.rp.Draw(3, 1, 0, 0)
	return nil
}

// buildBlurBindGroup uploads the Params uniform for one blur pass and
// binds it with the source texture and sampler. The buffer and group are
// freed after submit.
func (e *Executor) buildBlurBindGroup(mat *OutlineMaterial, src *gpuTarget, dirX, dirY float32) (hal.BindGroup, error) {
	data := e.packParams(dirX, dirY)

	buf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "outline_blur_params",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create params buffer: %w", err)
	}
	e.queue.WriteBuffer(buf, 0, data)
	e.frameBufs = append(e.frameBufs, buf)

	group, err := e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "outline_blur_bind",
		Layout: mat.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: buf.NativeHandle(), Offset: 0, Size: paramsUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: src.view.NativeHandle(),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: mat.sampler.NativeHandle(),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create blur bind group: %w", err)
	}
	e.frameGroups = append(e.frameGroups, group)
	return group, nil
}

// packParams serializes the Params uniform from the recorded globals.
// Layout must match shaders/outline.wgsl.
func (e *Executor) packParams(dirX, dirY float32) []byte {
	data := make([]byte, paramsUniformSize)
	put := func(off int, v float32) {
		binary.LittleEndian.PutUint32(data[off:], math.Float32bits(v))
	}

	c := e.colors[outline.PropColor]
	put(0, float32(c.R))
	put(4, float32(c.G))
	put(8, float32(c.B))
	put(12, float32(c.A))

	put(16, e.floats[outline.PropIntensity])
	put(20, e.floats[outline.PropWidth])
	put(24, dirX)
	put(28, dirY)

	for i, w := range e.arrays[outline.PropKernel] {
		if i >= outline.MaxKernelSamples {
			break
		}
		put(32+i*4, w)
	}
	return data
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

// meshOf extracts the mesh from a drawable or bare mesh geometry.
func meshOf(g outline.Geometry) *Mesh {
	switch v := g.(type) {
	case *Mesh:
		return v
	case *Model:
		return v.Mesh
	default:
		return nil
	}
}
