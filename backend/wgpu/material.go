package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/outline"
)

// Params uniform layout: color vec4 + info vec4 + kernel padded to
// vec4s. Must match shaders/outline.wgsl.
const (
	kernelVec4s       = (outline.MaxKernelSamples + 3) / 4
	paramsUniformSize = 16 + 16 + kernelVec4s*16
)

// MaskMaterial rasterizes mesh coverage into the single-channel mask.
// It holds one pipeline without depth and one with a read-only depth
// test for occlusion against the scene depth buffer.
type MaskMaterial struct {
	device hal.Device

	shader        hal.ShaderModule
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
	depthPipeline hal.RenderPipeline
}

var _ outline.Material = (*MaskMaterial)(nil)

// Label implements outline.Material.
func (*MaskMaterial) Label() string { return "wgpu/mask" }

// PassCount implements outline.Material.
func (*MaskMaterial) PassCount() int { return 1 }

// NewMaskMaterial compiles the mask shader and creates its pipelines.
func NewMaskMaterial(device hal.Device) (*MaskMaterial, error) {
	m := &MaskMaterial{device: device}

	shader, err := compileShader(device, "outline_mask_shader", maskShaderSource)
	if err != nil {
		return nil, err
	}
	m.shader = shader

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "outline_mask_pipe_layout",
	})
	if err != nil {
		m.Destroy()
		return nil, fmt.Errorf("create mask pipeline layout: %w", err)
	}
	m.pipeLayout = pipeLayout

	m.pipeline, err = m.createPipeline("outline_mask_pipeline", false)
	if err != nil {
		m.Destroy()
		return nil, err
	}
	m.depthPipeline, err = m.createPipeline("outline_mask_pipeline_depth", true)
	if err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

func (m *MaskMaterial) createPipeline(label string, depth bool) (hal.RenderPipeline, error) {
	desc := &hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: m.pipeLayout,
		Vertex: hal.VertexState{
			Module:     m.shader,
			EntryPoint: "vs_main",
			Buffers:    maskVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     m.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gputypes.TextureFormatR8Unorm,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if depth {
		desc.DepthStencil = &hal.DepthStencilState{
			Format:            gputypes.TextureFormatDepth24PlusStencil8,
			DepthWriteEnabled: false,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilReadMask:  0x00,
			StencilWriteMask: 0x00,
		}
	}
	p, err := m.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return p, nil
}

// Destroy releases GPU resources in reverse creation order. Safe to call
// on a partially constructed material.
func (m *MaskMaterial) Destroy() {
	if m.depthPipeline != nil {
		m.device.DestroyRenderPipeline(m.depthPipeline)
		m.depthPipeline = nil
	}
	if m.pipeline != nil {
		m.device.DestroyRenderPipeline(m.pipeline)
		m.pipeline = nil
	}
	if m.pipeLayout != nil {
		m.device.DestroyPipelineLayout(m.pipeLayout)
		m.pipeLayout = nil
	}
	if m.shader != nil {
		m.device.DestroyShaderModule(m.shader)
		m.shader = nil
	}
}

// maskVertexLayout returns the vertex layout for mask meshes: clip-space
// x,y pairs.
func maskVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: 8,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			},
		},
	}
}

// NewResources builds the outline resource bundle for a device.
// destFormat is the composite destination format, typically the
// swapchain format.
func NewResources(device hal.Device, destFormat gputypes.TextureFormat) (*outline.Resources, error) {
	mask, err := NewMaskMaterial(device)
	if err != nil {
		return nil, err
	}
	blur, err := NewOutlineMaterial(device, destFormat)
	if err != nil {
		mask.Destroy()
		return nil, err
	}
	res, err := outline.NewResources(mask, blur, NewFullscreenMesh())
	if err != nil {
		blur.Destroy()
		mask.Destroy()
		return nil, err
	}
	return res, nil
}

// OutlineMaterial runs the separable blur: pass 0 blurs horizontally
// into the intermediate single-channel target, pass 1 blurs vertically
// and composites the colored outline onto the destination with
// premultiplied blending.
type OutlineMaterial struct {
	device hal.Device

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler

	blurPipeline      hal.RenderPipeline
	compositePipeline hal.RenderPipeline
}

var _ outline.Material = (*OutlineMaterial)(nil)

// Label implements outline.Material.
func (*OutlineMaterial) Label() string { return "wgpu/outline" }

// PassCount implements outline.Material.
func (*OutlineMaterial) PassCount() int { return 2 }

// NewOutlineMaterial compiles the blur shader and creates the pass
// pipelines. destFormat is the format of the composite destination,
// typically the swapchain format.
func NewOutlineMaterial(device hal.Device, destFormat gputypes.TextureFormat) (*OutlineMaterial, error) {
	m := &OutlineMaterial{device: device}

	shader, err := compileShader(device, "outline_blur_shader", outlineShaderSource)
	if err != nil {
		return nil, err
	}
	m.shader = shader

	// Binding 0: Params (uniform, fragment)
	// Binding 1: source texture (texture_2d, fragment)
	// Binding 2: sampler (fragment)
	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "outline_blur_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		m.Destroy()
		return nil, fmt.Errorf("create blur bind layout: %w", err)
	}
	m.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "outline_blur_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{m.bindLayout},
	})
	if err != nil {
		m.Destroy()
		return nil, fmt.Errorf("create blur pipeline layout: %w", err)
	}
	m.pipeLayout = pipeLayout

	// Bilinear sampling smooths the mask edge between texels.
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "outline_blur_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		m.Destroy()
		return nil, fmt.Errorf("create blur sampler: %w", err)
	}
	m.sampler = sampler

	m.blurPipeline, err = m.createPipeline("outline_blur_pipeline", "fs_blur",
		gputypes.TextureFormatR8Unorm, false)
	if err != nil {
		m.Destroy()
		return nil, err
	}
	m.compositePipeline, err = m.createPipeline("outline_composite_pipeline", "fs_composite",
		destFormat, true)
	if err != nil {
		m.Destroy()
		return nil, err
	}
	return m, nil
}

func (m *OutlineMaterial) createPipeline(label, entry string, format gputypes.TextureFormat, blend bool) (hal.RenderPipeline, error) {
	target := gputypes.ColorTargetState{
		Format:    format,
		WriteMask: gputypes.ColorWriteMaskAll,
	}
	if blend {
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
	}
	p, err := m.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: m.pipeLayout,
		Vertex: hal.VertexState{
			Module:     m.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     m.shader,
			EntryPoint: entry,
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return p, nil
}

// Destroy releases GPU resources in reverse creation order. Safe to call
// on a partially constructed material.
func (m *OutlineMaterial) Destroy() {
	if m.compositePipeline != nil {
		m.device.DestroyRenderPipeline(m.compositePipeline)
		m.compositePipeline = nil
	}
	if m.blurPipeline != nil {
		m.device.DestroyRenderPipeline(m.blurPipeline)
		m.blurPipeline = nil
	}
	if m.sampler != nil {
		m.device.DestroySampler(m.sampler)
		m.sampler = nil
	}
	if m.pipeLayout != nil {
		m.device.DestroyPipelineLayout(m.pipeLayout)
		m.pipeLayout = nil
	}
	if m.bindLayout != nil {
		m.device.DestroyBindGroupLayout(m.bindLayout)
		m.bindLayout = nil
	}
	if m.shader != nil {
		m.device.DestroyShaderModule(m.shader)
		m.shader = nil
	}
}
