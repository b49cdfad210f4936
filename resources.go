// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

// Resources holds the shared GPU assets of the outline pipeline: the mask
// material, the two-pass outline material, the fullscreen triangle mesh
// for devices without procedural draws, the kernel cache, and a scratch
// list for submesh materials.
//
// One Resources value is shared across many scopes and many frames. Only
// the scratch list mutates, and only inside a single Render call, so
// concurrent reads from multiple frames are safe as long as recording
// itself stays single-threaded.
type Resources struct {
	// MaskMaterial renders any drawable as an unlit single-channel mask.
	MaskMaterial Material

	// OutlineMaterial exposes the two blur passes: HorizontalPass and
	// VerticalPass.
	OutlineMaterial Material

	// FullscreenMesh is the degenerate triangle used for fullscreen blits
	// when the device does not support procedural draws. It may be nil if
	// every recorder used with these resources reports ProceduralDraw.
	FullscreenMesh Geometry

	// Kernels caches Gaussian kernels by outline width.
	Kernels *KernelCache

	// scratch receives each drawable's submesh materials; it is
	// overwritten immediately before use within a draw call and never
	// read across calls.
	scratch []Material
}

// NewResources creates a resource bundle from the given materials and
// fullscreen mesh. The outline material must expose the horizontal and
// vertical blur passes.
func NewResources(mask, outline Material, fullscreen Geometry) (*Resources, error) {
	if mask == nil || outline == nil {
		return nil, ErrNilMaterial
	}
	if outline.PassCount() < 2 {
		return nil, ErrPassCount
	}
	return &Resources{
		MaskMaterial:    mask,
		OutlineMaterial: outline,
		FullscreenMesh:  fullscreen,
		Kernels:         NewKernelCache(),
		scratch:         make([]Material, 0, 8),
	}, nil
}

// submeshMaterials refreshes the scratch list with the drawable's shared
// submesh materials and returns it. The result is valid until the next
// call.
func (r *Resources) submeshMaterials(d Drawable) []Material {
	r.scratch = d.AppendMaterials(r.scratch[:0])
	return r.scratch
}
