// Package wgpu executes outline recordings on the GPU via WebGPU.
//
// The executor translates recorded commands into hal render passes: mask
// draws rasterize mesh coverage into an R8 texture, and the blur and
// composite passes run as fullscreen triangle draws sampling the previous
// stage's texture. One command buffer is encoded per playback and
// submitted on End.
package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/mask.wgsl
var maskShaderSource string

//go:embed shaders/outline.wgsl
var outlineShaderSource string

// compileShader compiles WGSL source to a hal shader module via SPIR-V.
// Going through naga keeps shader translation uniform across hal backends
// that lack a WGSL frontend.
func compileShader(device hal.Device, label, source string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words.
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	return device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirvCode},
	})
}
