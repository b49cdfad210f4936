package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/outline"
)

// Submesh is a contiguous vertex range of a mesh.
type Submesh struct {
	First uint32
	Count uint32
}

// Mesh is triangle-list geometry in clip space, split into submeshes.
// Hosts pre-transform vertices; the mask shader passes positions through.
type Mesh struct {
	device hal.Device

	label     string
	buf       hal.Buffer
	submeshes []Submesh
}

var _ outline.Geometry = (*Mesh)(nil)

// NewMesh uploads clip-space x,y vertex pairs. With no explicit
// submeshes the whole mesh is one submesh.
func NewMesh(device hal.Device, queue hal.Queue, label string, vertices []float32, submeshes []Submesh) (*Mesh, error) {
	if len(vertices) == 0 || len(vertices)%6 != 0 {
		return nil, fmt.Errorf("wgpu: mesh %q needs whole triangles, got %d floats", label, len(vertices))
	}
	if len(submeshes) == 0 {
		submeshes = []Submesh{{First: 0, Count: uint32(len(vertices) / 2)}}
	}

	data := make([]byte, len(vertices)*4)
	for i, v := range vertices {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}

	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label + "_verts",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create mesh buffer %q: %w", label, err)
	}
	queue.WriteBuffer(buf, 0, data)

	return &Mesh{
		device:    device,
		label:     label,
		buf:       buf,
		submeshes: append([]Submesh(nil), submeshes...),
	}, nil
}

// Label implements outline.Geometry.
func (m *Mesh) Label() string { return m.label }

// SubmeshCount returns the number of submeshes.
func (m *Mesh) SubmeshCount() int { return len(m.submeshes) }

// Destroy releases the vertex buffer.
func (m *Mesh) Destroy() {
	if m.buf != nil {
		m.device.DestroyBuffer(m.buf)
		m.buf = nil
	}
}

// fullscreenGeometry is the blit fallback for devices without
// procedural draws. The executor ignores it and draws the fullscreen
// triangle from the vertex index either way.
type fullscreenGeometry struct{}

var _ outline.Geometry = fullscreenGeometry{}

func (fullscreenGeometry) Label() string { return "wgpu/fullscreen" }

// NewFullscreenMesh returns the fallback fullscreen geometry.
func NewFullscreenMesh() outline.Geometry {
	return fullscreenGeometry{}
}

// Model pairs a mesh with per-submesh surface materials and scene
// visibility state, forming a drawable for outline rendering.
type Model struct {
	Mesh      *Mesh
	Materials []outline.Material

	Disabled bool
	Hidden   bool
	Inactive bool
}

var _ outline.Drawable = (*Model)(nil)

// Label implements outline.Geometry.
func (m *Model) Label() string { return m.Mesh.Label() }

// Enabled implements outline.Drawable.
func (m *Model) Enabled() bool { return !m.Disabled }

// Visible implements outline.Drawable.
func (m *Model) Visible() bool { return !m.Hidden }

// Active implements outline.Drawable.
func (m *Model) Active() bool { return !m.Inactive }

// AppendMaterials implements outline.Drawable.
func (m *Model) AppendMaterials(dst []outline.Material) []outline.Material {
	return append(dst, m.Materials...)
}
