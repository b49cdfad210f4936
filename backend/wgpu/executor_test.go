package wgpu

import (
	"math"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/recording"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func TestNewMaskMaterial(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	mat, err := NewMaskMaterial(device)
	if err != nil {
		t.Fatalf("NewMaskMaterial: %v", err)
	}
	defer mat.Destroy()

	if mat.PassCount() != 1 {
		t.Errorf("PassCount = %d, want 1", mat.PassCount())
	}
	if mat.pipeline == nil || mat.depthPipeline == nil {
		t.Error("expected both mask pipelines")
	}
}

func TestNewOutlineMaterial(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	mat, err := NewOutlineMaterial(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewOutlineMaterial: %v", err)
	}
	defer mat.Destroy()

	if mat.PassCount() != 2 {
		t.Errorf("PassCount = %d, want 2", mat.PassCount())
	}
	if mat.blurPipeline == nil || mat.compositePipeline == nil {
		t.Error("expected blur and composite pipelines")
	}
}

func TestMaterialDestroyIdempotent(t *testing.T) {
	device, _, cleanup := createNoopDevice(t)
	defer cleanup()

	mat, err := NewMaskMaterial(device)
	if err != nil {
		t.Fatalf("NewMaskMaterial: %v", err)
	}
	mat.Destroy()
	mat.Destroy()
}

func TestNewMeshSubmeshes(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tri := []float32{0, 0, 1, 0, 0, 1}

	mesh, err := NewMesh(device, queue, "tri", tri, nil)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	defer mesh.Destroy()
	if mesh.SubmeshCount() != 1 {
		t.Errorf("default submesh count = %d, want 1", mesh.SubmeshCount())
	}

	two := append(append([]float32(nil), tri...), -1, 0, 0, -1, -1, -1)
	split, err := NewMesh(device, queue, "split", two, []Submesh{
		{First: 0, Count: 3},
		{First: 3, Count: 3},
	})
	if err != nil {
		t.Fatalf("NewMesh split: %v", err)
	}
	defer split.Destroy()
	if split.SubmeshCount() != 2 {
		t.Errorf("split submesh count = %d, want 2", split.SubmeshCount())
	}

	if _, err := NewMesh(device, queue, "bad", []float32{0, 0, 1}, nil); err == nil {
		t.Error("partial triangle data should be rejected")
	}
	if _, err := NewMesh(device, queue, "empty", nil, nil); err == nil {
		t.Error("empty mesh should be rejected")
	}
}

func TestExecutorPlayback(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	res, err := NewResources(device, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewResources: %v", err)
	}
	defer res.MaskMaterial.(*MaskMaterial).Destroy()
	defer res.OutlineMaterial.(*OutlineMaterial).Destroy()

	mesh, err := NewMesh(device, queue, "hero", []float32{
		-0.5, -0.5, 0.5, -0.5, 0, 0.5,
	}, nil)
	if err != nil {
		t.Fatalf("NewMesh: %v", err)
	}
	defer mesh.Destroy()

	model := &Model{Mesh: mesh, Materials: []outline.Material{res.MaskMaterial}}

	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{
		Destination: 1,
		Size:        outline.TargetSize{Width: 64, Height: 64},
	})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	settings := outline.DefaultSettings()
	if err := scope.RenderDrawable(model, res, &settings); err != nil {
		t.Fatalf("RenderDrawable: %v", err)
	}
	if err := scope.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// The destination view stands in for a swapchain image.
	destTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "dest",
		Size:          hal.Extent3D{Width: 64, Height: 64, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatBGRA8Unorm,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		t.Fatalf("create dest texture: %v", err)
	}
	defer device.DestroyTexture(destTex)
	destView, err := device.CreateTextureView(destTex, &hal.TextureViewDescriptor{Label: "dest_view"})
	if err != nil {
		t.Fatalf("create dest view: %v", err)
	}
	defer device.DestroyTextureView(destView)

	exec := NewExecutor(device, queue)
	defer exec.Destroy()
	exec.BindTarget(1, destView, 64, 64)

	if err := rec.Finish().Playback(exec); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	if len(exec.targets) != 0 {
		t.Errorf("%d transient targets leaked after playback", len(exec.targets))
	}
}

func TestExecutorRequiresDestination(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	exec := NewExecutor(device, queue)
	if err := exec.Begin(); err == nil {
		t.Fatal("Begin without a bound destination should fail")
	}
}

func TestPackParamsLayout(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	exec := NewExecutor(device, queue)
	exec.SetColor(outline.PropColor, gputypes.Color{R: 1, G: 0.5, A: 1})
	exec.SetFloat(outline.PropIntensity, 2)
	exec.SetFloat(outline.PropWidth, 4)
	exec.SetFloatArray(outline.PropKernel, []float32{0.25, 0.5, 0.25})

	data := exec.packParams(0.5, 0)
	if len(data) != paramsUniformSize {
		t.Fatalf("uniform size = %d, want %d", len(data), paramsUniformSize)
	}
	readF32 := func(off int) float32 {
		bits := uint32(data[off]) | uint32(data[off+1])<<8 |
			uint32(data[off+2])<<16 | uint32(data[off+3])<<24
		return math.Float32frombits(bits)
	}
	if readF32(0) != 1 || readF32(4) != 0.5 {
		t.Errorf("color = %v,%v, want 1,0.5", readF32(0), readF32(4))
	}
	if readF32(16) != 2 {
		t.Errorf("intensity = %v, want 2", readF32(16))
	}
	if readF32(20) != 4 {
		t.Errorf("radius = %v, want 4", readF32(20))
	}
	if readF32(24) != 0.5 || readF32(28) != 0 {
		t.Errorf("direction = %v,%v, want 0.5,0", readF32(24), readF32(28))
	}
	if readF32(32) != 0.25 || readF32(36) != 0.5 {
		t.Errorf("kernel = %v,%v, want 0.25,0.5", readF32(32), readF32(36))
	}
}
