// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline_test

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/outline"
	"github.com/gogpu/outline/recording"
)

type fakeMaterial struct {
	label  string
	passes int
}

func (m fakeMaterial) Label() string  { return m.label }
func (m fakeMaterial) PassCount() int { return m.passes }

type fakeGeometry struct{ label string }

func (g fakeGeometry) Label() string { return g.label }

type fakeDrawable struct {
	label     string
	submeshes int
	disabled  bool
	hidden    bool
	inactive  bool
}

func (d *fakeDrawable) Label() string { return d.label }
func (d *fakeDrawable) Enabled() bool { return !d.disabled }
func (d *fakeDrawable) Visible() bool { return !d.hidden }
func (d *fakeDrawable) Active() bool  { return !d.inactive }

func (d *fakeDrawable) AppendMaterials(dst []outline.Material) []outline.Material {
	for i := 0; i < d.submeshes; i++ {
		dst = append(dst, fakeMaterial{label: "surface", passes: 1})
	}
	return dst
}

func newTestResources(t *testing.T) *outline.Resources {
	t.Helper()
	res, err := outline.NewResources(
		fakeMaterial{label: "mask", passes: 1},
		fakeMaterial{label: "blur", passes: 2},
		fakeGeometry{label: "fullscreen"},
	)
	if err != nil {
		t.Fatalf("NewResources: %v", err)
	}
	return res
}

func commandTypes(cmds []recording.Command) []recording.CommandType {
	types := make([]recording.CommandType, len(cmds))
	for i, c := range cmds {
		types[i] = c.Type()
	}
	return types
}

func TestNewScopeValidation(t *testing.T) {
	if _, err := outline.NewScope(nil, outline.ScopeConfig{}); !errors.Is(err, outline.ErrNilRecorder) {
		t.Fatalf("nil recorder: got %v, want ErrNilRecorder", err)
	}

	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}

	if _, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1}); !errors.Is(err, outline.ErrScopeActive) {
		t.Errorf("nested scope: got %v, want ErrScopeActive", err)
	}

	if err := scope.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	// The guard clears on release.
	scope2, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope after release: %v", err)
	}
	if err := scope2.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestScopeSetupAndTeardown(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{
		Destination: 1,
		Size:        outline.TargetSize{Width: 256, Height: 128},
		Name:        "HeroOutline",
	})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if err := scope.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	cmds := rec.Finish().Commands()
	want := []recording.CommandType{
		recording.CmdBeginSample,
		recording.CmdAcquireTarget, // mask
		recording.CmdAcquireTarget, // intermediate
		recording.CmdReleaseTarget, // intermediate
		recording.CmdReleaseTarget, // mask
		recording.CmdEndSample,
	}
	got := commandTypes(cmds)
	if len(got) != len(want) {
		t.Fatalf("got %d commands %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d = %v, want %v", i, got[i], want[i])
		}
	}

	begin := cmds[0].(recording.BeginSampleCommand)
	if begin.Name != "HeroOutline" {
		t.Errorf("sample name %q, want HeroOutline", begin.Name)
	}

	maskAcq := cmds[1].(recording.AcquireTargetCommand)
	if maskAcq.ID != outline.MaskTargetID {
		t.Errorf("first acquire = %d, want mask target", maskAcq.ID)
	}
	if maskAcq.Desc.Format != gputypes.TextureFormatR8Unorm {
		t.Errorf("mask format = %v, want R8Unorm", maskAcq.Desc.Format)
	}
	if maskAcq.Desc.Filter != gputypes.FilterModeLinear {
		t.Errorf("mask filter = %v, want linear", maskAcq.Desc.Filter)
	}
	if maskAcq.Desc.Width != 256 || maskAcq.Desc.Height != 128 {
		t.Errorf("mask size = %dx%d, want 256x128", maskAcq.Desc.Width, maskAcq.Desc.Height)
	}

	tempAcq := cmds[2].(recording.AcquireTargetCommand)
	if tempAcq.ID != outline.TempTargetID {
		t.Errorf("second acquire = %d, want intermediate target", tempAcq.ID)
	}

	// Buffers release in reverse order of acquisition.
	if cmds[3].(recording.ReleaseTargetCommand).ID != outline.TempTargetID {
		t.Error("intermediate buffer should release first")
	}
	if cmds[4].(recording.ReleaseTargetCommand).ID != outline.MaskTargetID {
		t.Error("mask buffer should release last")
	}
}

func TestScopeDefaultSampleName(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	begin := rec.Finish().Commands()[0].(recording.BeginSampleCommand)
	if begin.Name != "Outline" {
		t.Errorf("sample name %q, want Outline", begin.Name)
	}
}

func TestScopeRenderCommandSequence(t *testing.T) {
	const dst outline.TargetID = 7

	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: dst})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}

	res := newTestResources(t)
	settings := outline.DefaultSettings()
	settings.Width = 4

	set := outline.NewDrawableSet(
		&fakeDrawable{label: "body", submeshes: 2},
		&fakeDrawable{label: "head", submeshes: 1},
	)
	if err := scope.Render(set, res, &settings); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := scope.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	cmds := rec.Finish().Commands()
	// Skip scope setup (BeginSample + two acquires).
	body := cmds[3 : len(cmds)-3]

	want := []recording.CommandType{
		recording.CmdSetRenderTarget, // mask, cleared
		recording.CmdDrawGeometry,    // body submesh 0
		recording.CmdDrawGeometry,    // body submesh 1
		recording.CmdDrawGeometry,    // head submesh 0
		recording.CmdSetFloatArray,   // kernel weights
		recording.CmdSetFloat,        // width
		recording.CmdSetColor,        // outline color
		recording.CmdSetFloat,        // intensity
		recording.CmdSetTexture,      // mask texture global
		recording.CmdSetRenderTarget, // intermediate, cleared
		recording.CmdSetTexture,      // blur source = mask
		recording.CmdDrawProcedural,  // horizontal pass
		recording.CmdSetTexture,      // intermediate texture global
		recording.CmdSetRenderTarget, // destination, loaded
		recording.CmdSetTexture,      // blur source = intermediate
		recording.CmdDrawProcedural,  // vertical pass
	}
	got := commandTypes(body)
	if len(got) != len(want) {
		t.Fatalf("got %d commands %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("command %d = %v, want %v", i, got[i], want[i])
		}
	}

	maskPass := body[0].(recording.SetRenderTargetCommand)
	if maskPass.Color.Target != outline.MaskTargetID || maskPass.Color.Load != gputypes.LoadOpClear {
		t.Errorf("mask pass attachment = %+v, want cleared mask target", maskPass.Color)
	}
	if maskPass.Depth != nil {
		t.Error("mask pass should have no depth attachment without FlagDepthTest")
	}

	// Every mask draw uses the shared mask material, pass 0, and the
	// drawable itself as geometry.
	draw0 := body[1].(recording.DrawGeometryCommand)
	if draw0.Material.Label() != "mask" || draw0.Pass != 0 {
		t.Errorf("mask draw = %+v, want mask material pass 0", draw0)
	}
	if draw0.Geometry.Label() != "body" || draw0.Submesh != 0 {
		t.Errorf("mask draw geometry = %s/%d, want body/0", draw0.Geometry.Label(), draw0.Submesh)
	}
	if d := body[2].(recording.DrawGeometryCommand); d.Submesh != 1 {
		t.Errorf("second draw submesh = %d, want 1", d.Submesh)
	}
	if d := body[3].(recording.DrawGeometryCommand); d.Geometry.Label() != "head" {
		t.Errorf("third draw geometry = %s, want head", d.Geometry.Label())
	}

	kernel := body[4].(recording.SetFloatArrayCommand)
	if kernel.Slot != outline.PropKernel {
		t.Errorf("kernel slot = %v, want PropKernel", kernel.Slot)
	}
	if len(kernel.Values) != 9 {
		t.Errorf("kernel samples = %d, want 9 for width 4", len(kernel.Values))
	}

	horizontal := body[9].(recording.SetRenderTargetCommand)
	if horizontal.Color.Target != outline.TempTargetID || horizontal.Color.Load != gputypes.LoadOpClear {
		t.Errorf("horizontal pass attachment = %+v, want cleared intermediate", horizontal.Color)
	}
	if src := body[10].(recording.SetTextureCommand); src.Slot != outline.PropMainTex || src.Target != outline.MaskTargetID {
		t.Errorf("horizontal source = %+v, want mask at PropMainTex", src)
	}
	if d := body[11].(recording.DrawProceduralCommand); d.Pass != outline.HorizontalPass || d.VertexCount != 3 {
		t.Errorf("horizontal draw = %+v, want 3-vertex pass 0", d)
	}

	vertical := body[13].(recording.SetRenderTargetCommand)
	if vertical.Color.Target != dst || vertical.Color.Load != gputypes.LoadOpLoad {
		t.Errorf("vertical pass attachment = %+v, want loaded destination", vertical.Color)
	}
	if src := body[14].(recording.SetTextureCommand); src.Slot != outline.PropMainTex || src.Target != outline.TempTargetID {
		t.Errorf("vertical source = %+v, want intermediate at PropMainTex", src)
	}
	if d := body[15].(recording.DrawProceduralCommand); d.Pass != outline.VerticalPass {
		t.Errorf("vertical draw pass = %d, want 1", d.Pass)
	}
}

func TestScopeRenderEmptySet(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	before := rec.Len()
	settings := outline.DefaultSettings()
	if err := scope.Render(outline.NewDrawableSet(), newTestResources(t), &settings); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rec.Len() != before {
		t.Errorf("empty set recorded %d commands, want 0", rec.Len()-before)
	}
}

func TestScopeRenderSkipsBlurWithoutDraws(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	settings := outline.DefaultSettings()
	set := outline.NewDrawableSet(
		&fakeDrawable{label: "a", submeshes: 1, hidden: true},
		&fakeDrawable{label: "b", submeshes: 1, disabled: true},
		&fakeDrawable{label: "c", submeshes: 1, inactive: true},
		nil,
	)
	before := rec.Len()
	if err := scope.Render(set, newTestResources(t), &settings); err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Only the mask clear is recorded; no draws, no blur passes.
	cmds := rec.Finish().Commands()[before:]
	if len(cmds) != 1 || cmds[0].Type() != recording.CmdSetRenderTarget {
		t.Fatalf("got %v, want a single SetRenderTarget", commandTypes(cmds))
	}
}

func TestScopeRenderDepthTest(t *testing.T) {
	const depthID outline.TargetID = 9

	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1, DepthSource: depthID})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	settings := outline.DefaultSettings()
	settings.Flags |= outline.FlagDepthTest
	d := &fakeDrawable{label: "d", submeshes: 1}
	before := rec.Len()
	if err := scope.RenderDrawable(d, newTestResources(t), &settings); err != nil {
		t.Fatalf("RenderDrawable: %v", err)
	}

	maskPass := rec.Finish().Commands()[before].(recording.SetRenderTargetCommand)
	if maskPass.Depth == nil {
		t.Fatal("expected depth attachment on mask pass")
	}
	if !maskPass.Depth.ReadOnly {
		t.Error("depth attachment must be read-only")
	}
	if maskPass.Depth.Target != depthID {
		t.Errorf("depth target = %d, want %d", maskPass.Depth.Target, depthID)
	}
	if maskPass.Depth.Load != gputypes.LoadOpLoad || maskPass.Depth.Store != gputypes.StoreOpDiscard {
		t.Errorf("depth ops = %v/%v, want load/discard", maskPass.Depth.Load, maskPass.Depth.Store)
	}
}

func TestScopeRenderDepthTestWithoutSource(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	settings := outline.DefaultSettings()
	settings.Flags |= outline.FlagDepthTest
	before := rec.Len()
	if err := scope.RenderDrawable(&fakeDrawable{label: "d", submeshes: 1}, newTestResources(t), &settings); err != nil {
		t.Fatalf("RenderDrawable: %v", err)
	}

	maskPass := rec.Finish().Commands()[before].(recording.SetRenderTargetCommand)
	if maskPass.Depth != nil {
		t.Error("no depth source bound, mask pass should drop the depth attachment")
	}
}

func TestScopeFullscreenFallback(t *testing.T) {
	rec := recording.NewRecorderWithCaps(outline.Caps{ProceduralDraw: false})
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	settings := outline.DefaultSettings()
	if err := scope.RenderDrawable(&fakeDrawable{label: "d", submeshes: 1}, newTestResources(t), &settings); err != nil {
		t.Fatalf("RenderDrawable: %v", err)
	}

	var geom, proc int
	for _, c := range rec.Finish().Commands() {
		switch cmd := c.(type) {
		case recording.DrawProceduralCommand:
			proc++
		case recording.DrawGeometryCommand:
			if cmd.Geometry.Label() == "fullscreen" {
				geom++
			}
		}
	}
	if proc != 0 {
		t.Errorf("recorded %d procedural draws on a device without support", proc)
	}
	if geom != 2 {
		t.Errorf("recorded %d fullscreen mesh draws, want 2", geom)
	}
}

func TestScopeSequentialRenders(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	res := newTestResources(t)
	red := outline.DefaultSettings()
	blue := outline.DefaultSettings()
	blue.Color = gputypes.Color{B: 1, A: 1}
	blue.Width = 8

	if err := scope.RenderDrawable(&fakeDrawable{label: "a", submeshes: 1}, res, &red); err != nil {
		t.Fatalf("first Render: %v", err)
	}
	if err := scope.RenderDrawable(&fakeDrawable{label: "b", submeshes: 1}, res, &blue); err != nil {
		t.Fatalf("second Render: %v", err)
	}

	var maskClears, kernels int
	var lastKernel recording.SetFloatArrayCommand
	for _, c := range rec.Finish().Commands() {
		switch cmd := c.(type) {
		case recording.SetRenderTargetCommand:
			if cmd.Color.Target == outline.MaskTargetID && cmd.Color.Load == gputypes.LoadOpClear {
				maskClears++
			}
		case recording.SetFloatArrayCommand:
			kernels++
			lastKernel = cmd
		}
	}
	if maskClears != 2 {
		t.Errorf("mask cleared %d times, want once per Render", maskClears)
	}
	if kernels != 2 {
		t.Errorf("kernel published %d times, want 2", kernels)
	}
	if len(lastKernel.Values) != 2*8+1 {
		t.Errorf("second kernel has %d samples, want 17 for width 8", len(lastKernel.Values))
	}
}

func TestScopeRenderObject(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	res := newTestResources(t)
	if err := scope.RenderObject(nil, res); !errors.Is(err, outline.ErrNilObject) {
		t.Errorf("nil object: got %v, want ErrNilObject", err)
	}

	settings := outline.DefaultSettings()
	obj := &outline.Object{
		Name:      "hero",
		Drawables: outline.NewDrawableSet(&fakeDrawable{label: "hero", submeshes: 1}),
		Settings:  &settings,
	}
	if err := scope.RenderObject(obj, res); err != nil {
		t.Fatalf("RenderObject: %v", err)
	}
}

func TestScopeArgumentErrors(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	defer scope.Release()

	res := newTestResources(t)
	settings := outline.DefaultSettings()
	set := outline.NewDrawableSet(&fakeDrawable{label: "d", submeshes: 1})

	if err := scope.Render(nil, res, &settings); !errors.Is(err, outline.ErrNilDrawableSet) {
		t.Errorf("nil set: got %v, want ErrNilDrawableSet", err)
	}
	if err := scope.Render(set, nil, &settings); !errors.Is(err, outline.ErrNilResources) {
		t.Errorf("nil resources: got %v, want ErrNilResources", err)
	}
	if err := scope.Render(set, res, nil); !errors.Is(err, outline.ErrNilSettings) {
		t.Errorf("nil settings: got %v, want ErrNilSettings", err)
	}
	if err := scope.RenderDrawable(nil, res, &settings); !errors.Is(err, outline.ErrNilDrawable) {
		t.Errorf("nil drawable: got %v, want ErrNilDrawable", err)
	}
}

func TestScopeUseAfterRelease(t *testing.T) {
	rec := recording.NewRecorder()
	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: 1})
	if err != nil {
		t.Fatalf("NewScope: %v", err)
	}
	if err := scope.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if err := scope.Release(); !errors.Is(err, outline.ErrScopeReleased) {
		t.Errorf("double release: got %v, want ErrScopeReleased", err)
	}

	res := newTestResources(t)
	settings := outline.DefaultSettings()
	set := outline.NewDrawableSet(&fakeDrawable{label: "d", submeshes: 1})
	if err := scope.Render(set, res, &settings); !errors.Is(err, outline.ErrScopeReleased) {
		t.Errorf("render after release: got %v, want ErrScopeReleased", err)
	}
}
