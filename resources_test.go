// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import (
	"errors"
	"testing"
)

type stubMaterial struct {
	label  string
	passes int
}

func (m stubMaterial) Label() string  { return m.label }
func (m stubMaterial) PassCount() int { return m.passes }

type stubGeometry struct{ label string }

func (g stubGeometry) Label() string { return g.label }

func TestNewResources(t *testing.T) {
	mask := stubMaterial{label: "mask", passes: 1}
	blur := stubMaterial{label: "blur", passes: 2}
	mesh := stubGeometry{label: "fullscreen"}

	res, err := NewResources(mask, blur, mesh)
	if err != nil {
		t.Fatalf("NewResources: %v", err)
	}
	if res.MaskMaterial != Material(mask) || res.OutlineMaterial != Material(blur) {
		t.Error("materials not stored")
	}
	if res.Kernels == nil {
		t.Error("kernel cache not created")
	}
}

func TestNewResourcesValidation(t *testing.T) {
	mask := stubMaterial{label: "mask", passes: 1}
	blur := stubMaterial{label: "blur", passes: 2}

	if _, err := NewResources(nil, blur, nil); !errors.Is(err, ErrNilMaterial) {
		t.Errorf("nil mask: got %v, want ErrNilMaterial", err)
	}
	if _, err := NewResources(mask, nil, nil); !errors.Is(err, ErrNilMaterial) {
		t.Errorf("nil outline: got %v, want ErrNilMaterial", err)
	}

	onePass := stubMaterial{label: "one", passes: 1}
	if _, err := NewResources(mask, onePass, nil); !errors.Is(err, ErrPassCount) {
		t.Errorf("one-pass outline: got %v, want ErrPassCount", err)
	}
}

type stubDrawable struct {
	stubGeometry
	materials []Material
}

func (d *stubDrawable) Enabled() bool { return true }
func (d *stubDrawable) Visible() bool { return true }
func (d *stubDrawable) Active() bool  { return true }

func (d *stubDrawable) AppendMaterials(dst []Material) []Material {
	return append(dst, d.materials...)
}

func TestSubmeshMaterialsReusesScratch(t *testing.T) {
	res, err := NewResources(
		stubMaterial{label: "mask", passes: 1},
		stubMaterial{label: "blur", passes: 2},
		nil,
	)
	if err != nil {
		t.Fatalf("NewResources: %v", err)
	}

	two := &stubDrawable{
		stubGeometry: stubGeometry{label: "two"},
		materials:    []Material{stubMaterial{label: "a"}, stubMaterial{label: "b"}},
	}
	one := &stubDrawable{
		stubGeometry: stubGeometry{label: "one"},
		materials:    []Material{stubMaterial{label: "c"}},
	}

	if got := res.submeshMaterials(two); len(got) != 2 {
		t.Fatalf("got %d materials, want 2", len(got))
	}
	got := res.submeshMaterials(one)
	if len(got) != 1 {
		t.Fatalf("got %d materials, want 1", len(got))
	}
	if got[0].Label() != "c" {
		t.Errorf("stale scratch content: %q", got[0].Label())
	}
}

func TestDrawableSetCopiesInput(t *testing.T) {
	d := &stubDrawable{stubGeometry: stubGeometry{label: "d"}}
	items := []Drawable{d}
	set := NewDrawableSet(items...)
	items[0] = nil

	if set.Len() != 1 {
		t.Fatalf("len = %d, want 1", set.Len())
	}
	if set.At(0) != Drawable(d) {
		t.Error("set should not observe caller mutation")
	}
}
