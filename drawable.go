// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

// Drawable is one renderable primitive of an outlined object. The scene
// integration layer implements it; the core only reads the visibility
// predicates, fetches the submesh material list, and issues one mask draw
// per submesh.
type Drawable interface {
	Geometry

	// Enabled reports whether the drawable is enabled for rendering.
	Enabled() bool

	// Visible reports whether the drawable is currently visible.
	Visible() bool

	// Active reports whether the drawable belongs to an active scene
	// hierarchy.
	Active() bool

	// AppendMaterials appends the drawable's shared submesh materials to
	// dst and returns the extended slice. The length of the result is the
	// submesh count; the materials themselves are not used by the mask
	// pass, which overrides them with the shared mask material.
	AppendMaterials(dst []Material) []Material
}

// DrawableSet is an ordered, read-only list of drawables representing one
// logical outlined object. Building the list from a scene hierarchy, and
// deciding when to rebuild it, is the caller's responsibility.
type DrawableSet struct {
	items []Drawable
}

// NewDrawableSet creates a drawable set from the given drawables. The
// slice is copied; later mutation of the arguments does not affect the set.
func NewDrawableSet(items ...Drawable) *DrawableSet {
	s := &DrawableSet{items: make([]Drawable, len(items))}
	copy(s.items, items)
	return s
}

// Len returns the number of drawables in the set.
func (s *DrawableSet) Len() int {
	return len(s.items)
}

// At returns the drawable at index i.
func (s *DrawableSet) At(i int) Drawable {
	return s.items[i]
}

// Object groups a drawable set with shared settings and an identity.
// Multiple objects may reference the same Settings value, so one settings
// change affects every object using it.
type Object struct {
	// Name identifies the object in profiling output and debugging.
	Name string

	// Drawables is the object's ordered drawable list.
	Drawables *DrawableSet

	// Settings describes the object's outline appearance.
	Settings *Settings
}
