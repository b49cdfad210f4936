// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import "github.com/gogpu/gputypes"

// RenderFlags is a bitmask of outline rendering options.
type RenderFlags uint32

const (
	// FlagDepthTest enables depth testing of the mask pass against the
	// scope's external depth source, so outlines are clipped by scene
	// geometry in front of the object.
	FlagDepthTest RenderFlags = 1 << 0
)

// Settings describes one outline's appearance. It is a plain value type
// owned by the caller; Render reads it for the duration of a single call.
type Settings struct {
	// Color is the outline color.
	Color gputypes.Color

	// Width is the outline width in pixels. Values outside [1, MaxWidth]
	// are clamped.
	Width int

	// Intensity scales the outline alpha. 1 is a solid outline; larger
	// values harden the blurred falloff.
	Intensity float32

	// Flags holds rendering options.
	Flags RenderFlags
}

// DefaultSettings returns the default outline appearance: a solid red
// outline, 4 pixels wide.
func DefaultSettings() Settings {
	return Settings{
		Color:     gputypes.Color{R: 1, A: 1},
		Width:     4,
		Intensity: 1,
	}
}

// DepthTestEnabled reports whether the mask pass should depth-test
// against the scope's depth source.
func (s *Settings) DepthTestEnabled() bool {
	return s.Flags&FlagDepthTest != 0
}

// clampedWidth returns Width clamped to [1, MaxWidth].
func (s *Settings) clampedWidth() int {
	switch {
	case s.Width < 1:
		return 1
	case s.Width > MaxWidth:
		return MaxWidth
	default:
		return s.Width
	}
}
