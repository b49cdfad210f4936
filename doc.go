// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package outline renders silhouette highlights around selected drawables
// without modifying their materials or meshes.
//
// The pipeline records GPU commands in two stages per outlined object:
//
//  1. Mask pass: the object's submeshes are drawn with a shared mask
//     material into an offscreen single-channel buffer, optionally
//     depth-tested against an externally supplied depth source.
//  2. Blur and composite: the mask is expanded by a two-pass separable
//     Gaussian blur, horizontal into an intermediate buffer, then
//     vertical combined with colorize-and-blend onto the destination.
//
// All operations append to a Recorder (an ordered GPU command stream);
// nothing here submits work or blocks. A Scope owns the two offscreen
// buffers for one recording session:
//
//	scope, err := outline.NewScope(rec, outline.ScopeConfig{Destination: dst})
//	if err != nil { ... }
//	err = scope.Render(drawables, resources, &settings)
//	...
//	err = scope.Release()
//
// Render may be called once per logical object before Release; each call
// clears and redraws the mask, so objects are blended onto the destination
// independently, in call order.
//
// The offscreen buffers use fixed process-wide identifiers (MaskTargetID,
// TempTargetID). Two scopes must therefore never be open against the same
// recording context at once; NewScope enforces this with a process-wide
// guard and returns ErrScopeActive on violation.
//
// Concrete command capture lives in the recording subpackage; executors
// live under backend (softdraw for CPU, wgpu for GPU).
package outline
