// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import "errors"

// Package-level errors.
var (
	// ErrNilRecorder is returned when a scope is constructed without a recorder.
	ErrNilRecorder = errors.New("outline: recorder is nil")

	// ErrNilDrawableSet is returned when Render is called with a nil drawable set.
	ErrNilDrawableSet = errors.New("outline: drawable set is nil")

	// ErrNilDrawable is returned when RenderDrawable is called with a nil drawable.
	ErrNilDrawable = errors.New("outline: drawable is nil")

	// ErrNilObject is returned when RenderObject is called with a nil object.
	ErrNilObject = errors.New("outline: object is nil")

	// ErrNilResources is returned when Render is called with nil resources.
	ErrNilResources = errors.New("outline: resources are nil")

	// ErrNilSettings is returned when Render is called with nil settings.
	ErrNilSettings = errors.New("outline: settings are nil")

	// ErrNilMaterial is returned when resources are built without a material.
	ErrNilMaterial = errors.New("outline: material is nil")

	// ErrPassCount is returned when the outline material does not expose
	// both the horizontal and the vertical blur pass.
	ErrPassCount = errors.New("outline: outline material must expose at least two passes")

	// ErrScopeActive is returned when a scope is constructed while another
	// scope is still open. The offscreen buffers use fixed process-wide
	// identifiers, so nesting scopes would corrupt both.
	ErrScopeActive = errors.New("outline: another scope is already open")

	// ErrScopeReleased is returned when a released scope is used again.
	ErrScopeReleased = errors.New("outline: scope has been released")
)
