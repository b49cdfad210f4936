// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package outline

import (
	"sync"

	"github.com/chewxy/math32"
)

// Kernel size limits.
const (
	// MaxWidth is the maximum outline width in pixels.
	MaxWidth = 32

	// MaxKernelSamples is the maximum number of samples in a blur kernel,
	// and the fixed size of the shader-side weights array.
	MaxKernelSamples = 2*MaxWidth + 1
)

// Kernel holds the discretized 1-D Gaussian used by one blur pass.
// Offsets and Weights have equal length 2*Width+1; Weights sum to 1 so the
// blur preserves total coverage. Kernels returned by a KernelCache are
// shared and must not be mutated.
type Kernel struct {
	// Width is the outline width the kernel was computed for.
	Width int

	// Offsets are the texel offsets of each sample, -Width..Width.
	Offsets []float32

	// Weights are the normalized Gaussian weights of each sample.
	Weights []float32
}

// computeKernel builds the normalized Gaussian kernel for the given width.
// The width must already be clamped to [1, MaxWidth].
func computeKernel(width int) *Kernel {
	n := 2*width + 1
	k := &Kernel{
		Width:   width,
		Offsets: make([]float32, n),
		Weights: make([]float32, n),
	}

	// Sigma is chosen so the kernel's ±width range covers three standard
	// deviations; the tail truncated past that is folded back in by the
	// normalization below.
	sigma := float32(width) / 3
	inv2s2 := 1 / (2 * sigma * sigma)

	var sum float32
	for i := 0; i < n; i++ {
		x := float32(i - width)
		w := math32.Exp(-x * x * inv2s2)
		k.Offsets[i] = x
		k.Weights[i] = w
		sum += w
	}
	invSum := 1 / sum
	for i := range k.Weights {
		k.Weights[i] *= invSum
	}
	return k
}

// KernelCache computes and caches blur kernels keyed by outline width.
// Each distinct width is computed at most once over the cache's lifetime.
// KernelCache is safe for concurrent use.
type KernelCache struct {
	mu      sync.RWMutex
	kernels map[int]*Kernel
}

// NewKernelCache creates an empty kernel cache.
func NewKernelCache() *KernelCache {
	return &KernelCache{kernels: make(map[int]*Kernel, 8)}
}

// Get returns the kernel for the given width, computing and caching it on
// first use. Widths outside [1, MaxWidth] are clamped. Repeated calls with
// the same width return the same kernel.
func (c *KernelCache) Get(width int) *Kernel {
	switch {
	case width < 1:
		width = 1
	case width > MaxWidth:
		width = MaxWidth
	}

	// Fast path: read lock for the common cached case.
	c.mu.RLock()
	k, ok := c.kernels[width]
	c.mu.RUnlock()
	if ok {
		return k
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Re-check after acquiring the write lock.
	if k, ok := c.kernels[width]; ok {
		return k
	}
	k = computeKernel(width)
	c.kernels[width] = k
	return k
}

// Len returns the number of cached kernels.
func (c *KernelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.kernels)
}
