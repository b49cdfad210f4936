package softdraw

import (
	"image"
	"image/color"

	"github.com/gogpu/gputypes"
)

// blurAlpha convolves src with a one-dimensional kernel into dst, along
// X when horizontal is true and along Y otherwise. The kernel has
// 2w+1 weights for radius w; taps outside the image clamp to the edge.
// A nil or empty kernel degenerates to a copy.
func blurAlpha(dst, src *image.Alpha, weights []float32, horizontal bool) {
	b := src.Bounds()
	if len(weights) == 0 {
		copy(dst.Pix, src.Pix)
		return
	}
	radius := len(weights) / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var sum float32
			for i, w := range weights {
				o := i - radius
				sx, sy := x, y
				if horizontal {
					sx = clampInt(x+o, b.Min.X, b.Max.X-1)
				} else {
					sy = clampInt(y+o, b.Min.Y, b.Max.Y-1)
				}
				sum += w * float32(src.AlphaAt(sx, sy).A)
			}
			dst.SetAlpha(x, y, color.Alpha{A: round8(sum)})
		}
	}
}

// scaleAlpha returns src with every coverage value scaled by f,
// saturating at full coverage.
func scaleAlpha(src *image.Alpha, f float32) *image.Alpha {
	out := image.NewAlpha(src.Bounds())
	for i, a := range src.Pix {
		out.Pix[i] = round8(f * float32(a))
	}
	return out
}

// toRGBA converts a normalized color to 8-bit non-premultiplied RGBA.
func toRGBA(c gputypes.Color) color.NRGBA {
	return color.NRGBA{
		R: clamp8(c.R),
		G: clamp8(c.G),
		B: clamp8(c.B),
		A: clamp8(c.A),
	}
}

// clamp8 maps a normalized channel to [0, 255].
func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// round8 rounds a float coverage value to [0, 255].
func round8(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
