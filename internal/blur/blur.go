// Package blur derives Gaussian-blurred copies of pixel buffers.
//
// Blur is pure: it never touches its input and always returns a new buffer of
// the same size. Colour channels are blurred independently of alpha, and the
// source alpha is copied through unchanged.
package blur

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
)

// Engine constants for the presence pass. They are not preset-configurable.
const (
	FineRadius   = 2.0
	MediumRadius = 12.0
)

// Blur returns a Gaussian-like blur of buf at radiusPx.
//
// A radius of zero (or a negative or NaN radius, which is clamped to zero)
// returns a copy of the input.
func Blur(buf *pixel.Buffer, radiusPx float64) *pixel.Buffer {
	if math.IsNaN(radiusPx) || radiusPx <= 0 || buf.Len() == 0 {
		return buf.Clone()
	}

	// Blur colour as if fully opaque so transparent pixels don't bleed black.
	opaque := &image.RGBA{
		Pix:    make([]uint8, len(buf.Pix)),
		Stride: buf.Width * 4,
		Rect:   image.Rect(0, 0, buf.Width, buf.Height),
	}
	copy(opaque.Pix, buf.Pix)
	for i := 3; i < len(opaque.Pix); i += 4 {
		opaque.Pix[i] = 0xff
	}

	blurred := blur.Gaussian(opaque, radiusPx)

	out := pixel.New(buf.Width, buf.Height)
	for y := 0; y < buf.Height; y++ {
		src := blurred.Pix[y*blurred.Stride : y*blurred.Stride+buf.Width*4]
		dst := out.Pix[y*buf.Width*4 : (y+1)*buf.Width*4]
		copy(dst, src)
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = buf.Pix[i]
	}
	return out
}
