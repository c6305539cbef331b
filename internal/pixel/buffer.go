// Package pixel defines the RGBA8 working buffer shared by every pipeline stage.
//
// A Buffer stores straight (non-premultiplied) RGBA, four bytes per pixel in
// row-major order, exactly like image.NRGBA with a tight stride. Stages read
// channels as float64, do their arithmetic unquantised, and write back through
// Clamp8 so every stored value obeys the same rounding rule.
//
// # Rounding
//
// Clamp8 clamps to [0,255] and rounds half up: 153.5 -> 154, 103.3 -> 103,
// 103.5 -> 104. NaN maps to 0.
package pixel

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Buffer is a dense RGBA8 pixel buffer.
type Buffer struct {
	Width  int
	Height int
	// Pix holds R,G,B,A for each pixel; len(Pix) == Width*Height*4.
	Pix []uint8
}

// New allocates a zeroed buffer of the given size.
func New(width, height int) *Buffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// FromImage copies any image into a new buffer. The image origin is moved to (0,0).
func FromImage(img image.Image) *Buffer {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	return &Buffer{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    nrgba.Pix,
	}
}

// NRGBA wraps the buffer as an *image.NRGBA without copying.
// Writes through the returned image mutate the buffer.
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Offset returns the index of the red channel of pixel (x, y).
func (b *Buffer) Offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// Len returns the number of pixels.
func (b *Buffer) Len() int {
	return b.Width * b.Height
}

// Validate checks the buffer's internal consistency.
func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil pixel buffer")
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("empty pixel buffer %dx%d", b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("pixel buffer length %d does not match %dx%d", len(b.Pix), b.Width, b.Height)
	}
	return nil
}

// Equal reports whether two buffers have the same size and bytes.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.Width != o.Width || b.Height != o.Height || len(b.Pix) != len(o.Pix) {
		return false
	}
	for i := range b.Pix {
		if b.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Clamp8 converts a channel value to uint8, clamping to [0,255] and rounding half up.
func Clamp8(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Floor(v + 0.5))
}

// ClampUnit clamps v to [0,1].
func ClampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
