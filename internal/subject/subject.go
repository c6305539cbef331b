// Package subject decides which pixels belong to the retouch subject.
//
// Two interchangeable strategies implement Classifier: a fast RGB skin
// heuristic that needs nothing but the pixel colour, and a per-pixel Mask
// produced by an external Segmenter. Select picks between them.
package subject

import (
	"fmt"
	"image"
)

// Classifier reports whether the pixel at (x, y) with colour (r, g, b) is part
// of the subject. Implementations must be safe for concurrent use.
type Classifier interface {
	Contains(x, y int, r, g, b uint8) bool
}

// Segmenter is the optional external segmentation capability.
type Segmenter interface {
	Segment(img image.Image) (*Mask, error)
}

// Heuristic classifies skin with the RGB rule
// r>95, g>40, b>20, r>g, r>b and |r-g|>15.
type Heuristic struct{}

// Contains implements Classifier.
func (Heuristic) Contains(_, _ int, r, g, b uint8) bool {
	return IsSkin(r, g, b)
}

// IsSkin applies the RGB skin heuristic to one colour.
func IsSkin(r, g, b uint8) bool {
	if r <= 95 || g <= 40 || b <= 20 {
		return false
	}
	if r <= g || r <= b {
		return false
	}
	d := int(r) - int(g)
	if d < 0 {
		d = -d
	}
	return d > 15
}

// Mask is a per-pixel boolean subject map in row-major order.
type Mask struct {
	Width  int
	Height int
	Bits   []bool
}

// NewMask allocates an empty mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]bool, width*height),
	}
}

// Contains implements Classifier. Coordinates outside the mask are not subject.
func (m *Mask) Contains(x, y int, _, _, _ uint8) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

// Set marks (x, y) as subject or not. Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Coverage returns the fraction of pixels marked as subject (0-1).
func (m *Mask) Coverage() float64 {
	if len(m.Bits) == 0 {
		return 0
	}
	n := 0
	for _, v := range m.Bits {
		if v {
			n++
		}
	}
	return float64(n) / float64(len(m.Bits))
}

// Validate checks that the mask matches an image of width x height.
func (m *Mask) Validate(width, height int) error {
	if m == nil {
		return fmt.Errorf("no mask")
	}
	if m.Width != width || m.Height != height {
		return fmt.Errorf("mask size %dx%d does not match image %dx%d", m.Width, m.Height, width, height)
	}
	if len(m.Bits) != width*height {
		return fmt.Errorf("mask has %d entries, want %d", len(m.Bits), width*height)
	}
	return nil
}

// Select returns the mask when one was supplied and the run asks for
// subject-only retouching, and the skin heuristic otherwise.
func Select(mask *Mask, subjectOnly bool) Classifier {
	if mask != nil && subjectOnly {
		return mask
	}
	return Heuristic{}
}
