package pipeline

import (
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/photo-tools-mcp/internal/blur"
	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

// colourOp transforms one normalised RGB triple in place.
type colourOp func(c *[3]float64)

// baseFilterOps returns the preset recipe followed by the manual contrast and
// saturation, with identity operations dropped.
func baseFilterOps(p settings.Params) preset.Recipe {
	ops := make(preset.Recipe, 0, len(p.Recipe)+2)
	for _, op := range p.Recipe {
		if !op.IsIdentity() {
			ops = append(ops, op)
		}
	}
	for _, op := range []preset.FilterOp{
		{Kind: preset.Contrast, Amount: p.Contrast},
		{Kind: preset.Saturate, Amount: p.Saturation},
	} {
		if !op.IsIdentity() {
			ops = append(ops, op)
		}
	}
	return ops
}

// applyBaseFilter runs the composed base filter and returns the resulting
// buffer, which may be buf itself or a replacement.
//
// Consecutive colour operations are fused into a single pass with a clamp to
// [0,1] after each operation. A blur operation flushes the pending colour
// pass first.
func applyBaseFilter(buf *pixel.Buffer, p settings.Params) *pixel.Buffer {
	var pending []colourOp
	flush := func() {
		if len(pending) == 0 {
			return
		}
		buf = adjustColours(buf, pending)
		pending = nil
	}

	for _, op := range baseFilterOps(p) {
		if op.Kind == preset.Blur {
			flush()
			buf = blur.Blur(buf, op.Amount)
			continue
		}
		pending = append(pending, colourOpFor(op))
	}
	flush()
	return buf
}

func adjustColours(buf *pixel.Buffer, ops []colourOp) *pixel.Buffer {
	out := imaging.AdjustFunc(buf.NRGBA(), func(c color.NRGBA) color.NRGBA {
		v := [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
		for _, op := range ops {
			op(&v)
			v[0], v[1], v[2] = pixel.ClampUnit(v[0]), pixel.ClampUnit(v[1]), pixel.ClampUnit(v[2])
		}
		return color.NRGBA{
			R: pixel.Clamp8(v[0] * 255),
			G: pixel.Clamp8(v[1] * 255),
			B: pixel.Clamp8(v[2] * 255),
			A: c.A,
		}
	})
	return &pixel.Buffer{Width: buf.Width, Height: buf.Height, Pix: out.Pix}
}

func colourOpFor(op preset.FilterOp) colourOp {
	a := op.Amount
	switch op.Kind {
	case preset.Brightness:
		return func(c *[3]float64) {
			c[0], c[1], c[2] = c[0]*a, c[1]*a, c[2]*a
		}
	case preset.Contrast:
		return func(c *[3]float64) {
			for k := range c {
				c[k] = (c[k]-0.5)*a + 0.5
			}
		}
	case preset.Saturate:
		return saturateMatrix(a).apply
	case preset.Sepia:
		return sepiaMatrix(a).apply
	case preset.HueRotate:
		return hueRotateMatrix(a).apply
	case preset.Grayscale:
		return grayscaleMatrix(a).apply
	}
	return func(*[3]float64) {}
}

// matrix3 is a row-major 3x3 colour matrix.
type matrix3 [9]float64

func (m matrix3) apply(c *[3]float64) {
	r, g, b := c[0], c[1], c[2]
	c[0] = m[0]*r + m[1]*g + m[2]*b
	c[1] = m[3]*r + m[4]*g + m[5]*b
	c[2] = m[6]*r + m[7]*g + m[8]*b
}

func saturateMatrix(s float64) matrix3 {
	return matrix3{
		0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s,
		0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s,
		0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s,
	}
}

func sepiaMatrix(amount float64) matrix3 {
	a := 1 - math.Min(amount, 1)
	return matrix3{
		0.393 + 0.607*a, 0.769 - 0.769*a, 0.189 - 0.189*a,
		0.349 - 0.349*a, 0.686 + 0.314*a, 0.168 - 0.168*a,
		0.272 - 0.272*a, 0.534 - 0.534*a, 0.131 + 0.869*a,
	}
}

func grayscaleMatrix(amount float64) matrix3 {
	a := 1 - math.Min(amount, 1)
	return matrix3{
		0.2126 + 0.7874*a, 0.7152 - 0.7152*a, 0.0722 - 0.0722*a,
		0.2126 - 0.2126*a, 0.7152 + 0.2848*a, 0.0722 - 0.0722*a,
		0.2126 - 0.2126*a, 0.7152 - 0.7152*a, 0.0722 + 0.9278*a,
	}
}

func hueRotateMatrix(deg float64) matrix3 {
	rad := deg * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return matrix3{
		0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928,
		0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283,
		0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072,
	}
}
