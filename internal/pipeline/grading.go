package pipeline

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

// Curve zone centres, darkest first, and their triangular half-width.
var curveCentres = [4]float64{0.125, 0.375, 0.625, 0.875}

const curveHalfWidth = 0.25

// applyGrading runs levels, the four-zone tone curve and the hue shift.
func applyGrading(buf *pixel.Buffer, p settings.Params) {
	if p.IsZeroGrading() {
		return
	}

	useLUT := p.LevelsBlack != 0 || p.LevelsWhite != 255 || p.LevelsGamma != 1 ||
		p.Curve != (preset.ToneCurve{})
	var lut [256]float64
	if useLUT {
		lut = gradingLUT(p.LevelsBlack, p.LevelsWhite, p.LevelsGamma, p.Curve)
	}
	hue := math.Mod(p.Hue, 360)

	eachPixel(buf, func(i, _, _ int) {
		var r, g, b float64
		if useLUT {
			r, g, b = lut[buf.Pix[i]], lut[buf.Pix[i+1]], lut[buf.Pix[i+2]]
		} else {
			r, g, b = rgb(buf.Pix, i)
		}

		if hue != 0 {
			h, s, l := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Hsl()
			h = math.Mod(h+hue+360, 360)
			c := colorful.Hsl(h, s, l)
			r, g, b = c.R*255, c.G*255, c.B*255
		}

		setRGB(buf.Pix, i, r, g, b)
	})
}

// gradingLUT maps an input channel value through levels then the tone curve.
// Entries are unquantised channel values.
func gradingLUT(black, white, gamma float64, curve preset.ToneCurve) [256]float64 {
	zones := [4]float64{curve.Shadows, curve.Darks, curve.Lights, curve.Highlights}
	var lut [256]float64
	for v := range lut {
		x := pixel.ClampUnit((float64(v) - black) / (white - black))
		if gamma != 1 {
			x = math.Pow(x, 1/gamma)
		}
		shift := 0.0
		for z, amount := range zones {
			if amount == 0 {
				continue
			}
			w := 1 - math.Abs(x-curveCentres[z])/curveHalfWidth
			if w > 0 {
				shift += amount / 100 * 0.25 * w
			}
		}
		lut[v] = pixel.ClampUnit(x+shift) * 255
	}
	return lut
}
