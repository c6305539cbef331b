package pipeline

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

// Vignette geometry, relative to the larger image side.
const (
	vignetteRadius = 0.8
	vignetteInner  = 0.4
)

// vignetteAlpha is the black-overlay opacity at distance d from the centre.
func vignetteAlpha(d, radius, strength float64) float64 {
	inner := radius * vignetteInner
	t := pixel.ClampUnit((d - inner) / (radius - inner))
	return strength * t
}

// applyVignette darkens towards the edges. It is not tied to the effects
// section switch.
func applyVignette(buf *pixel.Buffer, strength float64) {
	if strength <= 0 {
		return
	}
	cx, cy := float64(buf.Width)/2, float64(buf.Height)/2
	radius := vignetteRadius * math.Max(float64(buf.Width), float64(buf.Height))

	eachPixel(buf, func(i, x, y int) {
		d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
		a := vignetteAlpha(d, radius, strength)
		if a == 0 {
			return
		}
		r, g, b := rgb(buf.Pix, i)
		k := 1 - a
		setRGB(buf.Pix, i, r*k, g*k, b*k)
	})
}

func screen(a, b float64) float64 {
	return 255 - (255-a)*(255-b)/255
}

func multiply(a, b float64) float64 {
	return a * b / 255
}

// overlayColour resolves an overlay's colour, defaulting to black for
// multiply and white for the other modes.
func overlayColour(o preset.Overlay) ([3]float64, error) {
	hex := o.Color
	if hex == "" {
		if o.Type == preset.OverlayMultiply {
			hex = "#000000"
		} else {
			hex = "#ffffff"
		}
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return [3]float64{}, fmt.Errorf("%w: overlay colour %q", ErrInvalidParameter, o.Color)
	}
	return [3]float64{c.R * 255, c.G * 255, c.B * 255}, nil
}

// applyEffects runs glow, the preset overlay, the white and black washes and
// grain. glow may be nil when the glow is off.
func applyEffects(buf, glow *pixel.Buffer, p settings.Params) error {
	glowAlpha := 0.0
	if glow != nil {
		glowAlpha = p.Glow.Intensity
	}

	var (
		ovAlpha float64
		ovCol   [3]float64
		ovType  preset.OverlayType
	)
	if o := p.Overlay; o != nil {
		c, err := overlayColour(*o)
		if err != nil {
			return err
		}
		ovAlpha, ovCol, ovType = o.Intensity, c, o.Type
	}

	white := p.WhiteOverlay * 0.3
	black := p.BlackOverlay
	grain := p.Grain * 60

	if glowAlpha == 0 && ovAlpha == 0 && white == 0 && black == 0 && grain == 0 {
		return nil
	}

	eachPixel(buf, func(i, _, _ int) {
		c := [3]float64{float64(buf.Pix[i]), float64(buf.Pix[i+1]), float64(buf.Pix[i+2])}

		if glowAlpha > 0 {
			for k := range c {
				c[k] = c[k]*(1-glowAlpha) + screen(c[k], float64(glow.Pix[i+k]))*glowAlpha
			}
		}

		if ovAlpha > 0 {
			for k := range c {
				var top float64
				switch ovType {
				case preset.OverlayScreen:
					top = screen(c[k], ovCol[k])
				case preset.OverlayMultiply:
					top = multiply(c[k], ovCol[k])
				default:
					top = ovCol[k]
				}
				c[k] = c[k]*(1-ovAlpha) + top*ovAlpha
			}
		}

		if white > 0 {
			for k := range c {
				c[k] = c[k]*(1-white) + screen(c[k], 255)*white
			}
		}
		if black > 0 {
			for k := range c {
				c[k] = c[k]*(1-black) + multiply(c[k], 0)*black
			}
		}

		if grain > 0 {
			n := grainNoise(i/4) * grain
			c[0], c[1], c[2] = c[0]+n, c[1]+n, c[2]+n
		}

		setRGB(buf.Pix, i, c[0], c[1], c[2])
	})
	return nil
}

// grainNoise returns a value in [-0.5, 0.5) that depends only on the pixel index.
func grainNoise(idx int) float64 {
	h := uint32(idx) * 0x9e3779b1
	h ^= h >> 15
	h *= 0x85ebca77
	h ^= h >> 13
	h *= 0xc2b2ae3d
	h ^= h >> 16
	return float64(h)/(1<<32) - 0.5
}
