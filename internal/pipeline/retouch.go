package pipeline

import (
	"math"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
	"github.com/ironsheep/photo-tools-mcp/internal/subject"
)

// retouchBlend is the weight given to the frequency-separation blur on
// subject pixels. Negative texture adds softening.
func retouchBlend(p settings.Params) float64 {
	return pixel.ClampUnit((p.SkinSoftening*0.6 + math.Max(0, -p.Texture)) * 0.8)
}

// retouchActive reports whether applyRetouch would change anything.
func retouchActive(p settings.Params) bool {
	return retouchBlend(p) > 0 || p.DodgeBurn > 0 || p.ToneSmoothing > 0
}

// applyRetouch smooths and sculpts pixels the classifier accepts. fs is the
// base buffer blurred at the frequency-separation radius. Other pixels are
// left as they are.
func applyRetouch(buf, fs *pixel.Buffer, cls subject.Classifier, p settings.Params) {
	if !retouchActive(p) {
		return
	}
	blend := retouchBlend(p)
	smoothing := p.ToneSmoothing * 0.5
	dodge := p.DodgeBurn * 0.4

	eachPixel(buf, func(i, x, y int) {
		if !cls.Contains(x, y, buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2]) {
			return
		}
		r, g, b := rgb(buf.Pix, i)
		fr, fg, fb := rgb(fs.Pix, i)

		if blend > 0 {
			keep := 1 - blend
			r = r*keep + fr*blend
			g = g*keep + fg*blend
			b = b*keep + fb*blend
		}

		if smoothing > 0 {
			d := ((fr+fg+fb)/3 - (r+g+b)/3) * smoothing
			r, g, b = r+d, g+d, b+d
		}

		if dodge > 0 {
			avg := (r + g + b) / 3
			boost := 1 + (avg-128)/128*dodge
			r, g, b = r*boost, g*boost, b*boost
		}

		setRGB(buf.Pix, i, r, g, b)
	})
}
