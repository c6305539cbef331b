package pipeline

import (
	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

// applyPresence adds texture (against fine) and clarity (against medium).
// Both terms are computed from the same input value and summed before the
// clamp.
func applyPresence(buf, fine, medium *pixel.Buffer, p settings.Params) {
	texture := p.Texture * 0.8
	clarity := p.Clarity * 0.5
	if texture == 0 && clarity == 0 {
		return
	}

	eachPixel(buf, func(i, _, _ int) {
		var out [3]float64
		for k := 0; k < 3; k++ {
			c := float64(buf.Pix[i+k])
			v := c
			if texture != 0 {
				v += (c - float64(fine.Pix[i+k])) * texture
			}
			if clarity != 0 {
				v += (c - float64(medium.Pix[i+k])) * clarity
			}
			out[k] = v
		}
		setRGB(buf.Pix, i, out[0], out[1], out[2])
	})
}
