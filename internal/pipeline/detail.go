package pipeline

import (
	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

// applySharpen is an unsharp mask against blurred, the base buffer blurred at
// the sharpen radius.
func applySharpen(buf, blurred *pixel.Buffer, p settings.Params) {
	if p.Sharpness <= 0 {
		return
	}
	amount := p.Sharpness * (0.5 + p.SharpenDetail/50)

	eachPixel(buf, func(i, _, _ int) {
		r, g, b := rgb(buf.Pix, i)
		br, bg, bb := rgb(blurred.Pix, i)
		setRGB(buf.Pix, i,
			r+(r-br)*amount,
			g+(g-bg)*amount,
			b+(b-bb)*amount,
		)
	})
}
