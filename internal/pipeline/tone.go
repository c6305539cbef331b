package pipeline

import (
	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

// applyTone runs white balance, exposure, blacks, highlights/shadows and
// dehaze over buf in that order. Values stay unquantised until the end.
func applyTone(buf *pixel.Buffer, p settings.Params) {
	if p.IsZeroBasic() {
		return
	}

	temp, tint := p.Temp, p.Tint
	gain := p.Exposure * p.Whites
	offset := (p.Blacks - 1) * 50
	hl, sh := p.Highlights, p.Shadows
	dehaze := p.Dehaze
	hazeGain := 1 + 0.3*dehaze
	hazeLift := 15 * dehaze

	eachPixel(buf, func(i, _, _ int) {
		r, g, b := rgb(buf.Pix, i)

		r += 0.5 * temp
		b -= 0.5 * temp
		g -= 0.5 * tint
		r += 0.25 * tint
		b += 0.25 * tint

		r, g, b = r*gain+offset, g*gain+offset, b*gain+offset

		if hl != 0 || sh != 0 {
			lum := pixel.ClampUnit((0.299*r + 0.587*g + 0.114*b) / 255)
			d := hl*lum*lum*40 + sh*(1-lum)*(1-lum)*40
			r, g, b = r+d, g+d, b+d
		}

		if dehaze != 0 {
			r = (r-128)*hazeGain + 128 + hazeLift
			g = (g-128)*hazeGain + 128 + hazeLift
			b = (b-128)*hazeGain + 128 + hazeLift
		}

		setRGB(buf.Pix, i, r, g, b)
	})
}
