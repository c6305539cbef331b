package pipeline

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
)

// applyVibrance scales each pixel's distance from its HSL lightness by a
// factor that shrinks as the pixel's saturation grows. Grey pixels have zero
// distance and are never changed.
func applyVibrance(buf *pixel.Buffer, vibrance float64) {
	if vibrance == 1 {
		return
	}

	eachPixel(buf, func(i, _, _ int) {
		r, g, b := rgb(buf.Pix, i)
		if r == g && g == b {
			return
		}
		_, s, l := colorful.Color{R: r / 255, G: g / 255, B: b / 255}.Hsl()
		factor := 1 + (1-s)*(vibrance-1)
		mid := l * 255
		setRGB(buf.Pix, i,
			mid+(r-mid)*factor,
			mid+(g-mid)*factor,
			mid+(b-mid)*factor,
		)
	})
}
