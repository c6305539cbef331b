package pipeline

import (
	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
)

// eachPixel calls fn with the red-channel offset and coordinates of every
// pixel. Rows are split across CPUs; fn must only touch pixel i of buf and
// read-only shared state.
func eachPixel(buf *pixel.Buffer, fn func(i, x, y int)) {
	parallel.Line(buf.Height, func(start, end int) {
		for y := start; y < end; y++ {
			i := y * buf.Width * 4
			for x := 0; x < buf.Width; x++ {
				fn(i, x, y)
				i += 4
			}
		}
	})
}

// rgb reads the colour channels of pixel i as float64.
func rgb(pix []uint8, i int) (r, g, b float64) {
	return float64(pix[i]), float64(pix[i+1]), float64(pix[i+2])
}

// setRGB writes the colour channels of pixel i through the rounding rule.
func setRGB(pix []uint8, i int, r, g, b float64) {
	pix[i] = pixel.Clamp8(r)
	pix[i+1] = pixel.Clamp8(g)
	pix[i+2] = pixel.Clamp8(b)
}
