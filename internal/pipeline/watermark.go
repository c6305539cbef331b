package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
)

var watermarkFont = sync.OnceValues(func() (*opentype.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// watermarkFontSize is the text size in pixels for an image of the given width.
func watermarkFontSize(width int, size float64) float64 {
	return math.Max(1, float64(width)/100*size)
}

// applyWatermark draws the watermark text in the bottom-right corner with a
// soft drop shadow. The result replaces buf's pixels.
func applyWatermark(buf *pixel.Buffer, p settings.Params) (*pixel.Buffer, error) {
	if p.WatermarkText == "" || p.WatermarkOpacity <= 0 || p.WatermarkSize <= 0 {
		return buf, nil
	}

	col, err := colorful.Hex(p.WatermarkColor)
	if err != nil {
		return nil, fmt.Errorf("%w: watermark colour %q", ErrInvalidParameter, p.WatermarkColor)
	}
	f, err := watermarkFont()
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark font: %w", err)
	}

	size := watermarkFontSize(buf.Width, p.WatermarkSize)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create watermark face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	ascent, descent := metrics.Ascent.Ceil(), metrics.Descent.Ceil()
	textW := font.MeasureString(face, p.WatermarkText).Ceil()

	offset := int(math.Max(1, math.Round(size*0.05)))
	sigma := math.Max(0.5, size*0.08)
	pad := int(math.Ceil(sigma*3)) + offset

	margin := int(math.Round(size))
	left := buf.Width - margin - textW
	top := buf.Height - margin - descent - ascent
	origin := image.Pt(left-pad, top-pad)
	layerW, layerH := textW+2*pad, ascent+descent+2*pad

	r, g, b := col.RGB255()
	text := drawText(face, p.WatermarkText, layerW, layerH, image.Pt(pad, pad+ascent), color.NRGBA{R: r, G: g, B: b, A: 255})
	shadow := drawText(face, p.WatermarkText, layerW, layerH, image.Pt(pad+offset, pad+ascent+offset), color.NRGBA{A: 255})
	soft := imaging.Blur(shadow, sigma)

	out := imaging.Overlay(buf.NRGBA(), soft, origin, p.WatermarkOpacity*0.6)
	out = imaging.Overlay(out, text, origin, p.WatermarkOpacity)
	return &pixel.Buffer{Width: buf.Width, Height: buf.Height, Pix: out.Pix}, nil
}

// drawText renders s onto a new transparent layer with its baseline at dot.
func drawText(face font.Face, s string, w, h int, dot image.Point, c color.NRGBA) *image.NRGBA {
	layer := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{
		Dst:  layer,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(s)
	return layer
}
