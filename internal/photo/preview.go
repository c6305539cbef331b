package photo

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/photo-tools-mcp/internal/subject"
)

// EncodedImage is an image returned inline to a client.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Fit scales img down so neither side exceeds maxDim, keeping the aspect
// ratio. Images that already fit, or a maxDim <= 0, are returned unchanged.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	if maxDim <= 0 || (b.Dx() <= maxDim && b.Dy() <= maxDim) {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
}

// EncodeBase64 encodes img as PNG, or as JPEG at quality 90 when jpeg is set.
func EncodeBase64(img image.Image, jpeg bool) (*EncodedImage, error) {
	var buf bytes.Buffer
	format, mime := imaging.PNG, "image/png"
	opts := []imaging.EncodeOption{}
	if jpeg {
		format, mime = imaging.JPEG, "image/jpeg"
		opts = append(opts, imaging.JPEGQuality(90))
	}
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	b := img.Bounds()
	return &EncodedImage{
		Width:       b.Dx(),
		Height:      b.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}

// MaskImage renders a subject mask as white-on-black.
func MaskImage(m *subject.Mask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Contains(x, y, 0, 0, 0) {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// HeuristicMask classifies every pixel of img with the skin heuristic.
func HeuristicMask(img image.Image) *subject.Mask {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	m := subject.NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := src.PixOffset(x, y)
			m.Set(x, y, subject.IsSkin(src.Pix[i], src.Pix[i+1], src.Pix[i+2]))
		}
	}
	return m
}
