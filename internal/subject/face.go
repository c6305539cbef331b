package subject

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/disintegration/imaging"
	pigo "github.com/esimov/pigo/core"
)

// FaceTuning holds the pigo detection knobs.
type FaceTuning struct {
	ScaleFactor  float64 // pyramid step between scales (pigo default 1.1)
	ShiftFactor  float64 // window stride as a fraction of its size
	MinSizePct   int     // smallest face, as % of the shorter image side
	IoUThreshold float64 // overlap used when clustering detections
	MinQuality   float32 // detections below this score are dropped
}

// DefaultFaceTuning returns the detection settings used by LoadFaceSegmenter.
func DefaultFaceTuning() FaceTuning {
	return FaceTuning{
		ScaleFactor:  1.1,
		ShiftFactor:  0.1,
		MinSizePct:   5,
		IoUThreshold: 0.2,
		MinQuality:   10.0,
	}
}

// FaceSegmenter builds subject masks from pigo face detections.
//
// Each detected face contributes an ellipse that extends below the chin to
// take in the neck. Inside the ellipses only pixels whose chroma falls in the
// YCbCr skin range (Cb 77-127, Cr 133-173) are marked, so hair, eyes and
// background inside the ellipse are left alone.
type FaceSegmenter struct {
	classifier *pigo.Pigo
	tuning     FaceTuning
}

// FaceRegion is one detected face in image coordinates.
type FaceRegion struct {
	Bounds  image.Rectangle `json:"bounds"`
	Quality float32         `json:"quality"`
}

// NewFaceSegmenter unpacks a pigo cascade (the "facefinder" model).
func NewFaceSegmenter(cascade []byte, tuning FaceTuning) (*FaceSegmenter, error) {
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack face cascade: %w", err)
	}
	return &FaceSegmenter{classifier: classifier, tuning: tuning}, nil
}

// LoadFaceSegmenter reads a cascade file from disk and uses DefaultFaceTuning.
func LoadFaceSegmenter(path string) (*FaceSegmenter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read face cascade: %w", err)
	}
	return NewFaceSegmenter(data, DefaultFaceTuning())
}

// Faces runs face detection and returns the clustered detections above MinQuality.
func (s *FaceSegmenter) Faces(img image.Image) []FaceRegion {
	src := imaging.Clone(img)
	cols, rows := src.Bounds().Dx(), src.Bounds().Dy()

	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	minSize := minDim * s.tuning.MinSizePct / 100
	if minSize < 20 {
		minSize = 20
	}

	params := pigo.CascadeParams{
		MinSize:     minSize,
		MaxSize:     minDim,
		ShiftFactor: s.tuning.ShiftFactor,
		ScaleFactor: s.tuning.ScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(src),
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	dets := s.classifier.RunCascade(params, 0.0)
	dets = s.classifier.ClusterDetections(dets, s.tuning.IoUThreshold)

	faces := make([]FaceRegion, 0, len(dets))
	for _, d := range dets {
		if d.Q < s.tuning.MinQuality {
			continue
		}
		half := d.Scale / 2
		faces = append(faces, FaceRegion{
			Bounds:  image.Rect(d.Col-half, d.Row-half, d.Col+half, d.Row+half),
			Quality: d.Q,
		})
	}
	return faces
}

// Segment implements Segmenter.
func (s *FaceSegmenter) Segment(img image.Image) (*Mask, error) {
	return MaskFromFaces(img, s.Faces(img)), nil
}

// MaskFromFaces rasterises face regions into a skin-gated subject mask.
func MaskFromFaces(img image.Image, faces []FaceRegion) *Mask {
	b := img.Bounds()
	mask := NewMask(b.Dx(), b.Dy())
	if len(faces) == 0 {
		return mask
	}
	src := imaging.Clone(img)

	for _, f := range faces {
		size := float64(f.Bounds.Dx())
		if size <= 0 {
			continue
		}
		cx := float64(f.Bounds.Min.X) + size/2
		cy := float64(f.Bounds.Min.Y) + size/2 + 0.15*size
		rx := 0.6 * size
		ry := 0.85 * size

		x0, x1 := clampInt(int(cx-rx), 0, mask.Width), clampInt(int(cx+rx)+1, 0, mask.Width)
		y0, y1 := clampInt(int(cy-ry), 0, mask.Height), clampInt(int(cy+ry)+1, 0, mask.Height)

		for y := y0; y < y1; y++ {
			for x := x0; x < x1; x++ {
				dx := (float64(x) + 0.5 - cx) / rx
				dy := (float64(y) + 0.5 - cy) / ry
				if dx*dx+dy*dy > 1 {
					continue
				}
				i := src.PixOffset(x, y)
				if inSkinChroma(src.Pix[i], src.Pix[i+1], src.Pix[i+2]) {
					mask.Set(x, y, true)
				}
			}
		}
	}
	return mask
}

func inSkinChroma(r, g, b uint8) bool {
	_, cb, cr := color.RGBToYCbCr(r, g, b)
	return cb >= 77 && cb <= 127 && cr >= 133 && cr <= 173
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
