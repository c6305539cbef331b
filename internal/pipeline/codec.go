package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output encoding.
type Format string

// Supported output formats. JPEG is the default and always uses JPEGQuality.
const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

// JPEGQuality is the fixed quality factor for lossy output.
const JPEGQuality = 95

// ParseFormat maps a user-facing name ("jpg", "JPEG", "png", "") to a Format.
// The empty string selects JPEG.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "", "jpg", "jpeg":
		return JPEG, nil
	case "png":
		return PNG, nil
	default:
		return "", fmt.Errorf("%w: unsupported output format %q", ErrInvalidParameter, name)
	}
}

// FormatForPath picks the format from a file extension, falling back to JPEG.
func FormatForPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return JPEG
	}
	return f
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	if f == PNG {
		return ".png"
	}
	return ".jpg"
}

// Decode reads an image and applies its EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeFailure, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecodeFailure)
	}
	return img, nil
}

// DecodeBytes is Decode over an in-memory image.
func DecodeBytes(data []byte) (image.Image, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case PNG:
		err = imaging.Encode(w, img, imaging.PNG)
	case JPEG, "":
		err = imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality))
	default:
		return fmt.Errorf("%w: unsupported output format %q", ErrEncodeFailure, f)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeFailure, err)
	}
	return nil
}
