// Package settings holds per-call manual overrides and merges them with a
// preset into the effective parameters of one pipeline run.
package settings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Section identifies a group of controls that can be switched off as a whole.
type Section int

// Sections in pipeline order.
const (
	Basic Section = iota
	Grading
	Detail
	Retouch
	Effects
	Watermark
	numSections
)

var sectionNames = [numSections]string{
	Basic:     "basic",
	Grading:   "grading",
	Detail:    "detail",
	Retouch:   "retouch",
	Effects:   "effects",
	Watermark: "watermark",
}

// Sections lists every section.
func Sections() []Section {
	out := make([]Section, numSections)
	for i := range out {
		out[i] = Section(i)
	}
	return out
}

// String returns the section key used in JSON.
func (s Section) String() string {
	if s < 0 || s >= numSections {
		return fmt.Sprintf("section(%d)", int(s))
	}
	return sectionNames[s]
}

// ParseSection maps a section key to its Section.
func ParseSection(name string) (Section, error) {
	for i, n := range sectionNames {
		if strings.EqualFold(n, name) {
			return Section(i), nil
		}
	}
	return 0, fmt.Errorf("unknown section %q", name)
}

// DisabledSections is a closed set of per-section disable flags.
type DisabledSections [numSections]bool

// Disable returns a copy with the given sections switched off.
func (d DisabledSections) Disable(sections ...Section) DisabledSections {
	for _, s := range sections {
		d[s] = true
	}
	return d
}

// Disabled reports whether s is switched off.
func (d DisabledSections) Disabled(s Section) bool {
	return d[s]
}

// MarshalJSON encodes the flags as {"basic": false, ...}.
func (d DisabledSections) MarshalJSON() ([]byte, error) {
	m := make(map[string]bool, numSections)
	for i, v := range d {
		m[sectionNames[i]] = v
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts a key->bool object. Unknown keys are rejected.
func (d *DisabledSections) UnmarshalJSON(data []byte) error {
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out DisabledSections
	for k, v := range m {
		s, err := ParseSection(k)
		if err != nil {
			return err
		}
		out[s] = v
	}
	*d = out
	return nil
}

// Manual carries per-call overrides. A nil field means "not set"; see the
// Default* constants for what an unset field resolves to.
type Manual struct {
	// Tone
	Exposure   *float64 `json:"exposure,omitempty"`
	Whites     *float64 `json:"whites,omitempty"`
	Blacks     *float64 `json:"blacks,omitempty"`
	Highlights *float64 `json:"highlights,omitempty"`
	Shadows    *float64 `json:"shadows,omitempty"`
	Dehaze     *float64 `json:"dehaze,omitempty"`
	Temp       *float64 `json:"temp,omitempty"`
	Tint       *float64 `json:"tint,omitempty"`

	// Base filter and colour
	Contrast   *float64 `json:"contrast,omitempty"`
	Saturation *float64 `json:"saturation,omitempty"`
	Vibrance   *float64 `json:"vibrance,omitempty"`

	// Presence and detail
	Texture       *float64 `json:"texture,omitempty"`
	Clarity       *float64 `json:"clarity,omitempty"`
	Sharpness     *float64 `json:"sharpness,omitempty"`
	SharpenRadius *float64 `json:"sharpenRadius,omitempty"`
	SharpenDetail *float64 `json:"sharpenDetail,omitempty"`

	// Retouch
	SkinSoftening *float64 `json:"skinSoftening,omitempty"`
	DodgeBurn     *float64 `json:"dodgeBurn,omitempty"`
	AISubjectOnly *bool    `json:"aiSubjectOnly,omitempty"`

	// Effects
	Vignette     *float64 `json:"vignette,omitempty"`
	Grain        *float64 `json:"grain,omitempty"`
	WhiteOverlay *float64 `json:"whiteOverlay,omitempty"`
	BlackOverlay *float64 `json:"blackOverlay,omitempty"`

	// Grading
	LevelsBlack     *float64 `json:"levelsBlack,omitempty"`
	LevelsWhite     *float64 `json:"levelsWhite,omitempty"`
	LevelsGamma     *float64 `json:"levelsGamma,omitempty"`
	CurveHighlights *float64 `json:"curveHighlights,omitempty"`
	CurveLights     *float64 `json:"curveLights,omitempty"`
	CurveDarks      *float64 `json:"curveDarks,omitempty"`
	CurveShadows    *float64 `json:"curveShadows,omitempty"`
	Hue             *float64 `json:"hue,omitempty"`

	// Watermark
	WatermarkText    *string  `json:"watermarkText,omitempty"`
	WatermarkOpacity *float64 `json:"watermarkOpacity,omitempty"`
	WatermarkSize    *float64 `json:"watermarkSize,omitempty"`
	WatermarkColor   *string  `json:"watermarkColor,omitempty"`

	DisabledSections DisabledSections `json:"disabledSections"`
}

// Documented no-op defaults for unset fields.
const (
	DefaultExposure         = 1.0
	DefaultWhites           = 1.0
	DefaultBlacks           = 1.0
	DefaultContrast         = 1.0
	DefaultSaturation       = 1.0
	DefaultVibrance         = 1.0
	DefaultSharpenRadius    = 1.0
	DefaultSharpenDetail    = 25.0
	DefaultLevelsBlack      = 0.0
	DefaultLevelsWhite      = 255.0
	DefaultLevelsGamma      = 1.0
	DefaultWatermarkOpacity = 0.5
	DefaultWatermarkSize    = 3.0
	DefaultWatermarkColor   = "#ffffff"
	DefaultFSRadius         = 8.0
	DefaultGlowRadius       = 10.0
)

// Float returns a pointer to v, for building Manual values in code.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
