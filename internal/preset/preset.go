// Package preset models named, reusable photo looks.
//
// A Preset pairs a CSS-style base filter recipe with optional structured
// adjustments. Every structured block is optional; stages read only the block
// they need and fall back to their own defaults when it is absent. Presets are
// treated as immutable values once built.
package preset

import (
	"fmt"
	"math"
)

// DefaultID is the identity preset: empty recipe, no adjustments.
const DefaultID = "none"

// Preset is one named look.
type Preset struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Category string `json:"category" yaml:"category"`

	// Filters is the base filter recipe, e.g. "contrast(1.1) saturate(1.2)".
	Filters string `json:"filters" yaml:"filters"`

	ColorBalance        *ColorBalance        `json:"colorBalance,omitempty" yaml:"colorBalance,omitempty"`
	TonalRange          *TonalRange          `json:"tonalRange,omitempty" yaml:"tonalRange,omitempty"`
	ToneCurve           *ToneCurve           `json:"toneCurve,omitempty" yaml:"toneCurve,omitempty"`
	FrequencySeparation *FrequencySeparation `json:"frequencySeparation,omitempty" yaml:"frequencySeparation,omitempty"`
	Glow                *Glow                `json:"glow,omitempty" yaml:"glow,omitempty"`
	Overlay             *Overlay             `json:"overlay,omitempty" yaml:"overlay,omitempty"`

	// AISubjectOnly restricts retouching to an external subject mask when one is available.
	AISubjectOnly bool `json:"aiSubjectOnly,omitempty" yaml:"aiSubjectOnly,omitempty"`
}

// ColorBalance shifts white balance. Both values add to the manual temp/tint.
type ColorBalance struct {
	Temp float64 `json:"temp" yaml:"temp"`
	Tint float64 `json:"tint" yaml:"tint"`
}

// TonalRange supplies fallbacks for the tone controls. A nil field is absent.
type TonalRange struct {
	Whites     *float64 `json:"whites,omitempty" yaml:"whites,omitempty"`
	Blacks     *float64 `json:"blacks,omitempty" yaml:"blacks,omitempty"`
	Highlights *float64 `json:"highlights,omitempty" yaml:"highlights,omitempty"`
	Shadows    *float64 `json:"shadows,omitempty" yaml:"shadows,omitempty"`
	Dehaze     *float64 `json:"dehaze,omitempty" yaml:"dehaze,omitempty"`
}

// ToneCurve is a four-zone parametric curve; each zone is -100..100.
type ToneCurve struct {
	Highlights float64 `json:"highlights" yaml:"highlights"`
	Lights     float64 `json:"lights" yaml:"lights"`
	Darks      float64 `json:"darks" yaml:"darks"`
	Shadows    float64 `json:"shadows" yaml:"shadows"`
}

// FrequencySeparation configures skin smoothing.
type FrequencySeparation struct {
	Radius        float64 `json:"radius" yaml:"radius"`
	Intensity     float64 `json:"intensity" yaml:"intensity"`
	ToneSmoothing float64 `json:"toneSmoothing" yaml:"toneSmoothing"`
}

// Glow screens a blurred copy of the image back over itself.
type Glow struct {
	Intensity float64 `json:"intensity" yaml:"intensity"`
	Radius    float64 `json:"radius" yaml:"radius"`
}

// OverlayType selects the blend used by an Overlay.
type OverlayType string

// Overlay blend modes.
const (
	OverlayNormal   OverlayType = "normal"
	OverlayScreen   OverlayType = "screen"
	OverlayMultiply OverlayType = "multiply"
)

// Overlay is a full-frame colour wash.
type Overlay struct {
	Type      OverlayType `json:"type" yaml:"type"`
	Intensity float64     `json:"intensity" yaml:"intensity"`
	Color     string      `json:"color,omitempty" yaml:"color,omitempty"`
}

// Default returns the identity preset.
func Default() Preset {
	return Preset{
		ID:       DefaultID,
		Name:     "Original",
		Category: "basic",
		Filters:  "",
	}
}

// Recipe parses the preset's filter list.
func (p Preset) Recipe() (Recipe, error) {
	r, err := ParseRecipe(p.Filters)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.ID, err)
	}
	return r, nil
}

// Validate checks that the recipe parses and no structured value is NaN or infinite.
func (p Preset) Validate() error {
	if _, err := p.Recipe(); err != nil {
		return err
	}

	var values []float64
	if cb := p.ColorBalance; cb != nil {
		values = append(values, cb.Temp, cb.Tint)
	}
	if tr := p.TonalRange; tr != nil {
		for _, v := range []*float64{tr.Whites, tr.Blacks, tr.Highlights, tr.Shadows, tr.Dehaze} {
			if v != nil {
				values = append(values, *v)
			}
		}
	}
	if tc := p.ToneCurve; tc != nil {
		values = append(values, tc.Highlights, tc.Lights, tc.Darks, tc.Shadows)
	}
	if fs := p.FrequencySeparation; fs != nil {
		values = append(values, fs.Radius, fs.Intensity, fs.ToneSmoothing)
	}
	if g := p.Glow; g != nil {
		values = append(values, g.Intensity, g.Radius)
	}
	if o := p.Overlay; o != nil {
		values = append(values, o.Intensity)
		switch o.Type {
		case OverlayNormal, OverlayScreen, OverlayMultiply, "":
		default:
			return fmt.Errorf("preset %q: unknown overlay type %q", p.ID, o.Type)
		}
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("preset %q: non-finite adjustment value", p.ID)
		}
	}
	return nil
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 {
	return &v
}
