package settings

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/ironsheep/photo-tools-mcp/internal/preset"
)

// Params is the fully merged, read-only parameter set of one run.
type Params struct {
	Recipe preset.Recipe

	Temp       float64
	Tint       float64
	Exposure   float64
	Whites     float64
	Blacks     float64
	Highlights float64
	Shadows    float64
	Dehaze     float64

	LevelsBlack float64
	LevelsWhite float64
	LevelsGamma float64
	Curve       preset.ToneCurve
	Hue         float64

	Contrast   float64
	Saturation float64

	Sharpness     float64
	SharpenRadius float64
	SharpenDetail float64

	Texture  float64
	Clarity  float64
	Vibrance float64

	SkinSoftening float64
	DodgeBurn     float64
	FSRadius      float64
	ToneSmoothing float64
	SubjectOnly   bool

	Vignette     float64
	Glow         preset.Glow
	Overlay      *preset.Overlay
	WhiteOverlay float64
	BlackOverlay float64
	Grain        float64

	WatermarkText    string
	WatermarkOpacity float64
	WatermarkSize    float64
	WatermarkColor   string

	Disabled DisabledSections
}

// ErrNonFinite is returned by Resolve when a numeric setting is NaN or infinite.
var ErrNonFinite = errors.New("non-finite parameter")

// Resolve merges a preset, manual overrides and defaults.
//
// temp and tint are additive: the preset's colour balance and the manual value
// are summed. Every other control takes the manual value when set, then the
// preset's structured block when it defines the control, then the default.
// Values with a safe clamp are clamped; NaN and infinities are rejected.
func Resolve(p preset.Preset, m Manual) (Params, error) {
	if err := checkFinite(m); err != nil {
		return Params{}, err
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	recipe, err := p.Recipe()
	if err != nil {
		return Params{}, err
	}

	var tr preset.TonalRange
	if p.TonalRange != nil {
		tr = *p.TonalRange
	}

	out := Params{
		Recipe: recipe,

		Temp:       pick(m.Temp, nil, 0),
		Tint:       pick(m.Tint, nil, 0),
		Exposure:   pick(m.Exposure, nil, DefaultExposure),
		Whites:     pick(m.Whites, tr.Whites, DefaultWhites),
		Blacks:     pick(m.Blacks, tr.Blacks, DefaultBlacks),
		Highlights: pick(m.Highlights, tr.Highlights, 0),
		Shadows:    pick(m.Shadows, tr.Shadows, 0),
		Dehaze:     pick(m.Dehaze, tr.Dehaze, 0),

		LevelsBlack: pick(m.LevelsBlack, nil, DefaultLevelsBlack),
		LevelsWhite: pick(m.LevelsWhite, nil, DefaultLevelsWhite),
		LevelsGamma: pick(m.LevelsGamma, nil, DefaultLevelsGamma),
		Hue:         pick(m.Hue, nil, 0),

		Contrast:   math.Max(0, pick(m.Contrast, nil, DefaultContrast)),
		Saturation: math.Max(0, pick(m.Saturation, nil, DefaultSaturation)),

		Sharpness:     math.Max(0, pick(m.Sharpness, nil, 0)),
		SharpenRadius: math.Max(0, pick(m.SharpenRadius, nil, DefaultSharpenRadius)),
		SharpenDetail: math.Max(0, pick(m.SharpenDetail, nil, DefaultSharpenDetail)),

		Texture:  pick(m.Texture, nil, 0),
		Clarity:  pick(m.Clarity, nil, 0),
		Vibrance: math.Max(0, pick(m.Vibrance, nil, DefaultVibrance)),

		DodgeBurn: pick(m.DodgeBurn, nil, 0),
		FSRadius:  DefaultFSRadius,

		Vignette:     clampUnit(pick(m.Vignette, nil, 0)),
		WhiteOverlay: clampUnit(pick(m.WhiteOverlay, nil, 0)),
		BlackOverlay: clampUnit(pick(m.BlackOverlay, nil, 0)),
		Grain:        clampUnit(pick(m.Grain, nil, 0)),

		WatermarkOpacity: clampUnit(pick(m.WatermarkOpacity, nil, DefaultWatermarkOpacity)),
		WatermarkSize:    math.Max(0, pick(m.WatermarkSize, nil, DefaultWatermarkSize)),
		WatermarkColor:   DefaultWatermarkColor,

		SubjectOnly: p.AISubjectOnly,
		Disabled:    m.DisabledSections,
	}

	if cb := p.ColorBalance; cb != nil {
		out.Temp += cb.Temp
		out.Tint += cb.Tint
	}

	var curve preset.ToneCurve
	if p.ToneCurve != nil {
		curve = *p.ToneCurve
	}
	out.Curve = preset.ToneCurve{
		Highlights: clampCurve(pick(m.CurveHighlights, &curve.Highlights, 0)),
		Lights:     clampCurve(pick(m.CurveLights, &curve.Lights, 0)),
		Darks:      clampCurve(pick(m.CurveDarks, &curve.Darks, 0)),
		Shadows:    clampCurve(pick(m.CurveShadows, &curve.Shadows, 0)),
	}

	out.LevelsBlack = math.Min(math.Max(out.LevelsBlack, 0), 254)
	out.LevelsWhite = math.Min(math.Max(out.LevelsWhite, out.LevelsBlack+1), 255)
	out.LevelsGamma = math.Min(math.Max(out.LevelsGamma, 0.1), 10)

	var fsIntensity *float64
	if fs := p.FrequencySeparation; fs != nil {
		if fs.Radius > 0 {
			out.FSRadius = fs.Radius
		}
		fsIntensity = &fs.Intensity
		out.ToneSmoothing = clampUnit(fs.ToneSmoothing)
	}
	out.SkinSoftening = math.Max(0, pick(m.SkinSoftening, fsIntensity, 0))

	if g := p.Glow; g != nil {
		out.Glow = preset.Glow{Intensity: clampUnit(g.Intensity), Radius: g.Radius}
		if out.Glow.Radius <= 0 {
			out.Glow.Radius = DefaultGlowRadius
		}
	}
	if o := p.Overlay; o != nil && o.Intensity > 0 {
		ov := *o
		ov.Intensity = clampUnit(ov.Intensity)
		out.Overlay = &ov
	}

	if m.AISubjectOnly != nil {
		out.SubjectOnly = *m.AISubjectOnly
	}
	if m.WatermarkText != nil {
		out.WatermarkText = *m.WatermarkText
	}
	if m.WatermarkColor != nil && *m.WatermarkColor != "" {
		out.WatermarkColor = *m.WatermarkColor
	}

	return out, nil
}

// IsZeroBasic reports whether the basic tone controls are all no-ops.
func (p Params) IsZeroBasic() bool {
	return p.Temp == 0 && p.Tint == 0 &&
		p.Exposure == 1 && p.Whites == 1 && p.Blacks == 1 &&
		p.Highlights == 0 && p.Shadows == 0 && p.Dehaze == 0
}

// IsZeroGrading reports whether levels, curve and hue are all no-ops.
func (p Params) IsZeroGrading() bool {
	return p.LevelsBlack == 0 && p.LevelsWhite == 255 && p.LevelsGamma == 1 &&
		p.Curve == (preset.ToneCurve{}) && math.Mod(p.Hue, 360) == 0
}

func pick(manual, fromPreset *float64, def float64) float64 {
	if manual != nil {
		return *manual
	}
	if fromPreset != nil {
		return *fromPreset
	}
	return def
}

func clampUnit(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func clampCurve(v float64) float64 {
	return math.Min(math.Max(v, -100), 100)
}

// checkFinite walks every *float64 field of m.
func checkFinite(m Manual) error {
	v := reflect.ValueOf(m)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		fp, ok := f.Interface().(*float64)
		if !ok || fp == nil {
			continue
		}
		if math.IsNaN(*fp) || math.IsInf(*fp, 0) {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
			return fmt.Errorf("%w: %s", ErrNonFinite, name)
		}
	}
	return nil
}
