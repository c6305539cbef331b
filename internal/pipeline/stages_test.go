package pipeline

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
	"github.com/ironsheep/photo-tools-mcp/internal/subject"
)

// createInMemoryImage creates a solid-colour image.
func createInMemoryImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// createSkinImage creates a textured image whose pixels all pass the skin heuristic.
func createSkinImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(180 + (x*7)%40),
				G: uint8(110 + (y*5)%30),
				B: uint8(80 + ((x+y)*3)%20),
				A: 255,
			})
		}
	}
	return img
}

// createGradientImage creates a smooth two-axis gradient.
func createGradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(40 + x*160/width),
				G: uint8(60 + y*140/height),
				B: 120,
				A: 255,
			})
		}
	}
	return img
}

func solidBuffer(width, height int, r, g, b uint8) *pixel.Buffer {
	return pixel.FromImage(createInMemoryImage(width, height, color.NRGBA{R: r, G: g, B: b, A: 255}))
}

func mustResolve(t *testing.T, p preset.Preset, m settings.Manual) settings.Params {
	t.Helper()
	params, err := settings.Resolve(p, m)
	require.NoError(t, err)
	return params
}

func pixelAt(buf *pixel.Buffer, x, y int) [4]uint8 {
	i := buf.Offset(x, y)
	return [4]uint8{buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3]}
}

func TestTone(t *testing.T) {
	tests := []struct {
		name   string
		in     [3]uint8
		manual settings.Manual
		want   [3]uint8
	}{
		{"exposure", [3]uint8{128, 128, 128}, settings.Manual{Exposure: settings.Float(1.2)}, [3]uint8{154, 154, 154}},
		{"dehaze", [3]uint8{100, 100, 100}, settings.Manual{Dehaze: settings.Float(0.5)}, [3]uint8{103, 103, 103}},
		{"temp", [3]uint8{100, 100, 100}, settings.Manual{Temp: settings.Float(20)}, [3]uint8{110, 100, 90}},
		{"tint", [3]uint8{100, 100, 100}, settings.Manual{Tint: settings.Float(8)}, [3]uint8{102, 96, 102}},
		{"exposure times whites", [3]uint8{100, 50, 10}, settings.Manual{Exposure: settings.Float(1.5), Whites: settings.Float(2)}, [3]uint8{255, 150, 30}},
		{"blacks lift", [3]uint8{10, 20, 30}, settings.Manual{Blacks: settings.Float(1.2)}, [3]uint8{20, 30, 40}},
		{"blacks crush", [3]uint8{10, 20, 30}, settings.Manual{Blacks: settings.Float(0)}, [3]uint8{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := solidBuffer(2, 2, tt.in[0], tt.in[1], tt.in[2])
			applyTone(buf, mustResolve(t, preset.Default(), tt.manual))
			got := pixelAt(buf, 1, 1)
			assert.Equal(t, tt.want, [3]uint8{got[0], got[1], got[2]})
			assert.Equal(t, uint8(255), got[3], "alpha is preserved")
		})
	}
}

func TestTone_HighlightsShadows(t *testing.T) {
	dark := solidBuffer(1, 1, 30, 30, 30)
	applyTone(dark, mustResolve(t, preset.Default(), settings.Manual{Shadows: settings.Float(0.5)}))
	assert.Greater(t, dark.Pix[0], uint8(30))

	bright := solidBuffer(1, 1, 230, 230, 230)
	applyTone(bright, mustResolve(t, preset.Default(), settings.Manual{Highlights: settings.Float(-0.5)}))
	assert.Less(t, bright.Pix[0], uint8(230))
}

func TestTone_NoopLeavesBuffer(t *testing.T) {
	buf := pixel.FromImage(createGradientImage(8, 8))
	before := buf.Clone()
	applyTone(buf, mustResolve(t, preset.Default(), settings.Manual{}))
	assert.True(t, before.Equal(buf))
}

func TestGradingLUT(t *testing.T) {
	identity := gradingLUT(0, 255, 1, preset.ToneCurve{})
	for v := range identity {
		assert.InDelta(t, float64(v), identity[v], 1e-9)
	}

	levels := gradingLUT(50, 200, 1, preset.ToneCurve{})
	assert.Equal(t, 0.0, levels[20])
	assert.Equal(t, 0.0, levels[50])
	assert.InDelta(t, 127.5, levels[125], 1e-9)
	assert.Equal(t, 255.0, levels[200])
	assert.Equal(t, 255.0, levels[240])

	gamma := gradingLUT(0, 255, 2, preset.ToneCurve{})
	assert.Greater(t, gamma[64], 64.0, "gamma above 1 lifts mid-tones")

	lifted := gradingLUT(0, 255, 1, preset.ToneCurve{Shadows: 100})
	assert.InDelta(t, 32+0.25*255, lifted[32], 1.5, "full shadow lift at the zone centre")
	assert.InDelta(t, 200, lifted[200], 1e-9, "highlights are outside the shadow zone")
}

func TestApplyGrading_HueRotation(t *testing.T) {
	buf := solidBuffer(1, 1, 255, 0, 0)
	applyGrading(buf, mustResolve(t, preset.Default(), settings.Manual{Hue: settings.Float(180)}))
	assert.Equal(t, [4]uint8{0, 255, 255, 255}, pixelAt(buf, 0, 0))
}

func TestApplyBaseFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters string
		manual  settings.Manual
		in      [3]uint8
		check   func(t *testing.T, px [4]uint8)
	}{
		{
			name:    "brightness",
			filters: "brightness(1.2)",
			in:      [3]uint8{100, 50, 200},
			check: func(t *testing.T, px [4]uint8) {
				assert.Equal(t, [4]uint8{120, 60, 240, 255}, px)
			},
		},
		{
			name:    "grayscale",
			filters: "grayscale(1)",
			in:      [3]uint8{200, 100, 50},
			check: func(t *testing.T, px [4]uint8) {
				assert.InDelta(t, 118, int(px[0]), 1)
				assert.Equal(t, px[0], px[1])
				assert.Equal(t, px[1], px[2])
			},
		},
		{
			name:   "manual saturation zero",
			manual: settings.Manual{Saturation: settings.Float(0)},
			in:     [3]uint8{200, 100, 50},
			check: func(t *testing.T, px [4]uint8) {
				assert.InDelta(t, 118, int(px[0]), 1)
				assert.Equal(t, px[0], px[2])
			},
		},
		{
			name:   "manual contrast after recipe",
			manual: settings.Manual{Contrast: settings.Float(0)},
			in:     [3]uint8{10, 240, 90},
			check: func(t *testing.T, px [4]uint8) {
				assert.Equal(t, [4]uint8{128, 128, 128, 255}, px)
			},
		},
		{
			name:    "clamped between operations",
			filters: "brightness(3) brightness(0.5)",
			in:      [3]uint8{200, 40, 0},
			check: func(t *testing.T, px [4]uint8) {
				// 200*3 clamps to 255 before halving.
				assert.Equal(t, [4]uint8{128, 60, 0, 255}, px)
			},
		},
		{
			name:    "sepia",
			filters: "sepia(1)",
			in:      [3]uint8{100, 100, 100},
			check: func(t *testing.T, px [4]uint8) {
				assert.Greater(t, px[0], px[1])
				assert.Greater(t, px[1], px[2])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := preset.Default()
			pr.Filters = tt.filters
			buf := solidBuffer(3, 3, tt.in[0], tt.in[1], tt.in[2])
			out := applyBaseFilter(buf, mustResolve(t, pr, tt.manual))
			tt.check(t, pixelAt(out, 1, 1))
		})
	}
}

func TestApplyBaseFilter_IdentityReturnsSameBuffer(t *testing.T) {
	pr := preset.Default()
	pr.Filters = "brightness(1) sepia(0) hue-rotate(0deg)"
	buf := pixel.FromImage(createGradientImage(6, 6))
	out := applyBaseFilter(buf, mustResolve(t, pr, settings.Manual{}))
	assert.Same(t, buf, out)
}

func TestApplyBaseFilter_Blur(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(0)
			if x >= 8 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 200})
		}
	}
	pr := preset.Default()
	pr.Filters = "blur(2px)"
	out := applyBaseFilter(pixel.FromImage(img), mustResolve(t, pr, settings.Manual{}))

	edge := pixelAt(out, 8, 8)
	assert.Less(t, edge[0], uint8(255))
	assert.Greater(t, pixelAt(out, 7, 8)[0], uint8(0))
	assert.Equal(t, uint8(200), edge[3])
}

func TestApplySharpen(t *testing.T) {
	buf := solidBuffer(1, 1, 100, 100, 100)
	blurred := solidBuffer(1, 1, 90, 110, 100)

	noop := buf.Clone()
	applySharpen(noop, blurred, mustResolve(t, preset.Default(), settings.Manual{}))
	assert.True(t, noop.Equal(buf))

	// intensity = 1 * (0.5 + 25/50) = 1
	applySharpen(buf, blurred, mustResolve(t, preset.Default(), settings.Manual{Sharpness: settings.Float(1)}))
	assert.Equal(t, [4]uint8{110, 90, 100, 255}, pixelAt(buf, 0, 0))
}

func TestApplyPresence(t *testing.T) {
	buf := solidBuffer(1, 1, 100, 100, 100)
	fine := solidBuffer(1, 1, 90, 90, 90)
	medium := solidBuffer(1, 1, 80, 80, 80)

	// 100 + 10*0.5*0.8 + 20*1*0.5 = 114
	applyPresence(buf, fine, medium, mustResolve(t, preset.Default(), settings.Manual{
		Texture: settings.Float(0.5),
		Clarity: settings.Float(1),
	}))
	assert.Equal(t, [4]uint8{114, 114, 114, 255}, pixelAt(buf, 0, 0))

	soft := solidBuffer(1, 1, 100, 100, 100)
	applyPresence(soft, fine, nil, mustResolve(t, preset.Default(), settings.Manual{Texture: settings.Float(-1)}))
	assert.Equal(t, uint8(92), soft.Pix[0])
}

func TestApplyVibrance_GreyUnchanged(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1.5, 3} {
		for _, grey := range []uint8{0, 37, 128, 255} {
			buf := solidBuffer(1, 1, grey, grey, grey)
			applyVibrance(buf, v)
			assert.Equal(t, [4]uint8{grey, grey, grey, 255}, pixelAt(buf, 0, 0), "vibrance %v grey %d", v, grey)
		}
	}
}

func TestApplyVibrance(t *testing.T) {
	buf := solidBuffer(1, 1, 200, 100, 100)
	applyVibrance(buf, 1.5)
	// l = 300/510, s = 100/210, factor = 1 + (1-s)*0.5
	px := pixelAt(buf, 0, 0)
	assert.InDelta(t, 213, int(px[0]), 1)
	assert.InDelta(t, 87, int(px[1]), 1)
	assert.Equal(t, px[1], px[2])

	muted := solidBuffer(1, 1, 200, 100, 100)
	applyVibrance(muted, 0)
	assert.Less(t, muted.Pix[0], uint8(200))
}

func TestApplyVibrance_SaturatedMovesLess(t *testing.T) {
	muted := solidBuffer(1, 1, 140, 120, 120)
	vivid := solidBuffer(1, 1, 250, 20, 20)
	applyVibrance(muted, 2)
	applyVibrance(vivid, 2)

	mutedGain := float64(muted.Pix[0]-muted.Pix[1]) / 20
	vividGain := float64(vivid.Pix[0]-vivid.Pix[1]) / 230
	assert.Greater(t, mutedGain, vividGain)
}

func TestApplyRetouch_Blend(t *testing.T) {
	buf := solidBuffer(1, 1, 200, 150, 100)
	fs := solidBuffer(1, 1, 180, 140, 110)

	p := mustResolve(t, preset.Default(), settings.Manual{SkinSoftening: settings.Float(0.5)})
	assert.InDelta(t, 0.24, retouchBlend(p), 1e-12)

	applyRetouch(buf, fs, subject.Heuristic{}, p)
	assert.Equal(t, [4]uint8{195, 148, 102, 255}, pixelAt(buf, 0, 0))
}

func TestApplyRetouch_NegativeTextureSoftens(t *testing.T) {
	p := mustResolve(t, preset.Default(), settings.Manual{Texture: settings.Float(-0.5)})
	assert.InDelta(t, 0.4, retouchBlend(p), 1e-12)

	buf := solidBuffer(1, 1, 200, 150, 100)
	applyRetouch(buf, solidBuffer(1, 1, 180, 140, 110), subject.Heuristic{}, p)
	assert.Equal(t, [4]uint8{192, 146, 104, 255}, pixelAt(buf, 0, 0))

	p = mustResolve(t, preset.Default(), settings.Manual{
		SkinSoftening: settings.Float(2),
		Texture:       settings.Float(-1),
	})
	assert.Equal(t, 1.0, retouchBlend(p))
}

func TestApplyRetouch_NonSkinUntouched(t *testing.T) {
	buf := solidBuffer(2, 2, 100, 100, 100)
	fs := solidBuffer(2, 2, 10, 10, 10)
	applyRetouch(buf, fs, subject.Heuristic{}, mustResolve(t, preset.Default(), settings.Manual{
		SkinSoftening: settings.Float(1),
		DodgeBurn:     settings.Float(1),
	}))
	assert.Equal(t, [4]uint8{100, 100, 100, 255}, pixelAt(buf, 0, 0))
}

func TestApplyRetouch_MaskSelectsPixels(t *testing.T) {
	buf := solidBuffer(2, 1, 100, 100, 100)
	fs := solidBuffer(2, 1, 0, 0, 0)
	mask := subject.NewMask(2, 1)
	mask.Set(1, 0, true)

	p := mustResolve(t, preset.Default(), settings.Manual{SkinSoftening: settings.Float(1)})
	applyRetouch(buf, fs, subject.Select(mask, true), p)

	assert.Equal(t, uint8(100), buf.Pix[0], "outside the mask")
	assert.Equal(t, uint8(52), pixelAt(buf, 1, 0)[0], "100*(1-0.48)")
}

func TestApplyRetouch_DodgeBurn(t *testing.T) {
	p := mustResolve(t, preset.Default(), settings.Manual{DodgeBurn: settings.Float(1)})

	light := solidBuffer(1, 1, 180, 150, 120)
	applyRetouch(light, light.Clone(), subject.Heuristic{}, p)
	// avg 150, boost = 1 + 22/128*0.4
	assert.InDelta(t, 180*(1+22.0/128*0.4), float64(light.Pix[0]), 0.5)

	dark := solidBuffer(1, 1, 120, 60, 30)
	applyRetouch(dark, dark.Clone(), subject.Heuristic{}, p)
	assert.Less(t, dark.Pix[0], uint8(120))
}

func TestApplyRetouch_ToneSmoothing(t *testing.T) {
	pr := preset.Default()
	pr.FrequencySeparation = &preset.FrequencySeparation{ToneSmoothing: 1}
	p := mustResolve(t, pr, settings.Manual{})
	require.True(t, retouchActive(p))

	buf := solidBuffer(1, 1, 200, 150, 100)
	fs := solidBuffer(1, 1, 210, 160, 110)
	applyRetouch(buf, fs, subject.Heuristic{}, p)
	assert.Equal(t, [4]uint8{205, 155, 105, 255}, pixelAt(buf, 0, 0))
}

func TestApplyVignette_Monotonic(t *testing.T) {
	buf := solidBuffer(100, 100, 255, 255, 255)
	applyVignette(buf, 0.8)

	assert.Equal(t, uint8(255), pixelAt(buf, 50, 50)[0], "centre is untouched")
	assert.Equal(t, uint8(255), pixelAt(buf, 70, 50)[0], "inside the transparent core")

	prev := 256
	for k := 25; k < 50; k += 4 {
		px := pixelAt(buf, 50+k, 50+k)
		assert.Less(t, int(px[0]), prev, "k=%d", k)
		assert.Equal(t, uint8(255), px[3])
		prev = int(px[0])
	}
}

func TestVignetteAlpha(t *testing.T) {
	assert.Equal(t, 0.0, vignetteAlpha(10, 80, 1))
	assert.Equal(t, 0.0, vignetteAlpha(32, 80, 1))
	assert.InDelta(t, 0.5, vignetteAlpha(56, 80, 1), 1e-12)
	assert.Equal(t, 0.7, vignetteAlpha(200, 80, 0.7))
}

func TestApplyEffects_Overlays(t *testing.T) {
	tests := []struct {
		name   string
		manual settings.Manual
		want   float64
	}{
		{"white overlay", settings.Manual{WhiteOverlay: settings.Float(1)}, 100*0.7 + 255*0.3},
		{"black overlay", settings.Manual{BlackOverlay: settings.Float(0.5)}, 50},
		{"both", settings.Manual{WhiteOverlay: settings.Float(1), BlackOverlay: settings.Float(0.5)}, (100*0.7 + 255*0.3) * 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := solidBuffer(1, 1, 100, 100, 100)
			require.NoError(t, applyEffects(buf, nil, mustResolve(t, preset.Default(), tt.manual)))
			assert.InDelta(t, tt.want, float64(buf.Pix[0]), 1)
		})
	}
}

func TestApplyEffects_PresetOverlay(t *testing.T) {
	tests := []struct {
		name    string
		overlay preset.Overlay
		want    [3]float64
	}{
		{"normal", preset.Overlay{Type: preset.OverlayNormal, Intensity: 0.5, Color: "#ff0000"}, [3]float64{177.5, 50, 50}},
		{"multiply default black", preset.Overlay{Type: preset.OverlayMultiply, Intensity: 1}, [3]float64{0, 0, 0}},
		{"screen white", preset.Overlay{Type: preset.OverlayScreen, Intensity: 1}, [3]float64{255, 255, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := preset.Default()
			o := tt.overlay
			pr.Overlay = &o
			buf := solidBuffer(1, 1, 100, 100, 100)
			require.NoError(t, applyEffects(buf, nil, mustResolve(t, pr, settings.Manual{})))
			for k := 0; k < 3; k++ {
				assert.InDelta(t, tt.want[k], float64(buf.Pix[k]), 1)
			}
		})
	}
}

func TestApplyEffects_BadOverlayColour(t *testing.T) {
	pr := preset.Default()
	pr.Overlay = &preset.Overlay{Type: preset.OverlayNormal, Intensity: 0.5, Color: "reddish"}
	err := applyEffects(solidBuffer(1, 1, 0, 0, 0), nil, mustResolve(t, pr, settings.Manual{}))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestApplyEffects_Glow(t *testing.T) {
	pr := preset.Default()
	pr.Glow = &preset.Glow{Intensity: 1, Radius: 4}
	buf := solidBuffer(1, 1, 100, 100, 100)
	glow := solidBuffer(1, 1, 100, 100, 100)
	require.NoError(t, applyEffects(buf, glow, mustResolve(t, pr, settings.Manual{})))
	// screen(100, 100)
	assert.InDelta(t, 255-155.0*155/255, float64(buf.Pix[0]), 0.5)
}

func TestApplyEffects_Grain(t *testing.T) {
	p := mustResolve(t, preset.Default(), settings.Manual{Grain: settings.Float(0.5)})

	a := solidBuffer(16, 16, 128, 128, 128)
	b := solidBuffer(16, 16, 128, 128, 128)
	require.NoError(t, applyEffects(a, nil, p))
	require.NoError(t, applyEffects(b, nil, p))
	assert.True(t, a.Equal(b), "grain is deterministic")

	changed := 0
	for i := 0; i < len(a.Pix); i += 4 {
		assert.Equal(t, a.Pix[i], a.Pix[i+1], "same noise on every channel")
		assert.InDelta(t, 128, int(a.Pix[i]), 15)
		if a.Pix[i] != 128 {
			changed++
		}
	}
	assert.Greater(t, changed, 0)
}

func TestGrainNoiseRange(t *testing.T) {
	for i := 0; i < 10000; i++ {
		n := grainNoise(i)
		require.GreaterOrEqual(t, n, -0.5)
		require.Less(t, n, 0.5)
	}
}

func TestApplyWatermark(t *testing.T) {
	buf := solidBuffer(200, 100, 0, 0, 0)
	p := mustResolve(t, preset.Default(), settings.Manual{
		WatermarkText:    settings.String("AB"),
		WatermarkOpacity: settings.Float(1),
		WatermarkSize:    settings.Float(10),
	})
	out, err := applyWatermark(buf, p)
	require.NoError(t, err)

	bright := 0
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			px := pixelAt(out, x, y)
			if px[0] > 128 {
				bright++
				assert.Greater(t, x, 100, "text is in the right half")
				assert.Greater(t, y, 40, "text is in the bottom half")
			}
		}
	}
	assert.Greater(t, bright, 0)
	assert.Equal(t, [4]uint8{0, 0, 0, 255}, pixelAt(out, 5, 5))
}

func TestApplyWatermark_Skipped(t *testing.T) {
	buf := solidBuffer(10, 10, 50, 50, 50)
	out, err := applyWatermark(buf, mustResolve(t, preset.Default(), settings.Manual{
		WatermarkOpacity: settings.Float(1),
	}))
	require.NoError(t, err)
	assert.Same(t, buf, out)

	out, err = applyWatermark(buf, mustResolve(t, preset.Default(), settings.Manual{
		WatermarkText:    settings.String("x"),
		WatermarkOpacity: settings.Float(0),
	}))
	require.NoError(t, err)
	assert.Same(t, buf, out)

	out, err = applyWatermark(buf, mustResolve(t, preset.Default(), settings.Manual{
		WatermarkText:    settings.String("x"),
		WatermarkOpacity: settings.Float(1),
		WatermarkSize:    settings.Float(0),
	}))
	require.NoError(t, err)
	assert.Same(t, buf, out)
}

func TestApplyWatermark_BadColour(t *testing.T) {
	_, err := applyWatermark(solidBuffer(10, 10, 0, 0, 0), mustResolve(t, preset.Default(), settings.Manual{
		WatermarkText:  settings.String("x"),
		WatermarkColor: settings.String("not-a-colour"),
	}))
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestWatermarkFontSize(t *testing.T) {
	assert.Equal(t, 30.0, watermarkFontSize(1000, 3))
	assert.Equal(t, 1.0, watermarkFontSize(10, 0))
	assert.False(t, math.IsNaN(watermarkFontSize(0, 3)))
}
