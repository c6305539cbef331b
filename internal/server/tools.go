package server

import "github.com/ironsheep/photo-tools-mcp/internal/settings"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the photo file",
	}
}

func presetProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Preset id from photo_presets. Default \"none\"",
	}
}

func numberProperty(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": desc}
}

// settingsProperty describes the manual adjustments object. Every field is
// optional; an absent field keeps its neutral default.
func settingsProperty() map[string]interface{} {
	sections := make(map[string]interface{})
	for _, s := range settings.Sections() {
		sections[s.String()] = map[string]interface{}{"type": "boolean"}
	}

	return map[string]interface{}{
		"type":        "object",
		"description": "Manual adjustments layered over the preset. Omitted fields keep their defaults",
		"properties": map[string]interface{}{
			"exposure":         numberProperty("Brightness multiplier. Default 1"),
			"whites":           numberProperty("White point multiplier. Default 1"),
			"blacks":           numberProperty("Black point lift, 1 = none. Default 1"),
			"highlights":       numberProperty("Highlight recovery/boost, -1..1"),
			"shadows":          numberProperty("Shadow lift/crush, -1..1"),
			"dehaze":           numberProperty("Haze removal strength"),
			"temp":             numberProperty("White balance temperature, added to the preset's"),
			"tint":             numberProperty("White balance tint, added to the preset's"),
			"contrast":         numberProperty("Contrast multiplier. Default 1"),
			"saturation":       numberProperty("Saturation multiplier. Default 1"),
			"vibrance":         numberProperty("Saturation boost weighted toward muted colours. Default 1"),
			"texture":          numberProperty("Fine detail, negative softens"),
			"clarity":          numberProperty("Midtone local contrast"),
			"sharpness":        numberProperty("Unsharp mask amount, >= 0"),
			"sharpenRadius":    numberProperty("Unsharp mask radius in pixels. Default 1"),
			"sharpenDetail":    numberProperty("Sharpen detail, scales the amount. Default 25"),
			"skinSoftening":    numberProperty("Frequency separation intensity on skin"),
			"dodgeBurn":        numberProperty("Skin dodge/burn strength"),
			"aiSubjectOnly":    map[string]interface{}{"type": "boolean", "description": "Restrict retouching to the segmented subject"},
			"vignette":         numberProperty("Corner darkening, 0..1"),
			"grain":            numberProperty("Film grain, 0..1"),
			"whiteOverlay":     numberProperty("White wash, 0..1"),
			"blackOverlay":     numberProperty("Black wash, 0..1"),
			"levelsBlack":      numberProperty("Input black level, 0..254"),
			"levelsWhite":      numberProperty("Input white level, up to 255"),
			"levelsGamma":      numberProperty("Levels gamma, 0.1..10. Default 1"),
			"curveHighlights":  numberProperty("Tone curve highlights zone, -100..100"),
			"curveLights":      numberProperty("Tone curve lights zone, -100..100"),
			"curveDarks":       numberProperty("Tone curve darks zone, -100..100"),
			"curveShadows":     numberProperty("Tone curve shadows zone, -100..100"),
			"hue":              numberProperty("Hue rotation in degrees"),
			"watermarkText":    map[string]interface{}{"type": "string", "description": "Text drawn bottom-right"},
			"watermarkOpacity": numberProperty("Watermark opacity, 0..1. Default 0.5"),
			"watermarkSize":    numberProperty("Watermark size as percent of width. Default 3"),
			"watermarkColor":   map[string]interface{}{"type": "string", "description": "Watermark hex colour. Default #ffffff"},
			"disabledSections": map[string]interface{}{
				"type":                 "object",
				"description":          "Sections to switch off",
				"properties":           sections,
				"additionalProperties": false,
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Editing
		{
			Name:        "photo_process",
			Description: "Apply a preset and manual adjustments to a photo and write the result to output_path. Output format follows the format argument or the output extension (jpeg or png).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the edited photo",
					},
					"preset":   presetProperty(),
					"settings": settingsProperty(),
					"format": map[string]interface{}{
						"type": "string",
						"enum": []string{"jpeg", "png"},
					},
				},
				"required": []string{"path", "output_path"},
			},
		},
		{
			Name:        "photo_process_batch",
			Description: "Apply the same preset and adjustments to several photos concurrently. Each output is written to output_dir under the source file name. One failure fails the call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths of the photos to process",
					},
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory for the edited photos",
					},
					"preset":   presetProperty(),
					"settings": settingsProperty(),
					"format": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"jpeg", "png"},
						"default": "jpeg",
					},
				},
				"required": []string{"paths", "output_dir"},
			},
		},
		{
			Name:        "photo_preview",
			Description: "Render a downscaled preview of a preset and adjustments and return it as base64 JPEG. Nothing is written to disk.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"preset":   presetProperty(),
					"settings": settingsProperty(),
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels. Default 1024",
						"default":     DefaultPreviewSize,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_presets",
			Description: "List the available presets with their base filter recipes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{
						"type":        "string",
						"description": "Only list presets in this category (e.g. film, bw, portrait)",
					},
				},
			},
		},

		// Inspection
		{
			Name:        "photo_load",
			Description: "Load a photo and return its dimensions, format, alpha and file size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_sample_color",
			Description: "Get the colour at a pixel, or at several labelled points, as hex, RGB, RGBA and HSL. Useful for checking an edit.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based)",
					},
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Sample these points instead of x/y",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "photo_subject_mask",
			Description: "Show which pixels skin retouching treats as subject. Uses the face segmenter when configured, the skin heuristic otherwise. Returns coverage and the mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"max_size": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the returned mask image. Default 1024",
						"default":     DefaultPreviewSize,
					},
				},
				"required": []string{"path"},
			},
		},
	}
}
