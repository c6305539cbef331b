package preset

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog is a thread-safe set of presets keyed by ID.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewCatalog creates a catalog holding the given presets. Later entries with a
// duplicate ID replace earlier ones.
func NewCatalog(presets ...Preset) *Catalog {
	c := &Catalog{presets: make(map[string]Preset)}
	for _, p := range presets {
		c.presets[p.ID] = p
	}
	return c
}

// Get looks up a preset by ID. The empty ID resolves to the default preset.
func (c *Catalog) Get(id string) (Preset, bool) {
	if id == "" {
		id = DefaultID
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[id]
	return p, ok
}

// Add validates p and stores it, replacing any preset with the same ID.
func (c *Catalog) Add(p Preset) error {
	if p.ID == "" {
		return fmt.Errorf("preset has no id")
	}
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.presets[p.ID] = p
	c.mu.Unlock()
	return nil
}

// List returns presets sorted by category then ID. An empty category lists all.
func (c *Catalog) List(category string) []Preset {
	c.mu.RLock()
	out := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// catalogFile is the on-disk YAML layout:
//
//	presets:
//	  - id: golden-hour
//	    name: Golden Hour
//	    category: warm
//	    filters: "brightness(1.05) saturate(1.2)"
//	    colorBalance: {temp: 20, tint: 0}
type catalogFile struct {
	Presets []Preset `yaml:"presets"`
}

// LoadFile reads a YAML catalog and adds every preset in it.
// Nothing is added when any preset in the file is invalid.
func (c *Catalog) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read preset catalog: %w", err)
	}
	return c.LoadYAML(data)
}

// LoadYAML parses catalog YAML and adds every preset in it.
func (c *Catalog) LoadYAML(data []byte) (int, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, fmt.Errorf("failed to parse preset catalog: %w", err)
	}
	for i, p := range f.Presets {
		if p.ID == "" {
			return 0, fmt.Errorf("preset %d has no id", i)
		}
		if err := p.Validate(); err != nil {
			return 0, err
		}
	}
	c.mu.Lock()
	for _, p := range f.Presets {
		c.presets[p.ID] = p
	}
	c.mu.Unlock()
	return len(f.Presets), nil
}

// Builtin returns the catalog shipped with the binary.
func Builtin() *Catalog {
	return NewCatalog(
		Default(),
		Preset{
			ID:       "vivid",
			Name:     "Vivid",
			Category: "color",
			Filters:  "contrast(1.1) saturate(1.35)",
		},
		Preset{
			ID:           "warm-film",
			Name:         "Warm Film",
			Category:     "film",
			Filters:      "sepia(0.15) contrast(1.05) brightness(1.03)",
			ColorBalance: &ColorBalance{Temp: 18, Tint: 4},
			ToneCurve:    &ToneCurve{Shadows: 12, Darks: 4, Lights: -3, Highlights: -8},
		},
		Preset{
			ID:           "cool-matte",
			Name:         "Cool Matte",
			Category:     "film",
			Filters:      "contrast(0.92) saturate(0.85)",
			ColorBalance: &ColorBalance{Temp: -14},
			TonalRange:   &TonalRange{Blacks: Float(1.3)},
		},
		Preset{
			ID:       "mono-classic",
			Name:     "Classic Mono",
			Category: "bw",
			Filters:  "grayscale(1) contrast(1.15)",
		},
		Preset{
			ID:       "noir",
			Name:     "Noir",
			Category: "bw",
			Filters:  "grayscale(1) contrast(1.4) brightness(0.92)",
			TonalRange: &TonalRange{
				Shadows: Float(-0.3),
			},
			Overlay: &Overlay{Type: OverlayMultiply, Intensity: 0.1, Color: "#1a1a2e"},
		},
		Preset{
			ID:       "portrait-soft",
			Name:     "Soft Portrait",
			Category: "portrait",
			Filters:  "brightness(1.02) saturate(1.05)",
			FrequencySeparation: &FrequencySeparation{
				Radius:        8,
				Intensity:     0.5,
				ToneSmoothing: 0.3,
			},
			AISubjectOnly: true,
		},
		Preset{
			ID:       "dreamy-glow",
			Name:     "Dreamy Glow",
			Category: "portrait",
			Filters:  "brightness(1.05) contrast(0.95)",
			Glow:     &Glow{Intensity: 0.35, Radius: 10},
			Overlay:  &Overlay{Type: OverlayScreen, Intensity: 0.08, Color: "#ffe4e1"},
		},
	)
}
