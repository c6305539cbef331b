package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/photo-tools-mcp/internal/blur"
	"github.com/ironsheep/photo-tools-mcp/internal/pixel"
	"github.com/ironsheep/photo-tools-mcp/internal/preset"
	"github.com/ironsheep/photo-tools-mcp/internal/settings"
	"github.com/ironsheep/photo-tools-mcp/internal/subject"
)

// Processor runs the adjustment pipeline. A Processor holds no per-run state
// and is safe for concurrent use; each call owns its own buffers.
type Processor struct {
	log       logrus.FieldLogger
	segmenter subject.Segmenter
	format    Format
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Processor) {
		if l != nil {
			p.log = l
		}
	}
}

// WithSegmenter sets the external subject segmenter consulted for presets
// that retouch the subject only.
func WithSegmenter(s subject.Segmenter) Option {
	return func(p *Processor) { p.segmenter = s }
}

// WithFormat sets the default output format for Process.
func WithFormat(f Format) Option {
	return func(p *Processor) { p.format = f }
}

// NewProcessor creates a Processor. By default it logs nowhere, has no
// segmenter and encodes JPEG.
func NewProcessor(opts ...Option) *Processor {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	p := &Processor{log: quiet, format: JPEG}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunOption adjusts a single call.
type RunOption func(*runConfig)

type runConfig struct {
	mask   *subject.Mask
	runID  string
	format Format
}

// WithMask supplies a precomputed subject mask. It takes precedence over the
// Processor's segmenter and is used only when subject-only retouching is on.
func WithMask(m *subject.Mask) RunOption {
	return func(c *runConfig) { c.mask = m }
}

// WithRunID tags the run's log lines with id instead of a fresh UUID.
func WithRunID(id string) RunOption {
	return func(c *runConfig) { c.runID = id }
}

// WithOutputFormat overrides the Processor's output format for one call.
func WithOutputFormat(f Format) RunOption {
	return func(c *runConfig) { c.format = f }
}

// Render applies preset and manual settings to img and returns the final
// buffer. img is never modified.
func (p *Processor) Render(ctx context.Context, img image.Image, pr preset.Preset, manual settings.Manual, opts ...RunOption) (*pixel.Buffer, error) {
	rc := p.runConfig(opts)
	log := p.log.WithField("run_id", rc.runID)

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	params, err := settings.Resolve(pr, manual)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	buf := pixel.FromImage(img)
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	if rc.mask != nil {
		if err := rc.mask.Validate(buf.Width, buf.Height); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
	}

	started := time.Now()
	timings := logrus.Fields{}
	mark := func(stage string, t time.Time) {
		timings[stage] = time.Since(t).String()
	}
	off := params.Disabled

	t := time.Now()
	if !off.Disabled(settings.Basic) {
		applyTone(buf, params)
	}
	if !off.Disabled(settings.Grading) {
		applyGrading(buf, params)
	}
	mark("tone", t)

	t = time.Now()
	buf = applyBaseFilter(buf, params)
	mark("base_filter", t)

	t = time.Now()
	cache := blur.NewCache(buf.Clone())
	cache.Prefetch(blurRadii(params)...)
	mark("blur", t)

	t = time.Now()
	if !off.Disabled(settings.Detail) && params.Sharpness > 0 {
		applySharpen(buf, cache.Get(params.SharpenRadius), params)
	}
	var fine, medium *pixel.Buffer
	if params.Texture != 0 {
		fine = cache.Get(blur.FineRadius)
	}
	if params.Clarity != 0 {
		medium = cache.Get(blur.MediumRadius)
	}
	applyPresence(buf, fine, medium, params)
	applyVibrance(buf, params.Vibrance)
	mark("detail", t)

	t = time.Now()
	if !off.Disabled(settings.Retouch) && retouchActive(params) {
		mask := rc.mask
		if mask == nil && params.SubjectOnly && p.segmenter != nil {
			mask, err = p.segmenter.Segment(img)
			if err != nil {
				log.WithError(err).Warn("Subject segmentation failed, using skin heuristic")
				mask = nil
			} else if err := mask.Validate(buf.Width, buf.Height); err != nil {
				log.WithError(err).Warn("Segmenter returned a mismatched mask, using skin heuristic")
				mask = nil
			}
		}
		applyRetouch(buf, cache.Get(params.FSRadius), subject.Select(mask, params.SubjectOnly), params)
	}
	mark("retouch", t)

	t = time.Now()
	applyVignette(buf, params.Vignette)
	if !off.Disabled(settings.Effects) {
		var glow *pixel.Buffer
		if params.Glow.Intensity > 0 {
			glow = cache.Get(params.Glow.Radius)
		}
		if err := applyEffects(buf, glow, params); err != nil {
			return nil, err
		}
	}
	mark("effects", t)

	if !off.Disabled(settings.Watermark) {
		t = time.Now()
		buf, err = applyWatermark(buf, params)
		if err != nil {
			return nil, err
		}
		mark("watermark", t)
	}

	log.WithFields(timings).WithFields(logrus.Fields{
		"width":   buf.Width,
		"height":  buf.Height,
		"preset":  pr.ID,
		"blurs":   cache.Len(),
		"elapsed": time.Since(started).String(),
	}).Debug("Pipeline run complete")
	return buf, nil
}

// Process renders img and encodes the result.
func (p *Processor) Process(ctx context.Context, img image.Image, pr preset.Preset, manual settings.Manual, opts ...RunOption) ([]byte, error) {
	buf, err := p.Render(ctx, img, pr, manual, opts...)
	if err != nil {
		return nil, err
	}
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := Encode(&out, buf.NRGBA(), p.runConfig(opts).format); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// ProcessBytes decodes data and runs Process on it.
func (p *Processor) ProcessBytes(ctx context.Context, data []byte, pr preset.Preset, manual settings.Manual, opts ...RunOption) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	img, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, img, pr, manual, opts...)
}

func (p *Processor) runConfig(opts []RunOption) runConfig {
	rc := runConfig{format: p.format}
	for _, opt := range opts {
		opt(&rc)
	}
	if rc.runID == "" {
		rc.runID = uuid.NewString()
	}
	return rc
}

// blurRadii lists the blur radii a run will read, so they can be computed together.
func blurRadii(p settings.Params) []float64 {
	var radii []float64
	if !p.Disabled.Disabled(settings.Detail) && p.Sharpness > 0 {
		radii = append(radii, p.SharpenRadius)
	}
	if p.Texture != 0 {
		radii = append(radii, blur.FineRadius)
	}
	if p.Clarity != 0 {
		radii = append(radii, blur.MediumRadius)
	}
	if !p.Disabled.Disabled(settings.Retouch) && retouchActive(p) {
		radii = append(radii, p.FSRadius)
	}
	if !p.Disabled.Disabled(settings.Effects) && p.Glow.Intensity > 0 {
		radii = append(radii, p.Glow.Radius)
	}
	return radii
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
