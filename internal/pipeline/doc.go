// Package pipeline applies a preset plus manual settings to a photo.
//
// A run is a fixed sequence of stages over one working buffer:
//
//	tone (basic) -> grading -> base filter -> blur cache
//	  -> detail -> presence -> vibrance -> retouch
//	  -> vignette -> effects -> watermark -> encode
//
// The base filter, presence, vibrance and vignette always run. Every other
// stage can be switched off through settings.DisabledSections, which has the
// same effect as leaving that stage's own settings at their defaults.
//
// Blurred copies are derived from the buffer as it leaves the base filter and
// cached by radius for the rest of the run, so sharpening, presence, retouch
// and glow all read the same source.
//
// # Rounding
//
// Each stage computes in float64 and stores through pixel.Clamp8, which
// clamps to [0,255] and rounds half up.
//
// # Concurrency
//
// Stages split rows across CPUs but stay deterministic: no pixel reads
// another pixel's output of the same stage. A Processor may serve many runs
// at once.
//
// # Errors
//
// Failures wrap ErrDecodeFailure, ErrInvalidParameter or ErrEncodeFailure.
// Values that can be clamped are clamped instead of rejected.
package pipeline
