package pipeline

import "errors"

// Error kinds returned by the Processor. Test with errors.Is.
var (
	// ErrDecodeFailure means the source bytes are not a readable image.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrInvalidParameter means a setting has no safe interpretation,
	// e.g. a NaN value or an unknown filter operation. Out-of-range values
	// that can be clamped never produce this error.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrEncodeFailure means the rendered buffer could not be serialised.
	ErrEncodeFailure = errors.New("encode failure")
)
