package eyewear

import (
	"errors"
	"math"
)

// Calibration failures are reported through these sentinels so callers can
// branch with errors.Is. Every failure is retryable: a failed solve leaves no
// partial state behind and can be repeated with a corrected reading set.
var (
	// ErrInvalidConfig indicates non-positive or non-finite surface/target
	// dimensions or a malformed depth range at session construction.
	ErrInvalidConfig = errors.New("eyewear: invalid calibration config")

	// ErrInvalidReading indicates a reading with an implausible scale or
	// range value.
	ErrInvalidReading = errors.New("eyewear: invalid reading")

	// ErrInsufficientReadings indicates fewer than the two readings needed
	// to determine the per-axis gain and bias.
	ErrInsufficientReadings = errors.New("eyewear: need at least 2 readings")

	// ErrDegenerateReadings indicates the reading scales are too close
	// together to condition the fit.
	ErrDegenerateReadings = errors.New("eyewear: readings are degenerate")

	// ErrMixedEyeReadings indicates a single solve was handed readings from
	// more than one eye. Each eye is fitted independently.
	ErrMixedEyeReadings = errors.New("eyewear: readings span multiple eyes")

	// ErrNumericalFailure indicates the fit produced a non-finite or
	// non-physical result.
	ErrNumericalFailure = errors.New("eyewear: numerical failure in fit")
)

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
