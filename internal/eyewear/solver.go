package eyewear

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// The solver fits the affine correction that reconciles the naive symmetric
// projection with the user's observed alignment. Each reading contributes one
// sample per axis: the drawn shape's half-extent in normalised device
// coordinates against the angular half-extent of the target at the reported
// range,
//
//	drawn = Gain*tan + Bias
//
// With exactly two readings the line is determined directly; with more, the
// system is solved in the least-squares sense, so extra readings strictly
// reduce the influence of alignment noise. Readings whose scales nearly
// coincide produce a near-singular design matrix and are rejected rather
// than solved.

const (
	// defaultMinScaleSeparation is the smallest spread of drawing scales
	// accepted across a reading set. Below this the two-parameter fit is
	// numerically meaningless regardless of reading count.
	defaultMinScaleSeparation = 0.05

	// maxConditionNumber bounds the design-matrix conditioning accepted by
	// the per-axis fit.
	maxConditionNumber = 1e8
)

// AxisFit is the fitted affine correction for one screen axis: drawn NDC
// half-extent = Gain*tan(half-angle) + Bias. Gain replaces the naive focal
// term of the projection; Bias becomes the principal-point offset.
type AxisFit struct {
	Gain float64 `json:"gain"`
	Bias float64 `json:"bias"`
}

// Residual is the per-reading misfit after the affine correction, in NDC
// units, keyed by the reading's drawing scale.
type Residual struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Fit is the solved correction for one eye, with per-reading diagnostics.
type Fit struct {
	Eye       Eye        `json:"eye"`
	X         AxisFit    `json:"x"`
	Y         AxisFit    `json:"y"`
	RMS       float64    `json:"rms"`
	Residuals []Residual `json:"residuals,omitempty"`
}

// solve validates a reading batch, fits both axes and returns the fit.
// drawAspect is the width/height ratio of drawn shapes in surface fractions
// (see drawingAspectRatio); target supplies the physical half-extents.
func solve(readings []Reading, target TargetDimensions, drawAspect, minSeparation float64) (Fit, error) {
	n := len(readings)
	if n < 2 {
		return Fit{}, fmt.Errorf("%w: got %d", ErrInsufficientReadings, n)
	}

	eye := readings[0].Eye
	lo, hi := readings[0].Scale, readings[0].Scale
	for _, r := range readings {
		if err := r.Validate(); err != nil {
			return Fit{}, err
		}
		if r.Eye != eye {
			return Fit{}, fmt.Errorf("%w: %s and %s", ErrMixedEyeReadings, eye, r.Eye)
		}
		lo = math.Min(lo, r.Scale)
		hi = math.Max(hi, r.Scale)
	}
	if hi-lo < minSeparation {
		return Fit{}, fmt.Errorf("%w: scale spread %.4f below %.4f", ErrDegenerateReadings, hi-lo, minSeparation)
	}

	// Per-axis samples. The drawn half-height in NDC is the scale itself;
	// the half-width follows from the drawing aspect ratio.
	tx := make([]float64, n)
	ty := make([]float64, n)
	dx := make([]float64, n)
	dy := make([]float64, n)
	for i, r := range readings {
		tx[i] = target.Width / 2 / r.Range
		ty[i] = target.Height / 2 / r.Range
		dy[i] = r.Scale
		dx[i] = r.Scale * drawAspect
	}

	fx, err := fitAxis(tx, dx)
	if err != nil {
		return Fit{}, fmt.Errorf("x axis: %w", err)
	}
	fy, err := fitAxis(ty, dy)
	if err != nil {
		return Fit{}, fmt.Errorf("y axis: %w", err)
	}

	fit := Fit{Eye: eye, X: fx, Y: fy, Residuals: make([]Residual, n)}
	var ss float64
	for i, r := range readings {
		rx := dx[i] - (fx.Gain*tx[i] + fx.Bias)
		ry := dy[i] - (fy.Gain*ty[i] + fy.Bias)
		fit.Residuals[i] = Residual{Scale: r.Scale, X: rx, Y: ry}
		ss += rx*rx + ry*ry
	}
	fit.RMS = math.Sqrt(ss / float64(2*n))
	return fit, nil
}

// fitAxis solves drawn = Gain*tan + Bias for one axis by least squares over
// the n x 2 design matrix [tan 1]. The factorisation is checked for
// conditioning before solving; an ill-conditioned system means the readings
// do not separate the two parameters.
func fitAxis(tan, drawn []float64) (AxisFit, error) {
	n := len(tan)
	a := mat.NewDense(n, 2, nil)
	b := mat.NewVecDense(n, nil)
	for i := range tan {
		a.Set(i, 0, tan[i])
		a.Set(i, 1, 1)
		b.SetVec(i, drawn[i])
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDThin) {
		return AxisFit{}, ErrNumericalFailure
	}
	sv := svd.Values(nil)
	if sv[1] <= 0 || sv[0]/sv[1] > maxConditionNumber {
		return AxisFit{}, fmt.Errorf("%w: design matrix condition %g", ErrDegenerateReadings, sv[0]/sv[1])
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return AxisFit{}, fmt.Errorf("%w: %v", ErrNumericalFailure, err)
	}

	fit := AxisFit{Gain: sol.AtVec(0), Bias: sol.AtVec(1)}
	if !isFinite(fit.Gain) || !isFinite(fit.Bias) {
		return AxisFit{}, fmt.Errorf("%w: non-finite solution", ErrNumericalFailure)
	}
	if fit.Gain <= 0 {
		// A non-positive focal gain cannot come from real optics; it means
		// the readings contradict each other.
		return AxisFit{}, fmt.Errorf("%w: fitted gain %g not positive", ErrNumericalFailure, fit.Gain)
	}
	return fit, nil
}
