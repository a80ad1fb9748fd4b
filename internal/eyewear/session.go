// Package eyewear computes calibrated projection matrices for optical
// see-through eyewear. Optical see-through displays carry device- and
// user-specific offsets (pupil position, lens distortion, display mounting
// tolerance) that a generic projection matrix cannot capture; a guided
// procedure has the user align drawn calibration shapes with a physical
// target at two or more sizes, and the solver fits a projection from those
// alignment readings.
//
// All physical measurements are millimetres, surface measurements are
// pixels, and scale hints and aspect ratios are dimensionless. The package
// is purely computational: no I/O, no logging, no internal concurrency. A
// Session is owned and driven by a single goroutine.
package eyewear

import (
	"fmt"

	"github.com/google/uuid"
)

// Default depth range embedded in calibrated matrices, millimetres.
const (
	DefaultNear = 100.0
	DefaultFar  = 100000.0
)

// Config is the immutable per-session configuration. Surface and Target are
// required; the rest defaults sensibly when zero.
type Config struct {
	// Surface is the rendering surface the calibration runs in, pixels.
	Surface SurfaceDimensions `json:"surface"`
	// Target is the printed calibration target, millimetres. It must match
	// the physical artifact and its dataset entry exactly.
	Target TargetDimensions `json:"target"`
	// Profile characterises the device; the zero value is a generic device.
	Profile DeviceProfile `json:"profile"`
	// Near, Far are the clip planes embedded in the result, millimetres.
	// Zero selects DefaultNear/DefaultFar.
	Near float64 `json:"near_mm,omitempty"`
	Far  float64 `json:"far_mm,omitempty"`
	// MinScaleSeparation is the smallest accepted spread of reading scales.
	// Zero selects the built-in default.
	MinScaleSeparation float64 `json:"min_scale_separation,omitempty"`
}

// Validate checks the configuration without defaulting it.
func (c Config) Validate() error {
	if c.Surface.Width <= 0 || c.Surface.Height <= 0 {
		return fmt.Errorf("%w: surface %dx%d px", ErrInvalidConfig, c.Surface.Width, c.Surface.Height)
	}
	if c.Target.Width <= 0 || c.Target.Height <= 0 ||
		!isFinite(c.Target.Width) || !isFinite(c.Target.Height) {
		return fmt.Errorf("%w: target %gx%g mm", ErrInvalidConfig, c.Target.Width, c.Target.Height)
	}
	near, far := c.Near, c.Far
	if near == 0 {
		near = DefaultNear
	}
	if far == 0 {
		far = DefaultFar
	}
	if !isFinite(near) || !isFinite(far) || near <= 0 || far <= near {
		return fmt.Errorf("%w: depth range [%g, %g] mm", ErrInvalidConfig, near, far)
	}
	if s := c.MinScaleSeparation; s != 0 && (!isFinite(s) || s < 0 || s >= 1) {
		return fmt.Errorf("%w: min scale separation %g", ErrInvalidConfig, s)
	}
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Session drives one calibration run. It owns the validated configuration,
// answers the geometry-hint and distortion queries that guide the UI, keeps
// the ordered reading history, and runs the solver on demand.
//
// A Session has exactly one logical owner for its lifetime and is not safe
// for concurrent use; copying one has no meaning. Create it with NewSession
// and pass the pointer around.
type Session struct {
	id       string
	cfg      Config
	readings []Reading
	lastFit  *Fit
}

// NewSession validates cfg, fills in defaults and returns a ready session.
// Construction is the only way to obtain a Session, so every live session is
// initialised by definition.
func NewSession(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Near == 0 {
		cfg.Near = DefaultNear
	}
	if cfg.Far == 0 {
		cfg.Far = DefaultFar
	}
	if cfg.MinScaleSeparation == 0 {
		cfg.MinScaleSeparation = defaultMinScaleSeparation
	}
	return &Session{id: uuid.New().String(), cfg: cfg}, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Config returns the defaulted session configuration.
func (s *Session) Config() Config { return s.cfg }

// MinScaleHint returns the smallest practical drawing scale in [0, 1].
// Stable for the session's lifetime.
func (s *Session) MinScaleHint() float64 {
	return minScaleHint(s.cfg.Profile, s.cfg.Surface)
}

// MaxScaleHint returns the largest practical drawing scale in [0, 1], never
// below MinScaleHint. Stable for the session's lifetime.
func (s *Session) MaxScaleHint() float64 {
	return maxScaleHint(s.cfg.Profile, s.cfg.Surface)
}

// DrawingAspectRatio returns the width/height ratio to draw calibration
// shapes at, recomputed against the surface dimensions supplied now (which
// may differ from the configured ones after a rotation).
func (s *Session) DrawingAspectRatio(surfaceWidth, surfaceHeight int) (float64, error) {
	if surfaceWidth <= 0 || surfaceHeight <= 0 {
		return 0, fmt.Errorf("%w: surface %dx%d px", ErrInvalidConfig, surfaceWidth, surfaceHeight)
	}
	surface := SurfaceDimensions{Width: surfaceWidth, Height: surfaceHeight}
	return drawingAspectRatio(s.cfg.Profile, surface, s.cfg.Target, s.StereoStretched()), nil
}

// StereoStretched reports whether the device merges its eye displays into
// one resolution-halved logical surface.
func (s *Session) StereoStretched() bool {
	return stereoStretched(s.cfg.Profile, s.cfg.Surface)
}

// AddReading validates r and appends it to the session history. Order is
// preserved for the UI; the solver ignores it.
func (s *Session) AddReading(r Reading) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.readings = append(s.readings, r)
	return nil
}

// Readings returns a copy of the reading history.
func (s *Session) Readings() []Reading {
	out := make([]Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

// ReadingsFor returns the recorded readings for one eye, in insertion order.
func (s *Session) ReadingsFor(eye Eye) []Reading {
	var out []Reading
	for _, r := range s.readings {
		if r.Eye == eye {
			out = append(out, r)
		}
	}
	return out
}

// ProjectionMatrix fits the affine correction to the supplied readings and
// assembles the calibrated clip-space matrix. All readings must belong to
// one eye; stereo devices run the procedure once per eye. On any failure the
// returned matrix is the zero value and must not be used.
//
// The call is deterministic: the same reading set always yields the same
// matrix.
func (s *Session) ProjectionMatrix(readings []Reading) (Matrix44, error) {
	aspect := drawingAspectRatio(s.cfg.Profile, s.cfg.Surface, s.cfg.Target, s.StereoStretched())
	fit, err := solve(readings, s.cfg.Target, aspect, s.cfg.MinScaleSeparation)
	if err != nil {
		return Matrix44{}, err
	}
	m := projectionMatrix(fit.X, fit.Y, s.cfg.Near, s.cfg.Far)
	if !m.IsFinite() {
		return Matrix44{}, fmt.Errorf("%w: non-finite matrix", ErrNumericalFailure)
	}
	s.lastFit = &fit
	return m, nil
}

// ProjectionMatrixFor solves using the session's recorded readings for eye.
func (s *Session) ProjectionMatrixFor(eye Eye) (Matrix44, error) {
	return s.ProjectionMatrix(s.ReadingsFor(eye))
}

// LastFit returns the diagnostics of the most recent successful solve, or
// nil if none has succeeded yet.
func (s *Session) LastFit() *Fit {
	return s.lastFit
}

// Solved reports whether the session has produced at least one matrix.
func (s *Session) Solved() bool { return s.lastFit != nil }

// Solve is the one-shot form for offline tools: it builds a session from cfg
// and solves readings in a single call.
func Solve(cfg Config, readings []Reading) (Matrix44, Fit, error) {
	s, err := NewSession(cfg)
	if err != nil {
		return Matrix44{}, Fit{}, err
	}
	m, err := s.ProjectionMatrix(readings)
	if err != nil {
		return Matrix44{}, Fit{}, err
	}
	return m, *s.lastFit, nil
}
