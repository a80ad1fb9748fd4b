package eyewear

import (
	"encoding/json"
	"fmt"
)

// Eye identifies which optical path a reading or result applies to. Monocular
// devices calibrate a single centre path; stereo devices run the full
// procedure once per eye and store two matrices.
type Eye int

const (
	EyeMono Eye = iota
	EyeLeft
	EyeRight
)

func (e Eye) String() string {
	switch e {
	case EyeMono:
		return "mono"
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	default:
		return fmt.Sprintf("eye(%d)", int(e))
	}
}

// MarshalJSON encodes the eye as its string name.
func (e Eye) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// UnmarshalJSON accepts any token ParseEye accepts.
func (e *Eye) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseEye(s)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEye converts a wire/CLI token into an Eye.
func ParseEye(s string) (Eye, error) {
	switch s {
	case "mono", "center", "centre", "":
		return EyeMono, nil
	case "left", "l":
		return EyeLeft, nil
	case "right", "r":
		return EyeRight, nil
	}
	return EyeMono, fmt.Errorf("unknown eye %q", s)
}

// Reading is one user-performed alignment sample: the user stood where a
// calibration shape drawn at Scale visually covered the physical target, and
// the tracker reported the eye-to-target distance at that moment.
//
// Readings are immutable once recorded. The solver treats a batch of readings
// as an unordered sample set; insertion order is preserved only for UI
// history.
type Reading struct {
	// Eye is the optical path the sample was taken through.
	Eye Eye `json:"eye"`
	// Scale is the fraction of the drawable range the shape was drawn at,
	// in (0, 1].
	Scale float64 `json:"scale"`
	// Range is the tracker-reported distance from the eye to the target at
	// the moment of alignment, in millimetres.
	Range float64 `json:"range_mm"`
}

// Validate reports whether the reading carries plausible values. It does not
// check degeneracy against other readings; that is the solver's job.
func (r Reading) Validate() error {
	if !isFinite(r.Scale) || r.Scale <= 0 || r.Scale > 1 {
		return fmt.Errorf("%w: scale %v outside (0, 1]", ErrInvalidReading, r.Scale)
	}
	if !isFinite(r.Range) || r.Range <= 0 {
		return fmt.Errorf("%w: range %v mm not positive", ErrInvalidReading, r.Range)
	}
	return nil
}
