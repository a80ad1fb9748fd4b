package eyewear

import "fmt"

// Default scale hints used when a device profile does not override them.
// Values are dimensionless fractions of the drawable range.
const (
	defaultMinScaleHint = 0.25
	defaultMaxScaleHint = 0.85
)

// DeviceProfile characterises one eyewear model: per-eye panel dimensions and
// any measured hint or distortion overrides. Profiles are configuration data
// (loaded from JSON or the profile store), keeping the solver device-agnostic.
//
// The zero value is a usable generic profile: derived hints, no aspect
// correction, stereo stretch decided geometrically.
type DeviceProfile struct {
	// Model is the device identifier, e.g. "epson-bt200".
	Model string `json:"model"`

	// PanelWidth/PanelHeight are the pixel dimensions of a single eye's
	// physical display. Zero means unknown.
	PanelWidth  int `json:"panel_width,omitempty"`
	PanelHeight int `json:"panel_height,omitempty"`

	// MinScaleHint/MaxScaleHint override the derived drawing-scale hints.
	// Zero means "use the derived value". Both are fractions in (0, 1].
	MinScaleHint float64 `json:"min_scale_hint,omitempty"`
	MaxScaleHint float64 `json:"max_scale_hint,omitempty"`

	// AspectCorrection is a measured horizontal stretch factor of the
	// optics: drawn shapes are widened by this factor before they reach the
	// eye. Zero means 1.0 (no correction).
	AspectCorrection float64 `json:"aspect_correction,omitempty"`

	// Stretched, when set, overrides the geometric stereo-stretch test for
	// devices whose behaviour is known from characterisation.
	Stretched *bool `json:"stretched,omitempty"`
}

// Validate checks the override fields for plausibility. Zero-valued fields
// are always acceptable.
func (p DeviceProfile) Validate() error {
	if p.PanelWidth < 0 || p.PanelHeight < 0 {
		return fmt.Errorf("profile %q: negative panel dimensions", p.Model)
	}
	for _, h := range []float64{p.MinScaleHint, p.MaxScaleHint} {
		if h != 0 && (!isFinite(h) || h < 0 || h > 1) {
			return fmt.Errorf("profile %q: scale hint %v outside [0, 1]", p.Model, h)
		}
	}
	if p.MinScaleHint != 0 && p.MaxScaleHint != 0 && p.MinScaleHint > p.MaxScaleHint {
		return fmt.Errorf("profile %q: min scale hint %v above max %v", p.Model, p.MinScaleHint, p.MaxScaleHint)
	}
	if p.AspectCorrection != 0 && (!isFinite(p.AspectCorrection) || p.AspectCorrection <= 0) {
		return fmt.Errorf("profile %q: aspect correction %v not positive", p.Model, p.AspectCorrection)
	}
	return nil
}

// aspectCorrection returns the effective correction factor, defaulting to 1.
func (p DeviceProfile) aspectCorrection() float64 {
	if p.AspectCorrection == 0 {
		return 1
	}
	return p.AspectCorrection
}
