package eyewear

// SurfaceDimensions is the rendering surface size in pixels.
type SurfaceDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TargetDimensions is the physical calibration target size in millimetres.
// It must match the printed artifact and the dataset entry exactly; a unit
// mismatch cannot be detected here and silently miscalibrates.
type TargetDimensions struct {
	Width  float64 `json:"width_mm"`
	Height float64 `json:"height_mm"`
}

// Aspect returns width/height.
func (t TargetDimensions) Aspect() float64 {
	return t.Width / t.Height
}

// minAlignSpanPx is the smallest pixel span over which a user can still judge
// edge alignment without sub-pixel ambiguity. Shapes smaller than this are
// not worth drawing.
const minAlignSpanPx = 96.0

// minScaleHint returns the smallest practical drawing scale: the profile's
// measured floor when available, otherwise a floor derived from the surface's
// shorter side so the shape always spans at least minAlignSpanPx. Using the
// shorter side keeps the hint stable across surface rotations.
func minScaleHint(p DeviceProfile, surface SurfaceDimensions) float64 {
	hint := p.MinScaleHint
	if hint == 0 {
		hint = defaultMinScaleHint
	}
	shorter := surface.Height
	if surface.Width < shorter {
		shorter = surface.Width
	}
	if shorter > 0 {
		if floor := minAlignSpanPx / float64(shorter); floor > hint {
			hint = floor
		}
	}
	return clamp01(hint)
}

// maxScaleHint returns the largest practical drawing scale before the shape
// edges reach the display border region where lens and mounting distortion is
// highest. Never below the minimum hint.
func maxScaleHint(p DeviceProfile, surface SurfaceDimensions) float64 {
	hint := p.MaxScaleHint
	if hint == 0 {
		hint = defaultMaxScaleHint
	}
	hint = clamp01(hint)
	if min := minScaleHint(p, surface); hint < min {
		hint = min
	}
	return hint
}

// drawingAspectRatio returns the width/height ratio, in fractions of the
// surface, at which a calibration shape must be drawn so that it reaches the
// eye with the target's physical proportions. The target's pixel aspect is
// corrected for the device's optical stretch and, on stretched stereo
// surfaces, for the halved horizontal pixel density, then converted from a
// pixel ratio into a surface-fraction ratio.
func drawingAspectRatio(p DeviceProfile, surface SurfaceDimensions, target TargetDimensions, stretched bool) float64 {
	ratio := target.Aspect() * p.aspectCorrection()
	if stretched {
		// The merged stereo surface doubles each logical pixel's physical
		// width, so the shape is drawn half as wide in logical pixels.
		ratio /= 2
	}
	return ratio * float64(surface.Height) / float64(surface.Width)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
