package eyewear

import (
	"math"
	"testing"
)

func TestMinScaleHintProfileOverride(t *testing.T) {
	surface := SurfaceDimensions{Width: 1920, Height: 1080}
	if got := minScaleHint(DeviceProfile{MinScaleHint: 0.4}, surface); got != 0.4 {
		t.Errorf("profile override: got %v, want 0.4", got)
	}
	if got := minScaleHint(DeviceProfile{}, surface); got != defaultMinScaleHint {
		t.Errorf("default: got %v, want %v", got, defaultMinScaleHint)
	}
}

func TestMinScaleHintPixelFloor(t *testing.T) {
	// On a tiny surface the alignment-precision floor dominates any profile
	// value: 96px of 240px shorter side = 0.4.
	surface := SurfaceDimensions{Width: 320, Height: 240}
	got := minScaleHint(DeviceProfile{MinScaleHint: 0.1}, surface)
	if want := minAlignSpanPx / 240.0; math.Abs(got-want) > 1e-12 {
		t.Errorf("got %v, want pixel floor %v", got, want)
	}
}

func TestMinScaleHintRotationInvariant(t *testing.T) {
	p := DeviceProfile{MinScaleHint: 0.1}
	a := minScaleHint(p, SurfaceDimensions{Width: 640, Height: 360})
	b := minScaleHint(p, SurfaceDimensions{Width: 360, Height: 640})
	if a != b {
		t.Errorf("hint changed across rotation: %v vs %v", a, b)
	}
}

func TestMaxScaleHintNeverBelowMin(t *testing.T) {
	// Profile claims max 0.2 but the pixel floor pushes min above it.
	surface := SurfaceDimensions{Width: 320, Height: 240}
	p := DeviceProfile{MaxScaleHint: 0.2}
	min, max := minScaleHint(p, surface), maxScaleHint(p, surface)
	if max < min {
		t.Errorf("max %v below min %v", max, min)
	}
}

func TestHintsWithinUnitRange(t *testing.T) {
	surfaces := []SurfaceDimensions{
		{Width: 1920, Height: 1080},
		{Width: 64, Height: 48},
		{Width: 3840, Height: 1080},
	}
	profiles := []DeviceProfile{
		{},
		{MinScaleHint: 0.05, MaxScaleHint: 1},
		{MinScaleHint: 0.6, MaxScaleHint: 0.7},
	}
	for _, surf := range surfaces {
		for _, p := range profiles {
			min, max := minScaleHint(p, surf), maxScaleHint(p, surf)
			if min < 0 || min > 1 || max < 0 || max > 1 || min > max {
				t.Errorf("surface %+v profile %+v: hints [%v, %v] out of contract", surf, p, min, max)
			}
		}
	}
}

func TestDrawingAspectRatioMatchesTarget(t *testing.T) {
	surface := SurfaceDimensions{Width: 1920, Height: 1080}
	target := TargetDimensions{Width: 80, Height: 50}

	got := drawingAspectRatio(DeviceProfile{}, surface, target, false)
	// A shape drawn at fractions (s*got, s) has pixel aspect
	// got*1920/1080 which must equal the target's physical aspect.
	pixelAspect := got * float64(surface.Width) / float64(surface.Height)
	if math.Abs(pixelAspect-target.Aspect()) > 1e-12 {
		t.Errorf("pixel aspect %v, want target aspect %v", pixelAspect, target.Aspect())
	}
}

func TestDrawingAspectRatioRotationReciprocal(t *testing.T) {
	target := TargetDimensions{Width: 80, Height: 50}
	p := DeviceProfile{AspectCorrection: 1.1}

	landscape := drawingAspectRatio(p, SurfaceDimensions{Width: 1920, Height: 1080}, target, false)
	portrait := drawingAspectRatio(p, SurfaceDimensions{Width: 1080, Height: 1920}, target, false)

	// Holding target and correction fixed, swapping the surface dimensions
	// must leave the product of the two ratios at the squared corrected
	// target aspect: the surface factors cancel reciprocally.
	want := target.Aspect() * 1.1
	if got := landscape * portrait; math.Abs(got-want*want) > 1e-9 {
		t.Errorf("landscape*portrait = %v, want %v", got, want*want)
	}
}

func TestDrawingAspectRatioStereoStretch(t *testing.T) {
	surface := SurfaceDimensions{Width: 960, Height: 540}
	target := TargetDimensions{Width: 80, Height: 50}

	plain := drawingAspectRatio(DeviceProfile{}, surface, target, false)
	stretched := drawingAspectRatio(DeviceProfile{}, surface, target, true)
	if math.Abs(stretched-plain/2) > 1e-12 {
		t.Errorf("stretched ratio %v, want half of %v", stretched, plain)
	}
}
