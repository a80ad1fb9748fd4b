package eyewear

import (
	"math"
	"testing"
)

func TestMatrix44GLColumnMajor(t *testing.T) {
	var m Matrix44
	v := 0.0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = v
			v++
		}
	}
	gl := m.GL()
	// Column 0 of the matrix is rows 0..3 of column-major storage.
	want := [4]float32{0, 4, 8, 12}
	for r, w := range want {
		if gl[r] != w {
			t.Errorf("gl[%d] = %v, want %v", r, gl[r], w)
		}
	}
	if gl[15] != 15 {
		t.Errorf("gl[15] = %v, want 15", gl[15])
	}
}

func TestMatrix44IsFinite(t *testing.T) {
	var m Matrix44
	if !m.IsFinite() {
		t.Error("zero matrix reported non-finite")
	}
	m[2][1] = math.NaN()
	if m.IsFinite() {
		t.Error("NaN entry not detected")
	}
	m[2][1] = math.Inf(-1)
	if m.IsFinite() {
		t.Error("Inf entry not detected")
	}
}

func TestProjectionMatrixClipsDepthRange(t *testing.T) {
	fit := AxisFit{Gain: 2, Bias: 0}
	m := projectionMatrix(fit, fit, 100, 10000)

	// A point on the near plane maps to ndc z = -1, far plane to +1.
	project := func(z float64) float64 {
		clip := m[2][2]*z + m[2][3]
		w := -z
		return clip / w
	}
	if got := project(-100); math.Abs(got+1) > 1e-12 {
		t.Errorf("near plane ndc z = %v, want -1", got)
	}
	if got := project(-10000); math.Abs(got-1) > 1e-9 {
		t.Errorf("far plane ndc z = %v, want 1", got)
	}
	// Inside the range stays inside; outside falls outside and is clipped
	// by the matrix itself.
	if got := project(-1000); got <= -1 || got >= 1 {
		t.Errorf("mid-range ndc z = %v, want inside (-1, 1)", got)
	}
	if got := project(-50); got >= -1 {
		t.Errorf("closer than near: ndc z = %v, want < -1", got)
	}
}

func TestProjectionMatrixAnglesRoundTrip(t *testing.T) {
	x := AxisFit{Gain: 1.8, Bias: 0.05}
	y := AxisFit{Gain: 3.1, Bias: -0.02}
	m := projectionMatrix(x, y, 100, 10000)

	// An eye-space point at tan angles (tx, ty) must land at the affine-
	// corrected NDC position.
	const z = -500.0
	tx, ty := 0.2, 0.1
	px, py := tx*-z, ty*-z

	clipX := m[0][0]*px + m[0][2]*z
	clipY := m[1][1]*py + m[1][2]*z
	w := -z
	if got, want := clipX/w, x.Gain*tx+x.Bias; math.Abs(got-want) > 1e-12 {
		t.Errorf("ndc x = %v, want %v", got, want)
	}
	if got, want := clipY/w, y.Gain*ty+y.Bias; math.Abs(got-want) > 1e-12 {
		t.Errorf("ndc y = %v, want %v", got, want)
	}
}
