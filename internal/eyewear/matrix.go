package eyewear

// Matrix44 is a 4x4 projection matrix in row-major order, following the
// right-handed clip-space convention of the host rendering pipeline: the
// camera looks down -Z, w = -Z after multiplication, and the near/far clip
// planes are embedded in the third row so depth clipping happens in the
// matrix itself.
type Matrix44 [4][4]float64

// GL returns the matrix flattened column-major as float32, the layout
// expected by OpenGL uniform uploads.
func (m Matrix44) GL() [16]float32 {
	var out [16]float32
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			out[col*4+row] = float32(m[row][col])
		}
	}
	return out
}

// IsFinite reports whether every entry is a finite number.
func (m Matrix44) IsFinite() bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if !isFinite(m[i][j]) {
				return false
			}
		}
	}
	return true
}

// projectionMatrix assembles the calibrated clip-space matrix from the fitted
// per-axis gain/bias terms and the configured depth range (millimetres).
//
// For an eye-space point (X, Y, Z) with Z < 0 in front of the viewer:
//
//	ndc.x = gainX*(X/-Z) + biasX
//	ndc.y = gainY*(Y/-Z) + biasY
//
// which is the standard perspective form with the fitted gain substituted for
// the symmetric-frustum focal term and the fitted bias as the principal-point
// offset in the third column.
func projectionMatrix(x, y AxisFit, near, far float64) Matrix44 {
	return Matrix44{
		{x.Gain, 0, -x.Bias, 0},
		{0, y.Gain, -y.Bias, 0},
		{0, 0, -(far + near) / (far - near), -2 * far * near / (far - near)},
		{0, 0, -1, 0},
	}
}
