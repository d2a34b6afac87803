// SPDX-License-Identifier: EPL-2.0

package utils

// CubicInterpolate evaluates a Catmull-Rom spline through four consecutive
// samples. x is the fractional position between y1 and y2 (0 <= x <= 1).
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return a0*x*x*x + a1*x*x + a2*x + a3
}

// CubicInterpolateFrame interpolates every channel of four consecutive
// frames into out. All frames must be at least len(out) long.
func CubicInterpolateFrame(out, f0, f1, f2, f3 []float32, x float32) {
	f0 = f0[:len(out)]
	f1 = f1[:len(out)]
	f2 = f2[:len(out)]
	f3 = f3[:len(out)]
	for c := range out {
		out[c] = CubicInterpolate(f0[c], f1[c], f2[c], f3[c], x)
	}
}
