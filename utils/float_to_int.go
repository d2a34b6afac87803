// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 clamps x to [-1, 1] and scales it symmetrically, so -1
// maps to -32767 rather than math.MinInt16.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	return int16(x * 32767.0)
}

// Float32sToInt16 converts min(len(dst), len(src)) samples and returns
// the count.
func Float32sToInt16(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	dst, src = dst[:n], src[:n]
	for i, x := range src {
		dst[i] = Float32ToInt16(x)
	}
	return n
}

// Int16ToFloat32 is the inverse of Float32ToInt16 for values it produces.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32767.0
}
