// SPDX-License-Identifier: EPL-2.0

package utils

// pcm16Scale is 2^15, the divisor that maps int16 PCM into [-1, 1).
const pcm16Scale = 32768.0

// Int16ToFloat32 normalizes a 16-bit PCM sample to [-1, 1).
func Int16ToFloat32(v int16) float32 {
	return float32(v) / pcm16Scale
}

// Float32ToInt16 clamps x to [-1, 1] and scales it back to 16-bit PCM.
func Float32ToInt16(x float32) int16 {
	return Float64ToInt16(float64(x))
}

// Float64ToInt16 clamps x to [-1, 1] and scales it back to 16-bit PCM.
// Positive values use 32767 so that 1.0 does not overflow.
func Float64ToInt16(x float64) int16 {
	switch {
	case x >= 1:
		return 32767
	case x <= -1:
		return -32768
	case x >= 0:
		return int16(x * 32767.0)
	}

	return int16(x * pcm16Scale)
}
