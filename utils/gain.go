// SPDX-License-Identifier: EPL-2.0

package utils

import "math"

// DBToAmplitude converts a gain in decibels to a linear amplitude factor,
// 10^(db/20).
func DBToAmplitude(db float64) float64 {
	return math.Pow(10, db/20)
}

// AmplitudeToDB converts a linear amplitude factor to decibels.
// Non-positive factors map to -Inf.
func AmplitudeToDB(amp float64) float64 {
	if amp <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(amp)
}
