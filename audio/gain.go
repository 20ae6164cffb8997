// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ik5/carfacnap/utils"
)

// ApplyGain scales m in place by db decibels (10^(db/20)). The product is
// taken in float64 after collection, so -40 dB of 0.5 is exactly 0.005.
// Values are not clipped.
func ApplyGain(m *mat.Dense, db float64) {
	m.Scale(utils.DBToAmplitude(db), m)
}
