// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestApplyGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		db   float64
		want float64
	}{
		{0, 0.5},
		{-20, 0.05},
		{-40, 0.005},
		{6.020599913279624, 1.0},
	}

	for _, tt := range tests {
		m := mat.NewDense(4, 2, nil)
		for i := range 4 {
			m.SetRow(i, []float64{0.5, 0.5})
		}

		ApplyGain(m, tt.db)

		for i, v := range m.RawMatrix().Data {
			if math.Abs(v-tt.want) > 1e-12 {
				t.Errorf("db %v: got[%d] = %v, want %v", tt.db, i, v, tt.want)
			}
		}
	}
}

// The text file written for the model must not carry float32 rounding.
func TestApplyGain_DoublePrecision(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(1, 1, []float64{0.5})
	ApplyGain(m, -40)

	if got := m.At(0, 0); got != 0.005 {
		t.Errorf("0.5 at -40 dB = %v, want exactly 0.005", got)
	}
}

func TestApplyGain_DoesNotClip(t *testing.T) {
	t.Parallel()

	m := mat.NewDense(1, 2, []float64{0.9, -0.9})
	ApplyGain(m, 20)

	if math.Abs(m.At(0, 0)-9) > 1e-12 || math.Abs(m.At(0, 1)+9) > 1e-12 {
		t.Errorf("got %v, want [9 -9]", m.RawRowView(0))
	}
}
