// SPDX-License-Identifier: EPL-2.0

// Package nap post-processes neural activation patterns read back from the
// cochlear model. A NAP is a time x channel matrix.
package nap

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoActivation  = errors.New("NAP has no positive activation")
	ErrInvalidStride = errors.New("stride must be at least 1")
	ErrTooShort      = errors.New("NAP shorter than one stride")
)

// Normalize maps every element to sqrt(max(0, x) / max(m)).
// The result lies in [0, 1] and its largest element is 1.
func Normalize(m mat.Matrix) (*mat.Dense, error) {
	peak := mat.Max(m)
	if !(peak > 0) || math.IsInf(peak, 1) {
		return nil, fmt.Errorf("%w: max = %v", ErrNoActivation, peak)
	}

	var out mat.Dense
	out.Apply(func(_, _ int, v float64) float64 {
		return math.Sqrt(math.Max(0, v) / peak)
	}, m)

	return &out, nil
}

// Smooth runs the first-order recursion y[n] = x[n] - a1*y[n-1] along time,
// forward and then backward, independently for every channel. The two
// passes cancel each other's phase shift.
func Smooth(m mat.Matrix, a1 float64) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.DenseCopyOf(m)

	col := make([]float64, rows)
	for j := range cols {
		mat.Col(col, j, out)

		prev := 0.0
		for i := range col {
			col[i] -= a1 * prev
			prev = col[i]
		}

		prev = 0
		for i := len(col) - 1; i >= 0; i-- {
			col[i] -= a1 * prev
			prev = col[i]
		}

		out.SetCol(j, col)
	}

	return out
}

// Decimate keeps rows 0, stride, 2*stride, ... for rows/stride rows.
func Decimate(m mat.Matrix, stride int) (*mat.Dense, error) {
	if stride < 1 {
		return nil, ErrInvalidStride
	}

	rows, cols := m.Dims()
	n := rows / stride
	if n == 0 {
		return nil, fmt.Errorf("%w: %d rows, stride %d", ErrTooShort, rows, stride)
	}

	out := mat.NewDense(n, cols, nil)
	row := make([]float64, cols)
	for i := range n {
		mat.Row(row, i*stride, m)
		out.SetRow(i, row)
	}

	return out, nil
}

// Postprocess smooths and then decimates a raw NAP.
func Postprocess(m mat.Matrix, a1 float64, stride int) (*mat.Dense, error) {
	return Decimate(Smooth(m, a1), stride)
}

// Stats summarizes a NAP for logging.
type Stats struct {
	Frames   int
	Channels int
	Min      float64
	Max      float64
	Mean     float64
}

func Summarize(m *mat.Dense) Stats {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := range rows {
		data = append(data, m.RawRowView(i)...)
	}

	return Stats{
		Frames:   rows,
		Channels: cols,
		Min:      floats.Min(data),
		Max:      floats.Max(data),
		Mean:     floats.Sum(data) / float64(len(data)),
	}
}
