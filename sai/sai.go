// SPDX-License-Identifier: EPL-2.0

// Package sai computes a stabilized auditory image from NAP frames.
//
// For every channel the SAI picks a trigger point (the strongest peak in a
// sine-windowed stretch of recent input) and blends the Width samples that
// follow it into a running image. Periodic input triggers at the same phase
// on every segment, so its image stays put.
package sai

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrInvalidParams = errors.New("invalid SAI parameters")
	ErrSegmentSize   = errors.New("segment must hold between 1 and WindowWidth frames")
	ErrFrameSize     = errors.New("frame length differs from channel count")
)

// Params configures the image geometry. Lags and widths count NAP frames.
type Params struct {
	NumChannels  int
	Width        int // lags in the output image
	WindowWidth  int // trigger search window, also the maximum segment length
	NumWindowPos int // trigger windows per segment, about 50% overlapped
	FutureLags   int // lags kept ahead of the trigger
}

// DefaultParams returns a geometry for n channels.
func DefaultParams(n int) Params {
	return Params{
		NumChannels:  n,
		Width:        500,
		WindowWidth:  2000,
		NumWindowPos: 2,
		FutureLags:   5,
	}
}

func (p Params) Validate() error {
	switch {
	case p.NumChannels < 1:
		return fmt.Errorf("%w: NumChannels = %d", ErrInvalidParams, p.NumChannels)
	case p.Width < 1:
		return fmt.Errorf("%w: Width = %d", ErrInvalidParams, p.Width)
	case p.WindowWidth <= p.Width:
		return fmt.Errorf("%w: WindowWidth %d must exceed Width %d", ErrInvalidParams, p.WindowWidth, p.Width)
	case p.NumWindowPos < 1:
		return fmt.Errorf("%w: NumWindowPos = %d", ErrInvalidParams, p.NumWindowPos)
	case p.FutureLags < 0 || p.FutureLags >= p.Width:
		return fmt.Errorf("%w: FutureLags %d must be in [0, Width)", ErrInvalidParams, p.FutureLags)
	}

	return nil
}

func (p Params) hop() int { return p.WindowWidth / 2 }

func (p Params) bufferWidth() int {
	return p.Width + int((1+float64(p.NumWindowPos-1)/2)*float64(p.WindowWidth))
}

// SAI holds the sliding input buffer and the running image.
type SAI struct {
	params Params
	input  *mat.Dense // channels x bufferWidth
	output *mat.Dense // channels x Width
	window []float64
}

func New(params Params) (*SAI, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	s := &SAI{
		params: params,
		input:  mat.NewDense(params.NumChannels, params.bufferWidth(), nil),
		output: mat.NewDense(params.NumChannels, params.Width, nil),
		window: make([]float64, params.WindowWidth),
	}

	// Half a sine period from pi/W to pi.
	ww := float64(params.WindowWidth)
	step := (math.Pi - math.Pi/ww) / (ww - 1)
	for i := range s.window {
		s.window[i] = math.Sin(math.Pi/ww + float64(i)*step)
	}

	return s, nil
}

func (s *SAI) Params() Params { return s.params }

// Reset clears the input history and the image.
func (s *SAI) Reset() {
	s.input.Zero()
	s.output.Zero()
}

// RunSegment appends frames (oldest first, one value per channel each) to
// the input history and returns a copy of the updated Width-lag image,
// channels x Width.
func (s *SAI) RunSegment(frames [][]float64) (*mat.Dense, error) {
	if len(frames) == 0 || len(frames) > s.params.WindowWidth {
		return nil, fmt.Errorf("%w: got %d", ErrSegmentSize, len(frames))
	}

	for i, f := range frames {
		if len(f) != s.params.NumChannels {
			return nil, fmt.Errorf("%w: frame %d has %d values, want %d", ErrFrameSize, i, len(f), s.params.NumChannels)
		}
	}

	n := len(frames)
	keep := s.input.RawMatrix().Cols - n

	for ch := range s.params.NumChannels {
		row := s.input.RawRowView(ch)
		copy(row[:keep], row[n:])
		for i, f := range frames {
			row[keep+i] = f[ch]
		}
	}

	s.stabilize()

	return mat.DenseCopyOf(s.output), nil
}

func (s *SAI) stabilize() {
	p := s.params
	hop := p.hop()
	bufW := s.input.RawMatrix().Cols

	windowStart := (bufW - p.WindowWidth) - (p.NumWindowPos-1)*hop
	windowRangeStart := windowStart - p.FutureLags - 1
	offsetRangeStart := windowStart - p.Width

	for ch := range p.NumChannels {
		nap := s.input.RawRowView(ch)
		out := s.output.RawRowView(ch)

		for w := range p.NumWindowPos {
			offset := w * hop
			segment := nap[windowRangeStart+offset : windowRangeStart+offset+p.WindowWidth]

			trigger, peak := argmaxProduct(segment, s.window)
			if peak <= 0 {
				trigger, peak = argmax(s.window)
			}
			trigger += offset

			alpha := (0.025 + peak) / (0.5 + peak)
			src := nap[trigger+offsetRangeStart : trigger+offsetRangeStart+p.Width]
			for i := range out {
				out[i] = out[i]*(1-alpha) + alpha*src[i]
			}
		}
	}
}

// argmaxProduct returns the first index of the largest a[i]*b[i].
func argmaxProduct(a, b []float64) (int, float64) {
	best, peak := 0, a[0]*b[0]
	for i := 1; i < len(a); i++ {
		if v := a[i] * b[i]; v > peak {
			best, peak = i, v
		}
	}
	return best, peak
}

func argmax(a []float64) (int, float64) {
	best, peak := 0, a[0]
	for i := 1; i < len(a); i++ {
		if a[i] > peak {
			best, peak = i, a[i]
		}
	}
	return best, peak
}

// Frames runs a whole time x channel NAP through a fresh SAI in segments
// of hop rows and returns one image per segment. A trailing partial
// segment is processed as well.
func Frames(nap mat.Matrix, params Params, hop int) ([]*mat.Dense, error) {
	rows, cols := nap.Dims()
	if params.NumChannels == 0 {
		params.NumChannels = cols
	}
	if cols != params.NumChannels {
		return nil, fmt.Errorf("%w: NAP has %d channels, want %d", ErrFrameSize, cols, params.NumChannels)
	}
	if hop < 1 || hop > params.WindowWidth {
		return nil, fmt.Errorf("%w: hop %d", ErrSegmentSize, hop)
	}

	s, err := New(params)
	if err != nil {
		return nil, err
	}

	images := make([]*mat.Dense, 0, (rows+hop-1)/hop)
	segment := make([][]float64, 0, hop)

	for start := 0; start < rows; start += hop {
		segment = segment[:0]
		for i := start; i < min(start+hop, rows); i++ {
			segment = append(segment, mat.Row(nil, i, nap))
		}

		img, err := s.RunSegment(segment)
		if err != nil {
			return nil, fmt.Errorf("segment at frame %d: %w", start, err)
		}
		images = append(images, img)
	}

	return images, nil
}
