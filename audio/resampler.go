// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/carfacnap/utils"
)

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// A one-pole low-pass runs ahead of the interpolator when downsampling.
type Resampler struct {
	src      Source
	dstRate  int
	step     float64 // source frames consumed per output frame
	channels int

	// window holds frames t-1, t0, t+1, t+2 around the read head.
	// Interpolation happens between window[1] and window[2].
	window [4][]float32
	valid  [4]bool
	pos    float64 // fractional position past window[1], in [0, 1)

	frame   []float32
	primed  bool
	srcDone bool

	lpAlpha  float32
	lpState  []float32
	lpSeeded bool
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	step := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:      src,
		dstRate:  dstRate,
		step:     step,
		channels: channels,
		frame:    make([]float32, channels),
		lpState:  make([]float32, channels),
	}

	if step > 1 {
		r.lpAlpha = 0.5
	}

	for i := range r.window {
		r.window[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// pull reads the next source frame into window[slot].
// It reports false once the source is exhausted.
func (r *Resampler) pull(slot int) (bool, error) {
	for !r.srcDone {
		n, err := r.src.ReadSamples(r.frame)
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("%w", err)
		}
		if errors.Is(err, io.EOF) {
			r.srcDone = true
		}
		if n < r.channels {
			continue
		}

		copy(r.window[slot], r.frame)
		if r.lpAlpha > 0 {
			if !r.lpSeeded {
				// Seed with the first frame to avoid a warm-up transient.
				copy(r.lpState, r.frame)
				r.lpSeeded = true
			}
			for c, v := range r.window[slot] {
				y := r.lpAlpha*v + (1-r.lpAlpha)*r.lpState[c]
				r.window[slot][c] = y
				r.lpState[c] = y
			}
		}

		return true, nil
	}

	return false, nil
}

func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.pull(1)
	if err != nil || !ok {
		return err
	}
	r.valid[1] = true

	// The first frame stands in for the missing t-1 neighbour.
	copy(r.window[0], r.window[1])
	r.valid[0] = true

	for slot := 2; slot < 4; slot++ {
		if r.valid[slot], err = r.pull(slot); err != nil {
			return err
		}
	}

	return nil
}

// advance moves the window one source frame forward.
func (r *Resampler) advance() error {
	oldest := r.window[0]
	copy(r.window[:3], r.window[1:])
	copy(r.valid[:3], r.valid[1:])
	r.window[3] = oldest

	var err error
	r.valid[3], err = r.pull(3)

	return err
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of the channel count.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	for written < len(dst)/r.channels {
		for r.pos >= 1 {
			r.pos--
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		if !r.valid[1] || !r.valid[2] {
			return written * r.channels, io.EOF
		}

		x := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range out {
			y3 := r.window[2][c]
			if r.valid[3] {
				y3 = r.window[3][c]
			}
			out[c] = utils.CubicInterpolate(r.window[0][c], r.window[1][c], r.window[2][c], y3, x)
		}

		written++
		r.pos += r.step
	}

	return written * r.channels, nil
}
