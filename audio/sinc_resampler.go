// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Quality names a band-limited resampling preset.
type Quality string

const (
	QualityQuick    Quality = "quick"
	QualityLow      Quality = "low"
	QualityMedium   Quality = "medium"
	QualityHigh     Quality = "high"
	QualityVeryHigh Quality = "veryhigh"
)

func (q Quality) spec() (resampling.QualitySpec, error) {
	switch q {
	case QualityQuick:
		return resampling.QualitySpec{Preset: resampling.QualityQuick}, nil
	case QualityLow:
		return resampling.QualitySpec{Preset: resampling.QualityLow}, nil
	case QualityMedium:
		return resampling.QualitySpec{Preset: resampling.QualityMedium}, nil
	case QualityHigh:
		return resampling.QualitySpec{Preset: resampling.QualityHigh}, nil
	case QualityVeryHigh, "":
		return resampling.QualitySpec{Preset: resampling.QualityVeryHigh}, nil
	}

	return resampling.QualitySpec{}, fmt.Errorf("%w: %q", ErrUnknownQuality, q)
}

// SincResampler converts src to dstRate with a polyphase windowed-sinc
// filter (a pure Go libsoxr port). Channel count is preserved and the filter
// tail is flushed once src reaches EOF.
type SincResampler struct {
	src      Source
	dstRate  int
	channels int
	engine   resampling.Resampler

	readBuf []float32
	in      []float64
	pending []float32
	flushed bool
}

// NewSincResampler builds a resampler from src's rate to dstRate.
func NewSincResampler(src Source, dstRate int, quality Quality) (*SincResampler, error) {
	if dstRate <= 0 || src.SampleRate() <= 0 {
		return nil, ErrInvalidRate
	}

	spec, err := quality.spec()
	if err != nil {
		return nil, err
	}

	engine, err := resampling.New(&resampling.Config{
		InputRate:  float64(src.SampleRate()),
		OutputRate: float64(dstRate),
		Channels:   src.Channels(),
		Quality:    spec,
	})
	if err != nil {
		return nil, fmt.Errorf("creating resampler: %w", err)
	}

	bufSize := src.BufSize()
	if bufSize <= 0 {
		bufSize = 4096
	}
	bufSize -= bufSize % src.Channels()
	if bufSize == 0 {
		bufSize = src.Channels()
	}

	return &SincResampler{
		src:      src,
		dstRate:  dstRate,
		channels: src.Channels(),
		engine:   engine,
		readBuf:  make([]float32, bufSize),
	}, nil
}

func (r *SincResampler) SampleRate() int { return r.dstRate }
func (r *SincResampler) Channels() int   { return r.channels }
func (r *SincResampler) BufSize() int    { return len(r.readBuf) }

func (r *SincResampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (r *SincResampler) queue(out []float64) {
	for _, v := range out {
		r.pending = append(r.pending, float32(v))
	}
}

// fill runs one more chunk of source audio through the filter.
func (r *SincResampler) fill() error {
	n, readErr := r.src.ReadSamples(r.readBuf)
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		return fmt.Errorf("%w", readErr)
	}

	n -= n % r.channels
	if n > 0 {
		r.in = r.in[:0]
		for _, v := range r.readBuf[:n] {
			r.in = append(r.in, float64(v))
		}

		out, err := r.engine.Process(r.in)
		if err != nil {
			return fmt.Errorf("resampling: %w", err)
		}
		r.queue(out)
	}

	if errors.Is(readErr, io.EOF) {
		out, err := r.engine.Flush()
		if err != nil {
			return fmt.Errorf("flushing resampler: %w", err)
		}
		r.queue(out)
		r.flushed = true
	}

	return nil
}

// ReadSamples fills dst with resampled interleaved samples.
func (r *SincResampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	for len(r.pending) < len(dst) && !r.flushed {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}

	n := copy(dst, r.pending)
	n -= n % r.channels
	r.pending = r.pending[n:]

	if r.flushed && len(r.pending) < r.channels {
		return n, io.EOF
	}

	return n, nil
}
