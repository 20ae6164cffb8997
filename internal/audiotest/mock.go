// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides synthetic audio sources for tests.
// The sources satisfy audio.Source without importing it.
package audiotest

import (
	"io"
	"math"
)

// Waveform returns the value of channel ch at frame index i.
type Waveform func(i, ch int) float32

// MockSource generates a fixed number of frames from a Waveform.
type MockSource struct {
	sampleRate int
	channels   int
	frames     int
	pos        int
	waveform   Waveform

	// ReadErr, when set, is returned once pos reaches FailAt.
	ReadErr error
	FailAt  int

	closed bool
}

// NewMockSource creates a source producing frames frames per channel.
func NewMockSource(sampleRate, channels, frames int, waveform Waveform) *MockSource {
	return &MockSource{
		sampleRate: sampleRate,
		channels:   channels,
		frames:     frames,
		waveform:   waveform,
	}
}

// NewSilentSource produces zeros.
func NewSilentSource(sampleRate, channels, frames int) *MockSource {
	return NewConstantSource(sampleRate, channels, frames, 0)
}

// NewConstantSource produces value on every channel.
func NewConstantSource(sampleRate, channels, frames int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(int, int) float32 {
		return value
	})
}

// NewSineSource produces a full-scale sine of frequency Hz on every channel.
func NewSineSource(sampleRate, channels, frames int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, frames, func(i, _ int) float32 {
		t := float64(i) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewSliceSource replays interleaved samples.
func NewSliceSource(sampleRate, channels int, interleaved []float32) *MockSource {
	return NewMockSource(sampleRate, channels, len(interleaved)/channels, func(i, ch int) float32 {
		return interleaved[i*channels+ch]
	})
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }
func (m *MockSource) BufSize() int    { return 4096 }

func (m *MockSource) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed }

// Reset rewinds the source to its first frame.
func (m *MockSource) Reset() { m.pos = 0 }

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.ReadErr != nil && m.pos >= m.FailAt {
		return 0, m.ReadErr
	}

	if m.pos >= m.frames {
		return 0, io.EOF
	}

	count := min(len(dst)/m.channels, m.frames-m.pos)
	if m.ReadErr != nil {
		count = min(count, m.FailAt-m.pos)
	}

	for f := range count {
		for ch := range m.channels {
			dst[f*m.channels+ch] = m.waveform(m.pos+f, ch)
		}
	}

	m.pos += count
	if m.pos >= m.frames {
		return count * m.channels, io.EOF
	}

	return count * m.channels, nil
}
