// SPDX-License-Identifier: EPL-2.0

// Package intsource adapts go-audio PCM decoders to audio.Source.
package intsource

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"

	"github.com/ik5/carfacnap/utils"
)

// PCMReader is the subset of the go-audio wav and aiff decoders used here.
type PCMReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// Source streams 16-bit PCM from a PCMReader as float32 in [-1, 1).
type Source struct {
	dec        PCMReader
	sampleRate int
	channels   int
	buf        *goaudio.IntBuffer
	done       bool
}

// New wraps dec. Callers reject other bit depths before wrapping.
func New(dec PCMReader, sampleRate, channels int) *Source {
	return &Source{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
	}
}

func (s *Source) SampleRate() int { return s.sampleRate }
func (s *Source) Channels() int   { return s.channels }
func (s *Source) Close() error    { return nil }

func (s *Source) BufSize() int {
	if s.buf != nil {
		return cap(s.buf.Data)
	}
	return 4096
}

func (s *Source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.done {
		return 0, io.EOF
	}

	if s.buf == nil || cap(s.buf.Data) < len(dst) {
		s.buf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.dec.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("%w", err)
	}

	for i, v := range s.buf.Data[:n] {
		dst[i] = utils.Int16ToFloat32(int16(v))
	}

	// go-audio signals the end with a short or empty read.
	if n < len(dst) || errors.Is(err, io.EOF) {
		s.done = true
		return n, io.EOF
	}

	return n, nil
}
