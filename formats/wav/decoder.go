// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"

	gowav "github.com/go-audio/wav"

	"github.com/ik5/carfacnap/audio"
	"github.com/ik5/carfacnap/formats/internal/intsource"
)

const (
	formatPCM        = 0x0001
	formatExtensible = 0xFFFE
)

// Info describes the stream found in a WAV header.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Format     int
}

// Decoder reads 16-bit PCM WAV files. Chunks other than fmt and data are
// skipped. Any other sample format is rejected with ErrOnlyPCM16bitSupported.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		// go-audio seeks between chunks.
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)

	info, err := readInfo(dec)
	if err != nil {
		return nil, err
	}

	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavChunks, err)
	}

	return intsource.New(dec, info.SampleRate, info.Channels), nil
}

// Probe reads only the header of r.
func Probe(r io.ReadSeeker) (Info, error) {
	return readInfo(gowav.NewDecoder(r))
}

func readInfo(dec *gowav.Decoder) (Info, error) {
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return Info{}, fmt.Errorf("%w: %w", ErrNotWavFile, err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Format:     int(dec.WavAudioFormat),
	}

	if info.Channels < 1 || info.SampleRate < 1 {
		return info, ErrUnsupportedWavLayout
	}

	if info.Format != formatPCM && info.Format != formatExtensible {
		return info, ErrOnlyPCM16bitSupported
	}

	if info.BitDepth != 16 {
		return info, ErrOnlyPCM16bitSupported
	}

	return info, nil
}
