// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// ReadAll drains src into a frames x channels matrix. Each row is one frame,
// so a mono source yields a single column. A trailing partial frame is
// dropped.
func ReadAll(src Source, bufferSize int) (*mat.Dense, error) {
	channels := src.Channels()
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidDstSize, channels)
	}

	if bufferSize < channels {
		bufferSize = 4096
	}
	bufferSize -= bufferSize % channels

	buf := make([]float32, bufferSize)
	var data []float64

	for {
		n, err := src.ReadSamples(buf)
		for _, v := range buf[:n] {
			data = append(data, float64(v))
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}

	frames := len(data) / channels
	if frames == 0 {
		return nil, ErrEmptySource
	}

	return mat.NewDense(frames, channels, data[:frames*channels]), nil
}
