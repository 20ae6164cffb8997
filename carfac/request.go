// SPDX-License-Identifier: EPL-2.0

package carfac

import (
	"fmt"
	"strconv"
)

// Request holds the positional arguments of one model run.
type Request struct {
	Filename    string
	NumSamples  int // frames after resampling
	Ears        int
	SampleRate  int
	Stride      int
	A1          float64
	ApplyFilter bool
	Suffix      string
}

func (r Request) Validate() error {
	switch {
	case r.Filename == "":
		return fmt.Errorf("%w: empty filename", ErrInvalidRequest)
	case r.NumSamples < 1:
		return fmt.Errorf("%w: sample count %d", ErrInvalidRequest, r.NumSamples)
	case r.Ears < 1:
		return fmt.Errorf("%w: ear count %d", ErrInvalidRequest, r.Ears)
	case r.SampleRate < 1:
		return fmt.Errorf("%w: sample rate %d", ErrInvalidRequest, r.SampleRate)
	case r.Stride < 1:
		return fmt.Errorf("%w: stride %d", ErrInvalidRequest, r.Stride)
	}

	return nil
}

// Args renders the request in the order the executable expects.
func (r Request) Args() []string {
	filter := "0"
	if r.ApplyFilter {
		filter = "1"
	}

	return []string{
		r.Filename,
		strconv.Itoa(r.NumSamples),
		strconv.Itoa(r.Ears),
		strconv.Itoa(r.SampleRate),
		strconv.Itoa(r.Stride),
		strconv.FormatFloat(r.A1, 'g', -1, 64),
		filter,
		r.Suffix,
	}
}

// OutputPath is where the NAP ends up: the filename with the suffix
// appended verbatim.
func (r Request) OutputPath() string {
	return r.Filename + r.Suffix
}
