// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/ik5/carfacnap/audio"
	"github.com/ik5/carfacnap/internal/config"
)

var ErrInvalidOptions = errors.New("invalid pipeline options")

// Options are the parameters of one cochlear run.
type Options struct {
	Stride      int
	Rate        int
	DB          float64
	Ears        int
	A1          float64
	ApplyFilter bool
	Suffix      string

	Method  audio.Method
	Quality audio.Quality

	Mono             bool
	WriteWAV         bool
	KeepIntermediate bool
	LocalFilter      bool
	Timeout          time.Duration
}

// DefaultOptions matches the defaults of the config package.
func DefaultOptions() Options {
	return Options{
		Stride:           256,
		Rate:             44100,
		DB:               -40,
		Ears:             1,
		A1:               -0.995,
		ApplyFilter:      true,
		Suffix:           "cochlear",
		Method:           audio.MethodSinc,
		Quality:          audio.QualityVeryHigh,
		KeepIntermediate: true,
	}
}

// FromConfig converts a validated configuration.
func FromConfig(c config.Config) (Options, error) {
	method, err := audio.ParseMethod(c.Resample.Method)
	if err != nil {
		return Options{}, err
	}

	quality, err := audio.ParseQuality(c.Resample.Quality)
	if err != nil {
		return Options{}, err
	}

	return Options{
		Stride:           c.Stride,
		Rate:             c.Rate,
		DB:               c.DB,
		Ears:             c.Ears,
		A1:               c.A1,
		ApplyFilter:      c.ApplyFilter,
		Suffix:           c.Suffix,
		Method:           method,
		Quality:          quality,
		Mono:             c.Mono,
		WriteWAV:         c.WriteWAV,
		KeepIntermediate: c.KeepIntermediate,
		LocalFilter:      c.Filter.Local,
		Timeout:          c.Timeout,
	}, nil
}

func (o Options) Validate() error {
	switch {
	case o.Stride < 1:
		return fmt.Errorf("%w: stride %d", ErrInvalidOptions, o.Stride)
	case o.Rate < 1:
		return fmt.Errorf("%w: rate %d", ErrInvalidOptions, o.Rate)
	case o.Ears < 1:
		return fmt.Errorf("%w: ears %d", ErrInvalidOptions, o.Ears)
	}

	return nil
}

// cacheParams lists every option that changes the normalized NAP.
// Field order is part of the cache key.
type cacheParams struct {
	Stride      int     `msgpack:"stride"`
	Rate        int     `msgpack:"rate"`
	DB          float64 `msgpack:"db"`
	Ears        int     `msgpack:"ears"`
	A1          float64 `msgpack:"a_1"`
	ApplyFilter bool    `msgpack:"apply_filter"`
	Suffix      string  `msgpack:"suffix"`
	Method      string  `msgpack:"method"`
	Quality     string  `msgpack:"quality"`
	Mono        bool    `msgpack:"mono"`
	LocalFilter bool    `msgpack:"local_filter"`
}

func (o Options) cacheParams() cacheParams {
	return cacheParams{
		Stride:      o.Stride,
		Rate:        o.Rate,
		DB:          o.DB,
		Ears:        o.Ears,
		A1:          o.A1,
		ApplyFilter: o.ApplyFilter,
		Suffix:      o.Suffix,
		Method:      string(o.Method),
		Quality:     string(o.Quality),
		Mono:        o.Mono,
		LocalFilter: o.LocalFilter,
	}
}
