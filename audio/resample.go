// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"strings"
)

// Method selects the resampling algorithm.
type Method string

const (
	// MethodSinc is band-limited polyphase resampling (SincResampler).
	MethodSinc Method = "sinc"
	// MethodCubic is Catmull-Rom interpolation (Resampler); faster, lower quality.
	MethodCubic Method = "cubic"
)

// Resample wraps src so it produces dstRate. When src already runs at
// dstRate it is returned unchanged.
func Resample(src Source, dstRate int, method Method, quality Quality) (Source, error) {
	if dstRate <= 0 {
		return nil, ErrInvalidRate
	}

	if src.SampleRate() == dstRate {
		return src, nil
	}

	switch method {
	case MethodSinc, "":
		return NewSincResampler(src, dstRate, quality)
	case MethodCubic:
		return NewResampler(src, dstRate), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
}

// ParseMethod accepts "sinc", "cubic" or "" (sinc).
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(s)); m {
	case MethodSinc, MethodCubic:
		return m, nil
	case "":
		return MethodSinc, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// ParseQuality accepts a preset name or "" (veryhigh).
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(s))
	if _, err := q.spec(); err != nil {
		return "", err
	}
	if q == "" {
		q = QualityVeryHigh
	}

	return q, nil
}
