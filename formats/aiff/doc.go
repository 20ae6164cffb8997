// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes 16-bit PCM AIFF files through github.com/go-audio/aiff.
//
// The decoder shares its sample conversion with the WAV decoder, so both
// produce float32 samples scaled by 1/32768. Other bit depths fail with
// ErrOnlyPCM16bitSupported.
package aiff
