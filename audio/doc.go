// SPDX-License-Identifier: EPL-2.0

// Package audio provides the streaming primitives that prepare a waveform
// for the cochlear model.
//
// Every stage implements Source, so stages chain. Gain is applied to the
// collected matrix in double precision:
//
//	src, _ := wav.Decoder{}.Decode(file)
//	resampled, _ := audio.Resample(src, 44100, audio.MethodSinc, audio.QualityVeryHigh)
//	frames, _ := audio.ReadAll(resampled, 4096) // frames x channels *mat.Dense
//	audio.ApplyGain(frames, -40)
//
// # Resampling
//
// SincResampler is the default. It is a polyphase windowed-sinc converter
// with quality presets from QualityQuick to QualityVeryHigh. Resampler is a
// cheaper Catmull-Rom interpolator with a one-pole anti-alias filter when
// downsampling.
//
// # Channel Mixing
//
// MonoMixer averages channels. Some builds of the model executable only read
// mono input, so the pipeline can downmix before writing.
//
// # Decoders
//
// Registry maps a file extension to a Decoder; format packages under
// formats/ provide the implementations.
package audio
