// SPDX-License-Identifier: EPL-2.0

// Package carfacnap computes neural activation patterns (NAPs) with the
// external CARFAC cochlear model.
//
// The model itself is a separate program, carfac-cmd. This module prepares
// its input and post-processes its output:
//
//  1. decode a WAV (16-bit PCM), MP3, Ogg Vorbis or AIFF file
//  2. resample to the model rate with a band-limited sinc filter
//  3. apply gain in dB
//  4. write <file>-audio.txt, one frame per line
//  5. run carfac-cmd with positional arguments and wait for it
//  6. read <file><suffix> and normalize it to sqrt(max(0, x) / max)
//
// # Quick Start
//
//	opts := carfacnap.DefaultOptions()
//	opts.Stride = 256
//	opts.Rate = 44100
//
//	nap, err := carfacnap.Cochlear(ctx, "drums.wav", "./bin", opts)
//	if err != nil {
//	    var exitErr *carfac.ExitError
//	    if errors.As(err, &exitErr) {
//	        log.Printf("model failed: %s", exitErr.Stderr)
//	    }
//	}
//	rows, channels := nap.Dims()
//
// # Packages
//
//   - audio: streaming sources, resamplers, gain, channel mixing
//   - formats: decoders and the WAV writer
//   - dlm: delimited text matrices
//   - carfac: the executable runner
//   - nap: normalization, smoothing and decimation
//   - sai: stabilized auditory images
//   - cache: SQLite NAP cache
//
// The carfacnap command in cmd/carfacnap wraps all of this with
// configuration files, batch processing and logging.
package carfacnap
