// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes 16-bit PCM WAV files.
//
// Decoding goes through github.com/go-audio/wav, so LIST, fact and other
// auxiliary chunks are skipped. Only 16-bit integer PCM (format tag 1, or
// WAVE_FORMAT_EXTENSIBLE carrying 16-bit samples) is accepted; anything else
// fails with ErrOnlyPCM16bitSupported.
//
//	file, _ := os.Open("speech.wav")
//	src, err := wav.Decoder{}.Decode(file)
//	if errors.Is(err, wav.ErrOnlyPCM16bitSupported) {
//	    // convert the file first
//	}
//
// Samples come out as float32 in [-1, 1) (int16 / 32768).
//
// WriteWAV16 emits a canonical 44-byte header followed by interleaved
// samples, which is the layout the cochlear model executable expects.
package wav
