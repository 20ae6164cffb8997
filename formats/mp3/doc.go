// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III through github.com/hajimehoshi/go-mp3.
//
// The decoder always yields two channels, even for mono files; go-mp3
// duplicates mono content into both. Downmix with audio.MonoMixer before
// feeding the cochlear model.
package mp3
