// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis through github.com/jfreymuth/oggvorbis.
//
// Vorbis is a float codec, so samples are passed through as decoded rather
// than being forced through 16-bit PCM.
package vorbis
