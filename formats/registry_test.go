// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ik5/carfacnap/audio"
	"github.com/ik5/carfacnap/formats/wav"
)

func TestNewRegistry_Formats(t *testing.T) {
	t.Parallel()

	got := NewRegistry().Formats()
	want := []string{"aif", "aiff", "mp3", "oga", "ogg", "wav", "wave"}

	if !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tone.WAV")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := wav.WriteWAV16(f, 16000, 1, []int16{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	f.Close()

	src, err := Open(NewRegistry(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	if src.SampleRate() != 16000 {
		t.Errorf("SampleRate() = %d, want 16000", src.SampleRate())
	}
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	reg := NewRegistry()

	if _, err := Open(reg, filepath.Join(dir, "notes.txt")); !errors.Is(err, audio.ErrUnknownFormat) {
		t.Errorf("Open(.txt) error = %v, want %v", err, audio.ErrUnknownFormat)
	}

	if _, err := Open(reg, filepath.Join(dir, "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want %v", err, os.ErrNotExist)
	}

	garbage := filepath.Join(dir, "garbage.wav")
	if err := os.WriteFile(garbage, []byte("nope, not a wav"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(reg, garbage); !errors.Is(err, wav.ErrNotWavFile) {
		t.Errorf("Open(garbage) error = %v, want %v", err, wav.ErrNotWavFile)
	}
}
