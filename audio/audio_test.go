// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/ik5/carfacnap/internal/audiotest"
)

type stubDecoder struct {
	name string
}

func (d *stubDecoder) Decode(io.Reader) (Source, error) {
	return audiotest.NewSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &stubDecoder{name: "wav"}

	registry.Register("wav", decoder)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed to retrieve registered decoder")
	}

	if got != decoder {
		t.Error("Registry.Get() returned different decoder instance")
	}
}

func TestRegistry_CaseAndDot(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &stubDecoder{name: "wav"}
	registry.Register(".WAV", decoder)

	for _, key := range []string{"wav", "WAV", ".wav", ".Wav"} {
		if got, ok := registry.Get(key); !ok || got != decoder {
			t.Errorf("Registry.Get(%q) = %v, %v", key, got, ok)
		}
	}
}

func TestRegistry_ForPath(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &stubDecoder{name: "wav"}
	oggDecoder := &stubDecoder{name: "ogg"}
	registry.Register("wav", wavDecoder)
	registry.Register("ogg", oggDecoder)

	tests := []struct {
		path    string
		want    Decoder
		wantErr error
	}{
		{"drums.wav", wavDecoder, nil},
		{"/data/set/Drums.WAV", wavDecoder, nil},
		{"voice.ogg", oggDecoder, nil},
		{"song.flac", nil, ErrUnknownFormat},
		{"noextension", nil, ErrUnknownFormat},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := registry.ForPath(tt.path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ForPath() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ForPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRegistry_Formats(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, f := range []string{"ogg", "wav", "aiff", "mp3"} {
		registry.Register(f, &stubDecoder{name: f})
	}

	want := []string{"aiff", "mp3", "ogg", "wav"}
	if got := registry.Formats(); !slices.Equal(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Register(fmt.Sprintf("fmt%d", i), &stubDecoder{})
		}()
		go func() {
			defer wg.Done()
			registry.Get(fmt.Sprintf("fmt%d", i))
		}()
	}
	wg.Wait()

	if got := len(registry.Formats()); got != 50 {
		t.Errorf("len(Formats()) = %d, want 50", got)
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &stubDecoder{})

	b.ReportAllocs()

	for range b.N {
		registry.Get("wav")
	}
}
