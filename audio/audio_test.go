// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
)

type mockDecoder struct {
	name string
}

func (d *mockDecoder) Decode(r io.Reader) (Source, error) {
	return newSilentSource(44100, 2, 100), nil
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &mockDecoder{name: "wav"}
	mp3Decoder := &mockDecoder{name: "mp3"}
	oggDecoder := &mockDecoder{name: "ogg"}

	registry.Register("wav", wavDecoder, ".wav", ".WAVE")
	registry.Register("mp3", mp3Decoder)
	registry.Register("ogg", oggDecoder, "oga")

	tests := []struct {
		format string
		want   Decoder
		wantOK bool
	}{
		{"wav", wavDecoder, true},
		{"wave", wavDecoder, true},
		{"WAV", wavDecoder, true},
		{"mp3", mp3Decoder, true},
		{"ogg", oggDecoder, true},
		{"oga", oggDecoder, true},
		{"flac", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, ok := registry.Get(tt.format)
			if ok != tt.wantOK {
				t.Errorf("Registry.Get(%q) ok = %v, want %v", tt.format, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Registry.Get(%q) returned wrong decoder", tt.format)
			}
		})
	}

	if got, want := registry.Formats(), []string{"mp3", "ogg", "wav"}; !slices.Equal(got, want) {
		t.Errorf("Registry.Formats() = %v, want %v", got, want)
	}
}

func TestRegistry_Overwrite(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder1 := &mockDecoder{name: "first"}
	decoder2 := &mockDecoder{name: "second"}

	registry.Register("wav", decoder1)
	registry.Register("wav", decoder2)

	got, ok := registry.Get("wav")
	if !ok {
		t.Fatal("Registry.Get() failed after overwrite")
	}
	if got != decoder2 {
		t.Error("Registry.Get() did not return the overwritten decoder")
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	decoder := &mockDecoder{name: "test"}

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() { registry.Register("format", decoder) })
		wg.Go(func() { _, _ = registry.Get("format") })
	}
	wg.Wait()

	got, ok := registry.Get("format")
	if !ok || got != decoder {
		t.Errorf("Registry.Get() = (%v, %v) after concurrent operations", got, ok)
	}
}

func TestRegistry_Detect(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	wavDecoder := &mockDecoder{name: "wav"}
	mp3Decoder := &mockDecoder{name: "mp3"}
	registry.Register("wav", wavDecoder)
	registry.Register("mp3", mp3Decoder)

	riff := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

	tests := []struct {
		name       string
		header     []byte
		path       string
		wantFormat string
		want       Decoder
		wantErr    bool
	}{
		{"signature wins over extension", riff, "song.mp3", "wav", wavDecoder, false},
		{"extension fallback", []byte("garbage data"), "song.MP3", "mp3", mp3Decoder, false},
		{"unregistered signature falls back", []byte("fLaC\x00\x00\x00\x22"), "x.wav", "wav", wavDecoder, false},
		{"nothing matches", []byte("garbage data"), "notes.txt", "", nil, true},
		{"no extension", nil, "noext", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			format, d, err := registry.Detect(tt.header, tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Detect() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrUnsupported) {
					t.Errorf("Detect() error = %v, want ErrUnsupported", err)
				}
				return
			}
			if format != tt.wantFormat || d != tt.want {
				t.Errorf("Detect() = (%q, %v), want (%q, %v)", format, d, tt.wantFormat, tt.want)
			}
		})
	}
}

func TestSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   string
	}{
		{"wav", []byte("RIFF\x00\x00\x00\x00WAVE"), "wav"},
		{"riff but not wave", []byte("RIFF\x00\x00\x00\x00AVI "), ""},
		{"aiff", []byte("FORM\x00\x00\x00\x00AIFF"), "aiff"},
		{"aifc", []byte("FORM\x00\x00\x00\x00AIFC"), "aiff"},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), "flac"},
		{"ogg", []byte("OggS\x00\x02"), "ogg"},
		{"mp3 id3", []byte("ID3\x04\x00"), "mp3"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x64}, "mp3"},
		{"short", []byte("RI"), ""},
		{"empty", nil, ""},
		{"text", []byte("hello world!"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Sniff(tt.header); got != tt.want {
				t.Errorf("Sniff(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func BenchmarkRegistry_Get(b *testing.B) {
	registry := NewRegistry()
	registry.Register("wav", &mockDecoder{}, "wave")

	b.ReportAllocs()

	for b.Loop() {
		_, _ = registry.Get("wave")
	}
}

func BenchmarkRegistry_ConcurrentRegisterGet(b *testing.B) {
	registry := NewRegistry()
	decoder := &mockDecoder{}

	b.ReportAllocs()

	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				registry.Register("wav", decoder)
			} else {
				_, _ = registry.Get("wav")
			}
			i++
		}
	})
}
