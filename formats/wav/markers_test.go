// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"slices"
	"testing"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/internal/audiotest"
)

func TestScanMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		markers    []audio.Marker
		unlabelled []int
		want       []audio.Marker
	}{
		{
			name:    "none",
			markers: nil,
			want:    []audio.Marker{},
		},
		{
			name:    "labelled, sorted by position",
			markers: []audio.Marker{{Label: "loop", Position: 300}, {Label: "intro", Position: 10}},
			want:    []audio.Marker{{Label: "intro", Position: 10}, {Label: "loop", Position: 300}},
		},
		{
			name:       "unlabelled cue gets its id",
			markers:    []audio.Marker{{Label: "a", Position: 1}, {Label: "", Position: 2}},
			unlabelled: []int{2},
			want:       []audio.Marker{{Label: "a", Position: 1}, {Label: "cue2", Position: 2}},
		},
		{
			name:    "odd label length is padded",
			markers: []audio.Marker{{Label: "abc", Position: 5}, {Label: "de", Position: 6}},
			want:    []audio.Marker{{Label: "abc", Position: 5}, {Label: "de", Position: 6}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fixture := audiotest.WAV{
				Rate:       44100,
				Channels:   2,
				Format:     audio.Int16LE,
				Samples:    make([]float32, 2*400),
				Markers:    tt.markers,
				Unlabelled: tt.unlabelled,
			}

			got, rate, err := ScanMarkers(bytes.NewReader(fixture.Bytes()))
			if err != nil {
				t.Fatalf("ScanMarkers() error = %v", err)
			}
			if rate != 44100 {
				t.Errorf("ScanMarkers() rate = %d, want 44100", rate)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ScanMarkers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanMarkers_NotWAV(t *testing.T) {
	t.Parallel()

	_, _, err := ScanMarkers(bytes.NewReader([]byte("FORM\x00\x00\x00\x04AIFF")))
	if !errors.Is(err, ErrNotWavFile) {
		t.Errorf("ScanMarkers() error = %v, want ErrNotWavFile", err)
	}
}

func TestDecoder_ExposesMarkers(t *testing.T) {
	t.Parallel()

	fixture := audiotest.WAV{
		Rate:     8000,
		Channels: 1,
		Format:   audio.Int16LE,
		Samples:  make([]float32, 100),
		Markers:  []audio.Marker{{Label: "hit", Position: 42}},
	}

	src, err := Decoder{}.Decode(bytes.NewReader(fixture.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	ms, ok := src.(audio.MarkerSource)
	if !ok {
		t.Fatal("wav source does not implement audio.MarkerSource")
	}
	if got := ms.Markers(); !slices.Equal(got, []audio.Marker{{Label: "hit", Position: 42}}) {
		t.Errorf("Markers() = %v", got)
	}

	// trailing cue/LIST chunks must not leak into the samples
	buf := make([]float32, 200)
	n, _ := src.ReadSamples(buf)
	if n != 100 {
		t.Errorf("ReadSamples() n = %d, want 100", n)
	}
}
