// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audmix/audio"
)

func TestWriter_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		bitDepth int
		channels int
	}{
		{"16-bit stereo", 16, 2},
		{"24-bit mono", 24, 1},
		{"32-bit stereo", 32, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "out.wav")
			f, err := os.Create(path)
			if err != nil {
				t.Fatal(err)
			}

			w, err := NewWriter(f, 48000, tt.channels, tt.bitDepth)
			if err != nil {
				t.Fatalf("NewWriter() error = %v", err)
			}

			in := make([]float32, 480*tt.channels)
			for i := range in {
				in[i] = float32(math.Sin(float64(i)*0.05)) * 0.8
			}
			// two writes, to check the header covers both
			if err := w.Write(in[:240*tt.channels]); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if err := w.Write(in[240*tt.channels:]); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if w.Frames() != 480 {
				t.Errorf("Frames() = %d, want 480", w.Frames())
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if err := f.Close(); err != nil {
				t.Fatal(err)
			}

			rf, err := os.Open(path)
			if err != nil {
				t.Fatal(err)
			}
			defer rf.Close()

			src, err := Decoder{}.Decode(rf)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if l, ok := src.(audio.Lengther); !ok || l.Frames() != 480 {
				t.Errorf("Frames() of written file = %v, want 480", l)
			}

			out := make([]float32, len(in))
			n, err := src.ReadSamples(out)
			if err != nil && err != io.EOF {
				t.Fatalf("ReadSamples() error = %v", err)
			}
			if n != len(in) {
				t.Fatalf("ReadSamples() n = %d, want %d", n, len(in))
			}

			tolerance := 2.0 / math.Pow(2, float64(tt.bitDepth-1))
			for i := range in {
				if math.Abs(float64(out[i]-in[i])) > tolerance {
					t.Fatalf("sample %d = %v, want %v", i, out[i], in[i])
				}
			}
		})
	}
}

func TestNewWriter_Invalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := NewWriter(f, 48000, 2, 12); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("NewWriter(12 bit) error = %v, want ErrUnsupportedBitDepth", err)
	}
	if _, err := NewWriter(f, 48000, 0, 16); !errors.Is(err, audio.ErrInvalidArg) {
		t.Errorf("NewWriter(0 channels) error = %v, want ErrInvalidArg", err)
	}
}
