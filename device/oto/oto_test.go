// SPDX-License-Identifier: EPL-2.0

package oto

import (
	"encoding/binary"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/ik5/audmix/audio"
)

func newTestDevice(channels int, cb func([]float32, int)) *Device {
	d := New(slog.New(slog.DiscardHandler))
	d.r.Store(&renderer{cb: cb, channels: channels})
	return d
}

func TestDevice_Read(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		channels int
		bytes    int
		want     int
	}{
		{"stereo whole frames", 2, 64, 64},
		{"stereo partial frame", 2, 70, 64},
		{"mono", 1, 12, 12},
		{"less than a frame", 2, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var gotFrames int
			d := newTestDevice(tt.channels, func(out []float32, frames int) {
				gotFrames = frames
				for i := range out {
					out[i] = float32(i) / 8
				}
			})

			p := make([]byte, tt.bytes)
			n, err := d.Read(p)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if n != tt.want {
				t.Errorf("Read() = %d, want %d", n, tt.want)
			}
			if gotFrames*tt.channels*4 != tt.want {
				t.Errorf("callback frames = %d, want %d", gotFrames, tt.want/(tt.channels*4))
			}
			for i := 0; i+4 <= n; i += 4 {
				got := math.Float32frombits(binary.LittleEndian.Uint32(p[i:]))
				if want := float32(i/4) / 8; got != want {
					t.Errorf("sample %d = %v, want %v", i/4, got, want)
				}
			}
		})
	}
}

func TestDevice_ReadClosedIsSilent(t *testing.T) {
	t.Parallel()

	d := New(nil)
	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := d.Read(p)
	if err != nil || n != len(p) {
		t.Fatalf("Read() = %d, %v, want %d, nil", n, err, len(p))
	}
	for i, b := range p {
		if b != 0 {
			t.Errorf("p[%d] = %d, want 0", i, b)
		}
	}
}

func TestDevice_NotOpen(t *testing.T) {
	t.Parallel()

	d := New(nil)
	if d.IsOpen() || d.IsRunning() {
		t.Error("new device reports open or running")
	}
	if err := d.Suspend(); !errors.Is(err, audio.ErrLogic) {
		t.Errorf("Suspend() error = %v, want %v", err, audio.ErrLogic)
	}
	if err := d.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
	if _, err := d.Read(nil); err != nil {
		t.Errorf("Read(nil) error = %v", err)
	}
}

func BenchmarkDevice_Read(b *testing.B) {
	d := newTestDevice(2, func(out []float32, _ int) {
		for i := range out {
			out[i] = 0.25
		}
	})
	d.buf = make([]float32, 1024)
	p := make([]byte, 4096)

	b.ReportAllocs()
	for b.Loop() {
		_, _ = d.Read(p)
	}
}
