// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"
)

func TestSpec_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    Spec
		wantErr error
	}{
		{"stereo float", Spec{Freq: 48000, Channels: 2, Format: Float32}, nil},
		{"mono s16", Spec{Freq: 8000, Channels: 1, Format: Int16LE}, nil},
		{"max channels", Spec{Freq: 44100, Channels: MaxChannels, Format: Int24BE}, nil},
		{"zero rate", Spec{Freq: 0, Channels: 2, Format: Float32}, ErrInvalidArg},
		{"zero channels", Spec{Freq: 48000, Channels: 0, Format: Float32}, ErrInvalidArg},
		{"too many channels", Spec{Freq: 48000, Channels: MaxChannels + 1, Format: Float32}, ErrInvalidArg},
		{"bad format", Spec{Freq: 48000, Channels: 2}, ErrInvalidEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.spec.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() error = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSpec_Sizes(t *testing.T) {
	t.Parallel()

	s := Spec{Freq: 48000, Channels: 2, Format: Int24LE}
	if got := s.BytesPerFrame(); got != 6 {
		t.Errorf("BytesPerFrame() = %d, want 6", got)
	}
	if got := s.BytesPerSecond(); got != 288000 {
		t.Errorf("BytesPerSecond() = %d, want 288000", got)
	}
	if got := s.FramesFor(10 * time.Millisecond); got != 480 {
		t.Errorf("FramesFor(10ms) = %d, want 480", got)
	}
	if got := s.DurationOf(24000); got != 500*time.Millisecond {
		t.Errorf("DurationOf(24000) = %v, want 500ms", got)
	}
	if got := (Spec{}).DurationOf(100); got != 0 {
		t.Errorf("zero Spec DurationOf() = %v, want 0", got)
	}
	if got := s.String(); got != "48000Hz 2ch s24le" {
		t.Errorf("String() = %q", got)
	}
}

func TestConvertTime(t *testing.T) {
	t.Parallel()

	spec := Spec{Freq: 48000, Channels: 2, Format: Float32LE}

	tests := []struct {
		name  string
		value float64
		from  TimeUnit
		to    TimeUnit
		want  float64
	}{
		{"ms to frames", 10, Millis, Frames, 480},
		{"us to frames", 1000, Micros, Frames, 48},
		{"frames to ms", 480, Frames, Millis, 10},
		{"frames to us", 48, Frames, Micros, 1000},
		{"frames to bytes", 480, Frames, Bytes, 3840},
		{"bytes to frames", 3840, Bytes, Frames, 480},
		{"partial frame bytes truncate", 3845, Bytes, Frames, 480},
		{"bytes to ms", 384000, Bytes, Millis, 1000},
		{"fractional frames truncate", 0.5, Millis, Frames, 24},
		{"same unit", 123.25, Millis, Millis, 123.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ConvertTime(tt.value, tt.from, tt.to, spec)
			if err != nil {
				t.Fatalf("ConvertTime() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertTime(%v %v -> %v) = %v, want %v", tt.value, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestConvertTime_Errors(t *testing.T) {
	t.Parallel()

	if _, err := ConvertTime(1, Millis, Frames, Spec{}); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("zero rate error = %v, want ErrInvalidArg", err)
	}
	spec := Spec{Freq: 48000, Channels: 2, Format: Float32}
	if _, err := ConvertTime(1, TimeUnit(42), Frames, spec); !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("bad unit error = %v, want ErrInvalidEnum", err)
	}
	if _, err := ConvertTime(1, Bytes, Frames, Spec{Freq: 48000}); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("frameless spec error = %v, want ErrInvalidArg", err)
	}
}

func TestRescaleMarkers(t *testing.T) {
	t.Parallel()

	in := []Marker{{Label: "intro", Position: 0}, {Label: "drop", Position: 44100}}

	got := RescaleMarkers(in, 44100, 48000)
	want := []Marker{{Label: "intro", Position: 0}, {Label: "drop", Position: 48000}}
	if !slices.Equal(got, want) {
		t.Errorf("RescaleMarkers() = %v, want %v", got, want)
	}
	if in[1].Position != 44100 {
		t.Error("RescaleMarkers() modified its input")
	}

	if got := RescaleMarkers(in, 48000, 48000); !slices.Equal(got, in) {
		t.Errorf("RescaleMarkers() at equal rates = %v, want %v", got, in)
	}
	if got := RescaleMarkers(nil, 1, 2); got != nil {
		t.Errorf("RescaleMarkers(nil) = %v, want nil", got)
	}
}
