// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"testing"
)

func TestSampleFormat_Layout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format    SampleFormat
		want      uint16
		bits      int
		isFloat   bool
		isBig     bool
		isSigned  bool
		name      string
	}{
		{Uint8, 0x0008, 8, false, false, false, "u8"},
		{Int16LE, 0x8010, 16, false, false, true, "s16le"},
		{Int16BE, 0x9010, 16, false, true, true, "s16be"},
		{Int24LE, 0x8018, 24, false, false, true, "s24le"},
		{Int24BE, 0x9018, 24, false, true, true, "s24be"},
		{Int32LE, 0x8020, 32, false, false, true, "s32le"},
		{Int32BE, 0x9020, 32, false, true, true, "s32be"},
		{Float32LE, 0x8120, 32, true, false, true, "f32le"},
		{Float32BE, 0x9120, 32, true, true, true, "f32be"},
		{Float64LE, 0x8140, 64, true, false, true, "f64le"},
		{Float64BE, 0x9140, 64, true, true, true, "f64be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if uint16(tt.format) != tt.want {
				t.Errorf("value = 0x%04x, want 0x%04x", uint16(tt.format), tt.want)
			}
			if got := NewSampleFormat(tt.bits, tt.isFloat, tt.isBig, tt.isSigned); got != tt.format {
				t.Errorf("NewSampleFormat() = %v, want %v", got, tt.format)
			}
			if tt.format.Bits() != tt.bits || tt.format.Bytes() != tt.bits/8 {
				t.Errorf("Bits()/Bytes() = %d/%d, want %d/%d", tt.format.Bits(), tt.format.Bytes(), tt.bits, tt.bits/8)
			}
			if tt.format.IsFloat() != tt.isFloat || tt.format.IsBigEndian() != tt.isBig || tt.format.IsSigned() != tt.isSigned {
				t.Errorf("flags = %v/%v/%v, want %v/%v/%v",
					tt.format.IsFloat(), tt.format.IsBigEndian(), tt.format.IsSigned(),
					tt.isFloat, tt.isBig, tt.isSigned)
			}
			if !tt.format.Valid() {
				t.Error("Valid() = false, want true")
			}
			if tt.format.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.format.String(), tt.name)
			}
			parsed, err := ParseSampleFormat(tt.name)
			if err != nil || parsed != tt.format {
				t.Errorf("ParseSampleFormat(%q) = (%v, %v), want %v", tt.name, parsed, err, tt.format)
			}
		})
	}
}

func TestSampleFormat_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		format SampleFormat
	}{
		{"unknown", FormatUnknown},
		{"signed 8-bit", NewSampleFormat(8, false, false, true)},
		{"float 16-bit", NewSampleFormat(16, true, false, true)},
		{"unsigned 16-bit", NewSampleFormat(16, false, false, false)},
		{"integer 64-bit", NewSampleFormat(64, false, false, true)},
		{"12-bit", NewSampleFormat(12, false, false, true)},
		{"stray flag", Int16LE | 1<<10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if tt.format.Valid() {
				t.Errorf("%v.Valid() = true, want false", tt.format)
			}
		})
	}
}

func TestSampleFormat_Native(t *testing.T) {
	t.Parallel()

	if !Float32.IsNative() || !Int16.IsNative() || !Uint8.IsNative() {
		t.Error("native aliases report a foreign byte order")
	}
	if Float32 != Float32LE && Float32 != Float32BE {
		t.Errorf("Float32 = %v, want one of the float32 layouts", Float32)
	}
	if Float32LE.IsNative() == Float32BE.IsNative() {
		t.Error("Float32LE and Float32BE cannot both match the host")
	}
}

func TestParseSampleFormat_Unknown(t *testing.T) {
	t.Parallel()

	if _, err := ParseSampleFormat("s12"); !errors.Is(err, ErrInvalidEnum) {
		t.Errorf("ParseSampleFormat(\"s12\") error = %v, want ErrInvalidEnum", err)
	}
	if f, err := ParseSampleFormat("f32"); err != nil || f != Float32 {
		t.Errorf("ParseSampleFormat(\"f32\") = (%v, %v), want %v", f, err, Float32)
	}
}
