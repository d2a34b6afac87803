// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"
	"fmt"
)

// SampleFormat describes the encoding of a single PCM sample.
//
// Layout (SDL style flags):
//
//	bits 0-7   bit depth (8, 16, 24, 32, 64)
//	bit  8     float
//	bit  12    big endian
//	bit  15    signed
type SampleFormat uint16

const (
	formatBitsMask   SampleFormat = 0xFF
	formatFloatBit   SampleFormat = 1 << 8
	formatBigEndBit  SampleFormat = 1 << 12
	formatSignedBit  SampleFormat = 1 << 15
	formatKnownFlags              = formatBitsMask | formatFloatBit | formatBigEndBit | formatSignedBit
)

const (
	FormatUnknown SampleFormat = 0

	Uint8     SampleFormat = 8
	Int16LE   SampleFormat = 16 | formatSignedBit
	Int16BE   SampleFormat = 16 | formatSignedBit | formatBigEndBit
	Int24LE   SampleFormat = 24 | formatSignedBit
	Int24BE   SampleFormat = 24 | formatSignedBit | formatBigEndBit
	Int32LE   SampleFormat = 32 | formatSignedBit
	Int32BE   SampleFormat = 32 | formatSignedBit | formatBigEndBit
	Float32LE SampleFormat = 32 | formatFloatBit | formatSignedBit
	Float32BE SampleFormat = 32 | formatFloatBit | formatSignedBit | formatBigEndBit
	Float64LE SampleFormat = 64 | formatFloatBit | formatSignedBit
	Float64BE SampleFormat = 64 | formatFloatBit | formatSignedBit | formatBigEndBit
)

// Native-endian aliases.
var (
	Int16   = nativeFormat(Int16LE, Int16BE)
	Int24   = nativeFormat(Int24LE, Int24BE)
	Int32   = nativeFormat(Int32LE, Int32BE)
	Float32 = nativeFormat(Float32LE, Float32BE)
	Float64 = nativeFormat(Float64LE, Float64BE)
)

// Formats lists every named format.
var Formats = []SampleFormat{
	Uint8,
	Int16LE, Int16BE,
	Int24LE, Int24BE,
	Int32LE, Int32BE,
	Float32LE, Float32BE,
	Float64LE, Float64BE,
}

var nativeIsBigEndian = func() bool {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], 1)
	return b[0] == 0
}()

func nativeFormat(le, be SampleFormat) SampleFormat {
	if nativeIsBigEndian {
		return be
	}
	return le
}

// NewSampleFormat assembles a format from its parts. The result is not
// validated; call Valid.
func NewSampleFormat(bits int, isFloat, isBigEndian, isSigned bool) SampleFormat {
	f := SampleFormat(bits) & formatBitsMask
	if isFloat {
		f |= formatFloatBit
	}
	if isBigEndian {
		f |= formatBigEndBit
	}
	if isSigned {
		f |= formatSignedBit
	}
	return f
}

func (f SampleFormat) Bits() int         { return int(f & formatBitsMask) }
func (f SampleFormat) Bytes() int        { return f.Bits() / 8 }
func (f SampleFormat) IsFloat() bool     { return f&formatFloatBit != 0 }
func (f SampleFormat) IsBigEndian() bool { return f&formatBigEndBit != 0 }
func (f SampleFormat) IsSigned() bool    { return f&formatSignedBit != 0 }

// IsNative reports whether the byte order matches the host.
func (f SampleFormat) IsNative() bool {
	return f.Bytes() <= 1 || f.IsBigEndian() == nativeIsBigEndian
}

// Valid reports whether the format can be converted.
func (f SampleFormat) Valid() bool {
	if f&^formatKnownFlags != 0 {
		return false
	}
	switch f.Bits() {
	case 8:
		// 8-bit is always unsigned integer; signed 8-bit is not a format
		// any decoder backend emits.
		return !f.IsFloat() && !f.IsSigned()
	case 16, 24:
		return !f.IsFloat() && f.IsSigned()
	case 32:
		return f.IsSigned()
	case 64:
		return f.IsFloat() && f.IsSigned()
	}
	return false
}

func (f SampleFormat) String() string {
	switch f {
	case Uint8:
		return "u8"
	case Int16LE:
		return "s16le"
	case Int16BE:
		return "s16be"
	case Int24LE:
		return "s24le"
	case Int24BE:
		return "s24be"
	case Int32LE:
		return "s32le"
	case Int32BE:
		return "s32be"
	case Float32LE:
		return "f32le"
	case Float32BE:
		return "f32be"
	case Float64LE:
		return "f64le"
	case Float64BE:
		return "f64be"
	}
	return fmt.Sprintf("SampleFormat(0x%04x)", uint16(f))
}

// ParseSampleFormat is the inverse of String.
func ParseSampleFormat(s string) (SampleFormat, error) {
	for _, f := range Formats {
		if f.String() == s {
			return f, nil
		}
	}
	switch s {
	case "f32", "float32":
		return Float32, nil
	case "s16", "int16":
		return Int16, nil
	}
	return FormatUnknown, Errorf(ErrInvalidEnum, "audio.ParseSampleFormat", "unknown sample format %q", s)
}
