// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"encoding/binary"
	"math"
)

// Integer scale factors. Decoding divides by these, encoding multiplies
// and clamps, so a round trip through float is lossless for every format
// whose precision fits the intermediate float.
const (
	scale8  = 128.0
	scale16 = 32768.0
	scale24 = 8388608.0
	scale32 = 2147483648.0
)

// Convert reads samples interleaved samples (frames * channels) encoded
// as srcFmt from src and writes them encoded as dstFmt to dst.
//
// Both formats and both buffer lengths are validated before anything is
// written, so dst is untouched on error.
func Convert(src []byte, srcFmt SampleFormat, dst []byte, dstFmt SampleFormat, samples int) error {
	const op = "audio.Convert"

	if !srcFmt.Valid() {
		return Errorf(ErrInvalidEnum, op, "source format %v", srcFmt)
	}
	if !dstFmt.Valid() {
		return Errorf(ErrInvalidEnum, op, "destination format %v", dstFmt)
	}
	if samples < 0 {
		return Errorf(ErrInvalidArg, op, "negative sample count %d", samples)
	}
	if len(src) < samples*srcFmt.Bytes() {
		return Errorf(ErrInvalidArg, op, "source holds %d bytes, need %d", len(src), samples*srcFmt.Bytes())
	}
	if len(dst) < samples*dstFmt.Bytes() {
		return Errorf(ErrInvalidArg, op, "destination holds %d bytes, need %d", len(dst), samples*dstFmt.Bytes())
	}

	if srcFmt == dstFmt {
		copy(dst, src[:samples*srcFmt.Bytes()])
		return nil
	}

	sb, db := srcFmt.Bytes(), dstFmt.Bytes()
	for i := range samples {
		v := decodeSample(src[i*sb:], srcFmt)
		encodeSample(dst[i*db:], dstFmt, v)
	}

	return nil
}

// ConvertToFloat32 decodes len(dst) samples from src into canonical float.
func ConvertToFloat32(src []byte, srcFmt SampleFormat, dst []float32) error {
	const op = "audio.ConvertToFloat32"

	if !srcFmt.Valid() {
		return Errorf(ErrInvalidEnum, op, "source format %v", srcFmt)
	}
	sb := srcFmt.Bytes()
	if len(src) < len(dst)*sb {
		return Errorf(ErrInvalidArg, op, "source holds %d bytes, need %d", len(src), len(dst)*sb)
	}

	if srcFmt == Float32LE {
		for i := range dst {
			dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(src[i*4:]))
		}
		return nil
	}

	for i := range dst {
		dst[i] = float32(decodeSample(src[i*sb:], srcFmt))
	}
	return nil
}

// ConvertFromFloat32 encodes every sample of src into dst as dstFmt.
func ConvertFromFloat32(src []float32, dst []byte, dstFmt SampleFormat) error {
	const op = "audio.ConvertFromFloat32"

	if !dstFmt.Valid() {
		return Errorf(ErrInvalidEnum, op, "destination format %v", dstFmt)
	}
	db := dstFmt.Bytes()
	if len(dst) < len(src)*db {
		return Errorf(ErrInvalidArg, op, "destination holds %d bytes, need %d", len(dst), len(src)*db)
	}

	if dstFmt == Float32LE {
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
		}
		return nil
	}

	for i, v := range src {
		encodeSample(dst[i*db:], dstFmt, float64(v))
	}
	return nil
}

func byteOrder(f SampleFormat) binary.ByteOrder {
	if f.IsBigEndian() {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func decodeSample(b []byte, f SampleFormat) float64 {
	order := byteOrder(f)

	switch f.Bits() {
	case 8:
		return (float64(b[0]) - scale8) / scale8
	case 16:
		return float64(int16(order.Uint16(b))) / scale16
	case 24:
		var u uint32
		if f.IsBigEndian() {
			u = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
		} else {
			u = uint32(b[2])<<16 | uint32(b[1])<<8 | uint32(b[0])
		}
		// sign extend from bit 23
		v := int32(u<<8) >> 8
		return float64(v) / scale24
	case 32:
		if f.IsFloat() {
			return float64(math.Float32frombits(order.Uint32(b)))
		}
		return float64(int32(order.Uint32(b))) / scale32
	case 64:
		return math.Float64frombits(order.Uint64(b))
	}

	return 0
}

func encodeSample(b []byte, f SampleFormat, v float64) {
	order := byteOrder(f)

	switch f.Bits() {
	case 8:
		b[0] = uint8(clampRound(v*scale8+scale8, 0, 255))
	case 16:
		order.PutUint16(b, uint16(int16(clampRound(v*scale16, math.MinInt16, math.MaxInt16))))
	case 24:
		u := uint32(int32(clampRound(v*scale24, -scale24, scale24-1)))
		if f.IsBigEndian() {
			b[0], b[1], b[2] = byte(u>>16), byte(u>>8), byte(u)
		} else {
			b[0], b[1], b[2] = byte(u), byte(u>>8), byte(u>>16)
		}
	case 32:
		if f.IsFloat() {
			order.PutUint32(b, math.Float32bits(float32(v)))
			return
		}
		order.PutUint32(b, uint32(int32(clampRound(v*scale32, math.MinInt32, math.MaxInt32))))
	case 64:
		order.PutUint64(b, math.Float64bits(v))
	}
}

func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
