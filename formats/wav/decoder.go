// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audmix/audio"
)

const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

// wavReader is the part of wav.Decoder used for integer PCM, to allow testing
type wavReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio wav.Decoder to implement audio.Source
type source struct {
	rs         io.ReadSeeker
	dec        wavReader
	raw        io.Reader // data chunk, used for float samples
	rawFormat  audio.SampleFormat
	rawBuf     []byte
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	pos        int64
	intBuf     *goaudio.IntBuffer
	markers    []audio.Marker
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) Frames() int64   { return s.frames }
func (s *source) BufSize() int {
	if s.intBuf != nil {
		return cap(s.intBuf.Data)
	}
	return 4096
}

// Markers returns the cue points of the file, in frames at SampleRate.
func (s *source) Markers() []audio.Marker { return s.markers }

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	// stop at the end of the data chunk even if trailing chunks follow
	want := len(dst)
	if s.frames >= 0 {
		remaining := (s.frames - s.pos) * int64(s.channels)
		if remaining <= 0 {
			return 0, io.EOF
		}
		if int64(want) > remaining {
			want = int(remaining)
		}
	}

	var n int
	var err error
	if s.raw != nil {
		n, err = s.readRaw(dst[:want])
	} else {
		n, err = s.readInt(dst[:want])
	}
	s.pos += int64(n / s.channels)

	if n == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		return 0, io.EOF
	}
	if n < len(dst) && err == nil {
		return n, io.EOF
	}
	return n, err
}

func (s *source) readInt(dst []float32) (int, error) {
	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	// whole frames only
	n -= n % s.channels

	switch s.bitDepth {
	case 8:
		// 8-bit WAV is unsigned
		for i := range n {
			dst[i] = float32(s.intBuf.Data[i]-128) / 128.0
		}
	default:
		maxVal := float32(int64(1) << (s.bitDepth - 1))
		for i := range n {
			dst[i] = float32(s.intBuf.Data[i]) / maxVal
		}
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w", err)
	}
	return n, err
}

func (s *source) readRaw(dst []float32) (int, error) {
	bps := s.rawFormat.Bytes()
	need := len(dst) * bps
	if cap(s.rawBuf) < need {
		s.rawBuf = make([]byte, need)
	}
	s.rawBuf = s.rawBuf[:need]

	got, err := io.ReadFull(s.raw, s.rawBuf)
	n := got / bps
	n -= n % s.channels
	if cerr := audio.ConvertToFloat32(s.rawBuf[:n*bps], s.rawFormat, dst[:n]); cerr != nil {
		return 0, cerr
	}

	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w", err)
	}
	return n, err
}

// SeekFrame repositions to frame by re-reading the header and skipping
// forward through the data chunk.
func (s *source) SeekFrame(frame int64) error {
	if frame < 0 || (s.frames >= 0 && frame > s.frames) {
		return ErrSeekOutOfRange
	}
	if s.rs == nil {
		return audio.Errorf(audio.ErrUnsupported, "wav.SeekFrame", "source is not seekable")
	}

	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w", err)
	}
	dec := wav.NewDecoder(s.rs)
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("%w", err)
	}
	s.dec = dec
	if s.raw != nil {
		s.raw = dec.PCMChunk
	}
	s.pos = 0

	buf := make([]float32, 1024*s.channels)
	for s.pos < frame {
		want := min(int64(len(buf)/s.channels), frame-s.pos)
		n, err := s.ReadSamples(buf[:want*int64(s.channels)])
		if n == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return ErrSeekOutOfRange
			}
			return err
		}
	}
	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	// markers are best effort; a malformed cue chunk does not stop decoding
	markers, _, err := ScanMarkers(rs)
	if err != nil {
		markers = nil
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotWavFile
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	dec = wav.NewDecoder(rs)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	channels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if channels <= 0 || dec.SampleRate == 0 {
		return nil, ErrUnsupportedWavLayout
	}

	s := &source{
		rs:         rs,
		dec:        dec,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
		frames:     -1,
		markers:    markers,
	}

	switch dec.WavAudioFormat {
	case formatPCM, formatExtensible:
		switch bitDepth {
		case 8, 16, 24, 32:
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
		}
	case formatIEEEFloat:
		switch bitDepth {
		case 32:
			s.rawFormat = audio.Float32LE
		case 64:
			s.rawFormat = audio.Float64LE
		default:
			return nil, fmt.Errorf("%w: float %d", ErrUnsupportedBitDepth, bitDepth)
		}
		s.raw = dec.PCMChunk
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedWavFormat, dec.WavAudioFormat)
	}

	if blockAlign := int64(channels * bitDepth / 8); blockAlign > 0 {
		s.frames = dec.PCMLen() / blockAlign
	}

	return s, nil
}
