// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/ik5/audmix/audio"
)

// ErrSeekOutOfRange is returned when seeking past the end of the stream.
var ErrSeekOutOfRange = errors.New("vorbis: seek position out of range")

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	SetPosition(pos int64) error
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	seekable   bool
	carry      []float32 // samples of a partial frame held over from the last read
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return 4096 }

// Frames reports the stream length, or -1 when it is unknown.
func (s *source) Frames() int64 {
	if n := s.dec.Length(); n > 0 {
		return n
	}
	return -1
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	got := copy(dst, s.carry)
	s.carry = s.carry[got:]

	// oggvorbis returns interleaved values and may stop mid packet
	var err error
	for got < len(dst) && err == nil {
		var n int
		n, err = s.dec.Read(dst[got:])
		got += n
		if n == 0 && err == nil {
			break
		}
	}

	whole := got - got%s.channels
	if whole < got {
		s.carry = append(s.carry[:0], dst[whole:got]...)
	}
	if whole == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return whole, fmt.Errorf("%w", err)
	}
	return whole, err
}

// SeekFrame moves the read cursor to frame.
func (s *source) SeekFrame(frame int64) error {
	if !s.seekable {
		return audio.Errorf(audio.ErrUnsupported, "vorbis.SeekFrame", "source is not seekable")
	}
	if frame < 0 {
		return ErrSeekOutOfRange
	}
	if n := s.Frames(); n >= 0 && frame > n {
		return ErrSeekOutOfRange
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return audio.WrapError(audio.ErrFileSeek, "vorbis.SeekFrame", err)
	}
	s.carry = s.carry[:0]
	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	_, seekable := r.(io.Seeker)

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		seekable:   seekable,
	}, nil
}
