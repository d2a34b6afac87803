// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/ik5/audmix/audio"
)

// go-mp3 always produces interleaved 16-bit little-endian stereo.
const (
	channels       = 2
	bytesPerSample = 2
	bytesPerFrame  = channels * bytesPerSample
)

// ErrSeekOutOfRange is returned when seeking past the end of the stream.
var ErrSeekOutOfRange = errors.New("mp3: seek position out of range")

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	seekable   bool
	buf        []byte
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return channels }
func (s *source) Close() error    { return nil }
func (s *source) BufSize() int    { return cap(s.buf) / bytesPerSample } // sample capacity, not bytes

// Frames reports the decoded length, or -1 when the input was not seekable.
func (s *source) Frames() int64 {
	n := s.dec.Length()
	if n < 0 {
		return -1
	}
	return n / bytesPerFrame
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	bytesNeeded := len(dst) * bytesPerSample
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	// go-mp3 hands out at most one MPEG frame per call, so keep reading
	// until dst is full or the stream stops.
	got := 0
	var err error
	for got < bytesNeeded && err == nil {
		var n int
		n, err = s.dec.Read(s.buf[got:])
		got += n
		if n == 0 && err == nil {
			break
		}
	}

	samples := got / bytesPerSample
	samples -= samples % channels
	if samples == 0 {
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w", err)
		}
		return 0, io.EOF
	}

	if err := audio.ConvertToFloat32(s.buf[:samples*bytesPerSample], audio.Int16LE, dst[:samples]); err != nil {
		return 0, err
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return samples, fmt.Errorf("%w", err)
	}
	return samples, err
}

// SeekFrame moves the read cursor to frame.
func (s *source) SeekFrame(frame int64) error {
	if !s.seekable {
		return audio.Errorf(audio.ErrUnsupported, "mp3.SeekFrame", "source is not seekable")
	}
	if frame < 0 {
		return ErrSeekOutOfRange
	}
	if n := s.Frames(); n >= 0 && frame > n {
		return ErrSeekOutOfRange
	}

	if _, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return audio.WrapError(audio.ErrFileSeek, "mp3.SeekFrame", err)
	}
	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	_, seekable := r.(io.Seeker)

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		seekable:   seekable,
		buf:        make([]byte, 8192),
	}, nil
}
