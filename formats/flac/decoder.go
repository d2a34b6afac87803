// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/ik5/audmix/audio"
)

var (
	ErrUnsupportedBitDepth = errors.New("flac: unsupported bit depth")
	ErrSeekOutOfRange      = errors.New("flac: seek position out of range")
)

// frameReader is the part of flac.Stream the source needs, kept small so
// tests can feed frames directly.
type frameReader interface {
	ParseNext() (*frame.Frame, error)
	Seek(sampleNum uint64) (uint64, error)
}

type source struct {
	stream     frameReader
	closer     io.Closer
	sampleRate int
	channels   int
	bitDepth   int
	frames     int64
	seekable   bool

	cur    *frame.Frame
	curPos int // next sample index inside cur
	eof    bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) BufSize() int    { return 4096 }
func (s *source) Frames() int64   { return s.frames }

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}
	if err := s.closer.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// blockLen is the number of frames in the current FLAC block.
func (s *source) blockLen() int {
	if s.cur == nil || len(s.cur.Subframes) == 0 {
		return 0
	}
	return len(s.cur.Subframes[0].Samples)
}

func (s *source) next() error {
	f, err := s.stream.ParseNext()
	if err != nil {
		s.cur = nil
		if errors.Is(err, io.EOF) {
			s.eof = true
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}
	if len(f.Subframes) < s.channels {
		return audio.Errorf(audio.ErrFileRead, "flac.ReadSamples", "frame has %d subframes, want %d", len(f.Subframes), s.channels)
	}
	s.cur = f
	s.curPos = 0
	return nil
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%s.channels != 0 {
		return 0, audio.ErrInvalidDstSize
	}

	scale := 1 / float32(int64(1)<<(s.bitDepth-1))
	want := len(dst) / s.channels
	got := 0

	for got < want {
		if s.curPos >= s.blockLen() {
			if s.eof {
				break
			}
			if err := s.next(); err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				return got * s.channels, err
			}
			continue
		}

		n := min(want-got, s.blockLen()-s.curPos)
		for c := range s.channels {
			samples := s.cur.Subframes[c].Samples[s.curPos : s.curPos+n]
			for i, v := range samples {
				dst[(got+i)*s.channels+c] = float32(v) * scale
			}
		}
		s.curPos += n
		got += n
	}

	if got == 0 {
		return 0, io.EOF
	}
	return got * s.channels, nil
}

// SeekFrame positions the stream on the block holding target and skips to
// the exact sample inside it.
func (s *source) SeekFrame(target int64) error {
	if !s.seekable {
		return audio.Errorf(audio.ErrUnsupported, "flac.SeekFrame", "source is not seekable")
	}
	if target < 0 || (s.frames >= 0 && target > s.frames) {
		return ErrSeekOutOfRange
	}

	s.eof = false
	s.cur = nil
	s.curPos = 0
	if s.frames >= 0 && target == s.frames {
		s.eof = true
		return nil
	}

	start, err := s.stream.Seek(uint64(target))
	if err != nil {
		return audio.WrapError(audio.ErrFileSeek, "flac.SeekFrame", err)
	}
	if err := s.next(); err != nil {
		return err
	}
	s.curPos = int(uint64(target) - start)
	if s.curPos > s.blockLen() {
		return ErrSeekOutOfRange
	}
	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// mewkiz/flac only seeks over an io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading flac data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	stream, err := flac.NewSeek(rs)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	info := stream.Info
	switch info.BitsPerSample {
	case 8, 12, 16, 20, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, info.BitsPerSample)
	}

	frames := int64(info.NSamples)
	if frames == 0 {
		frames = -1
	}

	return &source{
		stream:     stream,
		closer:     stream,
		sampleRate: int(info.SampleRate),
		channels:   int(info.NChannels),
		bitDepth:   int(info.BitsPerSample),
		frames:     frames,
		seekable:   true,
	}, nil
}
