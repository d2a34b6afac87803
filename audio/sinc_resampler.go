// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/oov/audio/resampler"
)

const (
	sincChunkFrames = 1024
	sincQuality     = 10
	// half the filter length at sincQuality, in source frames
	sincTailFrames = 128
)

// SincResampler converts src to another sample rate with a windowed-sinc
// filter. It is slower than Resampler but does not alias when downsampling.
type SincResampler struct {
	src      Source
	rs       *resampler.Resampler
	srcRate  int
	dstRate  int
	channels int

	raw   []float32   // interleaved chunk read from src
	in    [][]float32 // planar input not yet consumed by rs
	inLen int
	out   [][]float32 // planar output of the last pass

	pending []float32 // interleaved output not yet handed out
	pendPos int

	tail    int
	eof     bool
	flushed bool
}

func NewSincResampler(src Source, dstRate int) *SincResampler {
	channels := src.Channels()
	srcRate := src.SampleRate()

	tail := sincTailFrames
	if srcRate > dstRate {
		tail = sincTailFrames * srcRate / dstRate
	}
	if tail > sincChunkFrames {
		tail = sincChunkFrames
	}

	inCap := 2 * sincChunkFrames
	outCap := inCap*dstRate/srcRate + 64

	r := &SincResampler{
		src:      src,
		rs:       resampler.New(channels, srcRate, dstRate, sincQuality),
		srcRate:  srcRate,
		dstRate:  dstRate,
		channels: channels,
		raw:      make([]float32, sincChunkFrames*channels),
		in:       make([][]float32, channels),
		out:      make([][]float32, channels),
		pending:  make([]float32, 0, outCap*channels),
		tail:     tail,
	}
	for c := range channels {
		r.in[c] = make([]float32, inCap)
		r.out[c] = make([]float32, outCap)
	}

	return r
}

func (r *SincResampler) SampleRate() int { return r.dstRate }
func (r *SincResampler) Channels() int   { return r.channels }
func (r *SincResampler) BufSize() int    { return r.src.BufSize() }

func (r *SincResampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// fill appends source frames to the planar input. After the source ends a
// block of silence is appended once so the filter drains its history.
func (r *SincResampler) fill() error {
	if r.inLen > sincChunkFrames {
		return nil
	}

	if r.eof {
		if r.flushed {
			return nil
		}
		for c := range r.channels {
			clear(r.in[c][r.inLen : r.inLen+r.tail])
		}
		r.inLen += r.tail
		r.flushed = true
		return nil
	}

	n, err := r.src.ReadSamples(r.raw)
	frames := n / r.channels
	for f := range frames {
		base := f * r.channels
		for c := range r.channels {
			r.in[c][r.inLen+f] = r.raw[base+c]
		}
	}
	r.inLen += frames

	if errors.Is(err, io.EOF) {
		r.eof = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// process runs the filter over the pending input and interleaves the result
// into r.pending.
func (r *SincResampler) process() int {
	var read, written int
	for c := range r.channels {
		read, written = r.rs.ProcessFloat32(c, r.in[c][:r.inLen], r.out[c])
	}

	for c := range r.channels {
		copy(r.in[c], r.in[c][read:r.inLen])
	}
	r.inLen -= read

	r.pending = r.pending[:written*r.channels]
	for f := range written {
		base := f * r.channels
		for c := range r.channels {
			r.pending[base+c] = r.out[c][f]
		}
	}
	r.pendPos = 0

	return read
}

func (r *SincResampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	written := 0
	for written < len(dst) {
		if r.pendPos < len(r.pending) {
			n := copy(dst[written:], r.pending[r.pendPos:])
			r.pendPos += n
			written += n
			continue
		}

		if err := r.fill(); err != nil {
			return written, err
		}
		read := r.process()

		if len(r.pending) == 0 && r.flushed && (read == 0 || r.inLen == 0) {
			r.inLen = 0
			if written == 0 {
				return 0, io.EOF
			}
			return written, io.EOF
		}
	}

	return written, nil
}
