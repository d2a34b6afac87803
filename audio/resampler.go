// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/audmix/utils"
)

// Quality selects the resampling algorithm.
type Quality int

const (
	// QualityCubic uses Catmull-Rom interpolation. Cheap, good for effects.
	QualityCubic Quality = iota
	// QualityHigh uses a windowed-sinc filter.
	QualityHigh
)

func (q Quality) String() string {
	if q == QualityHigh {
		return "high"
	}
	return "cubic"
}

// ParseQuality accepts "cubic" and "high" (alias "sinc").
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "", "cubic":
		return QualityCubic, nil
	case "high", "sinc":
		return QualityHigh, nil
	}
	return QualityCubic, Errorf(ErrInvalidEnum, "audio.ParseQuality", "unknown resample quality %q", s)
}

// Resample returns src converted to dstRate with the given quality. When
// the rates already match src is returned unchanged.
func Resample(src Source, dstRate int, q Quality) Source {
	if src.SampleRate() == dstRate {
		return src
	}
	if q == QualityHigh {
		return NewSincResampler(src, dstRate)
	}
	return NewResampler(src, dstRate)
}

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
type Resampler struct {
	src      Source
	srcRate  float64
	dstRate  float64
	ratio    float64 // srcRate / dstRate - how many source samples per output sample
	channels int

	// Ring of 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool

	// Position between frames[1] and frames[2], in source frames
	pos float64

	srcBuf []float32
	eof    bool
	seeded bool

	// One-pole low-pass state, only used when downsampling
	filterState []float32
	useFilter   bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	ratio := float64(src.SampleRate()) / float64(dstRate)

	r := &Resampler{
		src:         src,
		srcRate:     float64(src.SampleRate()),
		dstRate:     float64(dstRate),
		ratio:       ratio,
		channels:    channels,
		srcBuf:      make([]float32, channels),
		useFilter:   ratio > 1.0,
		filterState: make([]float32, channels),
	}
	if r.useFilter {
		// cutoff near the destination Nyquist frequency
		r.filterAlpha = 0.5
	}

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return int(r.dstRate) }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// readFrame reads one source frame into dst, low-pass filtering it when
// downsampling. ok is false when the source had nothing left.
func (r *Resampler) readFrame(dst []float32) (ok bool, err error) {
	if r.eof {
		return false, nil
	}

	n, err := r.src.ReadSamples(r.srcBuf)
	if n > 0 {
		if r.useFilter {
			if !r.seeded {
				// Seed the filter with the first frame to avoid a warm-up ramp
				copy(r.filterState, r.srcBuf[:n])
				r.seeded = true
			}
			for c := range n {
				// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
				r.filterState[c] = r.filterAlpha*r.srcBuf[c] + (1-r.filterAlpha)*r.filterState[c]
			}
			copy(dst, r.filterState)
		} else {
			copy(dst, r.srcBuf[:n])
		}
		ok = true
	}

	if errors.Is(err, io.EOF) {
		r.eof = true
		return ok, nil
	}
	if err != nil {
		return ok, fmt.Errorf("%w", err)
	}
	return ok, nil
}

// prime fills the initial 4-frame window. The frame before the first one
// is a copy of it.
func (r *Resampler) prime() error {
	r.primed = true

	ok, err := r.readFrame(r.frames[1])
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	copy(r.frames[0], r.frames[1])
	r.hasFrame[0], r.hasFrame[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err := r.readFrame(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
		if !ok {
			copy(r.frames[i], r.frames[i-1])
		}
	}

	return nil
}

// advance shifts the window by one source frame. Missing frames past the
// end hold the last real frame.
func (r *Resampler) advance() error {
	copy(r.frames[0], r.frames[1])
	copy(r.frames[1], r.frames[2])
	copy(r.frames[2], r.frames[3])
	r.hasFrame[0] = r.hasFrame[1]
	r.hasFrame[1] = r.hasFrame[2]
	r.hasFrame[2] = r.hasFrame[3]

	ok, err := r.readFrame(r.frames[3])
	if err != nil {
		return err
	}
	r.hasFrame[3] = ok
	if !ok {
		copy(r.frames[3], r.frames[2])
	}

	if !r.hasFrame[1] {
		return io.EOF
	}
	return nil
}

// ReadSamples produces dst samples at r.dstRate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}
	if !r.hasFrame[1] {
		return 0, io.EOF
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				if errors.Is(err, io.EOF) {
					if written == 0 {
						return 0, io.EOF
					}
					return written * r.channels, io.EOF
				}
				return written * r.channels, err
			}
		}

		alpha := float32(r.pos)
		out := dst[written*r.channels : (written+1)*r.channels]

		utils.CubicInterpolateFrame(out, r.frames[0], r.frames[1], r.frames[2], r.frames[3], alpha)

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}
