// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// MaxChannels is the largest channel count a Spec may carry.
const MaxChannels = 8

// Spec describes a PCM stream: sample rate, channel count and sample
// encoding. It is a plain value; compare with ==.
type Spec struct {
	Freq     int
	Channels int
	Format   SampleFormat
}

// Validate reports why s cannot be used to open a device or a buffer.
func (s Spec) Validate() error {
	const op = "audio.Spec.Validate"

	if s.Freq <= 0 {
		return Errorf(ErrInvalidArg, op, "sample rate %d", s.Freq)
	}
	if s.Channels <= 0 || s.Channels > MaxChannels {
		return Errorf(ErrInvalidArg, op, "channel count %d", s.Channels)
	}
	if !s.Format.Valid() {
		return Errorf(ErrInvalidEnum, op, "sample format %v", s.Format)
	}
	return nil
}

func (s Spec) BytesPerFrame() int  { return s.Channels * s.Format.Bytes() }
func (s Spec) BytesPerSecond() int { return s.BytesPerFrame() * s.Freq }

// FramesFor returns how many whole frames d spans at s.Freq.
func (s Spec) FramesFor(d time.Duration) int64 {
	return int64(d) * int64(s.Freq) / int64(time.Second)
}

// DurationOf is the inverse of FramesFor.
func (s Spec) DurationOf(frames int64) time.Duration {
	if s.Freq <= 0 {
		return 0
	}
	return time.Duration(frames * int64(time.Second) / int64(s.Freq))
}

func (s Spec) String() string {
	return fmt.Sprintf("%dHz %dch %v", s.Freq, s.Channels, s.Format)
}
