// SPDX-License-Identifier: EPL-2.0

package device

import (
	"github.com/ik5/audmix/audio"
)

// Callback renders frames interleaved float32 frames into out. It runs on
// the device's audio thread and must not block.
type Callback func(out []float32, frames int)

// OpenParams describes the stream a device is asked to open. A zero
// Spec.Freq asks for the device default rate; a zero Frames asks for the
// backend's default block size.
type OpenParams struct {
	Spec     audio.Spec
	Frames   int
	Callback Callback
}

// Device is an audio output that pulls blocks from a Callback.
//
// After a successful Open, Spec and BufferFrames report what the device
// actually negotiated. The spec format is always audio.Float32.
type Device interface {
	Open(p OpenParams) error
	Close() error

	Suspend() error
	Resume() error

	IsRunning() bool
	IsOpen() bool

	Spec() audio.Spec
	BufferFrames() int
	DefaultSampleRate() int
}

const (
	// DefaultSampleRate is used by backends that cannot query the hardware.
	DefaultSampleRate = 48000
	// DefaultFrames is the block size when OpenParams.Frames is zero.
	DefaultFrames = 512
)

// Negotiate fills the zero fields of p with defaults and validates the
// result. Backends call it first thing in Open.
func Negotiate(p OpenParams, defaultRate int) (OpenParams, error) {
	const op = "device.Open"

	if p.Callback == nil {
		return p, audio.Errorf(audio.ErrInvalidArg, op, "nil callback")
	}
	if p.Spec.Freq == 0 {
		p.Spec.Freq = defaultRate
	}
	if p.Spec.Channels == 0 {
		p.Spec.Channels = 2
	}
	if p.Frames == 0 {
		p.Frames = DefaultFrames
	}
	if p.Frames < 0 {
		return p, audio.Errorf(audio.ErrInvalidArg, op, "%d frames", p.Frames)
	}
	p.Spec.Format = audio.Float32

	if err := p.Spec.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
