// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"sync/atomic"

	"github.com/ik5/audmix/audio"
)

// Delay parameters.
const (
	DelayParamTime     = iota // Uint64, frames
	DelayParamFeedback        // Float
	DelayParamMix             // Float, wet share of the output
)

// MinDelayFrames is the shortest delay line.
const MinDelayFrames = 256

// Delay is a feedback delay line:
//
//	out  = in*(1-mix) + delayed*mix
//	line = in + delayed*feedback
type Delay struct {
	Base

	frames   atomic.Uint64
	feedback atomicFloat
	mix      atomicFloat

	channels int
	line     []float32 // frames*channels interleaved samples
	cursor   int
}

func NewDelay(frames uint64, feedback, mix float32) *Delay {
	d := &Delay{}
	d.frames.Store(max(frames, MinDelayFrames))
	d.feedback.Store(feedback)
	d.mix.Store(mix)
	return d
}

func (d *Delay) Frames() uint64    { return d.frames.Load() }
func (d *Delay) Feedback() float32 { return d.feedback.Load() }
func (d *Delay) Mix() float32      { return d.mix.Load() }

func (d *Delay) SetFrames(frames uint64) error {
	return d.send(d, DelayParamTime, Uint64(frames))
}

func (d *Delay) SetFeedback(v float32) error {
	return d.send(d, DelayParamFeedback, Float(v))
}

func (d *Delay) SetMix(v float32) error {
	return d.send(d, DelayParamMix, Float(v))
}

func (d *Delay) ReceiveParam(index int, v Param) error {
	const op = "effect.Delay.ReceiveParam"

	switch index {
	case DelayParamTime:
		frames, ok := v.AsUint64()
		if !ok {
			return wrongKind(op, index, KindUint64, v)
		}
		frames = max(frames, MinDelayFrames)
		if frames != d.frames.Load() {
			d.frames.Store(frames)
			d.resize()
		}
		return nil
	case DelayParamFeedback, DelayParamMix:
		f, ok := v.AsFloat()
		if !ok {
			return wrongKind(op, index, KindFloat, v)
		}
		if index == DelayParamFeedback {
			d.feedback.Store(f)
		} else {
			d.mix.Store(f)
		}
		return nil
	}
	return unknownParam(op, index)
}

func (d *Delay) SetSpec(spec audio.Spec) {
	if spec.Channels != d.channels {
		d.channels = spec.Channels
		d.resize()
	}
}

// resize reallocates the line, dropping whatever it held.
func (d *Delay) resize() {
	if d.channels <= 0 {
		return
	}
	n := int(d.frames.Load()) * d.channels
	if cap(d.line) >= n {
		d.line = d.line[:n]
		clear(d.line)
	} else {
		d.line = make([]float32, n)
	}
	d.cursor = 0
}

func (d *Delay) Reset() {
	clear(d.line)
	d.cursor = 0
}

func (d *Delay) Process(in, out []float32) bool {
	if len(d.line) == 0 {
		return false
	}

	mix := d.mix.Load()
	dry := 1 - mix
	feedback := d.feedback.Load()
	line := d.line
	cursor := d.cursor

	for i, x := range in {
		delayed := line[cursor]
		out[i] = x*dry + delayed*mix
		line[cursor] = x + delayed*feedback
		cursor++
		if cursor == len(line) {
			cursor = 0
		}
	}
	d.cursor = cursor
	return true
}
