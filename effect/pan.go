// SPDX-License-Identifier: EPL-2.0

package effect

import (
	"math"

	"github.com/ik5/audmix/audio"
)

// Pan parameters.
const (
	PanParamPosition = iota // Float in [-1, 1]
)

// Pan balances the first two channels with a constant-power law:
// left = cos((p+1)π/4), right = sin((p+1)π/4). Further channels pass
// through untouched and mono input is left alone.
type Pan struct {
	Base
	position atomicFloat
	channels int
}

func NewPan(position float32) *Pan {
	p := &Pan{}
	p.position.Store(clampPan(position))
	return p
}

func clampPan(v float32) float32 {
	return max(-1, min(1, v))
}

// PanGains returns the left and right gains for position.
func PanGains(position float32) (left, right float32) {
	angle := float64(clampPan(position)+1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

func (p *Pan) Position() float32 { return p.position.Load() }

func (p *Pan) SetPosition(position float32) error {
	return p.send(p, PanParamPosition, Float(position))
}

func (p *Pan) ReceiveParam(index int, v Param) error {
	const op = "effect.Pan.ReceiveParam"

	switch index {
	case PanParamPosition:
		f, ok := v.AsFloat()
		if !ok {
			return wrongKind(op, index, KindFloat, v)
		}
		p.position.Store(clampPan(f))
		return nil
	}
	return unknownParam(op, index)
}

func (p *Pan) SetSpec(spec audio.Spec) { p.channels = spec.Channels }
func (p *Pan) Reset()                  {}

func (p *Pan) Process(in, out []float32) bool {
	ch := p.channels
	if ch < 2 {
		return false
	}

	left, right := PanGains(p.position.Load())
	frames := len(in) / ch
	for f := range frames {
		base := f * ch
		out[base] = in[base] * left
		out[base+1] = in[base+1] * right
		for c := 2; c < ch; c++ {
			out[base+c] = in[base+c]
		}
	}
	return true
}
