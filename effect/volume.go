// SPDX-License-Identifier: EPL-2.0

package effect

import "github.com/ik5/audmix/audio"

// Volume parameters.
const (
	VolumeParamGain = iota // Float
)

// Volume scales every sample by a gain. It never clamps.
type Volume struct {
	Base
	gain atomicFloat
}

func NewVolume(gain float32) *Volume {
	v := &Volume{}
	v.gain.Store(gain)
	return v
}

func (v *Volume) Gain() float32 { return v.gain.Load() }

func (v *Volume) SetGain(gain float32) error {
	return v.send(v, VolumeParamGain, Float(gain))
}

func (v *Volume) ReceiveParam(index int, p Param) error {
	const op = "effect.Volume.ReceiveParam"

	switch index {
	case VolumeParamGain:
		g, ok := p.AsFloat()
		if !ok {
			return wrongKind(op, index, KindFloat, p)
		}
		v.gain.Store(g)
		return nil
	}
	return unknownParam(op, index)
}

func (v *Volume) SetSpec(audio.Spec) {}
func (v *Volume) Reset()             {}

// Process multiplies 16 samples per iteration, then the remainder one by
// one.
func (v *Volume) Process(in, out []float32) bool {
	gain := v.gain.Load()
	if gain == 1 {
		return false
	}

	n := len(in)
	out = out[:n]
	i := 0
	for ; i <= n-16; i += 16 {
		s := in[i : i+16 : i+16]
		o := out[i : i+16 : i+16]
		o[0] = s[0] * gain
		o[1] = s[1] * gain
		o[2] = s[2] * gain
		o[3] = s[3] * gain
		o[4] = s[4] * gain
		o[5] = s[5] * gain
		o[6] = s[6] * gain
		o[7] = s[7] * gain
		o[8] = s[8] * gain
		o[9] = s[9] * gain
		o[10] = s[10] * gain
		o[11] = s[11] * gain
		o[12] = s[12] * gain
		o[13] = s[13] * gain
		o[14] = s[14] * gain
		o[15] = s[15] * gain
	}
	for ; i < n; i++ {
		out[i] = in[i] * gain
	}
	return true
}
