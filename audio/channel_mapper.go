// SPDX-License-Identifier: EPL-2.0

package audio

import "fmt"

// ChannelMapper converts the channel count of src. Downmixing averages the
// source channels that fold onto each output channel (channel j goes to
// j % dst), so any count folds to mono by plain averaging. Upmixing repeats
// source channels cyclically; mono is duplicated to every output.
type ChannelMapper struct {
	src      Source
	channels int
	tmp      []float32
}

// NewChannelMapper returns src unchanged when it already has channels.
func NewChannelMapper(src Source, channels int) Source {
	if src.Channels() == channels {
		return src
	}
	return &ChannelMapper{
		src:      src,
		channels: channels,
		tmp:      make([]float32, 4096),
	}
}

// NewMonoMixer folds any source down to a single channel.
func NewMonoMixer(src Source) Source {
	return NewChannelMapper(src, 1)
}

func (m *ChannelMapper) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelMapper) Channels() int   { return m.channels }
func (m *ChannelMapper) BufSize() int    { return m.src.BufSize() }
func (m *ChannelMapper) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *ChannelMapper) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.channels != 0 {
		return 0, ErrInvalidDstSize
	}

	srcChannels := m.src.Channels()
	maxFrames := len(dst) / m.channels
	samplesNeeded := maxFrames * srcChannels

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		newCap := max(samplesNeeded, 8192)
		m.tmp = make([]float32, newCap)
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames := n / srcChannels

	switch {
	case m.channels == 1:
		m.toMono(dst, frames, srcChannels)
	case srcChannels == 1:
		for f := range frames {
			v := m.tmp[f]
			out := dst[f*m.channels : (f+1)*m.channels]
			for c := range out {
				out[c] = v
			}
		}
	case m.channels > srcChannels:
		for f := range frames {
			in := m.tmp[f*srcChannels : (f+1)*srcChannels]
			out := dst[f*m.channels : (f+1)*m.channels]
			for c := range out {
				out[c] = in[c%srcChannels]
			}
		}
	default:
		m.fold(dst, frames, srcChannels)
	}

	return frames * m.channels, err
}

func (m *ChannelMapper) toMono(dst []float32, frames, channels int) {
	invChannels := float32(1.0) / float32(channels)

	// Unrolled loop for common cases
	switch channels {
	case 2:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case 4:
		for f := range frames {
			idx := f << 2
			sum := m.tmp[idx] + m.tmp[idx+1] + m.tmp[idx+2] + m.tmp[idx+3]
			dst[f] = sum * 0.25
		}
	default:
		for f := range frames {
			sum := float32(0)
			baseIdx := f * channels
			for c := range channels {
				sum += m.tmp[baseIdx+c]
			}
			dst[f] = sum * invChannels
		}
	}
}

// fold averages source channel j into output channel j % m.channels.
func (m *ChannelMapper) fold(dst []float32, frames, channels int) {
	var counts [MaxChannels]float32
	for j := range channels {
		counts[j%m.channels]++
	}

	for f := range frames {
		in := m.tmp[f*channels : (f+1)*channels]
		out := dst[f*m.channels : (f+1)*m.channels]
		clear(out)
		for j, v := range in {
			out[j%m.channels] += v
		}
		for c := range out {
			out[c] /= counts[c]
		}
	}
}
