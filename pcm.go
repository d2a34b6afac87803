// SPDX-License-Identifier: EPL-2.0

package audmix

import (
	"errors"
	"io"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/decoder"
	"github.com/ik5/audmix/utils"
)

// DecodeToPCM16 drains src through a channel mapper and a resampler and
// returns the result as interleaved 16-bit samples at targetRate.
//
// bufferSize is the number of float32 values read per pass and is rounded
// down to whole frames. src is closed before returning.
func DecodeToPCM16(src audio.Source, targetRate, channels, bufferSize int, q audio.Quality) ([]int16, error) {
	const op = "audmix.DecodeToPCM16"

	defer src.Close()

	if targetRate <= 0 {
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "rate %d", targetRate)
	}
	if channels <= 0 || channels > audio.MaxChannels {
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "%d channels", channels)
	}
	bufferSize -= bufferSize % channels
	if bufferSize <= 0 {
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "buffer of %d samples holds no %d channel frame", bufferSize, channels)
	}

	chain := audio.Resample(audio.NewChannelMapper(src, channels), targetRate, q)

	// start with about two seconds and let append grow it
	pcm := make([]int16, 0, 2*targetRate*channels)
	buf := make([]float32, bufferSize)

	for {
		n, err := chain.ReadSamples(buf)
		if n > 0 {
			start := len(pcm)
			pcm = append(pcm, make([]int16, n)...)
			utils.Float32sToInt16(pcm[start:], buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return pcm, nil
		}
		if err != nil {
			return pcm, audio.WrapError(audio.ErrFileRead, op, err)
		}
		if n == 0 {
			return pcm, nil
		}
	}
}

// DecodeFile decodes the file at path into interleaved 16-bit samples at
// rate with the given channel count. The format is sniffed from the file
// header.
func DecodeFile(path string, rate, channels int, opts ...decoder.Option) ([]int16, error) {
	spec := audio.Spec{Freq: rate, Channels: channels, Format: audio.Float32}
	dec, err := decoder.Open(path, spec, opts...)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return readPCM16(dec)
}

func readPCM16(dec *decoder.Decoder) ([]int16, error) {
	const blockFrames = 4096

	spec := dec.Spec()
	var pcm []int16
	if frames := dec.Frames(); frames > 0 {
		pcm = make([]int16, 0, frames*int64(spec.Channels))
	}

	raw := make([]byte, blockFrames*spec.BytesPerFrame())
	floats := make([]float32, blockFrames*spec.Channels)

	for {
		n, err := dec.ReadFrames(raw, blockFrames)
		if n > 0 {
			samples := int(n) * spec.Channels
			if cerr := audio.ConvertToFloat32(raw[:int(n)*spec.BytesPerFrame()], spec.Format, floats[:samples]); cerr != nil {
				return nil, cerr
			}
			start := len(pcm)
			pcm = append(pcm, make([]int16, samples)...)
			utils.Float32sToInt16(pcm[start:], floats[:samples])
		}
		if errors.Is(err, io.EOF) {
			return pcm, nil
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return pcm, nil
		}
	}
}
