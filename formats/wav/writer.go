// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/audmix/audio"
)

// Writer streams float samples into an integer PCM WAV file. The header
// sizes are patched on Close, so the destination must be seekable.
type Writer struct {
	enc      *wav.Encoder
	buf      *goaudio.IntBuffer
	channels int
	scale    float32
	frames   int64
}

// NewWriter starts a WAV stream of bitDepth (16, 24 or 32) integer PCM.
func NewWriter(w io.WriteSeeker, sampleRate, channels, bitDepth int) (*Writer, error) {
	const op = "wav.NewWriter"

	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if channels <= 0 || channels > audio.MaxChannels || sampleRate <= 0 {
		return nil, audio.Errorf(audio.ErrInvalidArg, op, "%d Hz, %d channels", sampleRate, channels)
	}

	return &Writer{
		enc: wav.NewEncoder(w, sampleRate, bitDepth, channels, formatPCM),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bitDepth,
		},
		channels: channels,
		scale:    float32(int64(1)<<(bitDepth-1)) - 1,
	}, nil
}

// Write encodes interleaved samples, clamping them to [-1, 1].
func (w *Writer) Write(samples []float32) error {
	if len(samples)%w.channels != 0 {
		return audio.ErrInvalidDstSize
	}

	if cap(w.buf.Data) < len(samples) {
		w.buf.Data = make([]int, len(samples))
	}
	w.buf.Data = w.buf.Data[:len(samples)]
	for i, v := range samples {
		v = max(-1, min(1, v))
		w.buf.Data[i] = int(v * w.scale)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("%w", err)
	}
	w.frames += int64(len(samples) / w.channels)
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int64 { return w.frames }

// Close finalizes the header. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
