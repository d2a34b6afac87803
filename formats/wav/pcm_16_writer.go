// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/audmix/audio"
)

// pcmHeader is the canonical 44 byte header of a PCM WAV file with a
// single fmt and data chunk.
type pcmHeader struct {
	RIFF       [4]byte
	RIFFSize   uint32
	WAVE       [4]byte
	Fmt        [4]byte
	FmtSize    uint32
	Format     uint16
	Channels   uint16
	Rate       uint32
	ByteRate   uint32
	BlockAlign uint16
	Bits       uint16
	Data       [4]byte
	DataSize   uint32
}

// WriteWAV16 writes a 16-bit PCM WAV at sampleRate. samples are interleaved
// and must hold whole frames of channels.
func WriteWAV16(w io.Writer, sampleRate, channels int, samples []int16) error {
	const op = "wav.WriteWAV16"

	if channels <= 0 || channels > audio.MaxChannels {
		return audio.Errorf(audio.ErrInvalidArg, op, "channel count %d", channels)
	}
	if sampleRate <= 0 {
		return audio.Errorf(audio.ErrInvalidArg, op, "sample rate %d", sampleRate)
	}
	if len(samples)%channels != 0 {
		return audio.ErrInvalidDstSize
	}

	blockAlign := uint16(channels * 2)
	dataSize := uint32(len(samples) * 2)

	var header bytes.Buffer
	header.Grow(44)
	_ = binary.Write(&header, binary.LittleEndian, pcmHeader{
		RIFF:       [4]byte{'R', 'I', 'F', 'F'},
		RIFFSize:   36 + dataSize,
		WAVE:       [4]byte{'W', 'A', 'V', 'E'},
		Fmt:        [4]byte{'f', 'm', 't', ' '},
		FmtSize:    16,
		Format:     formatPCM,
		Channels:   uint16(channels),
		Rate:       uint32(sampleRate),
		ByteRate:   uint32(sampleRate) * uint32(blockAlign),
		BlockAlign: blockAlign,
		Bits:       16,
		Data:       [4]byte{'d', 'a', 't', 'a'},
		DataSize:   dataSize,
	})
	if _, err := w.Write(header.Bytes()); err != nil {
		return fmt.Errorf("%w", err)
	}

	// samples go out in blocks of 8192 to bound the scratch buffer
	const block = 8192
	buf := make([]byte, 0, 2*min(len(samples), block))
	for len(samples) > 0 {
		chunk := samples[:min(len(samples), block)]
		samples = samples[len(chunk):]

		buf = buf[:0]
		for _, s := range chunk {
			buf = binary.LittleEndian.AppendUint16(buf, uint16(s))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w", err)
		}
	}
	return nil
}
