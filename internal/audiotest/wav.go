// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/ik5/audmix/audio"
)

// WAV describes an in-memory RIFF/WAVE fixture.
type WAV struct {
	Rate     int
	Channels int
	Format   audio.SampleFormat // Uint8, Int16LE, Int24LE, Int32LE or Float32LE
	Samples  []float32          // interleaved
	Markers  []audio.Marker     // written as cue points; labels go to LIST/adtl
	// Unlabelled lists cue IDs that get no labl entry.
	Unlabelled []int
}

// Bytes encodes the fixture. Chunks are word aligned.
func (w WAV) Bytes() []byte {
	var body bytes.Buffer
	body.WriteString("WAVE")

	formatTag := uint16(1)
	if w.Format.IsFloat() {
		formatTag = 3
	}
	bps := w.Format.Bytes()

	var fmtChunk bytes.Buffer
	le(&fmtChunk, formatTag)
	le(&fmtChunk, uint16(w.Channels))
	le(&fmtChunk, uint32(w.Rate))
	le(&fmtChunk, uint32(w.Rate*w.Channels*bps))
	le(&fmtChunk, uint16(w.Channels*bps))
	le(&fmtChunk, uint16(w.Format.Bits()))
	writeChunk(&body, "fmt ", fmtChunk.Bytes())

	data := make([]byte, len(w.Samples)*bps)
	if err := audio.ConvertFromFloat32(w.Samples, data, w.Format); err != nil {
		panic(err)
	}
	writeChunk(&body, "data", data)

	if len(w.Markers) > 0 {
		var cue bytes.Buffer
		le(&cue, uint32(len(w.Markers)))
		for i, m := range w.Markers {
			le(&cue, uint32(i+1)) // id
			le(&cue, uint32(m.Position))
			cue.WriteString("data")
			le(&cue, uint32(0)) // chunk start
			le(&cue, uint32(0)) // block start
			le(&cue, uint32(m.Position))
		}
		writeChunk(&body, "cue ", cue.Bytes())

		var list bytes.Buffer
		list.WriteString("adtl")
		for i, m := range w.Markers {
			if w.unlabelled(i + 1) {
				continue
			}
			var labl bytes.Buffer
			le(&labl, uint32(i+1))
			labl.WriteString(m.Label)
			labl.WriteByte(0)
			writeChunk(&list, "labl", labl.Bytes())
		}
		writeChunk(&body, "LIST", list.Bytes())
	}

	var out bytes.Buffer
	writeChunk(&out, "RIFF", body.Bytes())
	return out.Bytes()
}

func (w WAV) unlabelled(id int) bool {
	for _, u := range w.Unlabelled {
		if u == id {
			return true
		}
	}
	return false
}

func writeChunk(b *bytes.Buffer, id string, payload []byte) {
	b.WriteString(id)
	le(b, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
}

func le(b *bytes.Buffer, v any) {
	_ = binary.Write(b, binary.LittleEndian, v)
}

// Constant returns frames*channels samples of value v.
func Constant(frames, channels int, v float32) []float32 {
	s := make([]float32, frames*channels)
	for i := range s {
		s[i] = v
	}
	return s
}

// Sine returns an interleaved sine of freq Hz, identical on every channel.
func Sine(frames, channels, rate int, freq float64, amp float32) []float32 {
	s := make([]float32, frames*channels)
	for f := range frames {
		v := amp * float32(math.Sin(2*math.Pi*freq*float64(f)/float64(rate)))
		for c := range channels {
			s[f*channels+c] = v
		}
	}
	return s
}

// Ramp returns samples whose value encodes the frame index as f/scale.
func Ramp(frames, channels int, scale float32) []float32 {
	s := make([]float32, frames*channels)
	for f := range frames {
		for c := range channels {
			s[f*channels+c] = float32(f) / scale
		}
	}
	return s
}
