// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ik5/audmix/audio"
)

// Decoder turns an encoded file into interleaved PCM in a target spec.
// The source is sniffed to pick a format backend; its output is then
// channel mapped, resampled and encoded to the target format.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	opts options

	path   string
	rs     io.ReadSeeker
	closer io.Closer

	format  string
	backend audio.Source
	chain   audio.Source
	native  audio.Spec
	target  audio.Spec
	frames  int64 // native length, -1 when unknown
	markers []audio.Marker

	buf     []float32
	pos     int64 // target frames handed out
	looping bool
	ended   bool
	closed  bool
}

// Open decodes the file at path into target.
func Open(path string, target audio.Spec, opts ...Option) (*Decoder, error) {
	const op = "decoder.Open"

	if err := target.Validate(); err != nil {
		return nil, err
	}

	o := buildOptions(opts)
	d := &Decoder{opts: o, path: path, target: target}

	if o.inMemory {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, audio.WrapError(audio.ErrFileOpen, op, err)
		}
		d.rs = bytes.NewReader(data)
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, audio.WrapError(audio.ErrFileOpen, op, err)
		}
		d.rs = f
		d.closer = f
	}

	if err := d.init(); err != nil {
		d.closeInput()
		return nil, err
	}
	return d, nil
}

// OpenMem decodes an encoded file held in data. data must not be modified
// while the decoder is open.
func OpenMem(data []byte, target audio.Spec, opts ...Option) (*Decoder, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}

	d := &Decoder{
		opts:   buildOptions(opts),
		rs:     bytes.NewReader(data),
		target: target,
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Decoder) init() error {
	const op = "decoder.Open"

	header := make([]byte, audio.SniffLen)
	n, err := io.ReadFull(d.rs, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return audio.WrapError(audio.ErrFileRead, op, err)
	}

	format, dec, err := d.opts.registry.Detect(header[:n], d.path)
	if err != nil {
		return err
	}
	d.format = format

	if err := d.openBackend(dec); err != nil {
		return err
	}

	if ms, ok := d.backend.(audio.MarkerSource); ok {
		d.markers = audio.RescaleMarkers(ms.Markers(), d.native.Freq, d.target.Freq)
	}

	d.opts.logger.Debug("opened",
		"path", d.path,
		"format", d.format,
		"source", d.native.String(),
		"target", d.target.String(),
		"frames", d.frames,
	)
	return nil
}

// openBackend decodes from the start of the input and rebuilds the
// conversion chain.
func (d *Decoder) openBackend(dec audio.Decoder) error {
	const op = "decoder.Open"

	if _, err := d.rs.Seek(0, io.SeekStart); err != nil {
		return audio.WrapError(audio.ErrFileSeek, op, err)
	}

	src, err := dec.Decode(d.rs)
	if err != nil {
		return audio.WrapError(audio.ErrFileRead, op, fmt.Errorf("%s: %w", d.format, err))
	}
	if src.Channels() <= 0 || src.Channels() > audio.MaxChannels || src.SampleRate() <= 0 {
		return audio.Errorf(audio.ErrUnsupported, op, "%s stream with %d channels at %dHz", d.format, src.Channels(), src.SampleRate())
	}

	d.backend = src
	d.native = audio.Spec{Freq: src.SampleRate(), Channels: src.Channels(), Format: audio.Float32}
	d.frames = -1
	if l, ok := src.(audio.Lengther); ok {
		d.frames = l.Frames()
	}
	d.rebuildChain()
	return nil
}

// rebuildChain wraps the backend in fresh converters. Resamplers keep
// history and end-of-stream state, so they cannot be reused across a seek.
func (d *Decoder) rebuildChain() {
	mapped := audio.NewChannelMapper(d.backend, d.target.Channels)
	d.chain = audio.Resample(mapped, d.target.Freq, d.opts.quality)
}

// Format is the key of the backend that decodes the input, e.g. "wav".
func (d *Decoder) Format() string { return d.format }

// Spec is the spec Read produces.
func (d *Decoder) Spec() audio.Spec { return d.target }

// SourceSpec is the native rate and channel count of the input. Its format
// is the float32 the backends decode to.
func (d *Decoder) SourceSpec() audio.Spec { return d.native }

// Markers returns the cue markers of the input with positions in target
// frames.
func (d *Decoder) Markers() []audio.Marker { return d.markers }

func (d *Decoder) Looping() bool        { return d.looping }
func (d *Decoder) SetLooping(loop bool) { d.looping = loop }

// Ended reports whether the input ran out and looping is off.
func (d *Decoder) Ended() bool { return d.ended }

// Tell returns the position of the next frame Read produces.
func (d *Decoder) Tell() int64 { return d.pos }

// Frames is the total length in target frames, or -1 when unknown.
func (d *Decoder) Frames() int64 {
	if d.frames < 0 {
		return -1
	}
	if d.native.Freq == d.target.Freq {
		return d.frames
	}
	return d.frames * int64(d.target.Freq) / int64(d.native.Freq)
}

// Size is the total decoded length in bytes, or -1 when unknown.
func (d *Decoder) Size() int64 {
	frames := d.Frames()
	if frames < 0 {
		return -1
	}
	return frames * int64(d.target.BytesPerFrame())
}

// Read decodes whole frames into dst and returns the number of bytes
// written. At the end of the input it returns 0 and io.EOF; on failure
// it returns -1 and the error.
func (d *Decoder) Read(dst []byte) (int64, error) {
	bpf := d.target.BytesPerFrame()
	frames, err := d.ReadFrames(dst, int64(len(dst)/bpf))
	if frames < 0 {
		return -1, err
	}
	return frames * int64(bpf), err
}

// ReadFrames decodes up to frames frames into dst and returns how many
// were written.
func (d *Decoder) ReadFrames(dst []byte, frames int64) (int64, error) {
	const op = "decoder.Read"

	if d.closed {
		return -1, audio.Errorf(audio.ErrLogic, op, "decoder closed")
	}
	bpf := int64(d.target.BytesPerFrame())
	if frames < 0 || frames*bpf > int64(len(dst)) {
		return -1, audio.Errorf(audio.ErrInvalidArg, op, "%d frames do not fit %d bytes", frames, len(dst))
	}
	if frames == 0 {
		return 0, nil
	}
	if d.ended {
		return 0, io.EOF
	}

	want := int(frames) * d.target.Channels
	if cap(d.buf) < want {
		d.buf = make([]float32, want)
	}
	buf := d.buf[:want]

	got := 0
	sinceRewind := -1 // samples read since the last loop rewind, -1 before any
	for got < want {
		n, err := d.chain.ReadSamples(buf[got:])
		got += n
		if sinceRewind >= 0 {
			sinceRewind += n
		}

		if errors.Is(err, io.EOF) {
			// a rewind that produced nothing means the input is empty
			if !d.looping || sinceRewind == 0 {
				d.ended = true
				break
			}
			if err := d.seekNative(0); err != nil {
				return -1, err
			}
			sinceRewind = 0
			continue
		}
		if err != nil {
			return -1, audio.WrapError(audio.ErrFileRead, op, err)
		}
		if n == 0 {
			break
		}
	}

	got -= got % d.target.Channels
	if got == 0 {
		return 0, io.EOF
	}
	if err := audio.ConvertFromFloat32(buf[:got], dst, d.target.Format); err != nil {
		return -1, err
	}

	n := int64(got / d.target.Channels)
	if sinceRewind >= 0 {
		d.pos = int64(sinceRewind / d.target.Channels)
	} else {
		d.pos += n
	}
	return n, nil
}

// Seek moves to frame, counted in target frames.
func (d *Decoder) Seek(frame int64) error {
	const op = "decoder.Seek"

	if d.closed {
		return audio.Errorf(audio.ErrLogic, op, "decoder closed")
	}
	if frame < 0 {
		return audio.Errorf(audio.ErrInvalidArg, op, "frame %d", frame)
	}
	if total := d.Frames(); total >= 0 && frame > total {
		return audio.Errorf(audio.ErrInvalidArg, op, "frame %d past end %d", frame, total)
	}

	native := frame
	if d.native.Freq != d.target.Freq {
		native = frame * int64(d.native.Freq) / int64(d.target.Freq)
	}
	if err := d.seekNative(native); err != nil {
		return err
	}

	d.pos = frame
	d.ended = false
	return nil
}

// seekNative positions the backend on a native frame. Backends without
// random access are re-opened and decoded forward.
func (d *Decoder) seekNative(frame int64) error {
	const op = "decoder.Seek"

	if fs, ok := d.backend.(audio.FrameSeeker); ok {
		err := fs.SeekFrame(frame)
		if err == nil {
			d.rebuildChain()
			return nil
		}
		if !errors.Is(err, audio.ErrUnsupported) {
			return audio.WrapError(audio.ErrFileSeek, op, err)
		}
	}

	dec, ok := d.opts.registry.Get(d.format)
	if !ok {
		return audio.Errorf(audio.ErrLogic, op, "format %q vanished from registry", d.format)
	}
	_ = d.backend.Close()
	if err := d.openBackend(dec); err != nil {
		return err
	}
	return d.skip(frame)
}

func (d *Decoder) skip(frames int64) error {
	const op = "decoder.Seek"

	ch := d.native.Channels
	buf := make([]float32, 1024*ch)
	for frames > 0 {
		want := min(int64(len(buf)/ch), frames)
		n, err := d.backend.ReadSamples(buf[:want*int64(ch)])
		frames -= int64(n / ch)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return audio.WrapError(audio.ErrFileSeek, op, err)
		}
		if n == 0 {
			break
		}
	}
	return nil
}

func (d *Decoder) closeInput() {
	if d.closer != nil {
		_ = d.closer.Close()
		d.closer = nil
	}
}

// Close releases the backend and the input file.
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	err := d.chain.Close()
	if d.closer != nil {
		if cerr := d.closer.Close(); cerr != nil && err == nil {
			err = cerr
		}
		d.closer = nil
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}
