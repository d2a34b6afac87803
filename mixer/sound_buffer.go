// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/decoder"
)

// Snapshot is an immutable view of a SoundBuffer's contents. Readers keep
// using the snapshot they loaded even if the buffer is reloaded meanwhile.
type Snapshot struct {
	Data    []byte
	Spec    audio.Spec
	Markers []audio.Marker
}

// Frames is the length of the PCM data in frames.
func (s *Snapshot) Frames() int64 {
	return int64(len(s.Data) / s.Spec.BytesPerFrame())
}

// SoundBuffer holds decoded PCM shared by any number of voices. Loads
// decode into a fresh snapshot and swap it in only on success.
type SoundBuffer struct {
	snap atomic.Pointer[Snapshot]
	mu   sync.Mutex // serializes writers
}

func NewSoundBuffer() *SoundBuffer {
	return &SoundBuffer{}
}

// Load decodes the file at path into spec. On failure the previous
// contents stay in place.
func (sb *SoundBuffer) Load(path string, spec audio.Spec, opts ...decoder.Option) error {
	dec, err := decoder.Open(path, spec, opts...)
	if err != nil {
		return err
	}
	return sb.loadFrom(dec)
}

// LoadMem decodes an encoded file held in data into spec.
func (sb *SoundBuffer) LoadMem(data []byte, spec audio.Spec, opts ...decoder.Option) error {
	dec, err := decoder.OpenMem(data, spec, opts...)
	if err != nil {
		return err
	}
	return sb.loadFrom(dec)
}

func (sb *SoundBuffer) loadFrom(dec *decoder.Decoder) error {
	const op = "mixer.SoundBuffer.Load"

	var out bytes.Buffer
	if size := dec.Size(); size > 0 {
		out.Grow(int(size))
	}

	spec := dec.Spec()
	chunk := make([]byte, 4096*spec.BytesPerFrame())
	for {
		n, err := dec.Read(chunk)
		if n > 0 {
			out.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			_ = dec.Close()
			return audio.WrapError(audio.ErrFileRead, op, err)
		}
	}

	markers := dec.Markers()
	if err := dec.Close(); err != nil {
		return audio.WrapError(audio.ErrFileRead, op, err)
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.snap.Store(&Snapshot{Data: out.Bytes(), Spec: spec, Markers: markers})
	return nil
}

// Emplace takes data as PCM already laid out in spec. The buffer keeps
// data; the caller must not modify it afterwards.
func (sb *SoundBuffer) Emplace(data []byte, spec audio.Spec) error {
	const op = "mixer.SoundBuffer.Emplace"

	if err := spec.Validate(); err != nil {
		return err
	}
	if len(data)%spec.BytesPerFrame() != 0 {
		return audio.Errorf(audio.ErrInvalidArg, op, "%d bytes is not a whole number of %d byte frames", len(data), spec.BytesPerFrame())
	}

	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.snap.Store(&Snapshot{Data: data, Spec: spec})
	return nil
}

// Unload drops the contents. Voices bound to the buffer fall silent.
func (sb *SoundBuffer) Unload() {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	sb.snap.Store(nil)
}

// AddMarker records a labelled position given in unit.
func (sb *SoundBuffer) AddMarker(position float64, unit audio.TimeUnit, label string) error {
	const op = "mixer.SoundBuffer.AddMarker"

	sb.mu.Lock()
	defer sb.mu.Unlock()

	cur := sb.snap.Load()
	if cur == nil {
		return audio.Errorf(audio.ErrLogic, op, "buffer not loaded")
	}
	frame, err := audio.ConvertTime(position, unit, audio.Frames, cur.Spec)
	if err != nil {
		return err
	}
	if frame < 0 || int64(frame) > cur.Frames() {
		return audio.Errorf(audio.ErrInvalidArg, op, "position %v %v outside %d frames", position, unit, cur.Frames())
	}

	m := audio.Marker{Label: label, Position: uint64(frame)}
	markers := slices.Clone(cur.Markers)
	i, _ := slices.BinarySearchFunc(markers, m.Position, func(e audio.Marker, p uint64) int {
		switch {
		case e.Position < p:
			return -1
		case e.Position > p:
			return 1
		}
		return 0
	})
	markers = slices.Insert(markers, i, m)

	sb.snap.Store(&Snapshot{Data: cur.Data, Spec: cur.Spec, Markers: markers})
	return nil
}

// Snapshot returns the current contents, nil when unloaded.
func (sb *SoundBuffer) Snapshot() *Snapshot { return sb.snap.Load() }

func (sb *SoundBuffer) IsLoaded() bool { return sb.snap.Load() != nil }

func (sb *SoundBuffer) Data() []byte {
	if s := sb.snap.Load(); s != nil {
		return s.Data
	}
	return nil
}

// Size is the PCM length in bytes.
func (sb *SoundBuffer) Size() int { return len(sb.Data()) }

func (sb *SoundBuffer) Spec() audio.Spec {
	if s := sb.snap.Load(); s != nil {
		return s.Spec
	}
	return audio.Spec{}
}

func (sb *SoundBuffer) Frames() int64 {
	if s := sb.snap.Load(); s != nil {
		return s.Frames()
	}
	return 0
}

func (sb *SoundBuffer) Markers() []audio.Marker {
	if s := sb.snap.Load(); s != nil {
		return s.Markers
	}
	return nil
}
