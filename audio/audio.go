// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

type Source interface {
	// SampleRate of the PCM stream in Hz.
	SampleRate() int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames). When n == 0 with err == io.EOF, the stream is finished.
	ReadSamples(dst []float32) (n int, err error)

	BufSize() int

	// Close releases any resources.
	Close() error
}

// FrameSeeker is implemented by sources that can reposition without
// decoding from the start. frame is in the source's own sample rate.
type FrameSeeker interface {
	SeekFrame(frame int64) error
}

// Lengther is implemented by sources that know their length in frames.
// Frames returns -1 when the length cannot be determined.
type Lengther interface {
	Frames() int64
}

// MarkerSource is implemented by sources that carry cue markers.
type MarkerSource interface {
	Markers() []Marker
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs  map[string]Decoder
	aliases map[string]string

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs:  make(map[string]Decoder),
		aliases: make(map[string]string),
		mtx:     &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, d Decoder, extensions ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
	for _, ext := range extensions {
		r.aliases[strings.ToLower(strings.TrimPrefix(ext, "."))] = format
	}
}

func (r *Registry) Get(format string) (Decoder, bool) {
	_, d, ok := r.lookup(format)
	return d, ok
}

// lookup resolves format, an exact key or a case-insensitive extension
// alias, to its registered key.
func (r *Registry) lookup(format string) (string, Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	if d, ok := r.codecs[format]; ok {
		return format, d, true
	}
	key := strings.ToLower(format)
	if d, ok := r.codecs[key]; ok {
		return key, d, true
	}
	if name, ok := r.aliases[key]; ok {
		d, ok := r.codecs[name]
		return name, d, ok
	}
	return "", nil, false
}

// Formats returns the registered format keys in sorted order.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	names := make([]string, 0, len(r.codecs))
	for name := range r.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Detect picks a decoder for header, the first bytes of a stream, falling
// back to the extension of path. It returns the format key used.
func (r *Registry) Detect(header []byte, path string) (string, Decoder, error) {
	if format := Sniff(header); format != "" {
		if name, d, ok := r.lookup(format); ok {
			return name, d, nil
		}
	}

	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
		if name, d, ok := r.lookup(ext); ok {
			return name, d, nil
		}
	}

	return "", nil, Errorf(ErrUnsupported, "audio.Registry.Detect", "no decoder for %q", path)
}

// SniffLen is the number of leading bytes Sniff inspects.
const SniffLen = 12

// Sniff identifies a container by its signature. It returns "" when no
// signature matches.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav"
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return "aiff"
	case bytes.HasPrefix(header, []byte("fLaC")):
		return "flac"
	case bytes.HasPrefix(header, []byte("OggS")):
		return "ogg"
	case bytes.HasPrefix(header, []byte("ID3")):
		return "mp3"
	case len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return "mp3"
	}
	return ""
}
