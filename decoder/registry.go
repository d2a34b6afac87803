// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"sync"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/formats/aiff"
	"github.com/ik5/audmix/formats/flac"
	"github.com/ik5/audmix/formats/mp3"
	"github.com/ik5/audmix/formats/vorbis"
	"github.com/ik5/audmix/formats/wav"
)

var defaultRegistry = sync.OnceValue(func() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{}, "wave")
	r.Register("aiff", aiff.Decoder{}, "aif", "aifc")
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{}, "oga", "vorbis")
	r.Register("flac", flac.Decoder{})
	return r
})

// DefaultRegistry returns the registry holding every format decoder in
// this module. It is shared; decoders registered on it are seen by every
// later Open.
func DefaultRegistry() *audio.Registry {
	return defaultRegistry()
}
