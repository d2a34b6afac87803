// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"log/slog"

	"github.com/ik5/audmix/audio"
)

type options struct {
	inMemory bool
	quality  audio.Quality
	registry *audio.Registry
	logger   *slog.Logger
}

// Option configures Open and OpenMem.
type Option func(*options)

// InMemory makes Open read the whole file before decoding.
func InMemory() Option {
	return func(o *options) { o.inMemory = true }
}

// WithResampleQuality selects the resampler used when the source rate
// differs from the target rate.
func WithResampleQuality(q audio.Quality) Option {
	return func(o *options) { o.quality = q }
}

// WithRegistry replaces DefaultRegistry as the source of format decoders.
func WithRegistry(r *audio.Registry) Option {
	return func(o *options) { o.registry = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{quality: audio.QualityCubic}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "decoder")
	return o
}
