// SPDX-License-Identifier: EPL-2.0

package mixer

import "log/slog"

// DefaultPrefetchFrames is the stream ring size in frames.
const DefaultPrefetchFrames = 16384

type options struct {
	logger         *slog.Logger
	prefetchFrames int
	queueCapacity  int
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPrefetchFrames sets how far stream voices decode ahead.
func WithPrefetchFrames(frames int) Option {
	return func(o *options) {
		if frames > 0 {
			o.prefetchFrames = frames
		}
	}
}

// WithQueueCapacity presizes the command queue.
func WithQueueCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.queueCapacity = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		prefetchFrames: DefaultPrefetchFrames,
		queueCapacity:  256,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "mixer")
	return o
}
