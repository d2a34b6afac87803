// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"log/slog"

	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/device"
)

type options struct {
	cfg    config.Config
	dev    device.Device
	logger *slog.Logger
}

type Option func(*options)

// WithConfig replaces config.Default.
func WithConfig(cfg config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithDevice makes Open use dev instead of the configured backend.
func WithDevice(dev device.Device) Option {
	return func(o *options) { o.dev = dev }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{cfg: config.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "engine")
	return o
}
