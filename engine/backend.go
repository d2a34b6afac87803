// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"log/slog"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/device/oto"
)

func newDevice(cfg config.Config, logger *slog.Logger) (device.Device, error) {
	switch cfg.Backend {
	case config.BackendNull:
		return device.NewNull(cfg.SampleRate), nil
	case config.BackendOto:
		return oto.New(logger), nil
	case config.BackendPortAudio:
		return newPortAudio(cfg.Device, logger)
	}
	return nil, audio.Errorf(audio.ErrInvalidEnum, "engine.Open", "backend %q", cfg.Backend)
}
