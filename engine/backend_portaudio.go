// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package engine

import (
	"log/slog"

	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/device/portaudio"
)

func newPortAudio(index int, logger *slog.Logger) (device.Device, error) {
	return portaudio.New(index, logger), nil
}
