// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package engine

import (
	"log/slog"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/device"
)

func newPortAudio(int, *slog.Logger) (device.Device, error) {
	return nil, audio.Errorf(audio.ErrUnsupported, "engine.Open", "built without portaudio, rebuild with -tags portaudio")
}
