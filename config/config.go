// SPDX-License-Identifier: EPL-2.0

// Package config loads engine settings from a file and the environment.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/ik5/audmix/audio"
)

// EnvPrefix is prepended to every key read from the environment, e.g.
// AUDMIX_BACKEND or AUDMIX_RESAMPLE_QUALITY.
const EnvPrefix = "AUDMIX"

// Backends accepted by the backend key.
const (
	BackendOto       = "oto"
	BackendPortAudio = "portaudio"
	BackendNull      = "null"
)

type Config struct {
	LogLevel string
	LogFile  string

	Backend      string
	Device       int // portaudio output index, -1 for the default
	SampleRate   int // 0 for the device default
	Channels     int
	BufferFrames int

	ResampleQuality audio.Quality
	PrefetchFrames  int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("loglevel", "info")
	v.SetDefault("logfile", "")
	v.SetDefault("backend", BackendOto)
	v.SetDefault("device", -1)
	v.SetDefault("samplerate", 0)
	v.SetDefault("channels", 2)
	v.SetDefault("bufferframes", 512)
	v.SetDefault("resample.quality", "cubic")
	v.SetDefault("stream.prefetchframes", 16384)
}

// Default returns the built-in configuration, ignoring files and the
// environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		panic(err)
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the file at path, which may be any format viper knows. An
// empty path or a missing file yields the defaults. Environment variables
// override both.
func Load(path string) (Config, error) {
	const op = "config.Load"

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return Config{}, audio.WrapError(audio.ErrFileRead, op, err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (Config, error) {
	q, err := audio.ParseQuality(v.GetString("resample.quality"))
	if err != nil {
		return Config{}, err
	}

	return Config{
		LogLevel:        strings.ToLower(v.GetString("loglevel")),
		LogFile:         v.GetString("logfile"),
		Backend:         strings.ToLower(v.GetString("backend")),
		Device:          v.GetInt("device"),
		SampleRate:      v.GetInt("samplerate"),
		Channels:        v.GetInt("channels"),
		BufferFrames:    v.GetInt("bufferframes"),
		ResampleQuality: q,
		PrefetchFrames:  v.GetInt("stream.prefetchframes"),
	}, nil
}

// Validate checks ranges and enums.
func (c Config) Validate() error {
	const op = "config.Validate"

	switch c.LogLevel {
	case "none", "error", "warn", "info", "debug":
	default:
		return audio.Errorf(audio.ErrInvalidEnum, op, "log level %q", c.LogLevel)
	}

	switch c.Backend {
	case BackendOto, BackendPortAudio, BackendNull:
	default:
		return audio.Errorf(audio.ErrInvalidEnum, op, "backend %q", c.Backend)
	}

	switch {
	case c.SampleRate < 0:
		return audio.Errorf(audio.ErrInvalidArg, op, "sample rate %d", c.SampleRate)
	case c.Channels <= 0 || c.Channels > audio.MaxChannels:
		return audio.Errorf(audio.ErrInvalidArg, op, "channels %d", c.Channels)
	case c.BufferFrames <= 0:
		return audio.Errorf(audio.ErrInvalidArg, op, "buffer frames %d", c.BufferFrames)
	case c.PrefetchFrames < c.BufferFrames:
		return audio.Errorf(audio.ErrInvalidArg, op, "prefetch frames %d below buffer frames %d", c.PrefetchFrames, c.BufferFrames)
	}
	return nil
}
