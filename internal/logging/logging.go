// SPDX-License-Identifier: EPL-2.0

// Package logging sets up the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ik5/audmix/audio"
)

// ParseLevel maps a level name to a slog level. "none" reports ok=false.
func ParseLevel(level string) (lvl slog.Level, ok bool, err error) {
	switch strings.ToLower(level) {
	case "none":
		return 0, false, nil
	case "error":
		return slog.LevelError, true, nil
	case "warn":
		return slog.LevelWarn, true, nil
	case "info", "":
		return slog.LevelInfo, true, nil
	case "debug":
		return slog.LevelDebug, true, nil
	}
	return 0, false, audio.Errorf(audio.ErrInvalidEnum, "logging.ParseLevel", "unexpected log level %q", level)
}

// Configure installs the default logger. Text goes to stderr, or JSON to
// file when it is set. The returned closer is nil unless a file was
// opened.
func Configure(level, file string) (io.Closer, error) {
	lvl, ok, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if !ok {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return nil, nil
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if file == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
		return nil, nil
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, audio.WrapError(audio.ErrFileOpen, "logging.Configure", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(f, opts)))
	return f, nil
}
