// SPDX-License-Identifier: EPL-2.0

package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/internal/logging"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg      config.Config
	logger   *slog.Logger
	logClose io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "audmix",
		Short: "Mix, play and render audio files",
		Long: `audmix - a real-time audio mixer.

Files are decoded (WAV, AIFF, MP3, Ogg Vorbis, FLAC), resampled to the
output rate and mixed through a bus with volume, pan and delay effects.

Commands:
  - play:    play files on the sound card
  - render:  mix files offline into a 16-bit WAV
  - info:    print the format of a file
  - markers: print the cue markers of a WAV file`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { a.teardown() },
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (yaml, toml or json)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "none, error, warn, info or debug (overrides config)")

	root.AddCommand(
		newPlayCmd(a),
		newRenderCmd(a),
		newInfoCmd(a),
		newMarkersCmd(a),
	)
	return root
}

func (a *app) setup(*cobra.Command, []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	c, err := logging.Configure(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logClose = c
	a.logger = slog.Default()
	return nil
}

func (a *app) teardown() {
	if a.logClose != nil {
		_ = a.logClose.Close()
	}
}
