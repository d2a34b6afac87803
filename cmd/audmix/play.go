// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/mixer"
)

// updateInterval is how often the control loop pumps the engine.
const updateInterval = 10 * time.Millisecond

type playFlags struct {
	chainFlags
	stream bool
	tui    bool
}

func newPlayCmd(a *app) *cobra.Command {
	f := &playFlags{}

	cmd := &cobra.Command{
		Use:   "play <audio_file> [audio_file...]",
		Short: "Play files together on the sound card",
		Long: `Play one or more files at the same time through a shared bus.

The backend (oto, portaudio or null) and buffer size come from the config
file. Playback ends when every file has finished, or on Ctrl+C.

Examples:
  audmix play song.mp3
  audmix play drums.wav bass.wav --volume 0.8 --pan 0.3
  audmix play long.flac --stream --tui`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd, a, f, args)
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&f.stream, "stream", false, "decode from disk while playing instead of loading first")
	cmd.Flags().BoolVar(&f.tui, "tui", false, "interactive monitor")
	return cmd
}

func runPlay(cmd *cobra.Command, a *app, f *playFlags, files []string) error {
	e := engine.New(engine.WithConfig(a.cfg), engine.WithLogger(a.logger))
	if err := e.Open(0, 0); err != nil {
		return err
	}
	defer e.Close()

	c, err := buildChain(e, f.chainFlags, f.tui)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	remaining := len(files)
	e.OnFinished.Add(func(uuid.UUID) {
		remaining--
		if remaining == 0 {
			close(done)
		}
	})

	voices, err := playFiles(e, c, files, f.stream, f.loop)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if f.tui {
		return runMonitor(ctx, e, c, voices, files)
	}

	a.logger.Info("playing", "files", len(files), "spec", e.Spec().String())
	ticker := time.NewTicker(updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			fmt.Fprintln(cmd.OutOrStdout(), "done")
			return nil
		case <-ticker.C:
			e.Update()
		}
	}
}

func runMonitor(ctx context.Context, e *engine.Engine, c *chain, voices []*mixer.Voice, files []string) error {
	p := tea.NewProgram(newMonitor(e, c, voices, files), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
