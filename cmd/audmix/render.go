// SPDX-License-Identifier: EPL-2.0

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ik5/audmix/config"
	"github.com/ik5/audmix/device"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/formats/wav"
)

type renderFlags struct {
	chainFlags
	out     string
	seconds float64
	rate    int
	block   int
}

func newRenderCmd(a *app) *cobra.Command {
	f := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render <audio_file> [audio_file...] -o out.wav",
		Short: "Mix files offline into a 16-bit WAV",
		Long: `Mix files through the same graph play uses, without a sound card,
and write the result as 16-bit PCM.

Without --seconds rendering stops once every file has finished, plus a
tail for the delay. Looping files need --seconds.

Examples:
  audmix render drums.wav bass.flac -o mix.wav
  audmix render voice.mp3 --delay 300ms --pan -0.5 -o echo.wav
  audmix render loop.ogg --loop --seconds 30 -o long.wav`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, f, args)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVarP(&f.out, "output", "o", "", "output WAV file")
	cmd.Flags().Float64Var(&f.seconds, "seconds", 0, "length to render (0 until all files finish)")
	cmd.Flags().IntVar(&f.rate, "rate", 0, "output sample rate (0 for config, then 48000)")
	cmd.Flags().IntVar(&f.block, "block", 1024, "frames per mix cycle")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, f *renderFlags, files []string) error {
	if f.loop && f.seconds <= 0 {
		return errors.New("--loop needs --seconds")
	}

	rate := f.rate
	if rate == 0 {
		rate = a.cfg.SampleRate
	}

	cfg := a.cfg
	cfg.Backend = config.BackendNull
	dev := device.NewNull(rate)

	e := engine.New(engine.WithConfig(cfg), engine.WithDevice(dev), engine.WithLogger(a.logger))
	if err := e.Open(rate, f.block); err != nil {
		return err
	}
	defer e.Close()

	c, err := buildChain(e, f.chainFlags, false)
	if err != nil {
		return err
	}

	finished := 0
	e.OnFinished.Add(func(uuid.UUID) { finished++ })

	voices, err := playFiles(e, c, files, false, f.loop)
	if err != nil {
		return err
	}

	spec := e.Spec()
	total := int64(-1)
	if f.seconds > 0 {
		total = spec.FramesFor(time.Duration(f.seconds * float64(time.Second)))
	}
	tail := spec.FramesFor(4 * f.delay)

	out, err := os.Create(f.out)
	if err != nil {
		return err
	}
	defer out.Close()

	w, err := wav.NewWriter(out, spec.Freq, spec.Channels, 16)
	if err != nil {
		return err
	}

	var written int64
	for total < 0 || written < total {
		frames := f.block
		if total >= 0 {
			frames = int(min(int64(frames), total-written))
		}
		if err := w.Write(dev.Render(frames)); err != nil {
			return err
		}
		written += int64(frames)

		e.Update()
		if total < 0 && finished == len(voices) {
			if tail <= 0 {
				break
			}
			tail -= int64(frames)
		}
	}

	if err := w.Close(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d frames, %s, %.2fs\n",
		f.out, written, spec, float64(written)/float64(spec.Freq))
	return nil
}
