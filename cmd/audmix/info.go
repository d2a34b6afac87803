// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audmix/audio"
	"github.com/ik5/audmix/decoder"
	"github.com/ik5/audmix/formats/wav"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <audio_file> [audio_file...]",
		Short: "Print format, spec and length of files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				if err := printInfo(cmd, a, path); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func printInfo(cmd *cobra.Command, a *app, path string) error {
	// decode at float32 stereo 48k only to learn the source; nothing is read
	target := audio.Spec{Freq: 48000, Channels: 2, Format: audio.Float32}
	dec, err := decoder.Open(path, target, decoder.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer dec.Close()

	src := dec.SourceSpec()
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n", path)
	fmt.Fprintf(w, "  format:   %s\n", dec.Format())
	fmt.Fprintf(w, "  rate:     %d Hz\n", src.Freq)
	fmt.Fprintf(w, "  channels: %d\n", src.Channels)

	if frames := dec.Frames(); frames >= 0 {
		d := time.Duration(frames) * time.Second / time.Duration(target.Freq)
		native := frames * int64(src.Freq) / int64(target.Freq)
		fmt.Fprintf(w, "  frames:   %d\n", native)
		fmt.Fprintf(w, "  length:   %s\n", d.Truncate(time.Millisecond))
		fmt.Fprintf(w, "  pcm16:    %d bytes\n", native*int64(src.Channels)*2)
	} else {
		fmt.Fprintf(w, "  length:   unknown\n")
	}
	if n := len(dec.Markers()); n > 0 {
		fmt.Fprintf(w, "  markers:  %d\n", n)
	}
	return nil
}

func newMarkersCmd(*app) *cobra.Command {
	var unit string

	cmd := &cobra.Command{
		Use:   "markers <file.wav>",
		Short: "Print the cue markers of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := parseUnit(unit)
			if err != nil {
				return err
			}
			return printMarkers(cmd, args[0], u)
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "ms", "position unit: frames, ms or us")
	return cmd
}

func parseUnit(s string) (audio.TimeUnit, error) {
	for _, u := range []audio.TimeUnit{audio.Frames, audio.Millis, audio.Micros} {
		if s == u.String() {
			return u, nil
		}
	}
	return 0, audio.Errorf(audio.ErrInvalidEnum, "markers", "unit %q", s)
}

func printMarkers(cmd *cobra.Command, path string, unit audio.TimeUnit) error {
	f, err := os.Open(path)
	if err != nil {
		return audio.WrapError(audio.ErrFileOpen, "markers", err)
	}
	defer f.Close()

	markers, rate, err := wav.ScanMarkers(f)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(markers) == 0 {
		fmt.Fprintf(w, "%s: no markers\n", path)
		return nil
	}

	spec := audio.Spec{Freq: rate, Channels: 1, Format: audio.Int16}
	for _, m := range markers {
		pos, err := audio.ConvertTime(float64(m.Position), audio.Frames, unit, spec)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%12.3f %-6s %s\n", pos, unit, m.Label)
	}
	return nil
}
