// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ik5/audmix/effect"
	"github.com/ik5/audmix/engine"
	"github.com/ik5/audmix/mixer"
)

// chainFlags are the effect settings play and render share.
type chainFlags struct {
	volume   float32
	pan      float32
	delay    time.Duration
	feedback float32
	wet      float32
	loop     bool
}

func (f *chainFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float32Var(&f.volume, "volume", 1, "output gain")
	cmd.Flags().Float32Var(&f.pan, "pan", 0, "stereo position, -1 left to 1 right")
	cmd.Flags().DurationVar(&f.delay, "delay", 0, "echo delay, e.g. 250ms (0 disables)")
	cmd.Flags().Float32Var(&f.feedback, "feedback", 0.4, "echo feedback")
	cmd.Flags().Float32Var(&f.wet, "wet", 0.3, "echo mix")
	cmd.Flags().BoolVar(&f.loop, "loop", false, "loop every file")
}

// chain is the bus every file plays into.
type chain struct {
	bus *mixer.Bus
	pan *effect.Pan
}

// buildChain adds a pan only when asked for one or when the position can
// change later, since a centred constant-power pan costs 3dB.
func buildChain(e *engine.Engine, f chainFlags, interactive bool) (*chain, error) {
	bus, err := e.CreateBus(false, nil)
	if err != nil {
		return nil, err
	}
	if err := bus.SetVolume(f.volume); err != nil {
		return nil, err
	}

	c := &chain{bus: bus}
	if e.Spec().Channels == 2 && (f.pan != 0 || interactive) {
		c.pan = effect.NewPan(f.pan)
		if err := bus.AddEffect(c.pan); err != nil {
			return nil, err
		}
	}

	if f.delay > 0 {
		frames := e.Spec().FramesFor(f.delay)
		if err := bus.AddEffect(effect.NewDelay(uint64(frames), f.feedback, f.wet)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// playFiles starts one voice per file on c. stream plays from disk
// instead of loading the whole file.
func playFiles(e *engine.Engine, c *chain, files []string, stream, loop bool) ([]*mixer.Voice, error) {
	voices := make([]*mixer.Voice, 0, len(files))
	for _, path := range files {
		v, err := startVoice(e, c, path, stream, loop)
		if err != nil {
			return voices, fmt.Errorf("%s: %w", path, err)
		}
		voices = append(voices, v)
	}
	return voices, nil
}

func startVoice(e *engine.Engine, c *chain, path string, stream, loop bool) (*mixer.Voice, error) {
	if stream {
		return e.StreamSound(path, false, c.bus, loop)
	}

	sb, err := e.LoadSound(path)
	if err != nil {
		return nil, err
	}
	// paused until looping is set, so a short sound cannot finish first
	v, err := e.PlaySound(sb, true, c.bus)
	if err != nil {
		return nil, err
	}
	if err := v.SetLooping(loop); err != nil {
		return nil, err
	}
	return v, v.Play()
}
