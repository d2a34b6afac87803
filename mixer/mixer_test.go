// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"log/slog"
	"math"
	"testing"

	"github.com/ik5/audmix/audio"
)

var testSpec = audio.Spec{Freq: 48000, Channels: 2, Format: audio.Float32}

func newTestGraph(t testing.TB, frames int) *Graph {
	t.Helper()

	g, err := NewGraph(testSpec, frames, WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("NewGraph() error = %v", err)
	}
	t.Cleanup(g.Close)
	return g
}

// pcm encodes interleaved samples as native float32 bytes.
func pcm(t testing.TB, samples []float32) []byte {
	t.Helper()

	b := make([]byte, len(samples)*4)
	if err := audio.ConvertFromFloat32(samples, b, audio.Float32); err != nil {
		t.Fatalf("ConvertFromFloat32() error = %v", err)
	}
	return b
}

func newTestBuffer(t testing.TB, samples []float32) *SoundBuffer {
	t.Helper()

	sb := NewSoundBuffer()
	if err := sb.Emplace(pcm(t, samples), testSpec); err != nil {
		t.Fatalf("Emplace() error = %v", err)
	}
	return sb
}

func playBuffer(t testing.TB, g *Graph, sb *SoundBuffer, parent *Bus, paused bool) *Voice {
	t.Helper()

	v, err := g.PlayBuffer(sb, parent, paused)
	if err != nil {
		t.Fatalf("PlayBuffer() error = %v", err)
	}
	return v
}

func mix(g *Graph, frames int) []float32 {
	out := make([]float32, frames*g.Spec().Channels)
	g.Mix(out, frames)
	return out
}

// frame returns channel 0 of frame f.
func frame(out []float32, f int) float32 {
	return out[f*testSpec.Channels]
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-6
}
