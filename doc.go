// SPDX-License-Identifier: EPL-2.0

// Package audmix is a small audio engine: it decodes sound files, mixes
// any number of voices through a tree of buses with per-node effects, and
// hands the mix to an output device.
//
// Most programs use the engine package, which owns a device and a mix
// graph and exposes handles for sounds, voices and buses:
//
//	e := engine.New()
//	if err := e.Open(0, 0); err != nil {
//		return err
//	}
//	defer e.Close()
//
//	sound, _ := e.LoadSound("music.ogg")
//	voice, _ := e.PlaySound(sound, false, nil)
//
// The building blocks live in their own packages:
//   - audio: sample formats, specs, sources, resampling and channel mapping
//   - formats/...: WAV, AIFF, FLAC, MP3 and Ogg Vorbis decoders
//   - decoder: format sniffing and conversion into a target spec
//   - mixer: the graph of buses and voices, sound buffers and streaming
//   - effect: volume, pan and delay
//   - device: the null, oto and PortAudio output backends
//
// This package holds the one-shot helpers for turning a whole source or
// file into 16-bit PCM, for callers that just need samples:
//
//	pcm, err := audmix.DecodeFile("prompt.mp3", 8000, 1)
//
// DecodeToPCM16 does the same for an audio.Source built by hand, with a
// choice of resampling quality.
package audmix
