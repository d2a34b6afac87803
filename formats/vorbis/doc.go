// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis streams with
// github.com/jfreymuth/oggvorbis.
//
// Samples come out as float32 with the stream's own rate and channel count.
// Packets may end in the middle of a frame; the partial frame is held back
// so every ReadSamples call returns whole frames.
//
// Sources decoded from an io.ReadSeeker implement audio.FrameSeeker and
// report their length through audio.Lengther.
package vorbis
