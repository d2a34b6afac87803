// SPDX-License-Identifier: EPL-2.0

// Package wav reads and writes RIFF/WAVE files on top of
// github.com/go-audio/wav and github.com/go-audio/riff.
//
// The Decoder accepts unsigned 8-bit, signed 16/24/32-bit integer PCM and
// 32/64-bit IEEE float data. Sources it returns implement audio.FrameSeeker,
// audio.Lengther and audio.MarkerSource.
//
//	f, _ := os.Open("drums.wav")
//	src, err := wav.Decoder{}.Decode(f)
//
// ScanMarkers lists the cue points of a file with their labels from the
// LIST/adtl chunk:
//
//	markers, rate, err := wav.ScanMarkers(f)
//
// WriteWAV16 writes a complete 16-bit file to any io.Writer; Writer streams
// float samples to a seekable destination at 16, 24 or 32 bits.
package wav
