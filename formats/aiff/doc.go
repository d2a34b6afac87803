// SPDX-License-Identifier: EPL-2.0

// Package aiff decodes AIFF files with github.com/go-audio/aiff.
//
// Signed integer PCM at 8, 16, 24 and 32 bits is supported, in any channel
// count and sample rate:
//
//	f, _ := os.Open("audio.aif")
//	src, err := aiff.Decoder{}.Decode(f)
//
// Returned sources implement audio.Lengther and audio.FrameSeeker. Seeking
// re-reads the header and skips forward, since AIFF carries no index.
package aiff
